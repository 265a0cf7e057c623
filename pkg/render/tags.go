package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/vango-go/pageload/pkg/meta"
)

// voidElements are elements that cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// rawTextElements hold text that is not parsed as markup.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// WriteTag writes one head tag. Content of void elements is dropped.
func WriteTag(w io.Writer, tag meta.Tag) error {
	name := strings.ToLower(tag.Name)
	if !validName(name) {
		return fmt.Errorf("render: invalid tag name %q", tag.Name)
	}

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range tag.Attrs {
		if !validName(a.Key) {
			return fmt.Errorf("render: invalid attribute name %q on <%s>", a.Key, name)
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		if !a.Bare {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(a.Value))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if !voidElements[name] {
		if rawTextElements[name] {
			b.WriteString(escapeRawText(tag.Content))
		} else {
			b.WriteString(escapeHTML(tag.Content))
		}
		b.WriteString("</")
		b.WriteString(name)
		b.WriteByte('>')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderTags renders tags to a string, one per line.
func RenderTags(tags []meta.Tag) (string, error) {
	var b strings.Builder
	for i, t := range tags {
		if i > 0 {
			b.WriteByte('\n')
		}
		if err := WriteTag(&b, t); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// validName accepts element and attribute names made of ASCII letters,
// digits, '-', '_', ':' and '.', starting with a letter.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_' || c == ':' || c == '.'):
		default:
			return false
		}
	}
	return true
}
