package render

import "strings"

var (
	textReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)

	// Attribute values also keep literal line breaks and tabs out of the
	// markup.
	attrReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)

	// Entities are not decoded inside script and style elements. Only "</"
	// can end them, so it is broken up.
	rawTextReplacer = strings.NewReplacer("</", `<\/`)
)

func escapeHTML(s string) string    { return textReplacer.Replace(s) }
func escapeAttr(s string) string    { return attrReplacer.Replace(s) }
func escapeRawText(s string) string { return rawTextReplacer.Replace(s) }
