package routepath

import (
	"fmt"
	"strings"
)

// Route identifiers produced by file discovery look like
// "app/routes/posts/[id].go". Normalize turns them into route paths.
const (
	DefaultPrefix    = "app/routes"
	DefaultExtension = ".go"
)

// Normalize converts a raw route identifier into a canonical route path:
// the prefix and extension are stripped, and a trailing "/index" segment
// collapses to its parent ("/index" itself becomes "/").
//
//	Normalize("app/routes/index.go", "app/routes", ".go")       → "/"
//	Normalize("app/routes/about/index.go", "app/routes", ".go") → "/about"
//	Normalize("app/routes/posts/[id].go", "app/routes", ".go")  → "/posts/[id]"
func Normalize(raw, prefix, ext string) (string, error) {
	base, ok := strings.CutPrefix(raw, prefix)
	// The prefix must end on a segment boundary.
	if ok && prefix != "" && !strings.HasSuffix(prefix, "/") && base != "" && base[0] != '/' {
		ok = false
	}
	if !ok {
		return "", fmt.Errorf("%w: %q is outside %q", ErrInvalidPath, raw, prefix)
	}
	base, ok = strings.CutSuffix(base, ext)
	if !ok {
		return "", fmt.Errorf("%w: %q does not end in %q", ErrInvalidPath, raw, ext)
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}

	if base == "/index" {
		return "/", nil
	}
	if parent, ok := strings.CutSuffix(base, "/index"); ok {
		return parent, nil
	}
	return base, nil
}
