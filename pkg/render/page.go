package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vango-go/pageload/pkg/meta"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Head holds the resolved head tags, in order.
	Head []meta.Tag

	// Body writes the page content. A nil Body renders an empty body.
	Body func(w io.Writer) error

	// Payload is the encoded load result embedded for the client.
	// Nothing is embedded when it is empty.
	Payload []byte

	// Route is the matched route pattern, exposed to the client as
	// data-route on the body element.
	Route string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<html lang="%s">`+"\n", escapeAttr(r.config.Lang)); err != nil {
		return err
	}

	if err := r.renderHead(w, page.Head); err != nil {
		return err
	}
	flush(w)

	if page.Route != "" {
		if _, err := fmt.Fprintf(w, `<body data-route="%s">`+"\n", escapeAttr(page.Route)); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}

	if page.Body != nil {
		if err := page.Body(w); err != nil {
			return err
		}
	}

	if err := r.renderPayload(w, page.Payload); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<script src="%s" defer></script>`+"\n", escapeAttr(r.config.ClientScript)); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "</body>\n</html>\n"); err != nil {
		return err
	}
	flush(w)
	return nil
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, tags []meta.Tag) error {
	if _, err := io.WriteString(w, "<head>\n"+`  <meta charset="utf-8">`+"\n"); err != nil {
		return err
	}

	// A loader-supplied viewport replaces the default one.
	if !hasNamedMeta(tags, "viewport") {
		if _, err := io.WriteString(w, `  <meta name="viewport" content="width=device-width, initial-scale=1">`+"\n"); err != nil {
			return err
		}
	}

	for _, tag := range tags {
		if _, err := io.WriteString(w, "  "); err != nil {
			return err
		}
		if err := WriteTag(w, tag); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	for _, href := range r.config.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderPayload embeds the load payload as inert JSON.
func (r *Renderer) renderPayload(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var buf bytes.Buffer
	json.HTMLEscape(&buf, payload)

	if _, err := fmt.Fprintf(w, `<script type="application/json" id="%s">`, escapeAttr(r.config.PayloadID)); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</script>\n")
	return err
}

func hasNamedMeta(tags []meta.Tag, name string) bool {
	for _, t := range tags {
		if v, _ := t.Attrs.Get("name"); t.Name == "meta" && v == name {
			return true
		}
	}
	return false
}

func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
