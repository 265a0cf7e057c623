// Package render writes the HTML documents served for page requests.
//
// A document is assembled from three parts: the resolved head tags of the
// load result, the page body produced by the page component, and the load
// payload embedded for the client so the first view does not fetch again.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	err := r.RenderPage(w, render.PageData{
//	    Head:    load.Head(res),
//	    Body:    func(w io.Writer) error { return page.Render(ctx, w, props) },
//	    Payload: payload,
//	})
//
// All text and attribute values are escaped. The payload is written into a
// script element of type application/json with HTML-significant
// characters escaped, so it cannot terminate the element early.
//
// When the writer implements http.Flusher, the head is flushed before the
// body is rendered.
package render
