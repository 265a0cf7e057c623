// Package load defines the loader contract shared by the server render and
// client-side navigations.
//
// A Loader runs for a matched route and returns exactly one Result:
//
//	Success{Props: …, Meta: …}  render the page with Props, apply Meta
//	NotFound{}                  render the not-found page, no meta
//	Redirect{To: "/login"}      navigate elsewhere, render nothing
//
// Result is a closed set. Consumers dispatch with Match, which takes one
// handler per case, rather than type-switching on their own:
//
//	html := load.Match(res,
//	    func(s load.Success) string { return renderPage(s.Props) },
//	    func(load.NotFound) string { return render404() },
//	    func(r load.Redirect) string { return redirectTo(r.To) },
//	)
//
// The same Result crosses the server/client boundary as JSON. Encode and
// Decode define that payload; a request carrying the Marker query
// parameter asks the server for the payload instead of the rendered page.
package load
