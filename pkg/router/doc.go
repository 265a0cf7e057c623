// Package router resolves URLs to the loader and page component of a
// route.
//
// Routes are supplied as a map from raw route identifiers, as produced by
// file discovery, to an Entry:
//
//	r, err := router.New(map[string]router.Entry{
//	    "app/routes/index.go":          {Page: home},
//	    "app/routes/posts/[id].go":     {Load: loadPost, Page: post},
//	    "app/routes/files/[...rest].go": {Load: loadFiles, Page: files},
//	})
//
// Each identifier is normalized to a route path ("/", "/posts/[id]",
// "/files/[...rest]") and registered in two parallel route trees, one of
// loaders and one of page components. Registration happens in sorted
// identifier order, so the resulting router does not depend on map
// iteration order. Conflicts (a duplicate path, two parameter names at the
// same position, a malformed segment) fail New; a router is never built
// from an inconsistent table.
//
// Both trees are read-only after New returns and are safe for concurrent
// use.
//
// # Matching
//
// Request paths are canonicalized (duplicate slashes, dot segments) and
// percent-decoded before matching. At each segment a literal child is
// preferred over the named child, which is preferred over the catch-all.
// A named parameter never matches a segment containing an encoded slash.
//
// # Discovery
//
// Discover lists route files under a directory of an fs.FS and reports
// which of them export a Load function and a Page component, so a route
// directory can be checked for conflicts before it is compiled in.
package router
