package router

import (
	"net/url"
	"sort"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/routepath"
	"github.com/vango-go/pageload/pkg/routetree"
)

// Entry is the handler pair registered for one route.
type Entry struct {
	// Load produces the route's result. Routes without a loader render
	// their page with nil props.
	Load load.Loader

	// Page renders the route. It is required.
	Page page.Component
}

// Route describes one registered route.
type Route struct {
	// Path is the canonical route path (e.g., "/posts/[id]").
	Path string

	// ID is the raw identifier the route was registered under.
	ID string

	// HasLoader reports whether the route has a loader.
	HasLoader bool
}

// Match is a resolved route.
type Match struct {
	Pattern string
	Params  routetree.Params
	Load    load.Loader
	Page    page.Component
}

// LoaderMatch is the result of ResolveLoader.
type LoaderMatch struct {
	Pattern string
	Params  routetree.Params
	Load    load.Loader
}

// PageMatch is the result of ResolvePage.
type PageMatch struct {
	Pattern string
	Params  routetree.Params
	Page    page.Component
}

// Option configures a Router.
type Option func(*options)

type options struct {
	prefix   string
	ext      string
	notFound page.Component
}

// WithPrefix sets the prefix stripped from raw identifiers.
// Defaults to routepath.DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithExtension sets the extension stripped from raw identifiers.
// Defaults to routepath.DefaultExtension.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.ext = ext
	}
}

// WithNotFound sets the fallback page for unmatched routes and NotFound
// results. Defaults to page.DefaultFallback.
func WithNotFound(c page.Component) Option {
	return func(o *options) {
		o.notFound = c
	}
}

// Router resolves URLs against the loader and page trees.
type Router struct {
	loaders  *routetree.Node[load.Loader]
	pages    *routetree.Node[page.Component]
	routes   []Route
	notFound page.Component
}

// New builds a Router from entries keyed by raw route identifier.
func New(entries map[string]Entry, opts ...Option) (*Router, error) {
	o := options{
		prefix:   routepath.DefaultPrefix,
		ext:      routepath.DefaultExtension,
		notFound: page.DefaultFallback,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router{
		loaders:  routetree.NewNode[load.Loader](""),
		pages:    routetree.NewNode[page.Component](""),
		notFound: o.notFound,
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	byPath := make(map[string]string, len(ids))
	for _, id := range ids {
		entry := entries[id]

		path, err := routepath.Normalize(id, o.prefix, o.ext)
		if err != nil {
			return nil, perrors.New("E102").WithRoute(id).Wrap(err)
		}
		if entry.Page == nil {
			return nil, perrors.New("E102").
				WithRoute(id).
				WithDetail("The route has no page component.").
				Wrap(routetree.ErrInvalidPath)
		}
		if prev, dup := byPath[path]; dup {
			return nil, perrors.New("E100").
				WithRoute(id).
				WithExisting(prev).
				WithDetail("Both identifiers normalize to " + path + ".").
				Wrap(routetree.ErrDuplicatePath)
		}
		byPath[path] = id

		// Both trees get every path, so a literal route without a loader
		// still shadows a dynamic sibling that has one.
		segs := routetree.Split(path)
		if err := r.pages.Insert(segs, entry.Page); err != nil {
			return nil, err
		}
		if err := r.loaders.Insert(segs, entry.Load); err != nil {
			return nil, err
		}
		r.routes = append(r.routes, Route{Path: path, ID: id, HasLoader: entry.Load != nil})
	}

	sort.Slice(r.routes, func(i, j int) bool { return r.routes[i].Path < r.routes[j].Path })
	return r, nil
}

// Resolve matches u against the route table.
func (r *Router) Resolve(u *url.URL) (Match, bool) {
	segs, ok := segments(u)
	if !ok {
		return Match{}, false
	}
	pm, ok := r.pages.MatchSegments(segs)
	if !ok {
		return Match{}, false
	}
	lm, _ := r.loaders.MatchSegments(segs)
	return Match{Pattern: pm.Pattern, Params: pm.Params, Load: lm.Value, Page: pm.Value}, true
}

// ResolveLoader returns the loader for u. It reports false when no route
// matches or the matched route has no loader.
func (r *Router) ResolveLoader(u *url.URL) (LoaderMatch, bool) {
	segs, ok := segments(u)
	if !ok {
		return LoaderMatch{}, false
	}
	m, ok := r.loaders.MatchSegments(segs)
	if !ok || m.Value == nil {
		return LoaderMatch{}, false
	}
	return LoaderMatch{Pattern: m.Pattern, Params: m.Params, Load: m.Value}, true
}

// ResolvePage returns the page component for u.
func (r *Router) ResolvePage(u *url.URL) (PageMatch, bool) {
	segs, ok := segments(u)
	if !ok {
		return PageMatch{}, false
	}
	m, ok := r.pages.MatchSegments(segs)
	if !ok {
		return PageMatch{}, false
	}
	return PageMatch{Pattern: m.Pattern, Params: m.Params, Page: m.Value}, true
}

// Routes returns the registered routes sorted by path.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// NotFound returns the fallback page.
func (r *Router) NotFound() page.Component {
	return r.notFound
}

// segments canonicalizes and decodes u's path. Paths that cannot be
// canonicalized match nothing.
func segments(u *url.URL) ([]string, bool) {
	res, err := routepath.CanonicalizePath(u.EscapedPath())
	if err != nil {
		return nil, false
	}
	segs, err := routepath.DecodePathSegments(res.Path)
	if err != nil {
		return nil, false
	}
	return segs, true
}
