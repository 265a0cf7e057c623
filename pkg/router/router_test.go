package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/routetree"
)

// named returns a page component and loader that identify themselves.
func named(name string) Entry {
	return Entry{
		Page: page.ComponentFunc(func(_ context.Context, w io.Writer, _ page.Props) error {
			_, err := io.WriteString(w, name)
			return err
		}),
		Load: func(context.Context, *http.Request, routetree.Params) (load.Result, error) {
			return load.Success{Props: name}, nil
		},
	}
}

func pageOnly(name string) Entry {
	e := named(name)
	e.Load = nil
	return e
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// identify renders the matched page and returns what it wrote.
func identify(t *testing.T, c page.Component) string {
	t.Helper()
	var b stringsBuilder
	if err := c.Render(context.Background(), &b, page.Props{}); err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type stringsBuilder []byte

func (s *stringsBuilder) Write(p []byte) (int, error) {
	*s = append(*s, p...)
	return len(p), nil
}

func loaderName(t *testing.T, l load.Loader) string {
	t.Helper()
	res, err := l(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return res.(load.Success).Props.(string)
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	r, err := New(map[string]Entry{
		"app/routes/index.go":            named("home"),
		"app/routes/about/index.go":      pageOnly("about"),
		"app/routes/posts/latest.go":     pageOnly("latest"),
		"app/routes/posts/[id].go":       named("post"),
		"app/routes/files/[...rest].go":  named("files"),
		"app/routes/users/[id]/edit.go":  named("edit"),
		"app/routes/users/[id]/index.go": named("user"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestResolvePage(t *testing.T) {
	r := testRouter(t)
	tests := []struct {
		url     string
		want    string
		pattern string
		params  routetree.Params
	}{
		{"/", "home", "/", routetree.Params{}},
		{"", "home", "/", routetree.Params{}},
		{"/about", "about", "/about", routetree.Params{}},
		{"/about/", "about", "/about", routetree.Params{}},
		{"/posts/latest", "latest", "/posts/latest", routetree.Params{}},
		{"/posts/42", "post", "/posts/[id]", routetree.Params{"id": routetree.NamedParam("42")}},
		{"/posts//42?x=1", "post", "/posts/[id]", routetree.Params{"id": routetree.NamedParam("42")}},
		{"/posts/hello%20world", "post", "/posts/[id]", routetree.Params{"id": routetree.NamedParam("hello world")}},
		{"/files/a/b/c", "files", "/files/[...rest]", routetree.Params{"rest": routetree.CatchAllParam("a", "b", "c")}},
		{"/files/a%2Fb", "files", "/files/[...rest]", routetree.Params{"rest": routetree.CatchAllParam("a/b")}},
		{"/users/7", "user", "/users/[id]", routetree.Params{"id": routetree.NamedParam("7")}},
		{"/users/7/edit", "edit", "/users/[id]/edit", routetree.Params{"id": routetree.NamedParam("7")}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			m, ok := r.ResolvePage(mustParse(t, tt.url))
			if !ok {
				t.Fatalf("ResolvePage(%q) found nothing", tt.url)
			}
			if got := identify(t, m.Page); got != tt.want {
				t.Errorf("page = %q, want %q", got, tt.want)
			}
			if m.Pattern != tt.pattern {
				t.Errorf("pattern = %q, want %q", m.Pattern, tt.pattern)
			}
			if diff := cmp.Diff(tt.params, m.Params, cmp.AllowUnexported(routetree.Param{})); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolvePageMisses(t *testing.T) {
	r := testRouter(t)
	for _, raw := range []string{
		"/nope",
		"/posts",
		"/files",
		"/posts/42/comments",
		"/posts/a%2Fb", // encoded slash in a named segment
		"/../etc/passwd",
	} {
		if m, ok := r.ResolvePage(mustParse(t, raw)); ok {
			t.Errorf("ResolvePage(%q) = %s, want no match", raw, m.Pattern)
		}
	}
}

func TestEncodedSlashFallsBackToCatchAll(t *testing.T) {
	r, err := New(map[string]Entry{
		"app/routes/docs/[id].go":      named("doc"),
		"app/routes/docs/[...path].go": named("docs"),
	})
	if err != nil {
		t.Fatal(err)
	}

	m, ok := r.Resolve(mustParse(t, "/docs/a%2Fb"))
	if !ok {
		t.Fatalf("Resolve(%s) found nothing", "/docs/a%2Fb")
	}
	if m.Pattern != "/docs/[...path]" {
		t.Errorf("pattern = %q, want /docs/[...path]", m.Pattern)
	}
	if diff := cmp.Diff([]string{"a/b"}, m.Params.List("path")); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	if got := loaderName(t, m.Load); got != "docs" {
		t.Errorf("loader = %q, want docs", got)
	}

	lm, ok := r.ResolveLoader(mustParse(t, "/docs/a%2Fb"))
	if !ok || lm.Pattern != "/docs/[...path]" {
		t.Errorf("ResolveLoader = %q, %v", lm.Pattern, ok)
	}
	if m, ok := r.ResolvePage(mustParse(t, "/docs/one")); !ok || m.Pattern != "/docs/[id]" {
		t.Errorf("ResolvePage(/docs/one) = %q, %v", m.Pattern, ok)
	}
}

func TestResolveLoader(t *testing.T) {
	r := testRouter(t)

	m, ok := r.ResolveLoader(mustParse(t, "/posts/42"))
	if !ok {
		t.Fatal("ResolveLoader(/posts/42) found nothing")
	}
	if got := loaderName(t, m.Load); got != "post" {
		t.Errorf("loader = %q, want post", got)
	}

	// The literal route has no loader; it must not fall back to [id]'s.
	if _, ok := r.ResolveLoader(mustParse(t, "/posts/latest")); ok {
		t.Error("ResolveLoader(/posts/latest) matched a loader")
	}
	full, ok := r.Resolve(mustParse(t, "/posts/latest"))
	if !ok || full.Load != nil || identify(t, full.Page) != "latest" {
		t.Errorf("Resolve(/posts/latest) = %+v, %v", full, ok)
	}
}

func TestRoutes(t *testing.T) {
	r := testRouter(t)
	var paths []string
	for _, rt := range r.Routes() {
		paths = append(paths, rt.Path)
	}
	want := []string{"/", "/about", "/files/[...rest]", "/posts/[id]", "/posts/latest", "/users/[id]", "/users/[id]/edit"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Routes() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewConflicts(t *testing.T) {
	tests := []struct {
		name     string
		entries  map[string]Entry
		code     string
		sentinel error
	}{
		{
			name: "index collapse duplicates",
			entries: map[string]Entry{
				"app/routes/about.go":       named("a"),
				"app/routes/about/index.go": named("b"),
			},
			code:     "E100",
			sentinel: routetree.ErrDuplicatePath,
		},
		{
			name: "shared named slot",
			entries: map[string]Entry{
				"app/routes/posts/[id].go":   named("a"),
				"app/routes/posts/[slug].go": named("b"),
			},
			code:     "E101",
			sentinel: routetree.ErrSharedPath,
		},
		{
			name: "malformed segment",
			entries: map[string]Entry{
				"app/routes/posts/[id.go": named("a"),
			},
			code:     "E102",
			sentinel: routetree.ErrInvalidPath,
		},
		{
			name: "missing page",
			entries: map[string]Entry{
				"app/routes/x.go": {},
			},
			code:     "E102",
			sentinel: routetree.ErrInvalidPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			if err == nil {
				t.Fatal("New() error = nil")
			}
			if got := perrors.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
		})
	}
}

func TestNewDuplicateNamesBothIdentifiers(t *testing.T) {
	_, err := New(map[string]Entry{
		"app/routes/about.go":       named("a"),
		"app/routes/about/index.go": named("b"),
	})
	var pe *perrors.Error
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a coded error", err)
	}
	if pe.Route != "app/routes/about/index.go" || pe.Existing != "app/routes/about.go" {
		t.Errorf("route/existing = %q/%q", pe.Route, pe.Existing)
	}
}

func TestNewOutsidePrefix(t *testing.T) {
	_, err := New(map[string]Entry{"src/pages/x.go": named("x")})
	if perrors.CodeOf(err) != "E102" {
		t.Errorf("New() error = %v, want E102", err)
	}

	r, err := New(map[string]Entry{"src/pages/x.tsx": named("x")}, WithPrefix("src/pages"), WithExtension(".tsx"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.ResolvePage(mustParse(t, "/x")); !ok {
		t.Error("custom prefix route not found")
	}
}

func TestNotFound(t *testing.T) {
	r := testRouter(t)
	if got := identify(t, r.NotFound()); !strings.Contains(got, "404") {
		t.Errorf("default NotFound() rendered %q", got)
	}
	custom := page.ComponentFunc(func(_ context.Context, w io.Writer, _ page.Props) error {
		_, err := io.WriteString(w, "custom")
		return err
	})
	r2, err := New(nil, WithNotFound(custom))
	if err != nil {
		t.Fatal(err)
	}
	if got := identify(t, r2.NotFound()); got != "custom" {
		t.Errorf("NotFound() rendered %q, want custom", got)
	}
	if _, ok := r2.ResolvePage(mustParse(t, "/")); ok {
		t.Error("empty router matched /")
	}
}

func TestOrderIndependence(t *testing.T) {
	// Map iteration order varies between runs; building repeatedly must
	// always resolve the same way.
	for i := 0; i < 20; i++ {
		r := testRouter(t)
		m, ok := r.ResolvePage(mustParse(t, "/posts/latest"))
		if !ok || identify(t, m.Page) != "latest" {
			t.Fatalf("build %d resolved /posts/latest to %+v", i, m)
		}
	}
}
