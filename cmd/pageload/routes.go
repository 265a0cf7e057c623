package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-go/pageload"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/meta"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/routetree"
)

type post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var posts = map[int]post{
	1: {ID: 1, Title: "Hello", Body: "The first post."},
	2: {ID: 2, Title: "Payloads", Body: "Every page is also a JSON payload."},
	3: {ID: 3, Title: "Prefetch", Body: "Links fetch their payload before they are clicked."},
}

func routes() map[string]pageload.Entry {
	return map[string]pageload.Entry{
		"app/routes/index.go":          {Load: loadIndex, Page: page.ComponentFunc(indexPage)},
		"app/routes/posts/[id].go":     {Load: loadPost, Page: page.ComponentFunc(postPage)},
		"app/routes/posts/latest.go":   {Load: loadLatest, Page: page.DefaultFallback},
		"app/routes/docs/[...path].go": {Page: page.ComponentFunc(docsPage)},
	}
}

// =============================================================================
// Loaders
// =============================================================================

func loadIndex(context.Context, *http.Request, routetree.Params) (load.Result, error) {
	ids := make([]int, 0, len(posts))
	for id := range posts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	list := make([]post, 0, len(ids))
	for _, id := range ids {
		list = append(list, posts[id])
	}
	return load.Success{
		Props: list,
		Meta: &meta.Meta{
			Title:       "Posts",
			Description: "An example pageload site.",
		},
	}, nil
}

func loadPost(_ context.Context, _ *http.Request, params routetree.Params) (load.Result, error) {
	id, err := strconv.Atoi(params.Get("id"))
	if err != nil {
		return load.NotFound{}, nil
	}
	p, ok := posts[id]
	if !ok {
		return load.NotFound{}, nil
	}
	return load.Success{
		Props: p,
		Meta: &meta.Meta{
			Title:     p.Title,
			OpenGraph: &meta.OpenGraph{URL: fmt.Sprintf("/posts/%d", p.ID)},
		},
	}, nil
}

func loadLatest(context.Context, *http.Request, routetree.Params) (load.Result, error) {
	latest := 0
	for id := range posts {
		latest = max(latest, id)
	}
	return load.Redirect{To: fmt.Sprintf("/posts/%d", latest)}, nil
}

// =============================================================================
// Pages
// =============================================================================

func indexPage(_ context.Context, w io.Writer, props page.Props) error {
	list, err := load.DecodeProps[[]post](load.Success{Props: props.Data})
	if err != nil {
		return err
	}
	fmt.Fprint(w, "<h1>Posts</h1><ul>")
	for _, p := range list {
		fmt.Fprintf(w, `<li><a href="/posts/%d">%s</a></li>`, p.ID, html.EscapeString(p.Title))
	}
	_, err = fmt.Fprint(w, `</ul><p><a href="/docs/getting-started">Docs</a></p>`)
	return err
}

func postPage(_ context.Context, w io.Writer, props page.Props) error {
	p, err := load.DecodeProps[post](load.Success{Props: props.Data})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, `<article><h1>%s</h1><p>%s</p></article><a href="/">Back</a>`,
		html.EscapeString(p.Title), html.EscapeString(p.Body))
	return err
}

func docsPage(_ context.Context, w io.Writer, props page.Props) error {
	segments := props.Params.List("path")
	_, err := fmt.Fprintf(w, "<h1>Docs</h1><p>%s</p>", html.EscapeString(strings.Join(segments, " / ")))
	return err
}

var notFoundPage = page.ComponentFunc(func(_ context.Context, w io.Writer, _ page.Props) error {
	_, err := io.WriteString(w, `<h1>Not found</h1><p><a href="/">Home</a></p>`)
	return err
})
