package page

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/meta"
	"github.com/vango-go/pageload/pkg/routetree"
)

// Props is what a Component renders from.
type Props struct {
	// Params are the dynamic segments of the matched route.
	Params routetree.Params

	// Data is Success.Props. After a client fetch it is json.RawMessage;
	// use load.DecodeProps to convert it.
	Data any
}

// Component renders a page body.
type Component interface {
	Render(ctx context.Context, w io.Writer, props Props) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, w io.Writer, props Props) error

// Render calls f.
func (f ComponentFunc) Render(ctx context.Context, w io.Writer, props Props) error {
	return f(ctx, w, props)
}

// HeadUpdater applies resolved head tags to the document.
type HeadUpdater interface {
	SetHead(tags []meta.Tag)
}

// HeadFunc adapts a function to HeadUpdater.
type HeadFunc func(tags []meta.Tag)

// SetHead calls f.
func (f HeadFunc) SetHead(tags []meta.Tag) { f(tags) }

// Navigator performs a navigation requested by a Redirect result.
type Navigator interface {
	Push(to string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to string) error

// Push calls f.
func (f NavigatorFunc) Push(to string) error { return f(to) }

// DefaultFallback is the not-found page used when none is configured.
var DefaultFallback Component = ComponentFunc(func(_ context.Context, w io.Writer, _ Props) error {
	_, err := io.WriteString(w, "<h1>404</h1>\n<p>This page could not be found.</p>\n")
	return err
})

// Outcome is what Present did with a result.
type Outcome int

const (
	OutcomeNone       Outcome = iota
	OutcomeRendered           // the route component rendered
	OutcomeFallback           // the not-found fallback rendered
	OutcomeRedirected         // the navigator was asked to redirect
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeFallback:
		return "fallback"
	case OutcomeRedirected:
		return "redirected"
	default:
		return "none"
	}
}

// Target describes where Present sends a result.
type Target struct {
	Component Component
	Fallback  Component
	Params    routetree.Params
	Head      HeadUpdater
	Navigator Navigator

	// SkipHead leaves the head untouched on Success. The first view of a
	// server-rendered page sets it, since the server already wrote the head.
	SkipHead bool
}

// ErrNoComponent is returned when a Success result has no component to
// render.
var ErrNoComponent = errors.New("page: no component for route")

type presented struct {
	outcome Outcome
	err     error
}

// Present renders res into w according to t.
func Present(ctx context.Context, w io.Writer, res load.Result, t Target) (Outcome, error) {
	p := load.Match(res,
		func(s load.Success) presented {
			if t.Component == nil {
				return presented{OutcomeNone, ErrNoComponent}
			}
			if err := t.Component.Render(ctx, w, Props{Params: t.Params, Data: s.Props}); err != nil {
				return presented{OutcomeNone, fmt.Errorf("page: render: %w", err)}
			}
			if t.Head != nil && !t.SkipHead {
				t.Head.SetHead(meta.Resolve(s.Meta))
			}
			return presented{OutcomeRendered, nil}
		},
		func(load.NotFound) presented {
			fallback := t.Fallback
			if fallback == nil {
				fallback = DefaultFallback
			}
			if err := fallback.Render(ctx, w, Props{Params: t.Params}); err != nil {
				return presented{OutcomeNone, fmt.Errorf("page: render fallback: %w", err)}
			}
			return presented{OutcomeFallback, nil}
		},
		func(r load.Redirect) presented {
			if t.Navigator != nil {
				if err := t.Navigator.Push(r.To); err != nil {
					return presented{OutcomeRedirected, fmt.Errorf("page: redirect to %s: %w", r.To, err)}
				}
			}
			return presented{OutcomeRedirected, nil}
		},
	)
	return p.outcome, p.err
}
