package load

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/meta"
	"github.com/vango-go/pageload/pkg/routetree"
)

// Result is the outcome of a loader: Success, NotFound or Redirect.
type Result interface {
	isResult()
}

// Success carries the props for the page component and optional head
// metadata.
type Success struct {
	Props any
	Meta  *meta.Meta
}

// NotFound asks the caller to render the not-found page.
type NotFound struct{}

// Redirect asks the caller to navigate to To instead of rendering.
type Redirect struct {
	To string
}

func (Success) isResult()  {}
func (NotFound) isResult() {}
func (Redirect) isResult() {}

// Match calls the handler for res's case and returns its value.
// It panics on a nil Result, which no loader may return.
func Match[R any](
	res Result,
	onSuccess func(Success) R,
	onNotFound func(NotFound) R,
	onRedirect func(Redirect) R,
) R {
	switch r := res.(type) {
	case Success:
		return onSuccess(r)
	case NotFound:
		return onNotFound(r)
	case Redirect:
		return onRedirect(r)
	default:
		panic(fmt.Sprintf("load: unknown result %T", res))
	}
}

// Kind returns "success", "notFound" or "redirect".
func Kind(res Result) string {
	return Match(res,
		func(Success) string { return "success" },
		func(NotFound) string { return "notFound" },
		func(Redirect) string { return "redirect" },
	)
}

// Head returns the head tags for res. Only Success results carry meta.
func Head(res Result) []meta.Tag {
	return Match(res,
		func(s Success) []meta.Tag { return meta.Resolve(s.Meta) },
		func(NotFound) []meta.Tag { return nil },
		func(Redirect) []meta.Tag { return nil },
	)
}

// DecodeProps converts a Success's props into T. Props decoded from a
// payload are json.RawMessage; props produced in-process are converted
// through JSON unless they already have type T.
func DecodeProps[T any](s Success) (T, error) {
	var out T
	switch p := s.Props.(type) {
	case T:
		return p, nil
	case json.RawMessage:
		err := json.Unmarshal(p, &out)
		return out, err
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return out, err
		}
		err = json.Unmarshal(data, &out)
		return out, err
	}
}

// Loader produces the Result for a matched route. A returned error is a
// loader failure, distinct from a NotFound result.
type Loader func(ctx context.Context, r *http.Request, params routetree.Params) (Result, error)

// Invoke runs loader and normalizes its failure modes: errors are wrapped
// as E110 and a nil Result is reported as a failure.
func Invoke(ctx context.Context, loader Loader, r *http.Request, params routetree.Params) (Result, error) {
	res, err := loader(ctx, r, params)
	if err != nil {
		return nil, perrors.FromError(err, "E110")
	}
	if res == nil {
		return nil, perrors.New("E110").WithDetail("loader returned no result")
	}
	return res, nil
}

// Marker is the query parameter that requests the JSON payload.
const Marker = ".get"

// IsLoaderRequest reports whether r asks for the JSON payload.
func IsLoaderRequest(r *http.Request) bool {
	return r.URL.Query().Has(Marker)
}

// WithoutMarker returns a copy of q without the payload marker.
func WithoutMarker(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		if k != Marker {
			out[k] = v
		}
	}
	return out
}
