package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/middleware"
	"github.com/vango-go/pageload/pkg/router"
)

// DefaultConcurrency is the number of loaders run at once by default.
const DefaultConcurrency = 4

// Exporter runs loaders and stores their payloads.
type Exporter struct {
	router      *router.Router
	sink        Sink
	concurrency int
	middleware  []middleware.Middleware
	logger      *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithConcurrency bounds the number of loaders run at once.
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMiddleware wraps every loader, outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Exporter) {
		e.middleware = append(e.middleware, mws...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// New creates an Exporter writing to sink.
func New(rt *router.Router, sink Sink, opts ...Option) *Exporter {
	e := &Exporter{
		router:      rt,
		sink:        sink,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report lists what an export wrote.
type Report struct {
	// Written maps each exported path to the object name it was stored
	// under.
	Written map[string]string

	// Failed maps each failed path to its error.
	Failed map[string]error
}

// Paths returns the exported paths in order.
func (r Report) Paths() []string {
	out := make([]string, 0, len(r.Written))
	for p := range r.Written {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// StaticPaths returns the paths of routes without parameters.
func StaticPaths(routes []router.Route) []string {
	var out []string
	for _, r := range routes {
		if !strings.Contains(r.Path, "[") {
			out = append(out, r.Path)
		}
	}
	return out
}

// Export exports paths. Every path is attempted; the returned error, coded
// E130, joins the failures.
func (e *Exporter) Export(ctx context.Context, paths []string) (Report, error) {
	report := Report{
		Written: make(map[string]string),
		Failed:  make(map[string]error),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, p := range paths {
		g.Go(func() error {
			name, err := e.exportOne(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Warn("export failed", "path", p, "err", err)
				report.Failed[p] = err
				return nil
			}
			e.logger.Debug("exported", "path", p, "object", name)
			report.Written[p] = name
			return nil
		})
	}
	_ = g.Wait() // per-path errors are collected in report.Failed

	if len(report.Failed) == 0 {
		return report, nil
	}
	failed := make([]string, 0, len(report.Failed))
	for p := range report.Failed {
		failed = append(failed, p)
	}
	sort.Strings(failed)
	errs := make([]error, 0, len(failed))
	for _, p := range failed {
		errs = append(errs, report.Failed[p])
	}
	return report, perrors.New("E130").
		WithDetail(strings.Join(failed, ", ")).
		Wrap(errors.Join(errs...))
}

func (e *Exporter) exportOne(ctx context.Context, path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", perrors.New("E102").WithRoute(path).Wrap(err)
	}
	m, ok := e.router.Resolve(u)
	if !ok {
		return "", perrors.New("E103").WithRoute(path)
	}

	res := load.Result(load.Success{})
	if m.Load != nil {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u.RequestURI(), nil)
		if err != nil {
			return "", err
		}
		loader := middleware.Chain(m.Pattern, m.Load, e.middleware...)
		res, err = load.Invoke(ctx, loader, r, m.Params)
		if err != nil {
			return "", err
		}
	}

	data, err := load.Encode(res)
	if err != nil {
		return "", perrors.New("E111").WithRoute(path).Wrap(err)
	}
	name := ObjectName(u.Path)
	if err := e.sink.Put(ctx, name, data); err != nil {
		return "", perrors.New("E130").WithRoute(path).Wrap(err)
	}
	return name, nil
}
