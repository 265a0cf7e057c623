package pageload

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vango-go/pageload/internal/config"
	"github.com/vango-go/pageload/pkg/export"
	"github.com/vango-go/pageload/pkg/live"
	"github.com/vango-go/pageload/pkg/middleware"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/render"
	"github.com/vango-go/pageload/pkg/router"
	"github.com/vango-go/pageload/pkg/server"
)

// =============================================================================
// App Type
// =============================================================================

// Entry is the loader and page registered for one route.
type Entry = router.Entry

// Options configures an App.
type Options struct {
	// Routes maps raw route identifiers (e.g., "app/routes/posts/[id].go")
	// to their handlers.
	Routes map[string]Entry

	// NotFound renders unmatched paths and NotFound results.
	// If nil, page.DefaultFallback is used.
	NotFound page.Component

	// ConfigFile is read instead of looking up pageload.json or
	// pageload.yaml from ConfigDir.
	ConfigFile string

	// ConfigDir is where the configuration lookup starts. The lookup walks
	// up to the first directory holding a config file; when none is found
	// the defaults are used. Default: the working directory.
	ConfigDir string

	// Renderer renders full page documents.
	Renderer *render.Renderer

	// Middleware wraps every loader inside the built-in middleware.
	Middleware []middleware.Middleware

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// App is the main pageload application entry point.
// It owns the route table, the HTTP server, the invalidation hub and the
// payload exporter.
//
// Create an App with pageload.New():
//
//	app, err := pageload.New(pageload.Options{
//	    Routes: map[string]pageload.Entry{
//	        "app/routes/index.go":     {Page: home},
//	        "app/routes/posts/[id].go": {Load: loadPost, Page: post},
//	    },
//	})
type App struct {
	config     *config.Config
	router     *router.Router
	server     *server.Server
	hub        *live.Hub
	middleware []middleware.Middleware
	logger     *slog.Logger
}

// New creates an App. Route conflicts and invalid configuration are
// reported here; an App that was created serves every route it was given.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	routerOpts := []router.Option{
		router.WithPrefix(cfg.Routes.Prefix),
		router.WithExtension(cfg.Routes.Extension),
	}
	if opts.NotFound != nil {
		routerOpts = append(routerOpts, router.WithNotFound(opts.NotFound))
	}
	rt, err := router.New(opts.Routes, routerOpts...)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		router: rt,
		logger: logger,
	}

	a.middleware = []middleware.Middleware{
		middleware.Recover(logger),
		middleware.OpenTelemetry(middleware.WithTracerName("github.com/vango-go/pageload")),
	}
	if cfg.Server.Metrics {
		a.middleware = append(a.middleware, middleware.Prometheus())
	}
	a.middleware = append(a.middleware, middleware.Logging(logger))
	a.middleware = append(a.middleware, opts.Middleware...)

	srvConfig := server.DefaultConfig()
	srvConfig.Address = cfg.Address()
	srvConfig.ShutdownTimeout = cfg.ShutdownTimeout()
	srvConfig.Renderer = opts.Renderer
	srvConfig.Middleware = a.middleware
	srvConfig.Logger = logger
	if cfg.Server.Metrics {
		srvConfig.MetricsPath = cfg.Server.MetricsPath
	}
	if cfg.Server.Live {
		a.hub = live.NewHub(&live.HubConfig{Logger: logger})
		srvConfig.Live = a.hub
	}
	a.server = server.New(rt, srvConfig)

	return a, nil
}

// loadConfig reads the configuration selected by opts.
func loadConfig(opts Options) (*config.Config, error) {
	if opts.ConfigFile != "" {
		return config.LoadFile(opts.ConfigFile)
	}
	dir := opts.ConfigDir
	if dir == "" {
		dir = "."
	}
	root, err := config.FindProjectRoot(dir)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(root)
}

// =============================================================================
// Accessors
// =============================================================================

// Handler returns the HTTP handler serving pages, payloads and, when
// enabled, the metrics and live endpoints.
func (a *App) Handler() http.Handler {
	return a.server
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.server.ServeHTTP(w, r)
}

// Router returns the route table.
func (a *App) Router() *router.Router {
	return a.router
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Hub returns the invalidation hub, or nil when live is disabled.
func (a *App) Hub() *live.Hub {
	return a.hub
}

// =============================================================================
// Operations
// =============================================================================

// Invalidate tells connected listeners that keys changed. It returns the
// number of listeners notified, zero when live is disabled.
func (a *App) Invalidate(keys ...string) (int, error) {
	if a.hub == nil {
		return 0, nil
	}
	return a.hub.Invalidate(keys...)
}

// Export writes the payload of every static route plus the configured
// extra paths to sink.
func (a *App) Export(ctx context.Context, sink export.Sink) (export.Report, error) {
	paths := export.StaticPaths(a.router.Routes())
	paths = append(paths, a.config.Export.Paths...)

	exp := export.New(a.router, sink,
		export.WithConcurrency(a.config.Export.Concurrency),
		export.WithMiddleware(a.middleware...),
		export.WithLogger(a.logger),
	)
	return exp.Export(ctx, dedupe(paths))
}

// Run serves until ctx ends or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.server.Run(ctx)
}

// Close disconnects live listeners.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
