package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vango-go/pageload/pkg/middleware"
	"github.com/vango-go/pageload/pkg/render"
)

// Config holds server configuration.
type Config struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// WriteTimeout bounds writing a response, loader time included.
	// Default: 30 seconds.
	WriteTimeout time.Duration

	// IdleTimeout is how long keep-alive connections stay open.
	// Default: 120 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// Renderer renders full page documents.
	// Default: render.NewRenderer(render.RendererConfig{}).
	Renderer *render.Renderer

	// Middleware wraps every route loader, outermost first.
	Middleware []middleware.Middleware

	// MetricsPath is where Prometheus metrics are served. Empty disables
	// the endpoint.
	MetricsPath string

	// LivePath is where Live is mounted. Default: "/_pageload/live".
	LivePath string

	// Live handles invalidation listeners. Nil disables the endpoint.
	Live http.Handler

	// Logger receives request and loader logs. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		LivePath:          "/_pageload/live",
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		c = DefaultConfig()
	}
	out := *c
	defaults := DefaultConfig()
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = defaults.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.LivePath == "" {
		out.LivePath = defaults.LivePath
	}
	if out.Renderer == nil {
		out.Renderer = render.NewRenderer(render.RendererConfig{})
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}
