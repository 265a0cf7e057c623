// Package middleware wraps route loaders with production concerns.
//
// A Middleware receives the route pattern and the loader registered for it
// and returns a loader that runs in its place:
//
//	wrapped := middleware.Chain("/posts/[id]", loadPost,
//	    middleware.Recover(logger),
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(),
//	)
//
// # Prometheus Metrics
//
// Prometheus collects:
//   - pageload_loads_total: loader calls by route and outcome
//   - pageload_load_duration_seconds: loader duration by route
//   - pageload_load_errors_total: loader errors by route and error type
//   - pageload_payload_bytes: size of encoded payloads served
//   - pageload_live_clients: connected invalidation listeners
//   - pageload_invalidations_total: invalidations broadcast
//
// Expose them with promhttp.Handler(); the server package mounts it at
// /metrics.
//
// # OpenTelemetry
//
// OpenTelemetry starts a span per loader call. The loader receives the
// span's context, so database drivers and HTTP clients it calls inherit
// the trace.
package middleware

import "github.com/vango-go/pageload/pkg/load"

// Middleware wraps the loader registered for route.
type Middleware func(route string, next load.Loader) load.Loader

// Chain applies mws to l. The first middleware is the outermost.
func Chain(route string, l load.Loader, mws ...Middleware) load.Loader {
	for i := len(mws) - 1; i >= 0; i-- {
		l = mws[i](route, l)
	}
	return l
}
