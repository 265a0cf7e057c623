package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/routetree"
)

// Recover turns a panicking loader into an E110 error.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(route string, next load.Loader) load.Loader {
		return func(ctx context.Context, r *http.Request, params routetree.Params) (res load.Result, err error) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("loader panic",
						"route", route,
						"panic", p,
						"stack", string(debug.Stack()),
					)
					res = nil
					err = perrors.New("E110").
						WithRoute(route).
						WithDetail(fmt.Sprintf("panic: %v", p))
				}
			}()
			return next(ctx, r, params)
		}
	}
}

// Logging logs every loader call at debug level and failures at warn.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(route string, next load.Loader) load.Loader {
		return func(ctx context.Context, r *http.Request, params routetree.Params) (load.Result, error) {
			start := time.Now()
			res, err := next(ctx, r, params)
			if err != nil {
				logger.WarnContext(ctx, "loader failed", "route", route, "duration", time.Since(start), "err", err)
				return res, err
			}
			if res != nil {
				logger.DebugContext(ctx, "loader", "route", route, "outcome", load.Kind(res), "duration", time.Since(start))
			}
			return res, nil
		}
	}
}
