package swr

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMaxEntries bounds the number of idle keys a Store retains.
const DefaultMaxEntries = 256

// Option configures a Store.
type Option func(*options)

type options struct {
	maxEntries  int
	onFocus     bool
	onReconnect bool
	logger      *slog.Logger
	now         func() time.Time
	ctx         context.Context
}

func defaultOptions() options {
	return options{
		maxEntries:  DefaultMaxEntries,
		onFocus:     true,
		onReconnect: true,
		now:         time.Now,
		ctx:         context.Background(),
	}
}

// WithMaxEntries sets how many keys are retained. Least recently used keys
// beyond the limit are dropped unless they are active, subscribed to or
// fetching.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithRevalidateOnFocus toggles revalidation of the active key on Focus.
func WithRevalidateOnFocus(enabled bool) Option {
	return func(o *options) {
		o.onFocus = enabled
	}
}

// WithRevalidateOnReconnect toggles revalidation of the active key on
// Reconnect.
func WithRevalidateOnReconnect(enabled bool) Option {
	return func(o *options) {
		o.onReconnect = enabled
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithContext sets the parent context of background fetches. Cancelling
// it aborts every running fetch.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// GetOption configures a single Get call.
type GetOption func(*getOptions)

type getOptions struct {
	revalidate bool
}

// WithRevalidate makes Get start a background refresh when it returns a
// held value. The refresh is skipped if one is already running.
func WithRevalidate() GetOption {
	return func(o *getOptions) {
		o.revalidate = true
	}
}
