package navigate

import (
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/vango-go/pageload/pkg/page"
)

// Option configures a Controller.
type Option func(*Controller)

// WithOrigin sets the site origin used to tell local links from foreign
// ones. Without it only relative links are local.
func WithOrigin(origin *url.URL) Option {
	return func(c *Controller) {
		c.origin = origin
	}
}

// WithHistory sets the history. Defaults to a MemoryHistory.
func WithHistory(h History) Option {
	return func(c *Controller) {
		c.history = h
	}
}

// WithHead sets the document head updater.
func WithHead(h page.HeadUpdater) Option {
	return func(c *Controller) {
		c.head = h
	}
}

// WithVisiblePrefetchRate limits prefetches triggered by link visibility.
// Defaults to 10 per second with a burst of 5.
func WithVisiblePrefetchRate(limit rate.Limit, burst int) Option {
	return func(c *Controller) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithOnError sets the callback for prefetch and background render
// failures.
func WithOnError(fn func(href string, err error)) Option {
	return func(c *Controller) {
		c.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NavigateOptions configures one navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Params are query parameters to add to the URL.
	Params map[string]any
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithParams adds query parameters to the navigation URL.
func WithParams(params map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Params = params
	}
}

// buildURL adds o.Params to u's query.
func (o NavigateOptions) buildURL(u *url.URL) {
	if len(o.Params) == 0 {
		return
	}
	q := u.Query()
	for k, v := range o.Params {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	u.RawQuery = q.Encode()
}
