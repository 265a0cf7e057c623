// Package client fetches load results from the payload endpoint of a
// pageload server.
//
// A Client turns a cache key into a GET of the same path and query with
// the payload marker added, and decodes the response into a load.Result.
// Client.Fetch has the shape of an swr.Fetcher, so a client-side store is
// built as:
//
//	c, _ := client.New("https://example.com")
//	store := swr.New(c.Fetch)
//
// Transport failures and 5xx responses are retried with exponential
// backoff. Other non-2xx statuses and malformed payloads fail at once.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
)

// MaxPayloadSize caps how much of a response body is read.
const MaxPayloadSize = 8 << 20

// Client fetches load results over HTTP.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	maxTries   uint
	interval   time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxTries sets how many attempts a fetch makes. Defaults to 3.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithRetryInterval sets the initial backoff interval. Defaults to 100ms.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.interval = d
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the site at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base URL %q must be absolute", baseURL)
	}
	c := &Client{
		base:       base,
		httpClient: http.DefaultClient,
		maxTries:   3,
		interval:   100 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch requests the load result for key. Errors are coded E110, or E111
// when the response is not a valid payload.
func (c *Client) Fetch(ctx context.Context, key string) (load.Result, error) {
	ref, err := PayloadURL(key)
	if err != nil {
		return nil, perrors.New("E110").WithRoute(key).Wrap(err)
	}
	target := c.base.ResolveReference(ref).String()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval

	res, err := backoff.Retry(ctx, func() (load.Result, error) {
		return c.fetchOnce(ctx, target)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying payload fetch", "key", key, "err", err, "next", next)
		}),
	)
	if err != nil {
		return nil, perrors.FromError(err, "E110").WithRoute(key)
	}
	return res, nil
}

// statusError reports a non-2xx response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("payload request returned %d", e.status)
	}
	return fmt.Sprintf("payload request returned %d: %s", e.status, e.body)
}

func (c *Client) fetchOnce(ctx context.Context, target string) (load.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &statusError{status: resp.StatusCode, body: errorMessage(body)}
		if resp.StatusCode >= 500 {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	res, err := load.Decode(body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return res, nil
}
