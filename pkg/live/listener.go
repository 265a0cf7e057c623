package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

// Target receives what a Listener hears. *swr.Store satisfies it.
type Target interface {
	// Invalidate marks key stale.
	Invalidate(key string)

	// Reconnect signals that the connection came back.
	Reconnect() bool
}

// Listener receives invalidations from a Hub and applies them to a Target.
type Listener struct {
	url      string
	target   Target
	dialer   *websocket.Dialer
	interval time.Duration
	maxTries uint
	logger   *slog.Logger
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithDialer sets the WebSocket dialer. Defaults to websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) ListenerOption {
	return func(l *Listener) {
		l.dialer = d
	}
}

// WithRedialInterval sets the initial delay between dial attempts.
// Defaults to 500ms; later attempts back off exponentially.
func WithRedialInterval(d time.Duration) ListenerOption {
	return func(l *Listener) {
		l.interval = d
	}
}

// WithMaxDialTries bounds consecutive failed dial attempts. Zero, the
// default, retries until the context ends.
func WithMaxDialTries(n uint) ListenerOption {
	return func(l *Listener) {
		l.maxTries = n
	}
}

// WithListenerLogger sets the logger.
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a Listener for the hub at url (ws:// or wss://).
func NewListener(url string, target Target, opts ...ListenerOption) *Listener {
	l := &Listener{
		url:      url,
		target:   target,
		dialer:   websocket.DefaultDialer,
		interval: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run listens until ctx ends or dialing gives up. Every connection after
// the first one reports a Reconnect to the target.
func (l *Listener) Run(ctx context.Context) error {
	connected := false
	for {
		conn, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if connected {
			l.logger.Info("live connection restored", "url", l.url)
			l.target.Reconnect()
		}
		connected = true

		l.read(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("live connection lost", "url", l.url)
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.interval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.logger.Debug("live dial failed", "url", l.url, "err", err, "retry_in", next)
		}),
	}
	if l.maxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(l.maxTries))
	}
	return backoff.Retry(ctx, func() (*websocket.Conn, error) {
		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		return conn, err
	}, opts...)
}

// read applies messages until the connection fails or ctx ends.
func (l *Listener) read(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			l.logger.Warn("invalid live message", "err", err)
			continue
		}
		if msg.Type != TypeInvalidate {
			continue
		}
		for _, key := range msg.Keys {
			l.target.Invalidate(key)
		}
	}
}
