package page

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/swr"
)

// ErrUnmounted is returned by Show after the view was unmounted.
var ErrUnmounted = errors.New("page: view unmounted")

// View renders one cache key for as long as it is mounted.
type View struct {
	store   *swr.Store[load.Result]
	key     string
	target  Target
	initial bool

	ctx    context.Context
	cancel context.CancelFunc

	mounted atomic.Bool

	// renderMu serializes presents. It is not held by Unmount, so a
	// redirect may unmount the view it is rendering from.
	renderMu    sync.Mutex
	lastSeq     uint64
	lastOutcome Outcome
	lastErr     error

	mu    sync.Mutex
	stops []func()
}

// ViewOption configures a View.
type ViewOption func(*View)

// Initial marks the view as the first one of a server-rendered page: it
// uses the seeded value without revalidating and does not touch the head.
func Initial() ViewOption {
	return func(v *View) {
		v.initial = true
	}
}

// NewView mounts a view of key. The view's lifetime ends when Unmount is
// called or parent is cancelled.
func NewView(parent context.Context, store *swr.Store[load.Result], key string, target Target, opts ...ViewOption) *View {
	v := &View{
		store:  store,
		key:    key,
		target: target,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.mounted.Store(true)
	v.ctx, v.cancel = context.WithCancel(parent)
	return v
}

// Key returns the cache key the view shows.
func (v *View) Key() string { return v.key }

// Context returns the view's lifetime context.
func (v *View) Context() context.Context { return v.ctx }

// Show waits for the key's value and presents it into w. Non-initial views
// also start a background revalidation. A fetch error without a held value
// is returned for the caller's error boundary.
func (v *View) Show(w io.Writer) (Outcome, error) {
	var opts []swr.GetOption
	if !v.initial {
		opts = append(opts, swr.WithRevalidate())
	}
	snap, err := v.store.Get(v.ctx, v.key, opts...)
	if err != nil {
		if v.ctx.Err() != nil {
			return OutcomeNone, ErrUnmounted
		}
		return OutcomeNone, err
	}

	t := v.target
	t.SkipHead = t.SkipHead || v.initial
	return v.present(w, snap, t)
}

// Watch presents every value the store applies for the key into w until
// the view is unmounted. onError, if set, receives render and fetch
// failures. Values that arrive after Unmount are not rendered.
func (v *View) Watch(w io.Writer, onError func(error)) {
	stop := v.store.Subscribe(v.key, func(snap swr.Snapshot[load.Result]) {
		if snap.Err != nil {
			if onError != nil && v.Mounted() {
				onError(snap.Err)
			}
			return
		}
		if !snap.HasValue {
			return
		}
		if _, err := v.present(w, snap, v.target); err != nil && !errors.Is(err, ErrUnmounted) && onError != nil {
			onError(err)
		}
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.Mounted() {
		stop()
		return
	}
	v.stops = append(v.stops, stop)
}

// present renders snap unless a value at least as new was already
// presented, in which case it reports that presentation's result. A
// redirect unmounts the view while presenting, so the check runs before
// the mounted one. Seeded values (Seq 0) always render.
func (v *View) present(w io.Writer, snap swr.Snapshot[load.Result], t Target) (Outcome, error) {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()
	if snap.Seq != 0 && snap.Seq <= v.lastSeq {
		return v.lastOutcome, v.lastErr
	}
	if !v.Mounted() {
		return OutcomeNone, ErrUnmounted
	}
	out, err := Present(v.ctx, w, snap.Value, t)
	if err == nil || out == OutcomeRedirected {
		v.lastSeq = snap.Seq
		v.lastOutcome, v.lastErr = out, err
	}
	return out, err
}

// Mounted reports whether the view is still mounted.
func (v *View) Mounted() bool {
	return v.mounted.Load() && v.ctx.Err() == nil
}

// Unmount ends the view's lifetime. It is safe to call more than once.
func (v *View) Unmount() {
	v.mounted.Store(false)
	v.mu.Lock()
	stops := v.stops
	v.stops = nil
	v.mu.Unlock()

	v.cancel()
	for _, stop := range stops {
		stop()
	}
}
