package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/meta"
	"github.com/vango-go/pageload/pkg/swr"
)

func newStore(t *testing.T, fetch swr.Fetcher[load.Result]) *swr.Store[load.Result] {
	t.Helper()
	s := swr.New(fetch, swr.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// lockedBuilder is a strings.Builder safe for use from store callbacks.
type lockedBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *lockedBuilder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuilder) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestInitialViewUsesSeedWithoutMeta(t *testing.T) {
	var calls atomic.Int32
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		calls.Add(1)
		return load.Success{Props: "fetched"}, nil
	})
	store.Seed("/p/7?", load.Success{Props: "seeded", Meta: &meta.Meta{Title: "T"}})

	var r recorder
	v := NewView(context.Background(), store, "/p/7?", r.target(), Initial())
	defer v.Unmount()

	var b strings.Builder
	out, err := v.Show(&b)
	if err != nil {
		t.Fatal(err)
	}
	if out != OutcomeRendered || b.String() != "page 7 seeded" {
		t.Errorf("Show() = %v, %q", out, b.String())
	}
	if len(r.head) != 0 {
		t.Errorf("initial view applied meta: %+v", r.head)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("initial view fetched %d times", n)
	}
}

func TestLaterViewRevalidatesAndAppliesMeta(t *testing.T) {
	var calls atomic.Int32
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		calls.Add(1)
		return load.Success{Props: "fetched"}, nil
	})
	store.Seed("/p/7?", load.Success{Props: "cached", Meta: &meta.Meta{Title: "Cached"}})

	var r recorder
	v := NewView(context.Background(), store, "/p/7?", r.target())
	defer v.Unmount()

	var b strings.Builder
	if _, err := v.Show(&b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "page 7 cached" {
		t.Errorf("Show() rendered %q, want the cached value", b.String())
	}
	if len(r.head) != 1 {
		t.Errorf("head updates = %d, want 1", len(r.head))
	}
	waitFor(t, "revalidation on mount", func() bool { return calls.Load() == 1 })
}

func TestViewShowsFetchError(t *testing.T) {
	boom := errors.New("loader failed")
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		return nil, boom
	})
	var r recorder
	v := NewView(context.Background(), store, "/x?", r.target())
	defer v.Unmount()

	if _, err := v.Show(io.Discard); !errors.Is(err, boom) {
		t.Errorf("Show() error = %v, want loader error", err)
	}
	if r.rendered != 0 {
		t.Error("rendered despite error")
	}
}

func TestUnmountedViewNeverRenders(t *testing.T) {
	release := make(chan struct{})
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		<-release
		return load.Success{Props: "late"}, nil
	})

	var r recorder
	var b lockedBuilder
	v := NewView(context.Background(), store, "/slow?", r.target())
	v.Watch(&b, nil)

	shown := make(chan error, 1)
	go func() {
		_, err := v.Show(&b)
		shown <- err
	}()

	waitFor(t, "fetch to start", func() bool { return store.Peek("/slow?").State == swr.Fetching })
	v.Unmount()
	if err := <-shown; !errors.Is(err, ErrUnmounted) {
		t.Errorf("Show() error = %v, want ErrUnmounted", err)
	}

	close(release)
	waitFor(t, "abandoned fetch to be stored", func() bool { return store.Peek("/slow?").HasValue })
	if got := b.String(); got != "" {
		t.Errorf("unmounted view rendered %q", got)
	}
	if _, err := v.Show(io.Discard); !errors.Is(err, ErrUnmounted) {
		t.Errorf("Show() after unmount error = %v", err)
	}
	v.Unmount()
}

func TestWatchRendersUpdates(t *testing.T) {
	var calls atomic.Int32
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		if calls.Add(1) == 1 {
			return load.Success{Props: "v1"}, nil
		}
		return nil, errors.New("refresh failed")
	})

	var r recorder
	var mu sync.Mutex
	var errs []error
	var b lockedBuilder
	v := NewView(context.Background(), store, "/w?", r.target())
	defer v.Unmount()
	v.Watch(&b, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	store.Revalidate("/w?")
	waitFor(t, "first render", func() bool { return b.String() == "page 7 v1" })

	store.Revalidate("/w?")
	waitFor(t, "error report", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	})
	if got := b.String(); got != "page 7 v1" {
		t.Errorf("output after failed refresh = %q", got)
	}
}

func TestRedirectThatUnmountsViewReportsOutcome(t *testing.T) {
	store := newStore(t, func(ctx context.Context, key string) (load.Result, error) {
		return load.Redirect{To: "/elsewhere"}, nil
	})

	for _, navErr := range []error{nil, errors.New("refused")} {
		t.Run(fmt.Sprint(navErr), func(t *testing.T) {
			var pushes atomic.Int32
			var v *View
			var r recorder
			tg := r.target()
			tg.Navigator = NavigatorFunc(func(to string) error {
				pushes.Add(1)
				v.Unmount()
				return navErr
			})
			key := "/from?" + fmt.Sprint(navErr)
			v = NewView(context.Background(), store, key, tg)
			v.Watch(io.Discard, nil)

			out, err := v.Show(io.Discard)
			if out != OutcomeRedirected {
				t.Errorf("Show() outcome = %v, want redirected", out)
			}
			if !errors.Is(err, navErr) || (navErr == nil) != (err == nil) {
				t.Errorf("Show() error = %v, want %v", err, navErr)
			}
			if n := pushes.Load(); n != 1 {
				t.Errorf("navigator called %d times, want 1", n)
			}
		})
	}
}
