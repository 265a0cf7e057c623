package live

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu         sync.Mutex
	keys       []string
	reconnects int
}

func (r *recorder) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *recorder) Reconnect() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnects++
	return true
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...), r.reconnects
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(&HubConfig{Logger: discard})
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startListener(t *testing.T, url string, target Target) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := NewListener(url, target, WithRedialInterval(5*time.Millisecond), WithListenerLogger(discard))
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() = %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("listener did not stop")
		}
	})
}

func TestInvalidateReachesListener(t *testing.T) {
	hub, url := startHub(t)
	var rec recorder
	startListener(t, url, &rec)
	waitFor(t, "listener to connect", func() bool { return hub.Len() == 1 })

	n, err := hub.Invalidate("/posts/1?", "/?")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("queued for %d listeners, want 1", n)
	}

	waitFor(t, "keys to arrive", func() bool {
		keys, _ := rec.snapshot()
		return len(keys) == 2
	})
	keys, reconnects := rec.snapshot()
	if diff := cmp.Diff([]string{"/posts/1?", "/?"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if reconnects != 0 {
		t.Errorf("first connection reported %d reconnects", reconnects)
	}
}

func TestListenerReportsReconnect(t *testing.T) {
	hub, url := startHub(t)
	var rec recorder
	startListener(t, url, &rec)
	waitFor(t, "listener to connect", func() bool { return hub.Len() == 1 })

	hub.disconnectAll()
	waitFor(t, "reconnect", func() bool {
		_, n := rec.snapshot()
		return n == 1
	})

	// The new connection registers shortly after the dial completes.
	waitFor(t, "key after reconnect", func() bool {
		if _, err := hub.Invalidate("/a?"); err != nil {
			t.Fatal(err)
		}
		keys, _ := rec.snapshot()
		return len(keys) > 0 && keys[0] == "/a?"
	})
}

func TestListenerGivesUp(t *testing.T) {
	l := NewListener("ws://127.0.0.1:1/", &recorder{},
		WithRedialInterval(time.Millisecond),
		WithMaxDialTries(2),
		WithListenerLogger(discard),
	)
	if err := l.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded against a closed port")
	}
}

func TestHubClosed(t *testing.T) {
	hub := NewHub(&HubConfig{Logger: discard})
	hub.Close()
	hub.Close()
	if _, err := hub.Invalidate("/a?"); err != ErrHubClosed {
		t.Errorf("Invalidate after Close = %v", err)
	}
	if n, err := hub.Invalidate(); n != 0 || err != nil {
		t.Errorf("empty Invalidate = %d, %v", n, err)
	}

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 503 {
		t.Errorf("status after Close = %d", rec.Code)
	}
}
