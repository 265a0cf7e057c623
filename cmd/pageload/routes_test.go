package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-go/pageload"
)

func TestExampleRoutes(t *testing.T) {
	app, err := pageload.New(pageload.Options{
		Routes:    routes(),
		NotFound:  notFoundPage,
		ConfigDir: t.TempDir(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target     string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, `<a href="/posts/2">Payloads</a>`},
		{"/posts/1", http.StatusOK, "<h1>Hello</h1>"},
		{"/posts/1?.get", http.StatusOK, `"title":"Hello"`},
		{"/posts/x", http.StatusNotFound, "Not found"},
		{"/posts/latest?.get", http.StatusOK, `{"redirect":"/posts/3"}`},
		{"/posts/latest", http.StatusFound, ""},
		{"/docs/guide/install", http.StatusOK, "guide / install"},
		{"/docs", http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body, tt.wantBody)
			}
		})
	}
}
