package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/meta"
	"github.com/vango-go/pageload/pkg/middleware"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/render"
	"github.com/vango-go/pageload/pkg/routepath"
	"github.com/vango-go/pageload/pkg/router"
)

// unmatched labels metrics and logs for requests no route matched.
const unmatched = "(unmatched)"

func (s *Server) serveRoute(w http.ResponseWriter, r *http.Request) {
	// Non-canonical paths redirect with 308 so every route has one URL.
	input := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		input += "?" + r.URL.RawQuery
	}
	result, err := routepath.CanonicalizePath(input)
	if err != nil {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if result.Changed {
		target := result.Path
		if result.Query != "" {
			target += "?" + result.Query
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	if load.IsLoaderRequest(r) {
		s.servePayload(w, r)
		return
	}
	s.servePage(w, r)
}

// resolved is a request's route and load result.
type resolved struct {
	match   router.Match
	matched bool
	result  load.Result
	err     error
}

func (rs resolved) route() string {
	if !rs.matched {
		return unmatched
	}
	return rs.match.Pattern
}

// resolve matches r and runs the route's loader. Pages without a loader
// load as Success with no props; unmatched requests as NotFound.
func (s *Server) resolve(r *http.Request) resolved {
	m, ok := s.router.Resolve(r.URL)
	if !ok {
		return resolved{result: load.NotFound{}}
	}
	if m.Load == nil {
		return resolved{match: m, matched: true, result: load.Success{}}
	}

	// Loaders see the same request whether or not the marker was sent.
	u := *r.URL
	u.RawQuery = load.WithoutMarker(u.Query()).Encode()
	lr := r.Clone(r.Context())
	lr.URL = &u

	loader := middleware.Chain(m.Pattern, m.Load, s.config.Middleware...)
	res, err := load.Invoke(r.Context(), loader, lr, m.Params)
	return resolved{match: m, matched: true, result: res, err: err}
}

func (s *Server) servePayload(w http.ResponseWriter, r *http.Request) {
	rs := s.resolve(r)
	if rs.err != nil {
		s.logger.Error("loader failed", "path", r.URL.Path, "route", rs.route(), "err", rs.err)
		writeJSONError(w, rs.err)
		return
	}

	data, err := load.Encode(rs.result)
	if err != nil {
		s.logger.Error("encode payload", "path", r.URL.Path, "err", err)
		writeJSONError(w, perrors.New("E111").WithRoute(r.URL.Path).Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	middleware.RecordPayload(rs.route(), len(data))
}

func writeJSONError(w http.ResponseWriter, err error) {
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
		Code  string `json:"code,omitempty"`
	}{err.Error(), perrors.CodeOf(err)})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}

// headRecorder keeps the tags Present applies.
type headRecorder struct {
	tags []meta.Tag
}

func (h *headRecorder) SetHead(tags []meta.Tag) { h.tags = tags }

// redirectRecorder keeps the redirect target Present pushes.
type redirectRecorder struct {
	to string
}

func (n *redirectRecorder) Push(to string) error {
	n.to = to
	return nil
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	rs := s.resolve(r)
	if rs.err != nil {
		s.logger.Error("loader failed", "path", r.URL.Path, "route", rs.route(), "err", rs.err)
		s.serveErrorPage(w, r)
		return
	}

	var (
		body     bytes.Buffer
		head     headRecorder
		redirect redirectRecorder
	)
	outcome, err := page.Present(r.Context(), &body, rs.result, page.Target{
		Component: rs.match.Page,
		Fallback:  s.router.NotFound(),
		Params:    rs.match.Params,
		Head:      &head,
		Navigator: &redirect,
	})
	if err != nil {
		s.logger.Error("render page", "path", r.URL.Path, "route", rs.route(), "err", err)
		s.serveErrorPage(w, r)
		return
	}

	status := http.StatusOK
	switch outcome {
	case page.OutcomeRedirected:
		target, err := routepath.CanonicalizeAndValidateNavPath(redirect.to)
		if err != nil {
			s.logger.Error("invalid redirect", "path", r.URL.Path, "to", redirect.to, "err", err)
			s.serveErrorPage(w, r)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	case page.OutcomeFallback:
		status = http.StatusNotFound
	}

	payload, err := load.Encode(rs.result)
	if err != nil {
		s.logger.Error("encode payload", "path", r.URL.Path, "err", err)
		s.serveErrorPage(w, r)
		return
	}

	var route string
	if rs.matched {
		route = rs.match.Pattern
	}
	s.writeDocument(w, status, render.PageData{
		Head:    head.tags,
		Body:    func(w io.Writer) error { _, err := body.WriteTo(w); return err },
		Payload: payload,
		Route:   route,
	})
}

func (s *Server) serveErrorPage(w http.ResponseWriter, r *http.Request) {
	s.writeDocument(w, http.StatusInternalServerError, render.PageData{
		Head: []meta.Tag{{Name: "title", Content: "Internal Server Error"}},
		Body: func(w io.Writer) error {
			_, err := io.WriteString(w, "<h1>500</h1>\n<p>Internal Server Error</p>\n")
			return err
		},
	})
}

func (s *Server) writeDocument(w http.ResponseWriter, status int, data render.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.config.Renderer.RenderPage(w, data); err != nil {
		s.logger.Warn("write document", "status", status, "err", err)
	}
}
