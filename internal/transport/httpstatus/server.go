// Package httpstatus exposes the terminal's Prometheus metrics and a
// liveness probe over HTTP. It is the repo's one HTTP surface, entirely
// outside the core's scope (spec.md §1, §6): the core never speaks HTTP
// itself, it only hands a *core.Metrics registry to whatever process
// embeds it.
package httpstatus

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"atmterm/core"
)

// Server wraps a chi router serving /healthz and /metrics, grounded on the
// teacher's walletserver main.go (router + http.ListenAndServe wiring),
// adapted to chi instead of gorilla/mux as this repo's sole HTTP surface
// (see DESIGN.md's dropped-dependency note on gorilla/mux).
type Server struct {
	router  chi.Router
	metrics *core.Metrics
	log     *logrus.Logger
}

// New builds a Server. metrics may be nil, in which case /metrics responds
// 404; log defaults to logrus's standard logger when nil.
func New(metrics *core.Metrics, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{metrics: metrics, log: log}
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}
	s.router = r
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ListenAndServe starts the HTTP server on addr. It blocks until the
// server stops or returns an error.
func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Info("httpstatus: listening")
	return http.ListenAndServe(addr, s.router)
}

// Handler returns the underlying http.Handler, for use with httptest or a
// custom listener.
func (s *Server) Handler() http.Handler {
	return s.router
}
