// Package web provides the HTTP endpoints for posting and reading comments.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
	"github.com/evcraddock/comment-utils/internal/logging"
	"github.com/evcraddock/comment-utils/internal/templatetags"
)

// Server is the comments HTTP server.
type Server struct {
	commentRepo *comment.Repository
	types       *contenttype.Registry
	lib         *templatetags.Library
	siteID      int64
	mux         *http.ServeMux
}

// NewServer creates a server. Comments are saved through commentRepo, so
// any moderation hooks on it apply to posted comments.
func NewServer(commentRepo *comment.Repository, types *contenttype.Registry, lib *templatetags.Library) *Server {
	siteID := lib.SiteID
	if siteID == 0 {
		siteID = 1
	}
	s := &Server{
		commentRepo: commentRepo,
		types:       types,
		lib:         lib,
		siteID:      siteID,
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /comments/post/", s.handleCommentPost)
	s.mux.HandleFunc("GET /api/comments", s.handleCommentList)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging and HTTP metrics.
func (s *Server) Handler() http.Handler {
	return logging.RequestLogger(s)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("starting comment server", "addr", addr)
	if err := http.ListenAndServe(addr, s.Handler()); err != nil {
		return fmt.Errorf("serving %s: %w", addr, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
