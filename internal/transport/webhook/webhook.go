// Package webhook is the inbound HTTP surface. Community events arrive
// as small JSON posts from the platform's event relay; health and
// metrics endpoints serve ops probes.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"lockbot/internal/metrics"
	"lockbot/pkg/logx"
)

// DefaultAddr is used when the listen config leaves addr empty.
const DefaultAddr = "127.0.0.1:8310"

// Events is the subset of the lockdown service driven by inbound
// webhooks.
type Events interface {
	HandlePostCreated(ctx context.Context, postID string, createdAt time.Time) error
	HandleCommentCreated(ctx context.Context, postID string) error
}

type Server struct {
	log     logx.Logger
	events  Events
	metrics *metrics.Metrics
	srv     *http.Server
}

func New(log logx.Logger, addr string, events Events, m *metrics.Metrics) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		log:     log.With(logx.String("addr", addr)),
		events:  events,
		metrics: m,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events/post-created", s.handlePostCreated)
	mux.HandleFunc("/events/comment-created", s.handleCommentCreated)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start begins serving in the background. Listen errors other than a
// clean shutdown are reported on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, err
	}
	s.log.Info("webhook listener started")

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type postCreatedRequest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handlePostCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req postCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if req.CreatedAt.IsZero() {
		http.Error(w, "created_at is required", http.StatusBadRequest)
		return
	}

	if err := s.events.HandlePostCreated(r.Context(), req.ID, req.CreatedAt); err != nil {
		s.log.Error("post-created event failed", logx.String("post", req.ID), logx.Err(err))
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type commentCreatedRequest struct {
	PostID string `json:"post_id"`
}

func (s *Server) handleCommentCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commentCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PostID == "" {
		http.Error(w, "post_id is required", http.StatusBadRequest)
		return
	}

	if err := s.events.HandleCommentCreated(r.Context(), req.PostID); err != nil {
		s.log.Error("comment-created event failed", logx.String("post", req.PostID), logx.Err(err))
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.metrics.Snapshot()); err != nil {
		s.log.Error("encode metrics response", logx.Err(err))
	}
}
