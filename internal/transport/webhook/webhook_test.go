package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lockbot/internal/metrics"
	"lockbot/pkg/logx"
)

type fakeEvents struct {
	posts    []string
	comments []string
	fail     bool
}

func (f *fakeEvents) HandlePostCreated(_ context.Context, postID string, _ time.Time) error {
	if f.fail {
		return fmt.Errorf("boom")
	}
	f.posts = append(f.posts, postID)
	return nil
}

func (f *fakeEvents) HandleCommentCreated(_ context.Context, postID string) error {
	if f.fail {
		return fmt.Errorf("boom")
	}
	f.comments = append(f.comments, postID)
	return nil
}

func newTestServer(t *testing.T) (*Server, *fakeEvents) {
	t.Helper()
	ev := &fakeEvents{}
	return New(logx.Nop(), DefaultAddr, ev, metrics.New()), ev
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostCreated(t *testing.T) {
	s, ev := newTestServer(t)

	rec := do(t, s.Handler(), http.MethodPost, "/events/post-created",
		`{"id":"p1","created_at":"2025-07-01T00:00:00Z"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if len(ev.posts) != 1 || ev.posts[0] != "p1" {
		t.Fatalf("posts = %v", ev.posts)
	}
}

func TestPostCreatedValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, body: "", want: http.StatusMethodNotAllowed},
		{name: "bad json", method: http.MethodPost, body: "{", want: http.StatusBadRequest},
		{name: "missing id", method: http.MethodPost, body: `{"created_at":"2025-07-01T00:00:00Z"}`, want: http.StatusBadRequest},
		{name: "missing created_at", method: http.MethodPost, body: `{"id":"p1"}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), tt.method, "/events/post-created", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCommentCreated(t *testing.T) {
	s, ev := newTestServer(t)

	rec := do(t, s.Handler(), http.MethodPost, "/events/comment-created", `{"post_id":"p9"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if len(ev.comments) != 1 || ev.comments[0] != "p9" {
		t.Fatalf("comments = %v", ev.comments)
	}

	rec = do(t, s.Handler(), http.MethodPost, "/events/comment-created", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty post_id: status = %d", rec.Code)
	}
}

func TestEventFailureMapsTo500(t *testing.T) {
	s, ev := newTestServer(t)
	ev.fail = true

	rec := do(t, s.Handler(), http.MethodPost, "/events/post-created",
		`{"id":"p1","created_at":"2025-07-01T00:00:00Z"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "ok") {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, s.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("metrics content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "posts_locked") {
		t.Fatalf("metrics body = %q", rec.Body.String())
	}
}
