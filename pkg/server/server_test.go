package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/atlaspack/pkg/cache"
	"github.com/matzehuels/atlaspack/pkg/observability"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("health body = %v", got)
	}

	rec = do(t, s, http.MethodGet, "/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /version = %d, want 200", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["version"] == "" || got["go"] == "" {
		t.Errorf("version body = %v", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(t)
	for _, path := range []string{"/healthz", "/missing"} {
		rec := do(t, s, http.MethodGet, path, "")
		if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
			t.Errorf("GET %s: %s = %q, want a uuid", path, RequestIDHeader, rec.Header().Get(RequestIDHeader))
		}
	}
}

func TestPack(t *testing.T) {
	s := testServer(t)
	rec := do(t, s, http.MethodPost, "/v1/pack", `{
		"blocks": [
			{"name": "a", "width": 100, "height": 100},
			{"name": "b", "width": 100, "height": 100},
			{"name": "c", "width": 50, "height": 50}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/pack = %d: %s", rec.Code, rec.Body)
	}

	got := decode[packResponse](t, rec)
	if got.Width != 200 || got.Height != 150 {
		t.Errorf("size = %dx%d, want 200x150", got.Width, got.Height)
	}
	if got.Canvas != (size{W: 200, H: 150}) {
		t.Errorf("canvas = %+v, want 200x150", got.Canvas)
	}
	want := []frameResponse{
		{Name: "a", X: 0, Y: 0, W: 100, H: 100},
		{Name: "b", X: 100, Y: 0, W: 100, H: 100},
		{Name: "c", X: 0, Y: 100, W: 50, H: 50},
	}
	if len(got.Frames) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got.Frames), len(want))
	}
	for i := range want {
		if got.Frames[i] != want[i] {
			t.Errorf("frame %d = %+v, want %+v", i, got.Frames[i], want[i])
		}
	}
	if got.ID != rec.Header().Get(RequestIDHeader) {
		t.Errorf("id = %q, want the request id %q", got.ID, rec.Header().Get(RequestIDHeader))
	}
	if got.Stats.UsedArea != 22500 || got.Cached {
		t.Errorf("stats = %+v cached = %v", got.Stats, got.Cached)
	}
}

func TestPackOptions(t *testing.T) {
	s := testServer(t)
	rec := do(t, s, http.MethodPost, "/v1/pack", `{
		"blocks": [{"name": "x", "width": 20, "height": 10}, {"name": "x", "width": 20, "height": 10}],
		"order": "none", "padding": 2, "pow2": true
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/pack = %d: %s", rec.Code, rec.Body)
	}
	got := decode[packResponse](t, rec)
	if got.Width != 42 || got.Height != 10 {
		t.Errorf("size = %dx%d, want 42x10", got.Width, got.Height)
	}
	if got.Canvas != (size{W: 64, H: 16}) {
		t.Errorf("canvas = %+v, want 64x16", got.Canvas)
	}
	if got.Frames[1].Name != "x_2" || got.Frames[1].X != 22 || got.Frames[1].Y != 0 {
		t.Errorf("second frame = %+v, want x_2 at (22,0)", got.Frames[1])
	}
}

func TestPackErrors(t *testing.T) {
	s := testServer(t, WithMaxBlocks(2))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed", `{"blocks": [`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", `{"blocks": [], "colour": "red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"no blocks", `{"blocks": []}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty name", `{"blocks": [{"name": "", "width": 1, "height": 1}]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"zero width", `{"blocks": [{"name": "a", "width": 0, "height": 1}]}`, http.StatusBadRequest, "INVALID_DIMENSION"},
		{"huge", `{"blocks": [{"name": "a", "width": 40000, "height": 1}]}`, http.StatusBadRequest, "INVALID_DIMENSION"},
		{"growth", `{"blocks": [{"name": "a", "width": 1, "height": 1}], "growth": "up"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"padding", `{"blocks": [{"name": "a", "width": 1, "height": 1}], "padding": -1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too many", `{"blocks": [{"name": "a", "width": 1, "height": 1}, {"name": "b", "width": 1, "height": 1}, {"name": "c", "width": 1, "height": 1}]}`,
			http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/pack", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := decode[errorResponse](t, rec); got.Code != tt.wantCode || got.Message == "" {
				t.Errorf("error = %+v, want code %s", got, tt.wantCode)
			}
		})
	}
}

func TestPackBodyTooLarge(t *testing.T) {
	s := testServer(t)
	body := `{"blocks": [` + strings.Repeat(`{"name": "a", "width": 1, "height": 1},`, maxBodyBytes/32) + `]}`
	rec := do(t, s, http.MethodPost, "/v1/pack", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestPackUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := testServer(t, WithRunner(pipeline.NewRunner(c, nil, log.New(io.Discard))))

	first := do(t, s, http.MethodPost, "/v1/pack", `{"blocks": [{"name": "a", "width": 8, "height": 8}]}`)
	second := do(t, s, http.MethodPost, "/v1/pack", `{"blocks": [{"name": "b", "width": 8, "height": 8}]}`)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status = %d, %d", first.Code, second.Code)
	}
	if decode[packResponse](t, first).Cached {
		t.Error("first request should not be cached")
	}
	got := decode[packResponse](t, second)
	if !got.Cached {
		t.Error("same sizes should hit the cache")
	}
	if got.Frames[0].Name != "b" {
		t.Errorf("cached frame name = %q, want b", got.Frames[0].Name)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	s := testServer(t)
	if rec := do(t, s, http.MethodGet, "/v2/pack", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/v1/pack", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/pack = %d, want 405", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestRecoversPanics(t *testing.T) {
	s := testServer(t)
	s.router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := do(t, s, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s := testServer(t)
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodPost, "/v1/pack", `{}`)

	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 400 {
		t.Errorf("statuses = %v, want [200 400]", hooks.statuses)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
