package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/engine"
	"github.com/rmax-ai/blockgen/pkg/provider"
)

// stubGenerator returns a fixed result.
type stubGenerator struct {
	d     diagram.Diagram
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, description string) (diagram.Diagram, error) {
	g.calls++
	return g.d, g.err
}

func newTestServer(gen DiagramGenerator) *Server {
	s := NewServer(gen, "")
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func TestSecureHeaders(t *testing.T) {
	// Create a handler that just returns 200 OK
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap it with our middleware
	secureHandler := withSecureHeaders(handler)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	secureHandler.ServeHTTP(w, req)

	expectedHeaders := map[string]string{
		"Content-Security-Policy": "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:;",
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
	}

	for key, expected := range expectedHeaders {
		got := w.Header().Get(key)
		if got != expected {
			t.Errorf("Header %s: expected %q, got %q", key, expected, got)
		}
	}
}

func TestGenerate_Preflight(t *testing.T) {
	gen := &stubGenerator{}
	h := newTestServer(gen).Handler()

	for _, path := range []string{"/v1/generate-diagram", "/generate-diagram"} {
		w := do(t, h, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusNoContent, w.Code, path)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, corsAllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, corsAllowMethods, w.Header().Get("Access-Control-Allow-Methods"))
	}
	assert.Zero(t, gen.calls)
}

func TestGenerate_Success(t *testing.T) {
	tmpl := diagram.DefaultTemplate()
	model := provider.NewMockModel("mock", provider.NewToolCallResponse(engine.ToolName, tmpl), nil)
	gen := engine.NewGenerator(model, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := newTestServer(gen).Handler()

	w := do(t, h, http.MethodPost, "/v1/generate-diagram", `{"description":"Bluetooth speaker with RGB lighting effects"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var resp GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Diagram.Blocks, diagram.BlockCount)

	types := map[diagram.Category]bool{}
	for _, b := range resp.Diagram.Blocks {
		types[b.Type] = true
	}
	for _, c := range diagram.Categories() {
		assert.True(t, types[c], "category %s present", c)
	}
}

func TestGenerate_BadRequest(t *testing.T) {
	bodies := []string{
		`{"description":""}`,
		`{}`,
		`{"description":42}`,
		`not json`,
		``,
	}

	for _, body := range bodies {
		gen := &stubGenerator{err: engine.ErrEmptyDescription}
		h := newTestServer(gen).Handler()

		w := do(t, h, http.MethodPost, "/v1/generate-diagram", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, MsgDescriptionRequired, decodeError(t, w))
	}
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: boom", engine.ErrRateLimited), http.StatusTooManyRequests, MsgRateLimited},
		{fmt.Errorf("%w: boom", engine.ErrQuotaExhausted), http.StatusPaymentRequired, MsgQuotaExhausted},
		{fmt.Errorf("%w: boom", engine.ErrInvalidOutput), http.StatusInternalServerError, MsgInvalidDiagram},
		{engine.ErrNotConfigured, http.StatusInternalServerError, MsgNotConfigured},
		{fmt.Errorf("%w: dial tcp: refused", engine.ErrUpstream), http.StatusInternalServerError, MsgGenerationFailed},
		{errors.New("something else"), http.StatusInternalServerError, MsgGenerationFailed},
	}

	for _, tt := range tests {
		h := newTestServer(&stubGenerator{err: tt.err}).Handler()
		w := do(t, h, http.MethodPost, "/generate-diagram", `{"description":"a lamp"}`)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())

		msg := decodeError(t, w)
		assert.Equal(t, tt.msg, msg)
		assert.NotContains(t, msg, "boom", "internal error text must not leak")
	}
}

func TestGenerate_RateLimitEndToEnd(t *testing.T) {
	model := provider.NewMockModel("mock", provider.ChatResponse{}, &provider.StatusError{StatusCode: 429})
	gen := engine.NewGenerator(model, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := newTestServer(gen).Handler()

	w := do(t, h, http.MethodPost, "/v1/generate-diagram", `{"description":"a lamp"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decodeError(t, w), "Rate limit")
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	h := newTestServer(&stubGenerator{}).Handler()

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(t, h, m, "/v1/generate-diagram", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, m)
		assert.Equal(t, MsgMethodNotAllowed, decodeError(t, w))
	}
}

func TestHealthAndTemplate(t *testing.T) {
	s := newTestServer(&stubGenerator{})
	s.SetVersion("1.2.3")
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, HealthResponse{Status: "ok", Version: "1.2.3"}, health)

	w = do(t, h, http.MethodGet, "/v1/template", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tmpl GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tmpl))
	assert.Equal(t, diagram.DefaultTemplate(), tmpl.Diagram)

	w = do(t, h, http.MethodPost, "/v1/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestTraceID(t *testing.T) {
	h := newTestServer(&stubGenerator{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-Trace-ID", "trace-abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "trace-abc", w.Header().Get("X-Trace-ID"))

	w = do(t, h, http.MethodGet, "/v1/health", "")
	assert.Len(t, w.Header().Get("X-Trace-ID"), 32)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	s := NewServer(&stubGenerator{}, "")
	s.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	do(t, s.Handler(), http.MethodGet, "/v1/health", "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "/v1/health", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.NotEmpty(t, entry["trace_id"])
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string) (diagram.Diagram, error) {
	panic("kaboom")
}

func TestRecovery(t *testing.T) {
	h := newTestServer(panicGenerator{}).Handler()

	w := do(t, h, http.MethodPost, "/v1/generate-diagram", `{"description":"a lamp"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgInternal, decodeError(t, w))
}

func TestStatic(t *testing.T) {
	s := newTestServer(&stubGenerator{})
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "no static fs configured")

	s.SetStaticFS(fstest.MapFS{
		"index.html": {Data: []byte("<html>blockgen</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	})

	w = do(t, h, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodGet, "/editor/some/route", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blockgen")

	w = do(t, h, http.MethodGet, "/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
