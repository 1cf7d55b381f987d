package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	slogcontext "github.com/veqryn/slog-context"
)

// logLines decodes every JSON log line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not JSON: %s", raw)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestLogger_NeverLogsCredentials(t *testing.T) {
	t.Parallel()

	token := "tt_0a1b2c3d_00112233445566778899aabbccddeeff"

	var buf bytes.Buffer
	handler := Logger(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, secret := range []string{token, "0a1b2c3d", "00112233445566778899aabbccddeeff", "Bearer"} {
		if strings.Contains(out, secret) {
			t.Errorf("access log contains %q: %s", secret, out)
		}
	}
}

func TestLogger_RequestLoggerInContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := RequestID(Logger(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogcontext.FromCtx(r.Context()).Info("project loaded")
	})))

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want handler line + access line", len(lines))
	}
	for _, line := range lines {
		if line["request_id"] != "req-123" {
			t.Errorf("line %v has request_id %v, want req-123", line["msg"], line["request_id"])
		}
	}
}

func TestLogger_AccessLineNamesRoute(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(Logger(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.Patch("/projects/{projectId}/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	})

	req := httptest.NewRequest(http.MethodPatch, "/projects/p1/tasks/t1", nil)
	req.Header.Set("User-Agent", "tasktrack-test/1.0")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	want := map[string]any{
		"msg":         "request completed",
		"method":      "PATCH",
		"path":        "/projects/p1/tasks/t1",
		"route":       "/projects/{projectId}/tasks/{id}",
		"status_code": float64(200),
		"bytes":       float64(len(`{"id":"t1"}`)),
		"user_agent":  "tasktrack-test/1.0",
	}
	for key, value := range want {
		if lines[0][key] != value {
			t.Errorf("%s = %v, want %v", key, lines[0][key], value)
		}
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusCreated, "INFO"},
		{http.StatusNoContent, "INFO"},
		{http.StatusUnauthorized, "WARN"},
		{http.StatusNotFound, "WARN"},
		{http.StatusUnprocessableEntity, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
		{http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := Logger(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects", nil))

			lines := logLines(t, &buf)
			if len(lines) != 1 || lines[0]["level"] != tt.want {
				t.Errorf("level = %v, want %s", lines, tt.want)
			}
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	t.Run("implicit 200", func(t *testing.T) {
		t.Parallel()

		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		_, _ = rec.Write([]byte("hello"))
		if rec.code() != http.StatusOK || rec.bytes != 5 {
			t.Errorf("code/bytes = %d/%d, want 200/5", rec.code(), rec.bytes)
		}
	})

	t.Run("nothing written", func(t *testing.T) {
		t.Parallel()

		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		if rec.code() != http.StatusOK {
			t.Errorf("code = %d, want 200", rec.code())
		}
	})

	t.Run("first status wins", func(t *testing.T) {
		t.Parallel()

		inner := httptest.NewRecorder()
		rec := &statusRecorder{ResponseWriter: inner}
		rec.WriteHeader(http.StatusCreated)
		rec.WriteHeader(http.StatusInternalServerError)
		if rec.code() != http.StatusCreated || inner.Code != http.StatusCreated {
			t.Errorf("code = %d (sent %d), want 201", rec.code(), inner.Code)
		}
	})
}
