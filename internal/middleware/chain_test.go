package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockStatusRecorder struct {
	statuses []int
}

func (m *mockStatusRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

// TestMiddlewareChain_LoggingSeesUserID は
// Session -> Logging の順に接続したとき、リクエストログにuser_idが記録されることを検証する。
func TestMiddlewareChain_LoggingSeesUserID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewSessionMiddleware(resolverFor("valid-session", "user-chain-test"))(
		NewLoggingMiddleware(logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	if entry["user_id"] != "user-chain-test" {
		t.Errorf("user_id = %v, want %q", entry["user_id"], "user-chain-test")
	}
}

// TestMiddlewareChain_RecoveryIsObservedByMetrics は
// panicが500として記録されることを検証する。
func TestMiddlewareChain_RecoveryIsObservedByMetrics(t *testing.T) {
	rec := &mockStatusRecorder{}

	handler := NewMetricsMiddleware(rec)(
		NewRecoveryMiddleware(slog.New(slog.NewJSONHandler(io.Discard, nil)))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/dreams", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusInternalServerError {
		t.Errorf("recorded = %v, want [500]", rec.statuses)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}

// TestMiddlewareChain_StatusRecorderSupportsFlush は
// ラップ後もServer-Sent Events用のFlusherが利用できることを検証する。
func TestMiddlewareChain_StatusRecorderSupportsFlush(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := &mockStatusRecorder{}

	var flushable bool
	handler := NewMetricsMiddleware(rec)(
		NewLoggingMiddleware(logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				f, ok := w.(http.Flusher)
				flushable = ok
				if ok {
					w.Write([]byte("data: hi\n\n"))
					f.Flush()
				}
			}),
		),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/events", nil))

	if !flushable {
		t.Fatal("wrapped ResponseWriter should implement http.Flusher")
	}
	if !w.Flushed {
		t.Error("underlying recorder was not flushed")
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusOK {
		t.Errorf("recorded = %v, want [200]", rec.statuses)
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	rec := &mockStatusRecorder{}
	handler := NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusNotFound {
		t.Errorf("recorded = %v, want [404]", rec.statuses)
	}
}
