package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "log output %q", buf.String())
	return line
}

func TestRequestLogger_RejectionLogsAtWarnWithRoute(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.Post("/api/v1/loans/{id}/pay", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"loan not approved"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/l-1/pay", nil)
	req.Header.Set(IdempotencyKeyHeader, "pay-l-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := decodeLogLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), line["status"])
	assert.Equal(t, "/api/v1/loans/{id}/pay", line["route"])
	assert.Equal(t, "l-1", line["resource_id"])
	assert.Equal(t, "pay-l-1", line["idempotency_key"])
	assert.Equal(t, float64(len(`{"error":"loan not approved"}`)), line["bytes"])
}

func TestRequestLogger_ImplicitOKAndProbeLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	line := decodeLogLine(t, &buf)
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, "unmatched", line["route"])
	assert.NotContains(t, line, "resource_id")
}

func TestRequestLogger_ServerErrorLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))

	assert.Equal(t, "error", decodeLogLine(t, &buf)["level"])
}
