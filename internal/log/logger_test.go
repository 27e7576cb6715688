package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})
	l.Info("hello", FieldRecordID, "r1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "worker", line[FieldComponent])
	assert.Equal(t, "r1", line[FieldRecordID])
}

func TestMiddlewareAndHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	h := Middleware(base, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogError(r.Context(), "boom", errors.New("x"), ComponentRecords, OpCreate, ErrorTypeInternal)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line[FieldRequestID])
	assert.Equal(t, "records", line[FieldComponent])
	assert.Equal(t, "x", line[FieldError])

	assert.NotNil(t, FromContext(context.Background()))
}
