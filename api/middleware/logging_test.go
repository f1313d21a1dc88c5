package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggingRecordsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Post("/cart/lines/{lineID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/cart/lines/abc", nil))
	require.Equal(t, http.StatusCreated, resp.Code)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "request.start", lines[0]["message"])

	done := lines[1]
	require.Equal(t, "request.complete", done["message"])
	require.EqualValues(t, http.StatusCreated, done["status"])
	require.EqualValues(t, len("created"), done["bytes"])
	require.Equal(t, "/cart/lines/{lineID}", done["route"])
	require.Equal(t, "/cart/lines/abc", done["path"])
}

func TestLoggingDefaultsToOKWhenNothingWritten(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	require.EqualValues(t, http.StatusOK, lines[1]["status"])
	require.NotContains(t, lines[1], "route")
}

func TestLoggingWithoutLoggerPassesThrough(t *testing.T) {
	handler := Logging(nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}
