package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeCommand_Structure(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Contains(t, serveCmd.Long, "/slack/events")

	flag := serveCmd.Flags().Lookup("addr")
	assert.NotNil(t, flag)
	assert.Equal(t, ":8080", flag.DefValue)
}

func TestNewServeMux(t *testing.T) {
	t.Run("health probe works without Slack wiring", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		eventsHandler = nil

		mux := newServeMux()

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/slack/events", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("events route mounts the configured handler", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		eventsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		mux := newServeMux()

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/slack/events", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}
