package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/metrics"
	"github.com/vovakirdan/pollchat/internal/store"
	"github.com/vovakirdan/pollchat/internal/store/sqlite"
	"github.com/vovakirdan/pollchat/internal/store/storetest"
)

var testEpoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// createTestStore creates an in-memory SQLite store whose clock advances one second per reading.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	clock := storetest.NewStepClock(testEpoch, time.Second)
	st, err := sqlite.New(":memory:", sqlite.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, jwtSecret string) *auth.Service {
	t.Helper()

	return auth.NewService(&auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	})
}

func newTestRouter(t *testing.T, st store.MessageStore, authService *auth.Service, m *metrics.Metrics) *gin.Engine {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	return NewRouter(st, authService, m, &disabledLogger)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}
