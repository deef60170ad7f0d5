package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/futureproof/aitracker/internal/api/middleware"
	"github.com/futureproof/aitracker/internal/cache/cachetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func clientRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	return req
}

// ========================================
// Identify Middleware Tests
// ========================================

func TestIdentify_UsesHostOfRemoteAddr(t *testing.T) {
	var got string
	handler := mw.Identify(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = mw.GetClientKey(r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), clientRequest("203.0.113.7:51234"))
	assert.Equal(t, "203.0.113.7", got)
}

func TestIdentify_RemoteAddrWithoutPort(t *testing.T) {
	var got string
	handler := mw.Identify(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = mw.GetClientKey(r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), clientRequest("203.0.113.7"))
	assert.Equal(t, "203.0.113.7", got)
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(cachetest.NewMemory(), 60)
	handler := mw.Identify(rl.Limit(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, clientRequest("10.0.0.1:1000"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(cachetest.NewMemory(), 2)
	handler := mw.Identify(rl.Limit(okHandler()))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, clientRequest("10.0.0.2:1000"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, clientRequest("10.0.0.2:1001"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_CountsClientsSeparately(t *testing.T) {
	rl := mw.NewRateLimit(cachetest.NewMemory(), 1)
	handler := mw.Identify(rl.Limit(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, clientRequest("10.0.0.3:1000"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, clientRequest("10.0.0.4:1000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailsOpenOnCacheError(t *testing.T) {
	c := cachetest.NewMemory()
	c.Err = errors.New("redis down")
	rl := mw.NewRateLimit(c, 1)
	handler := mw.Identify(rl.Limit(okHandler()))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, clientRequest("10.0.0.5:1000"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_NoClientKey_PassThrough(t *testing.T) {
	rl := mw.NewRateLimit(cachetest.NewMemory(), 60)
	handler := rl.Limit(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_NonPositiveLimitUsesDefault(t *testing.T) {
	rl := mw.NewRateLimit(cachetest.NewMemory(), 0)
	handler := mw.Identify(rl.Limit(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, clientRequest("10.0.0.6:1000"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	handler := mw.Recovery(panicking)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := mw.Recovery(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}
