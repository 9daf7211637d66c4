package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func observedLogger(level zapcore.Level) (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logger.NewWithCore(core), logs
}

func TestCORSMiddleware_Origins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
		wantVary   bool
	}{
		{name: "wildcard echoes origin", allowed: []string{"*"}, origin: "https://app.staking.xyz", wantOrigin: "https://app.staking.xyz", wantVary: true},
		{name: "wildcard without origin", allowed: []string{"*"}, wantOrigin: "*"},
		{name: "listed origin", allowed: []string{"https://a.io", "https://b.io"}, origin: "https://b.io", wantOrigin: "https://b.io", wantVary: true},
		{name: "unlisted origin", allowed: []string{"https://a.io"}, origin: "https://evil.io"},
		{name: "listed without origin", allowed: []string{"https://a.io"}},
		{name: "nothing allowed", allowed: nil, origin: "https://a.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/indexers", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(okHandler("indexers")).ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "indexers", w.Body.String(), "the wrapped handler always runs for GET")

			h := w.Header()
			require.Equal(t, tt.wantOrigin, h.Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin == "" {
				require.Empty(t, h.Get("Access-Control-Allow-Methods"))
				require.Empty(t, h.Get("Vary"))
				return
			}

			require.Equal(t, "GET, OPTIONS", h.Get("Access-Control-Allow-Methods"))
			require.Equal(t, "Content-Type, Accept", h.Get("Access-Control-Allow-Headers"))
			require.Equal(t, corsMaxAge, h.Get("Access-Control-Max-Age"))
			if tt.wantVary {
				require.Equal(t, "Origin", h.Get("Vary"))
			} else {
				require.Empty(t, h.Get("Vary"))
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	reached := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/indexers/staking/stakers", nil)
	req.Header.Set("Origin", "https://a.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()

	CORSMiddleware([]string{"https://a.io"})(next).ServeHTTP(w, req)

	require.False(t, reached)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
	require.Equal(t, "https://a.io", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight from an unknown origin is still short-circuited, just without grants
	req.Header.Set("Origin", "https://evil.io")
	w = httptest.NewRecorder()
	CORSMiddleware([]string{"https://a.io"})(next).ServeHTTP(w, req)

	require.False(t, reached)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddleware_RecordsRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.Handler
		wantStatus int
	}{
		{name: "implicit 200", handler: okHandler("ok"), wantStatus: http.StatusOK},
		{
			name: "explicit status",
			handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}),
			wantStatus: http.StatusNotFound,
		},
		{
			name: "second WriteHeader ignored",
			handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.WriteHeader(http.StatusInternalServerError)
			}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "write before WriteHeader",
			handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("body"))
				w.WriteHeader(http.StatusTeapot)
			}),
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, logs := observedLogger(zapcore.DebugLevel)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/indexers/staking/users?limit=5", nil)
			w := httptest.NewRecorder()
			LoggingMiddleware(log)(tt.handler).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)

			entries := logs.FilterMessage("http request").All()
			require.Len(t, entries, 1)

			fields := entries[0].ContextMap()
			require.Equal(t, zapcore.DebugLevel, entries[0].Level)
			require.Equal(t, http.MethodGet, fields["method"])
			require.Equal(t, "/api/v1/indexers/staking/users", fields["path"])
			require.EqualValues(t, tt.wantStatus, fields["status"])
			require.Contains(t, fields, "duration")
		})
	}
}

func TestLoggingMiddleware_SilentAboveDebug(t *testing.T) {
	t.Parallel()

	log, logs := observedLogger(zapcore.InfoLevel)
	w := httptest.NewRecorder()
	LoggingMiddleware(log)(okHandler("ok")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, logs.Len())
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	for name, value := range map[string]any{
		"string": "boom",
		"error":  assert.AnError,
		"int":    7,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			log, logs := observedLogger(zapcore.DebugLevel)
			panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(value) })

			w := httptest.NewRecorder()
			require.NotPanics(t, func() {
				RecoveryMiddleware(log)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/indexers", nil))
			})

			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.Equal(t, "Internal Server Error\n", w.Body.String())

			entries := logs.FilterMessage("panic in http handler").All()
			require.Len(t, entries, 1)
			require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
			require.Equal(t, "/api/v1/indexers", entries[0].ContextMap()["path"])
			require.NotEmpty(t, entries[0].ContextMap()["stack"])
		})
	}

	log, logs := observedLogger(zapcore.DebugLevel)
	w := httptest.NewRecorder()
	RecoveryMiddleware(log)(okHandler("fine")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "fine", w.Body.String())
	require.Zero(t, logs.Len())
}

func TestMiddlewareChain(t *testing.T) {
	t.Parallel()

	log, logs := observedLogger(zapcore.DebugLevel)
	h := RecoveryMiddleware(log)(LoggingMiddleware(log)(CORSMiddleware([]string{"*"})(okHandler("chained"))))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indexers", nil)
	req.Header.Set("Origin", "https://app.staking.xyz")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "chained", w.Body.String())
	require.Equal(t, "https://app.staking.xyz", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, 1, logs.FilterMessage("http request").Len())
}
