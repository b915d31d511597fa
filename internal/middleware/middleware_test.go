package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/metrics"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/service"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mw("first"), mw("second"), mw("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrMissingToken, http.StatusUnauthorized},
		{service.ErrInvalidToken, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrEmailAlreadyExists, http.StatusBadRequest},
		{service.ErrTitleRequired, http.StatusBadRequest},
		{service.ErrTaskNotFound, http.StatusNotFound},
		{service.ErrAlreadySuggested, http.StatusBadRequest},
		{service.ErrQuotaExceeded, http.StatusForbidden},
		{service.ErrGeneratorNotConfigured, http.StatusInternalServerError},
		{service.ErrGenerationUnavailable, http.StatusInternalServerError},
		{service.ErrPersistenceFailure, http.StatusInternalServerError},
		{service.ErrPaymentNotVerified, http.StatusPaymentRequired},
		{service.ErrPaymentsDisabled, http.StatusServiceUnavailable},
		{service.ErrExportDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", service.ErrTaskNotFound), http.StatusNotFound},
		{errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "internal_error", body.Code)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"Bearer  abc ":    "abc",
		"Basic dXNlcjpw":  "",
		"Bearerabc":       "",
		"Token something": "",
	}

	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(r), "header %q", header)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	t.Cleanup(rl.Stop)
	h := rl.Limit(okHandler())

	send := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	limited := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, limited).Code)

	// Other clients have their own bucket
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	assert.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now().Add(time.Hour))
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiterKeysByUser(t *testing.T) {
	rl := NewRateLimiter(1)
	t.Cleanup(rl.Stop)
	h := rl.Limit(okHandler())

	send := func(userID string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/tasks/suggestions", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r = r.WithContext(ctxkeys.WithUser(r.Context(), &model.User{ID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("user-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("user-a"))

	// Same address, different account
	assert.Equal(t, http.StatusOK, send("user-b"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	t.Cleanup(rl.Stop)

	for range 100 {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(r))
}

func TestRequestLoggingRecordsRouteAndRequestID(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	var seenID string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = ctxkeys.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	h := RequestLogging(collector)(mux)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/123", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get("X-Request-ID"))

	count, err := testutil.GatherAndCount(reg, "taskpilot_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/456", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173")(okHandler())

	preflight := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	foreign := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
