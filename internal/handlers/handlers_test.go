package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/pkg/upstream"
)

const testSteamID = "76561198000000001"

func newTestHandler() *Handler {
	return &Handler{
		logger:     zap.NewNop().Sugar(),
		validator:  newValidator(),
		profiles:   &MockProfileService{},
		resolver:   &MockResolveService{},
		moderation: &MockModerationService{},
		tracking:   &MockTrackingService{},
		now:        func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func withSession(r *http.Request, sess *models.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name           string
		pg             Pinger
		redis          RedisPinger
		expectedStatus int
	}{
		{"AllHealthy", &MockPinger{}, &MockRedisPinger{}, http.StatusOK},
		{"PostgresDown", &MockPinger{Err: errors.New("conn refused")}, &MockRedisPinger{}, http.StatusServiceUnavailable},
		{"RedisDown", &MockPinger{}, &MockRedisPinger{Err: errors.New("conn refused")}, http.StatusServiceUnavailable},
		{"PostgresMissing", nil, &MockRedisPinger{}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			h.pg = tt.pg
			h.ch = &MockPinger{}
			h.redis = tt.redis
			h.queue = &MockQueue{Depth: 7}

			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest("GET", "/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, float64(7), body["queueDepth"])
			assert.Equal(t, tt.expectedStatus == http.StatusOK, body["ready"])
		})
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{"Validation", &logic.ValidationError{Message: "Invalid date."}, http.StatusBadRequest, "Invalid date."},
		{"InvalidSteamID", logic.ErrInvalidSteamID, http.StatusBadRequest, "Invalid Steam ID."},
		{"InvalidTab", logic.ErrInvalidTab, http.StatusBadRequest, "Invalid tab."},
		{"LoginRequired", logic.ErrLoginRequired, http.StatusUnauthorized, "You must be logged in."},
		{"NotAdmin", logic.ErrNotAdmin, http.StatusUnauthorized, "Unauthorized."},
		{"BadAdminToken", logic.ErrBadAdminToken, http.StatusUnauthorized, "Unauthorized."},
		{"AlreadyBanned", logic.ErrAlreadyBanned, http.StatusConflict, "Player is already overwatch banned."},
		{"ReportNotFound", logic.ErrReportNotFound, http.StatusNotFound, "Report not found."},
		{"ProfileNotFound", fmt.Errorf("lookup: %w", logic.ErrProfileNotFound), http.StatusNotFound, "Profile not found."},
		{"UpstreamNotFound", upstream.ErrNotFound, http.StatusNotFound, "Profile not found."},
		{"TokenUnset", logic.ErrAdminTokenUnset, http.StatusInternalServerError, "ADMIN_STATS_TOKEN is not configured."},
		{"Timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "Upstream request timed out."},
		{"UpstreamStatus", &upstream.StatusError{Provider: "faceit", Code: 503}, http.StatusBadGateway, "Upstream request failed."},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			w := httptest.NewRecorder()
			h.serviceError(w, httptest.NewRequest("GET", "/x", nil), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, decodeBody(t, w)["error"])
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.9:52100", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.4", "198.51.100.4"},
		{"", "local"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remoteAddr
		assert.Equal(t, tt.want, clientIP(r), tt.remoteAddr)
	}
}

func TestOrigin(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest("GET", "http://api.local/x", nil)
	assert.Equal(t, "http://api.local", h.origin(r))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://api.local", h.origin(r))

	h.publicOrigin = "https://pgrep.example"
	assert.Equal(t, "https://pgrep.example", h.origin(r))
}

func TestNew_TrimsOrigin(t *testing.T) {
	h := New(Config{PublicOrigin: "https://pgrep.example/"})
	assert.Equal(t, "https://pgrep.example", h.publicOrigin)
	assert.NotNil(t, h.logger)
	assert.NotNil(t, h.validator)
}
