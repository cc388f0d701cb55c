package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgrep/reputation-api/internal/auth"
	"github.com/pgrep/reputation-api/internal/models"
)

func TestAssessSignal(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	a, err := assessSignal(strings.NewReader(`{}`), now)
	require.NoError(t, err)
	assert.Nil(t, a.Score)
	assert.Equal(t, models.LabelInsufficientData, a.Label)

	a, err = assessSignal(strings.NewReader(`{"competitive_rating":25000,"secondary_level":3}`), now)
	require.NoError(t, err)
	require.NotNil(t, a.Score)
	assert.Equal(t, models.RankMismatch, a.Rank.Status)

	_, err = assessSignal(strings.NewReader(`{`), now)
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "assess", "seed"} {
		assert.True(t, names[want], want)
	}
}

func TestSeederPost(t *testing.T) {
	sessions := auth.NewSessions("seed-secret", "", false)
	value, err := sessions.Encode(models.Session{SteamID: "76561198000000009"})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessions.FromRequest(r)
		if sess == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out strings.Builder
	s := &seeder{
		base:   srv.URL,
		cookie: &http.Cookie{Name: auth.CookieName, Value: value},
		client: srv.Client(),
		out:    &out,
	}
	require.NoError(t, s.post("/api/v1/reports", models.HeartbeatRequest{Path: "/"}))
	assert.Contains(t, out.String(), "200 OK")

	s.cookie = &http.Cookie{Name: auth.CookieName, Value: "forged"}
	assert.Error(t, s.post("/api/v1/reports", models.HeartbeatRequest{Path: "/"}))
}
