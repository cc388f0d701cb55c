// Package auth handles the signed Steam session cookie, Steam OpenID sign-in
// and the admin allowlist.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/internal/models"
)

// CookieName is the session cookie.
const CookieName = "pgrep_steam_session"

// SessionMaxAge is how long a session cookie lives.
const SessionMaxAge = 30 * 24 * time.Hour

var (
	// ErrNoSecret means sessions are disabled because no secret is configured.
	ErrNoSecret = eris.New("auth: session secret not configured")
	// ErrInvalidSession covers malformed and tampered cookies.
	ErrInvalidSession = eris.New("auth: invalid session")
)

// Sessions encodes and verifies session cookies.
type Sessions struct {
	secret []byte
	secure bool
}

// NewSessions creates a codec. secret falls back to fallback when empty.
func NewSessions(secret, fallback string, secure bool) *Sessions {
	if secret == "" {
		secret = fallback
	}
	return &Sessions{secret: []byte(secret), secure: secure}
}

// Enabled reports whether a signing secret is available.
func (s *Sessions) Enabled() bool {
	return len(s.secret) > 0
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode serializes a session as base64(JSON) "." hex(HMAC-SHA256).
func (s *Sessions) Encode(sess models.Session) (string, error) {
	if !s.Enabled() {
		return "", ErrNoSecret
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return "", eris.Wrap(err, "auth: encode session")
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	return payload + "." + s.sign(payload), nil
}

// Decode verifies and parses a cookie value.
func (s *Sessions) Decode(value string) (*models.Session, error) {
	if !s.Enabled() {
		return nil, ErrNoSecret
	}
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || payload == "" || sig == "" {
		return nil, ErrInvalidSession
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return nil, ErrInvalidSession
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidSession
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.SteamID == "" {
		return nil, ErrInvalidSession
	}
	return &sess, nil
}

// FromRequest returns the session carried by r, or nil.
func (s *Sessions) FromRequest(r *http.Request) *models.Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	sess, err := s.Decode(c.Value)
	if err != nil {
		return nil
	}
	return sess
}

// SetCookie writes the session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionMaxAge.Seconds()),
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
