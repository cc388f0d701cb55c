package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/pkg/steam"
	"github.com/pgrep/reputation-api/pkg/upstream"
)

type contextKey string

const sessionKey contextKey = "session"

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": h.now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]bool{
		"postgres":   h.pg != nil && h.pg.Ping(ctx) == nil,
		"clickhouse": h.ch != nil && h.ch.Ping(ctx) == nil,
		"redis":      h.redis != nil && h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	depth := 0
	if h.queue != nil {
		depth = h.queue.QueueDepth()
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": depth,
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

// serviceError maps service errors onto status codes and messages.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *logic.ValidationError
		se *upstream.StatusError
	)
	switch {
	case errors.As(err, &ve):
		h.errorResponse(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, logic.ErrInvalidSteamID):
		h.errorResponse(w, http.StatusBadRequest, "Invalid Steam ID.")
	case errors.Is(err, logic.ErrInvalidTab):
		h.errorResponse(w, http.StatusBadRequest, "Invalid tab.")
	case errors.Is(err, logic.ErrEmptyQuery):
		h.errorResponse(w, http.StatusBadRequest, "Missing query.")
	case errors.Is(err, logic.ErrLoginRequired):
		h.errorResponse(w, http.StatusUnauthorized, "You must be logged in.")
	case errors.Is(err, logic.ErrNotAdmin), errors.Is(err, logic.ErrBadAdminToken):
		h.errorResponse(w, http.StatusUnauthorized, "Unauthorized.")
	case errors.Is(err, logic.ErrAlreadyBanned):
		h.errorResponse(w, http.StatusConflict, "Player is already overwatch banned.")
	case errors.Is(err, logic.ErrReportNotFound):
		h.errorResponse(w, http.StatusNotFound, "Report not found.")
	case errors.Is(err, logic.ErrProfileNotFound), errors.Is(err, upstream.ErrNotFound), errors.Is(err, steam.ErrNoSummary):
		h.errorResponse(w, http.StatusNotFound, "Profile not found.")
	case errors.Is(err, logic.ErrAdminTokenUnset):
		h.errorResponse(w, http.StatusInternalServerError, "ADMIN_STATS_TOKEN is not configured.")
	case errors.Is(err, context.DeadlineExceeded):
		h.errorResponse(w, http.StatusGatewayTimeout, "Upstream request timed out.")
	case errors.As(err, &se):
		h.logger.Warnw("Upstream error", "path", r.URL.Path, "provider", se.Provider, "status", se.Code)
		h.errorResponse(w, http.StatusBadGateway, "Upstream request failed.")
	default:
		h.logger.Errorw("Request failed", "path", r.URL.Path, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

// validationMessage turns the first failing field into a user-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid payload."
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "Missing required fields."
	case "cheattype":
		return "Invalid cheat type."
	case "steamid":
		return "Invalid Steam ID."
	case "url":
		return "Invalid demo URL."
	default:
		return "Invalid " + fe.Field() + "."
	}
}

// sessionFrom returns the signed-in user stored by the session middleware.
func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

// clientIP keys rate limits by the caller's address. middleware.RealIP has
// already replaced RemoteAddr with the forwarded client address, and it does
// so without a port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "local"
}

// origin is the public origin used for OpenID realms and redirects.
func (h *Handler) origin(r *http.Request) string {
	if h.publicOrigin != "" {
		return h.publicOrigin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
