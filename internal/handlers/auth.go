package handlers

import (
	"net/http"

	"github.com/pgrep/reputation-api/internal/models"
)

const (
	callbackPath  = "/api/v1/auth/steam/callback"
	defaultPerson = "Steam User"
)

// SteamLogin redirects the browser to Steam's OpenID sign-in
// @Summary Steam Login
// @Tags Auth
// @Success 302
// @Router /auth/steam/login [get]
func (h *Handler) SteamLogin(w http.ResponseWriter, r *http.Request) {
	origin := h.origin(r)
	http.Redirect(w, r, h.openID.LoginURL(origin, origin+callbackPath), http.StatusFound)
}

// SteamCallback verifies the OpenID assertion and starts a session
// @Summary Steam Callback
// @Tags Auth
// @Success 302
// @Router /auth/steam/callback [get]
func (h *Handler) SteamCallback(w http.ResponseWriter, r *http.Request) {
	origin := h.origin(r)
	retry := h.openID.LoginURL(origin, origin+callbackPath)

	steamID, err := h.openID.Verify(r.Context(), r.URL.Query())
	if err != nil {
		h.logger.Warnw("Steam sign-in rejected", "error", err)
		http.Redirect(w, r, retry, http.StatusFound)
		return
	}

	sess := models.Session{SteamID: steamID, PersonaName: defaultPerson}
	if h.summaries != nil {
		summary, err := h.summaries.GetPlayerSummary(r.Context(), steamID)
		if err != nil {
			h.logger.Warnw("Failed to load Steam summary for sign-in", "steamId", steamID, "error", err)
		} else if summary != nil {
			if summary.PersonaName != "" {
				sess.PersonaName = summary.PersonaName
			}
			sess.Avatar = summary.AvatarFull
			sess.ProfileURL = summary.ProfileURL
		}
	}

	value, err := h.sessions.Encode(sess)
	if err != nil {
		h.logger.Errorw("Failed to sign session", "error", err)
		http.Redirect(w, r, retry, http.StatusFound)
		return
	}
	h.sessions.SetCookie(w, value)

	h.logger.Infow("Steam sign-in", "steamId", steamID)
	http.Redirect(w, r, origin+"/profile/"+steamID, http.StatusFound)
}

// Logout clears the session cookie
// @Summary Logout
// @Tags Auth
// @Success 302
// @Router /auth/logout [get]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, h.origin(r), http.StatusFound)
}

// Me returns the signed-in user, or null
// @Summary Current User
// @Tags Auth
// @Produce json
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"user": sessionFrom(r.Context())})
}
