package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
)

// GetProfile returns the aggregated profile with its trust assessment
// @Summary Get Profile
// @Description Aggregate Steam, FACEIT and Leetify data for a player and score it
// @Tags Profile
// @Produce json
// @Param steamId path string true "Steam64 ID"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} map[string]string "Invalid Steam ID"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /profile/{steamId} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamId")

	view, err := h.profiles.GetProfile(r.Context(), steamID, sessionFrom(r.Context()))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}

// GetProfileHistory returns past assessments of a player
// @Summary Get Profile History
// @Tags Profile
// @Produce json
// @Param steamId path string true "Steam64 ID"
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {array} models.LookupHistoryEntry
// @Router /profile/{steamId}/history [get]
func (h *Handler) GetProfileHistory(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.profiles.History(r.Context(), steamID, limit)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, entries)
}

// GetFlagStatus returns the stored trust rating and auto-flag of a player
// @Summary Get Flag Status
// @Tags Profile
// @Produce json
// @Param steamId path string true "Steam64 ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} map[string]string "Not Found"
// @Router /profile/{steamId}/flag [get]
func (h *Handler) GetFlagStatus(w http.ResponseWriter, r *http.Request) {
	profile, err := h.moderation.FlagStatus(r.Context(), chi.URLParam(r, "steamId"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, profile)
}

// Assess scores a caller-supplied signal
// @Summary Assess Signal
// @Description Run the trust scorer on a normalized player signal
// @Tags Profile
// @Accept json
// @Produce json
// @Param signal body models.PlayerSignal true "Player signal"
// @Success 200 {object} models.TrustAssessment
// @Failure 400 {object} map[string]string "Invalid payload"
// @Router /assess [post]
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var sig models.PlayerSignal
	if err := h.decodeJSON(w, r, &sig); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	h.jsonResponse(w, http.StatusOK, logic.Assess(sig, h.now()))
}

// GetSteamPlayer passes the Steam data of a player through
// @Summary Get Steam Player
// @Tags Upstream
// @Produce json
// @Param steamId path string true "Steam64 ID"
// @Router /steam/{steamId} [get]
func (h *Handler) GetSteamPlayer(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamId")
	data, err := h.profiles.SteamPlayer(r.Context(), steamID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=120")
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"steamId": steamID,
		"profile": data.Summary,
		"cs2":     data.CS2,
		"data":    data,
	})
}

// GetFaceitPlayer passes the FACEIT data of a player through
// @Summary Get FACEIT Player
// @Tags Upstream
// @Produce json
// @Param playerId path string true "FACEIT player ID"
// @Router /faceit/{playerId} [get]
func (h *Handler) GetFaceitPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")
	data, err := h.profiles.FaceitPlayer(r.Context(), playerID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=120")
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"playerId": playerID,
		"profile":  data.Player,
		"data":     data,
	})
}

// GetLeetifyProfile passes the Leetify profile of a player through
// @Summary Get Leetify Profile
// @Tags Upstream
// @Produce json
// @Param steamId path string true "Steam64 ID"
// @Router /leetify/{steamId} [get]
func (h *Handler) GetLeetifyProfile(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamId")
	profile, err := h.profiles.LeetifyProfile(r.Context(), steamID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=120")
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"steamId": steamID,
		"profile": profile,
	})
}

// GetMatch returns a Leetify match
// @Summary Get Match
// @Tags Upstream
// @Produce json
// @Param dataSource path string true "Data source (faceit, matchmaking, ...)"
// @Param dataSourceId path string true "Match ID at the data source"
// @Router /match/{dataSource}/{dataSourceId} [get]
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.profiles.GetMatch(r.Context(), chi.URLParam(r, "dataSource"), chi.URLParam(r, "dataSourceId"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, match)
}

// Resolve turns a Steam id, vanity name or profile URL into a Steam64 id
// @Summary Resolve Player
// @Tags Profile
// @Produce json
// @Param query query string true "Steam id, vanity, or Steam/FACEIT/Leetify URL"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		var re *logic.ResolveError
		if errors.As(err, &re) {
			h.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": re.Message})
			return
		}
		h.serviceError(w, r, err)
		return
	}

	body := map[string]interface{}{"ok": true, "steamId": res.SteamID}
	if res.ResolvedFrom != "" {
		body["resolvedFrom"] = res.ResolvedFrom
	}
	h.jsonResponse(w, http.StatusOK, body)
}
