package handlers

import (
	"net/http"

	"github.com/pgrep/reputation-api/internal/models"
)

// HomeStats returns the landing counters
// @Summary Home Stats
// @Tags Tracking
// @Produce json
// @Success 200 {object} models.HomeStats
// @Router /home-stats [get]
func (h *Handler) HomeStats(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.tracking.HomeStats(r.Context()))
}

// Heartbeat records that the signed-in user is active
// @Summary Heartbeat
// @Tags Tracking
// @Accept json
// @Produce json
// @Param heartbeat body models.HeartbeatRequest false "Current path"
// @Success 200 {object} map[string]bool
// @Router /track/heartbeat [post]
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req models.HeartbeatRequest
	// An unreadable body counts as a heartbeat without a path.
	_ = h.decodeJSON(w, r, &req)

	if err := h.tracking.Heartbeat(r.Context(), sessionFrom(r.Context()), req.Path); err != nil {
		h.logger.Errorw("Failed to record heartbeat", "error", err)
		h.jsonResponse(w, http.StatusInternalServerError, map[string]bool{"ok": false})
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// AdminStats lists recent activity for operators
// @Summary Admin Stats
// @Tags Admin
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} models.AdminStats
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /admin/stats [get]
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracking.AdminStats(r.Context(), r.Header.Get("X-Admin-Token"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}
