package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
)

// SubmitReport files an overwatch report
// @Summary Submit Report
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body models.SubmitReportRequest true "Report"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 401 {object} map[string]string "Not signed in"
// @Failure 409 {object} map[string]string "Already banned"
// @Router /reports [post]
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess == nil {
		h.errorResponse(w, http.StatusUnauthorized, "You must be logged in to report.")
		return
	}

	var req models.SubmitReportRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	report, err := h.moderation.SubmitReport(r.Context(), sess, req)
	if err != nil {
		if errors.Is(err, logic.ErrLoginRequired) {
			h.errorResponse(w, http.StatusUnauthorized, "You must be logged in to report.")
			return
		}
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true, "id": report.ID})
}

// ListReports lists reports for a tab
// @Summary List Reports
// @Tags Reports
// @Produce json
// @Param tab query string false "pending, approved, declined, all, mine or against"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} models.ReportPage
// @Router /reports [get]
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := h.moderation.ListReports(r.Context(), q.Get("tab"), page, sessionFrom(r.Context()))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// DecideReport approves or declines a report
// @Summary Decide Report
// @Tags Admin
// @Accept json
// @Produce json
// @Param decision body models.DecideReportRequest true "Decision"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Report not found"
// @Router /admin/reports/status [post]
func (h *Handler) DecideReport(w http.ResponseWriter, r *http.Request) {
	var req models.DecideReportRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		req = models.DecideReportRequest{}
	}

	if err := h.moderation.DecideReport(r.Context(), sessionFrom(r.Context()), req.ID, req.Status); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// Notifications lists the signed-in user's notifications
// @Summary List Notifications
// @Tags Reports
// @Produce json
// @Param markRead query bool false "Mark the notifications read"
// @Success 200 {array} models.Notification
// @Failure 401 {object} map[string]string "Not signed in"
// @Router /notifications [get]
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	markRead, _ := strconv.ParseBool(r.URL.Query().Get("markRead"))

	items, err := h.moderation.Notifications(r.Context(), sessionFrom(r.Context()), markRead)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, items)
}

// AutoFlags lists auto-flagged profiles
// @Summary List Auto-Flagged Profiles
// @Tags Reports
// @Produce json
// @Success 200 {array} models.Profile
// @Router /ai-flags [get]
func (h *Handler) AutoFlags(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.moderation.AutoFlags(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, profiles)
}
