package logic

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/internal/store"
)

const (
	ReportPageSize     = 10
	autoFlagListLimit  = 200
	notificationsLimit = 50
)

// Layouts accepted for the time a reported incident occurred. The bare
// forms are what an HTML datetime-local input submits.
var occurredAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Admin decides whether a steam id may moderate.
type Admin interface {
	IsAdmin(steamID string) bool
}

// ModerationService runs the community report workflow.
type ModerationService struct {
	repo   ReportRepository
	admins Admin
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewModerationService(repo ReportRepository, admins Admin, logger *zap.SugaredLogger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ModerationService{repo: repo, admins: admins, logger: logger, now: time.Now}
}

// SubmitReport files a pending report from the signed-in reporter.
func (s *ModerationService) SubmitReport(ctx context.Context, reporter *models.Session, req models.SubmitReportRequest) (*models.Report, error) {
	if reporter == nil || reporter.SteamID == "" {
		return nil, ErrLoginRequired
	}

	target := strings.TrimSpace(req.TargetSteamID)
	if target == "" || strings.TrimSpace(req.OccurredAt) == "" || strings.TrimSpace(req.DemoURL) == "" || req.CheatType == "" {
		return nil, &ValidationError{Message: "Missing required fields."}
	}
	if !ValidSteamID(target) {
		return nil, ErrInvalidSteamID
	}
	if !slices.Contains(models.CheatTypes, req.CheatType) {
		return nil, &ValidationError{Message: "Invalid cheat type."}
	}
	occurred, ok := parseOccurredAt(req.OccurredAt)
	if !ok {
		return nil, &ValidationError{Message: "Invalid date."}
	}
	demo, err := url.Parse(strings.TrimSpace(req.DemoURL))
	if err != nil || demo.Scheme == "" || demo.Host == "" {
		return nil, &ValidationError{Message: "Invalid demo URL."}
	}

	banned, err := s.repo.HasApprovedReport(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing ban: %w", err)
	}
	if banned {
		return nil, ErrAlreadyBanned
	}

	report := &models.Report{
		TargetSteamID:       target,
		TargetPersonaName:   strings.TrimSpace(req.TargetName),
		ReporterSteamID:     reporter.SteamID,
		ReporterPersonaName: reporter.PersonaName,
		DemoURL:             demo.String(),
		CheatType:           req.CheatType,
		OccurredAt:          occurred,
		Status:              models.ReportPending,
	}
	if err := s.repo.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	s.logger.Infow("Report submitted",
		"id", report.ID,
		"target", report.TargetSteamID,
		"reporter", report.ReporterSteamID,
		"cheat_type", report.CheatType,
	)
	return report, nil
}

// ListReports returns one page of a tab, newest first, with per-tab counts.
// An empty tab means pending; pages start at 1.
func (s *ModerationService) ListReports(ctx context.Context, tab string, page int, viewer *models.Session) (*models.ReportPage, error) {
	if tab == "" {
		tab = store.TabPending
	}
	if !store.ValidTab(tab) {
		return nil, ErrInvalidTab
	}
	var viewerID string
	if viewer != nil {
		viewerID = viewer.SteamID
	}
	if (tab == store.TabMine || tab == store.TabAgainst) && viewerID == "" {
		return nil, ErrLoginRequired
	}
	if page < 1 {
		page = 1
	}

	reports, total, err := s.repo.ListReports(ctx, store.ReportFilter{
		Tab:      tab,
		ViewerID: viewerID,
		Limit:    ReportPageSize,
		Offset:   (page - 1) * ReportPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	counts, err := s.repo.CountReports(ctx, viewerID)
	if err != nil {
		s.logger.Warnw("Failed to count reports", "error", err)
	}

	if reports == nil {
		reports = []models.Report{}
	}
	return &models.ReportPage{
		Tab:      tab,
		Page:     page,
		PageSize: ReportPageSize,
		Total:    total,
		Reports:  reports,
		Counts:   counts,
	}, nil
}

// DecideReport approves or declines a report and notifies the reporter.
func (s *ModerationService) DecideReport(ctx context.Context, admin *models.Session, id int64, status models.ReportStatus) error {
	if admin == nil || s.admins == nil || !s.admins.IsAdmin(admin.SteamID) {
		return ErrNotAdmin
	}
	if id <= 0 {
		return &ValidationError{Message: "Invalid payload."}
	}
	if status != models.ReportApproved && status != models.ReportDeclined {
		return &ValidationError{Message: "Invalid status."}
	}

	report, err := s.repo.GetReport(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrReportNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	if err := s.repo.ResolveReport(ctx, id, status, admin.SteamID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to resolve report: %w", err)
	}

	if err := s.repo.InsertNotification(ctx, report.ReporterSteamID, DecisionMessage(report, status)); err != nil {
		s.logger.Warnw("Failed to notify reporter", "report", id, "error", err)
	}

	s.logger.Infow("Report resolved", "id", id, "status", status, "admin", admin.SteamID)
	return nil
}

// DecisionMessage is the notification sent to a reporter.
func DecisionMessage(r *models.Report, status models.ReportStatus) string {
	label := r.TargetPersonaName
	if label == "" {
		label = r.TargetSteamID
	}
	return fmt.Sprintf("Report for %s is %s.", label, status)
}

// Notifications lists the signed-in user's notifications and, when markRead
// is set, marks them read afterwards.
func (s *ModerationService) Notifications(ctx context.Context, user *models.Session, markRead bool) ([]models.Notification, error) {
	if user == nil || user.SteamID == "" {
		return nil, ErrLoginRequired
	}
	items, err := s.repo.ListNotifications(ctx, user.SteamID, notificationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if markRead {
		if _, err := s.repo.MarkNotificationsRead(ctx, user.SteamID, s.now()); err != nil {
			s.logger.Warnw("Failed to mark notifications read", "steam_id", user.SteamID, "error", err)
		}
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// AutoFlags lists auto-flagged profiles, most recent first.
func (s *ModerationService) AutoFlags(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.repo.ListAutoFlagged(ctx, autoFlagListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-flagged profiles: %w", err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}

// FlagStatus returns the stored trust rating and flag state of a profile.
func (s *ModerationService) FlagStatus(ctx context.Context, steamID string) (*models.Profile, error) {
	if !ValidSteamID(steamID) {
		return nil, ErrInvalidSteamID
	}
	p, err := s.repo.GetProfile(ctx, steamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func parseOccurredAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range occurredAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
