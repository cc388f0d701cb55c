package handlers

import (
	"context"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/internal/ratelimit"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

// MockProfileService
type MockProfileService struct {
	GetProfileFunc     func(ctx context.Context, steamID string, viewer *models.Session) (*models.ProfileView, error)
	HistoryFunc        func(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error)
	SteamPlayerFunc    func(ctx context.Context, steamID string) (*steam.PlayerData, error)
	FaceitPlayerFunc   func(ctx context.Context, playerID string) (*faceit.PlayerData, error)
	LeetifyProfileFunc func(ctx context.Context, steamID string) (*leetify.Profile, error)
	GetMatchFunc       func(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error)
}

func (m *MockProfileService) GetProfile(ctx context.Context, steamID string, viewer *models.Session) (*models.ProfileView, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, steamID, viewer)
	}
	return &models.ProfileView{SteamID: steamID}, nil
}

func (m *MockProfileService) History(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, steamID, limit)
	}
	return []models.LookupHistoryEntry{}, nil
}

func (m *MockProfileService) SteamPlayer(ctx context.Context, steamID string) (*steam.PlayerData, error) {
	if m.SteamPlayerFunc != nil {
		return m.SteamPlayerFunc(ctx, steamID)
	}
	return &steam.PlayerData{}, nil
}

func (m *MockProfileService) FaceitPlayer(ctx context.Context, playerID string) (*faceit.PlayerData, error) {
	if m.FaceitPlayerFunc != nil {
		return m.FaceitPlayerFunc(ctx, playerID)
	}
	return &faceit.PlayerData{}, nil
}

func (m *MockProfileService) LeetifyProfile(ctx context.Context, steamID string) (*leetify.Profile, error) {
	if m.LeetifyProfileFunc != nil {
		return m.LeetifyProfileFunc(ctx, steamID)
	}
	return &leetify.Profile{}, nil
}

func (m *MockProfileService) GetMatch(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(ctx, dataSource, dataSourceID)
	}
	return &leetify.Match{}, nil
}

// MockResolveService
type MockResolveService struct {
	ResolveFunc func(ctx context.Context, query string) (*logic.Resolution, error)
}

func (m *MockResolveService) Resolve(ctx context.Context, query string) (*logic.Resolution, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, query)
	}
	return &logic.Resolution{SteamID: query}, nil
}

// MockModerationService
type MockModerationService struct {
	SubmitReportFunc  func(ctx context.Context, reporter *models.Session, req models.SubmitReportRequest) (*models.Report, error)
	ListReportsFunc   func(ctx context.Context, tab string, page int, viewer *models.Session) (*models.ReportPage, error)
	DecideReportFunc  func(ctx context.Context, admin *models.Session, id int64, status models.ReportStatus) error
	NotificationsFunc func(ctx context.Context, user *models.Session, markRead bool) ([]models.Notification, error)
	AutoFlagsFunc     func(ctx context.Context) ([]models.Profile, error)
	FlagStatusFunc    func(ctx context.Context, steamID string) (*models.Profile, error)
}

func (m *MockModerationService) SubmitReport(ctx context.Context, reporter *models.Session, req models.SubmitReportRequest) (*models.Report, error) {
	if m.SubmitReportFunc != nil {
		return m.SubmitReportFunc(ctx, reporter, req)
	}
	return &models.Report{ID: 1}, nil
}

func (m *MockModerationService) ListReports(ctx context.Context, tab string, page int, viewer *models.Session) (*models.ReportPage, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, tab, page, viewer)
	}
	return &models.ReportPage{Tab: tab, Page: page, Reports: []models.Report{}}, nil
}

func (m *MockModerationService) DecideReport(ctx context.Context, admin *models.Session, id int64, status models.ReportStatus) error {
	if m.DecideReportFunc != nil {
		return m.DecideReportFunc(ctx, admin, id, status)
	}
	return nil
}

func (m *MockModerationService) Notifications(ctx context.Context, user *models.Session, markRead bool) ([]models.Notification, error) {
	if m.NotificationsFunc != nil {
		return m.NotificationsFunc(ctx, user, markRead)
	}
	return []models.Notification{}, nil
}

func (m *MockModerationService) AutoFlags(ctx context.Context) ([]models.Profile, error) {
	if m.AutoFlagsFunc != nil {
		return m.AutoFlagsFunc(ctx)
	}
	return []models.Profile{}, nil
}

func (m *MockModerationService) FlagStatus(ctx context.Context, steamID string) (*models.Profile, error) {
	if m.FlagStatusFunc != nil {
		return m.FlagStatusFunc(ctx, steamID)
	}
	return &models.Profile{SteamID: steamID}, nil
}

// MockTrackingService
type MockTrackingService struct {
	HeartbeatFunc  func(ctx context.Context, user *models.Session, path string) error
	HomeStatsFunc  func(ctx context.Context) models.HomeStats
	AdminStatsFunc func(ctx context.Context, token string) (*models.AdminStats, error)
}

func (m *MockTrackingService) Heartbeat(ctx context.Context, user *models.Session, path string) error {
	if m.HeartbeatFunc != nil {
		return m.HeartbeatFunc(ctx, user, path)
	}
	return nil
}

func (m *MockTrackingService) HomeStats(ctx context.Context) models.HomeStats {
	if m.HomeStatsFunc != nil {
		return m.HomeStatsFunc(ctx)
	}
	return models.HomeStats{}
}

func (m *MockTrackingService) AdminStats(ctx context.Context, token string) (*models.AdminStats, error) {
	if m.AdminStatsFunc != nil {
		return m.AdminStatsFunc(ctx, token)
	}
	return &models.AdminStats{}, nil
}

// MockOpenID
type MockOpenID struct {
	VerifyFunc func(ctx context.Context, params url.Values) (string, error)
}

func (m *MockOpenID) LoginURL(origin, returnTo string) string {
	return "https://steamcommunity.com/openid/login?openid.return_to=" + url.QueryEscape(returnTo)
}

func (m *MockOpenID) Verify(ctx context.Context, params url.Values) (string, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, params)
	}
	return "", nil
}

// MockSummaries
type MockSummaries struct {
	GetPlayerSummaryFunc func(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
}

func (m *MockSummaries) GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error) {
	if m.GetPlayerSummaryFunc != nil {
		return m.GetPlayerSummaryFunc(ctx, steamID)
	}
	return nil, steam.ErrNoSummary
}

// MockLimiter
type MockLimiter struct {
	AllowFunc func(ctx context.Context, scope, client string) (ratelimit.Result, error)
}

func (m *MockLimiter) Allow(ctx context.Context, scope, client string) (ratelimit.Result, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, scope, client)
	}
	return ratelimit.Result{Allowed: true}, nil
}

// MockPinger
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }

// MockRedisPinger
type MockRedisPinger struct {
	Err error
}

func (m *MockRedisPinger) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

// MockQueue
type MockQueue struct {
	Depth int
}

func (m *MockQueue) QueueDepth() int { return m.Depth }
