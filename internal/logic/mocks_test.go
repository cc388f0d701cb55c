package logic

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/internal/store"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

type mockSteam struct {
	FetchPlayerFunc      func(ctx context.Context, steamID string) (*steam.PlayerData, error)
	GetPlayerSummaryFunc func(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
	ResolveVanityFunc    func(ctx context.Context, vanity string) (string, error)
}

func (m *mockSteam) FetchPlayer(ctx context.Context, steamID string) (*steam.PlayerData, error) {
	if m.FetchPlayerFunc != nil {
		return m.FetchPlayerFunc(ctx, steamID)
	}
	return &steam.PlayerData{Summary: &steam.PlayerSummary{SteamID: steamID}}, nil
}

func (m *mockSteam) GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error) {
	if m.GetPlayerSummaryFunc != nil {
		return m.GetPlayerSummaryFunc(ctx, steamID)
	}
	return &steam.PlayerSummary{SteamID: steamID}, nil
}

func (m *mockSteam) ResolveVanityURL(ctx context.Context, vanity string) (string, error) {
	if m.ResolveVanityFunc != nil {
		return m.ResolveVanityFunc(ctx, vanity)
	}
	return "", nil
}

type mockFaceit struct {
	FetchPlayerFunc      func(ctx context.Context, steamID string) (*faceit.PlayerData, error)
	FetchPlayerByIDFunc  func(ctx context.Context, playerID string) (*faceit.PlayerData, error)
	PlayerByNicknameFunc func(ctx context.Context, nickname string) (*faceit.Player, error)
}

func (m *mockFaceit) FetchPlayer(ctx context.Context, steamID string) (*faceit.PlayerData, error) {
	if m.FetchPlayerFunc != nil {
		return m.FetchPlayerFunc(ctx, steamID)
	}
	return &faceit.PlayerData{Player: &faceit.Player{SteamID64: steamID}}, nil
}

func (m *mockFaceit) FetchPlayerByID(ctx context.Context, playerID string) (*faceit.PlayerData, error) {
	if m.FetchPlayerByIDFunc != nil {
		return m.FetchPlayerByIDFunc(ctx, playerID)
	}
	return &faceit.PlayerData{Player: &faceit.Player{PlayerID: playerID}}, nil
}

func (m *mockFaceit) PlayerByNickname(ctx context.Context, nickname string) (*faceit.Player, error) {
	if m.PlayerByNicknameFunc != nil {
		return m.PlayerByNicknameFunc(ctx, nickname)
	}
	return &faceit.Player{Nickname: nickname}, nil
}

type mockLeetify struct {
	ProfileFunc func(ctx context.Context, steamID string) (*leetify.Profile, error)
	MatchFunc   func(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error)
}

func (m *mockLeetify) Profile(ctx context.Context, steamID string) (*leetify.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, steamID)
	}
	return &leetify.Profile{}, nil
}

func (m *mockLeetify) Match(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, dataSource, dataSourceID)
	}
	return &leetify.Match{DataSource: dataSource}, nil
}

type mockProfileRepo struct {
	mu       sync.Mutex
	Profiles []models.Profile
	Users    []models.User

	UpsertProfileErr     error
	HasApprovedReportVal bool
	HasApprovedReportErr error
}

func (m *mockProfileRepo) UpsertProfile(ctx context.Context, p models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertProfileErr != nil {
		return m.UpsertProfileErr
	}
	m.Profiles = append(m.Profiles, p)
	return nil
}

func (m *mockProfileRepo) UpsertUser(ctx context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users = append(m.Users, u)
	return nil
}

func (m *mockProfileRepo) HasApprovedReport(ctx context.Context, targetSteamID string) (bool, error) {
	return m.HasApprovedReportVal, m.HasApprovedReportErr
}

type mockQueue struct {
	Events []models.LookupEvent
}

func (m *mockQueue) Enqueue(event models.LookupEvent) bool {
	m.Events = append(m.Events, event)
	return true
}

type mockLookupReader struct {
	LookupHistoryFunc func(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error)
}

func (m *mockLookupReader) LookupHistory(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error) {
	return m.LookupHistoryFunc(ctx, steamID, limit)
}

type mockReportRepo struct {
	HasApprovedReportFunc     func(ctx context.Context, targetSteamID string) (bool, error)
	InsertReportFunc          func(ctx context.Context, r *models.Report) error
	ListReportsFunc           func(ctx context.Context, f store.ReportFilter) ([]models.Report, int, error)
	CountReportsFunc          func(ctx context.Context, viewerID string) (models.ReportCounts, error)
	GetReportFunc             func(ctx context.Context, id int64) (*models.Report, error)
	ResolveReportFunc         func(ctx context.Context, id int64, status models.ReportStatus, resolvedBy string, at time.Time) error
	GetProfileFunc            func(ctx context.Context, steamID string) (*models.Profile, error)
	ListAutoFlaggedFunc       func(ctx context.Context, limit int) ([]models.Profile, error)
	InsertNotificationFunc    func(ctx context.Context, recipient, message string) error
	ListNotificationsFunc     func(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	MarkNotificationsReadFunc func(ctx context.Context, recipient string, at time.Time) (int64, error)
}

func (m *mockReportRepo) HasApprovedReport(ctx context.Context, targetSteamID string) (bool, error) {
	if m.HasApprovedReportFunc != nil {
		return m.HasApprovedReportFunc(ctx, targetSteamID)
	}
	return false, nil
}

func (m *mockReportRepo) InsertReport(ctx context.Context, r *models.Report) error {
	if m.InsertReportFunc != nil {
		return m.InsertReportFunc(ctx, r)
	}
	r.ID = 1
	return nil
}

func (m *mockReportRepo) ListReports(ctx context.Context, f store.ReportFilter) ([]models.Report, int, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockReportRepo) CountReports(ctx context.Context, viewerID string) (models.ReportCounts, error) {
	if m.CountReportsFunc != nil {
		return m.CountReportsFunc(ctx, viewerID)
	}
	return models.ReportCounts{}, nil
}

func (m *mockReportRepo) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportRepo) ResolveReport(ctx context.Context, id int64, status models.ReportStatus, resolvedBy string, at time.Time) error {
	if m.ResolveReportFunc != nil {
		return m.ResolveReportFunc(ctx, id, status, resolvedBy, at)
	}
	return nil
}

func (m *mockReportRepo) GetProfile(ctx context.Context, steamID string) (*models.Profile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, steamID)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportRepo) ListAutoFlagged(ctx context.Context, limit int) ([]models.Profile, error) {
	if m.ListAutoFlaggedFunc != nil {
		return m.ListAutoFlaggedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) InsertNotification(ctx context.Context, recipient, message string) error {
	if m.InsertNotificationFunc != nil {
		return m.InsertNotificationFunc(ctx, recipient, message)
	}
	return nil
}

func (m *mockReportRepo) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	if m.ListNotificationsFunc != nil {
		return m.ListNotificationsFunc(ctx, recipient, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) MarkNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	if m.MarkNotificationsReadFunc != nil {
		return m.MarkNotificationsReadFunc(ctx, recipient, at)
	}
	return 0, nil
}

type mockTrackingRepo struct {
	UpsertUserFunc       func(ctx context.Context, u models.User) error
	CountProfilesFunc    func(ctx context.Context) (int, error)
	CountActiveUsersFunc func(ctx context.Context, since time.Time) (int, error)
	CountReportsFunc     func(ctx context.Context, viewerID string) (models.ReportCounts, error)
	RecentUsersFunc      func(ctx context.Context, since time.Time, limit int) ([]models.SeenEntry, error)
	RecentProfilesFunc   func(ctx context.Context, limit int) ([]models.SeenEntry, error)
}

func (m *mockTrackingRepo) UpsertUser(ctx context.Context, u models.User) error {
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(ctx, u)
	}
	return nil
}

func (m *mockTrackingRepo) CountProfiles(ctx context.Context) (int, error) {
	if m.CountProfilesFunc != nil {
		return m.CountProfilesFunc(ctx)
	}
	return 0, nil
}

func (m *mockTrackingRepo) CountActiveUsers(ctx context.Context, since time.Time) (int, error) {
	if m.CountActiveUsersFunc != nil {
		return m.CountActiveUsersFunc(ctx, since)
	}
	return 0, nil
}

func (m *mockTrackingRepo) CountReports(ctx context.Context, viewerID string) (models.ReportCounts, error) {
	if m.CountReportsFunc != nil {
		return m.CountReportsFunc(ctx, viewerID)
	}
	return models.ReportCounts{}, nil
}

func (m *mockTrackingRepo) RecentUsers(ctx context.Context, since time.Time, limit int) ([]models.SeenEntry, error) {
	if m.RecentUsersFunc != nil {
		return m.RecentUsersFunc(ctx, since, limit)
	}
	return nil, nil
}

func (m *mockTrackingRepo) RecentProfiles(ctx context.Context, limit int) ([]models.SeenEntry, error) {
	if m.RecentProfilesFunc != nil {
		return m.RecentProfilesFunc(ctx, limit)
	}
	return nil, nil
}

type mockRedis struct {
	GetFunc func(ctx context.Context, key string) *redis.StringCmd
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	return m.GetFunc(ctx, key)
}

type adminSet map[string]bool

func (a adminSet) IsAdmin(steamID string) bool { return a[steamID] }
