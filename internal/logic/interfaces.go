package logic

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/internal/store"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

// SteamAPI is the subset of the Steam client the services use.
type SteamAPI interface {
	FetchPlayer(ctx context.Context, steamID string) (*steam.PlayerData, error)
	GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
	ResolveVanityURL(ctx context.Context, vanity string) (string, error)
}

// FaceitAPI is the subset of the FACEIT client the services use.
type FaceitAPI interface {
	FetchPlayer(ctx context.Context, steamID string) (*faceit.PlayerData, error)
	FetchPlayerByID(ctx context.Context, playerID string) (*faceit.PlayerData, error)
	PlayerByNickname(ctx context.Context, nickname string) (*faceit.Player, error)
}

// LeetifyAPI is the subset of the Leetify client the services use.
type LeetifyAPI interface {
	Profile(ctx context.Context, steamID string) (*leetify.Profile, error)
	Match(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error)
}

// ProfileRepository records profile views (PostgreSQL).
type ProfileRepository interface {
	UpsertProfile(ctx context.Context, p models.Profile) error
	UpsertUser(ctx context.Context, u models.User) error
	HasApprovedReport(ctx context.Context, targetSteamID string) (bool, error)
}

// LookupQueue accepts lookup events for asynchronous processing.
type LookupQueue interface {
	Enqueue(event models.LookupEvent) bool
}

// LookupReader reads the lookup log (ClickHouse).
type LookupReader interface {
	LookupHistory(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error)
}

// ReportRepository is the moderation storage (PostgreSQL).
type ReportRepository interface {
	HasApprovedReport(ctx context.Context, targetSteamID string) (bool, error)
	InsertReport(ctx context.Context, r *models.Report) error
	ListReports(ctx context.Context, f store.ReportFilter) ([]models.Report, int, error)
	CountReports(ctx context.Context, viewerID string) (models.ReportCounts, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	ResolveReport(ctx context.Context, id int64, status models.ReportStatus, resolvedBy string, at time.Time) error
	GetProfile(ctx context.Context, steamID string) (*models.Profile, error)
	ListAutoFlagged(ctx context.Context, limit int) ([]models.Profile, error)
	InsertNotification(ctx context.Context, recipient, message string) error
	ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error)
}

// TrackingRepository holds presence and counters (PostgreSQL).
type TrackingRepository interface {
	UpsertUser(ctx context.Context, u models.User) error
	CountProfiles(ctx context.Context) (int, error)
	CountActiveUsers(ctx context.Context, since time.Time) (int, error)
	CountReports(ctx context.Context, viewerID string) (models.ReportCounts, error)
	RecentUsers(ctx context.Context, since time.Time, limit int) ([]models.SeenEntry, error)
	RecentProfiles(ctx context.Context, limit int) ([]models.SeenEntry, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}
