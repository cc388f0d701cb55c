// Package handlers exposes the reputation services over HTTP.
package handlers

import (
	"context"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pgrep/reputation-api/internal/auth"
	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
	"github.com/pgrep/reputation-api/internal/ratelimit"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// LookupQueue reports the depth of the lookup worker queue.
type LookupQueue interface {
	QueueDepth() int
}

// Pinger is satisfied by pgxpool.Pool and clickhouse driver.Conn.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// ProfileService aggregates upstream profiles.
type ProfileService interface {
	GetProfile(ctx context.Context, steamID string, viewer *models.Session) (*models.ProfileView, error)
	History(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error)
	SteamPlayer(ctx context.Context, steamID string) (*steam.PlayerData, error)
	FaceitPlayer(ctx context.Context, playerID string) (*faceit.PlayerData, error)
	LeetifyProfile(ctx context.Context, steamID string) (*leetify.Profile, error)
	GetMatch(ctx context.Context, dataSource, dataSourceID string) (*leetify.Match, error)
}

// ResolveService turns free text into Steam ids.
type ResolveService interface {
	Resolve(ctx context.Context, query string) (*logic.Resolution, error)
}

// ModerationService runs the report workflow.
type ModerationService interface {
	SubmitReport(ctx context.Context, reporter *models.Session, req models.SubmitReportRequest) (*models.Report, error)
	ListReports(ctx context.Context, tab string, page int, viewer *models.Session) (*models.ReportPage, error)
	DecideReport(ctx context.Context, admin *models.Session, id int64, status models.ReportStatus) error
	Notifications(ctx context.Context, user *models.Session, markRead bool) ([]models.Notification, error)
	AutoFlags(ctx context.Context) ([]models.Profile, error)
	FlagStatus(ctx context.Context, steamID string) (*models.Profile, error)
}

// TrackingService records presence and activity counters.
type TrackingService interface {
	Heartbeat(ctx context.Context, user *models.Session, path string) error
	HomeStats(ctx context.Context) models.HomeStats
	AdminStats(ctx context.Context, token string) (*models.AdminStats, error)
}

// OpenIDProvider performs Steam sign-in.
type OpenIDProvider interface {
	LoginURL(origin, returnTo string) string
	Verify(ctx context.Context, params url.Values) (string, error)
}

// SummaryFetcher loads the Steam profile of a freshly signed-in user.
type SummaryFetcher interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
}

type Config struct {
	Queue        LookupQueue
	Postgres     Pinger
	ClickHouse   Pinger
	Redis        RedisPinger
	Logger       *zap.Logger
	Limiter      ratelimit.Limiter
	Sessions     *auth.Sessions
	OpenID       OpenIDProvider
	Summaries    SummaryFetcher
	PublicOrigin string
	// Services
	Profiles   ProfileService
	Resolver   ResolveService
	Moderation ModerationService
	Tracking   TrackingService
}

type Handler struct {
	queue        LookupQueue
	pg           Pinger
	ch           Pinger
	redis        RedisPinger
	logger       *zap.SugaredLogger
	validator    *validator.Validate
	limiter      ratelimit.Limiter
	sessions     *auth.Sessions
	openID       OpenIDProvider
	summaries    SummaryFetcher
	publicOrigin string
	profiles     ProfileService
	resolver     ResolveService
	moderation   ModerationService
	tracking     TrackingService
	now          func() time.Time
}

func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		queue:        cfg.Queue,
		pg:           cfg.Postgres,
		ch:           cfg.ClickHouse,
		redis:        cfg.Redis,
		logger:       cfg.Logger.Sugar(),
		validator:    newValidator(),
		limiter:      cfg.Limiter,
		sessions:     cfg.Sessions,
		openID:       cfg.OpenID,
		summaries:    cfg.Summaries,
		publicOrigin: strings.TrimRight(cfg.PublicOrigin, "/"),
		profiles:     cfg.Profiles,
		resolver:     cfg.Resolver,
		moderation:   cfg.Moderation,
		tracking:     cfg.Tracking,
		now:          time.Now,
	}
}

// newValidator registers the domain tags used on request models and reports
// field errors by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("steamid", func(fl validator.FieldLevel) bool {
		return logic.ValidSteamID(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("cheattype", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.CheatTypes, fl.Field().String())
	})
	return v
}
