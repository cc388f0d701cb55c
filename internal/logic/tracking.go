package logic

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pgrep/reputation-api/internal/auth"
	"github.com/pgrep/reputation-api/internal/models"
)

const (
	activeWindow     = 5 * time.Minute
	adminStatsLimit  = 200
	maxHeartbeatPath = 512
)

// TrackingService records presence and reports activity counters.
type TrackingService struct {
	repo       TrackingRepository
	redis      RedisClient
	adminToken string
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewTrackingService(repo TrackingRepository, rdb RedisClient, adminToken string, logger *zap.SugaredLogger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TrackingService{repo: repo, redis: rdb, adminToken: adminToken, logger: logger, now: time.Now}
}

// Heartbeat marks the signed-in user as active on path. Anonymous
// heartbeats are accepted and ignored.
func (s *TrackingService) Heartbeat(ctx context.Context, user *models.Session, path string) error {
	if user == nil || user.SteamID == "" {
		return nil
	}
	if len(path) > maxHeartbeatPath {
		path = path[:maxHeartbeatPath]
	}
	return s.repo.UpsertUser(ctx, models.User{
		SteamID:     user.SteamID,
		PersonaName: user.PersonaName,
		LastPath:    path,
		LastSeenAt:  s.now(),
	})
}

// HomeStats gathers the landing counters concurrently. A counter that cannot
// be read is nil.
func (s *TrackingService) HomeStats(ctx context.Context) models.HomeStats {
	var (
		out models.HomeStats
		g   errgroup.Group
	)
	since := s.now().Add(-activeWindow)

	g.Go(func() error {
		n, err := s.repo.CountProfiles(ctx)
		if err != nil {
			s.logger.Warnw("Failed to count profiles", "error", err)
			return nil
		}
		out.PlayersIndexed = &n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountActiveUsers(ctx, since)
		if err != nil {
			s.logger.Warnw("Failed to count active users", "error", err)
			return nil
		}
		out.ActiveUsers = &n
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountReports(ctx, "")
		if err != nil {
			s.logger.Warnw("Failed to count reports", "error", err)
			return nil
		}
		out.ReportsSubmitted = &counts.All
		return nil
	})
	g.Go(func() error {
		n, ok := s.autoFlagCount(ctx)
		if ok {
			out.AIAutoFlagged = &n
		}
		return nil
	})
	_ = g.Wait()

	return out
}

func (s *TrackingService) autoFlagCount(ctx context.Context) (int, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.Get(ctx, models.AutoFlagCounterKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		s.logger.Warnw("Failed to read auto-flag counter", "error", err)
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AdminStats lists recently active users and indexed profiles. token is
// compared in constant time against the configured admin token.
func (s *TrackingService) AdminStats(ctx context.Context, token string) (*models.AdminStats, error) {
	if s.adminToken == "" {
		return nil, ErrAdminTokenUnset
	}
	if !auth.TokenEqual(token, s.adminToken) {
		return nil, ErrBadAdminToken
	}

	out := &models.AdminStats{ActiveWindowMinutes: int(activeWindow.Minutes())}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.repo.RecentUsers(gctx, s.now().Add(-activeWindow), adminStatsLimit)
		out.ActiveUsers = users
		return err
	})
	g.Go(func() error {
		profiles, err := s.repo.RecentProfiles(gctx, adminStatsLimit)
		out.IndexedProfiles = profiles
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.ActiveUsers == nil {
		out.ActiveUsers = []models.SeenEntry{}
	}
	if out.IndexedProfiles == nil {
		out.IndexedProfiles = []models.SeenEntry{}
	}
	return out, nil
}
