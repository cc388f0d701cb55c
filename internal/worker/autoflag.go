package worker

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
)

var profilesAutoFlagged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pgrep_profiles_auto_flagged_total",
	Help: "Total number of profiles auto-flagged for a low trust rating",
})

// ProfileStore persists trust ratings and flags (Postgres).
type ProfileStore interface {
	SetTrustRating(ctx context.Context, steamID string, score int, premier *int, at time.Time) error
	MarkAutoFlagged(ctx context.Context, steamID, reason string, at time.Time) (bool, error)
}

// StatStore abstracts the counters and pub/sub used for flag notifications (e.g., Redis)
type StatStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RedisStatStore implements StatStore using Redis
type RedisStatStore struct {
	client redis.Cmdable
}

func NewRedisStatStore(client redis.Cmdable) *RedisStatStore {
	return &RedisStatStore{client: client}
}

func (s *RedisStatStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisStatStore) Publish(ctx context.Context, channel string, message interface{}) error {
	return s.client.Publish(ctx, channel, message).Err()
}

// AutoFlagger stores the score of each lookup and flags profiles whose
// score falls below the auto-flag ceiling. A profile is flagged once.
type AutoFlagger struct {
	profiles ProfileStore
	stats    StatStore
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewAutoFlagger(profiles ProfileStore, stats StatStore, logger *zap.SugaredLogger) *AutoFlagger {
	return &AutoFlagger{profiles: profiles, stats: stats, logger: logger, now: time.Now}
}

// Apply handles one lookup. Failures are logged; a lookup without a score
// never touches the stored rating.
func (f *AutoFlagger) Apply(ctx context.Context, ev models.LookupEvent) {
	if f.profiles == nil || ev.Score == nil {
		return
	}
	score := *ev.Score
	at := ev.LookedUpAt
	if at.IsZero() {
		at = f.now()
	}

	var premier *int
	if ev.Premier != nil {
		v := int(math.Round(*ev.Premier))
		premier = &v
	}

	if err := f.profiles.SetTrustRating(ctx, ev.SteamID, score, premier, at); err != nil {
		f.logger.Warnw("Failed to store trust rating", "steam_id", ev.SteamID, "error", err)
		return
	}

	if !logic.ScoreFlagged(ev.Score) {
		return
	}

	reason := logic.AutoFlagReason(score)
	flagged, err := f.profiles.MarkAutoFlagged(ctx, ev.SteamID, reason, at)
	if err != nil {
		f.logger.Warnw("Failed to auto-flag profile", "steam_id", ev.SteamID, "error", err)
		return
	}
	if !flagged {
		return
	}

	profilesAutoFlagged.Inc()
	f.logger.Infow("Profile auto-flagged", "steam_id", ev.SteamID, "trust_rating", score)

	if f.stats == nil {
		return
	}
	if _, err := f.stats.Incr(ctx, models.AutoFlagCounterKey); err != nil {
		f.logger.Warnw("Failed to bump auto-flag counter", "error", err)
	}
	payload, err := json.Marshal(models.AutoFlagEvent{
		SteamID:     ev.SteamID,
		TrustRating: score,
		Reason:      reason,
		FlaggedAt:   at,
	})
	if err != nil {
		return
	}
	if err := f.stats.Publish(ctx, models.AutoFlagChannel, string(payload)); err != nil {
		f.logger.Warnw("Failed to publish auto-flag", "error", err)
	}
}
