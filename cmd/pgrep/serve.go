package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pgrep/reputation-api/internal/auth"
	"github.com/pgrep/reputation-api/internal/cache"
	"github.com/pgrep/reputation-api/internal/handlers"
	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/ratelimit"
	"github.com/pgrep/reputation-api/internal/store"
	"github.com/pgrep/reputation-api/internal/worker"
	"github.com/pgrep/reputation-api/pkg/faceit"
	"github.com/pgrep/reputation-api/pkg/leetify"
	"github.com/pgrep/reputation-api/pkg/steam"
	"github.com/pgrep/reputation-api/pkg/upstream"
)

var (
	servePort        int
	serveSkipMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sugar := logger.Sugar()

		if !serveSkipMigrate {
			if err := store.RunMigrations(cfg.PostgresURL); err != nil {
				return err
			}
		}

		// PostgreSQL
		pg, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return eris.Wrap(err, "connect postgres")
		}
		defer pg.Close()

		// ClickHouse
		chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return eris.Wrap(err, "parse clickhouse url")
		}
		ch, err := clickhouse.Open(chOpts)
		if err != nil {
			return eris.Wrap(err, "connect clickhouse")
		}
		defer ch.Close()

		lookups := store.NewLookupStore(ch)
		if err := lookups.EnsureSchema(ctx); err != nil {
			return err
		}

		// Redis
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return eris.Wrap(err, "parse redis url")
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		// Upstream clients share the Redis response cache and a per-provider token bucket.
		shared := []upstream.Option{
			upstream.WithCache(cache.NewRedis(rdb)),
			upstream.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		}
		steamClient := steam.New(cfg.SteamAPIKey, upstream.New("steam", shared...))

		faceitOpts := append([]upstream.Option{}, shared...)
		if cfg.FaceitAPIKey != "" {
			faceitOpts = append(faceitOpts, upstream.WithHeader("Authorization", "Bearer "+cfg.FaceitAPIKey))
		}
		faceitClient := faceit.New(upstream.New("faceit", faceitOpts...))

		leetifyOpts := append(leetify.TransportOptions(cfg.LeetifyAPIKey), shared...)
		leetifyClient := leetify.New(cfg.LeetifyBaseURL, upstream.New("leetify", leetifyOpts...))

		if !steamClient.Configured() {
			sugar.Warnw("STEAM_WEB_API_KEY is not set; Steam lookups will fail")
		}

		pgStore := store.New(pg)

		// Worker pool
		pool := worker.NewPool(worker.PoolConfig{
			WorkerCount:   cfg.WorkerCount,
			QueueSize:     cfg.QueueSize,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			Lookups:       lookups,
			Profiles:      pgStore,
			Stats:         worker.NewRedisStatStore(rdb),
			Logger:        logger,
		})
		pool.Start(ctx)
		defer pool.Stop()

		sessions := auth.NewSessions(cfg.SessionSecret, cfg.SteamAPIKey, cfg.Production())
		if !sessions.Enabled() {
			sugar.Warnw("No session secret configured; Steam sign-in is disabled")
		}

		h := handlers.New(handlers.Config{
			Queue:        pool,
			Postgres:     pg,
			ClickHouse:   ch,
			Redis:        rdb,
			Logger:       logger,
			Limiter:      ratelimit.NewFixedWindow(ratelimit.NewRedisStore(rdb), cfg.RateLimitPerMinute, cfg.RateLimitWindow),
			Sessions:     sessions,
			OpenID:       auth.NewOpenID(auth.SteamOpenIDEndpoint, upstream.New("steam-openid")),
			Summaries:    steamClient,
			PublicOrigin: cfg.PublicOrigin,
			Profiles: logic.NewProfileService(logic.ProfileConfig{
				Steam:           steamClient,
				Faceit:          faceitClient,
				Leetify:         leetifyClient,
				Repo:            pgStore,
				Lookups:         pool,
				History:         lookups,
				UpstreamTimeout: cfg.UpstreamTimeout,
				Logger:          sugar,
			}),
			Resolver:   logic.NewResolveService(steamClient, faceitClient),
			Moderation: logic.NewModerationService(pgStore, auth.ParseAdmins(cfg.AdminSteamIDs), sugar),
			Tracking:   logic.NewTrackingService(pgStore, rdb, cfg.AdminStatsToken, sugar),
		})

		port := servePort
		if port == 0 {
			port = cfg.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h.Router(cfg.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			sugar.Infow("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				sugar.Errorw("Server shutdown failed", "error", err)
			}
		}()

		sugar.Infow("Starting server", "port", port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveSkipMigrate, "skip-migrate", false, "do not apply PostgreSQL migrations on start")
	rootCmd.AddCommand(serveCmd)
}
