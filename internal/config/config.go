package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Server
	Port         int    `mapstructure:"port"`
	Env          string `mapstructure:"env"`
	PublicOrigin string `mapstructure:"public_origin"`

	// CORS
	AllowedOrigins []string `mapstructure:"-"`
	RawOrigins     string   `mapstructure:"allowed_origins"`

	// Database URLs
	PostgresURL   string `mapstructure:"postgres_url"`
	ClickHouseURL string `mapstructure:"clickhouse_url"`
	RedisURL      string `mapstructure:"redis_url"`

	// Worker pool
	WorkerCount   int           `mapstructure:"worker_count"`
	QueueSize     int           `mapstructure:"queue_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`

	// Rate limiting
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`

	// Upstreams
	SteamAPIKey     string        `mapstructure:"steam_web_api_key"`
	FaceitAPIKey    string        `mapstructure:"faceit_server_api_key"`
	LeetifyAPIKey   string        `mapstructure:"leetify_api_key"`
	LeetifyBaseURL  string        `mapstructure:"leetify_base_url"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	UpstreamRPS     float64       `mapstructure:"upstream_rps"`
	UpstreamBurst   int           `mapstructure:"upstream_burst"`

	// Auth
	SessionSecret   string `mapstructure:"steam_session_secret"`
	AdminSteamIDs   string `mapstructure:"admin_steam_ids"`
	AdminStatsToken string `mapstructure:"admin_stats_token"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Production reports whether the service runs with ENV=production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment wins over the file.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("env", "development")
	v.SetDefault("public_origin", "")
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("postgres_url", "")
	v.SetDefault("clickhouse_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("worker_count", 4)
	v.SetDefault("queue_size", 10000)
	v.SetDefault("batch_size", 500)
	v.SetDefault("flush_interval", time.Second)
	v.SetDefault("rate_limit_per_minute", 30)
	v.SetDefault("rate_limit_window", time.Minute)
	v.SetDefault("steam_web_api_key", "")
	v.SetDefault("faceit_server_api_key", "")
	v.SetDefault("leetify_api_key", "")
	v.SetDefault("leetify_base_url", "https://api-public.cs-prod.leetify.com")
	v.SetDefault("upstream_timeout", 10*time.Second)
	v.SetDefault("upstream_rps", 10.0)
	v.SetDefault("upstream_burst", 20)
	v.SetDefault("steam_session_secret", "")
	v.SetDefault("admin_steam_ids", "")
	v.SetDefault("admin_stats_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	for _, o := range strings.Split(cfg.RawOrigins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	required := map[string]string{
		"POSTGRES_URL":   cfg.PostgresURL,
		"CLICKHOUSE_URL": cfg.ClickHouseURL,
		"REDIS_URL":      cfg.RedisURL,
	}
	for _, key := range []string{"POSTGRES_URL", "CLICKHOUSE_URL", "REDIS_URL"} {
		if required[key] == "" {
			return nil, eris.Errorf("missing required environment variable: %s", key)
		}
	}

	return &cfg, nil
}

// InitLogger builds the process logger and installs it as the zap global.
func InitLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
