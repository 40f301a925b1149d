package app

import (
	"time"

	"github.com/yungbote/queueflow-backend/internal/data/db"
	"github.com/yungbote/queueflow-backend/internal/observability"
	"github.com/yungbote/queueflow-backend/internal/platform/envutil"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port        string
	LogMode     string
	Environment string
	Version     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Postgres db.PostgresConfig
	Redis    bus.RedisConfig

	LogoFont string

	CORSOrigins    []string
	MetricsEnabled bool
	Tracing        observability.TracingConfig
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_TTL", 86400)) * time.Second,

		Postgres: db.PostgresConfigFromEnv(),
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", "queueflow:sse"),
		},

		LogoFont: envutil.String("LOGO_FONT", ""),

		CORSOrigins:    envutil.List("CORS_ORIGINS", nil),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),
	}
	cfg.Tracing = observability.TracingConfigFromEnv("queueflow-api", cfg.Environment, cfg.Version)
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg
}
