package config

import (
	"fmt"
	"time"
)

type AppConfig struct {
	Env              string
	GRPCAddr         string
	OpsAddr          string
	LogLevel         string
	Timezone         string
	JWTSecret        string
	RedisURL         string
	ProviderCacheTTL time.Duration
}

func LoadAppConfig() (*AppConfig, error) {
	v := newViper()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("OPS_ADDR", ":9090")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("PROVIDER_CACHE_TTL", "5m")

	cfg := &AppConfig{
		Env:              v.GetString("APP_ENV"),
		GRPCAddr:         v.GetString("GRPC_ADDR"),
		OpsAddr:          v.GetString("OPS_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		Timezone:         v.GetString("APP_TIMEZONE"),
		JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
		RedisURL:         v.GetString("REDIS_URL"),
		ProviderCacheTTL: v.GetDuration("PROVIDER_CACHE_TTL"),
	}

	if cfg.GRPCAddr == "" {
		return nil, fmt.Errorf("invalid app config: GRPC_ADDR must not be empty")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// Location — таймзона клиники, в которой считаются "сегодня" и "сейчас".
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
