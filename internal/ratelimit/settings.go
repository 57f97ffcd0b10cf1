package ratelimit

import (
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/config"
)

// SettingsConfig captures the active rate limit settings.
type SettingsConfig struct {
	Limit         int
	Window        time.Duration
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig converts the file configuration into limiter settings.
func SettingsFromConfig(cfg config.RateLimitConfig) SettingsConfig {
	out := SettingsConfig{
		Limit:         cfg.Limit,
		Window:        cfg.Window,
		RedisEnabled:  cfg.Redis.Enabled,
		RedisAddr:     strings.TrimSpace(cfg.Redis.Addr),
		RedisPassword: strings.TrimSpace(cfg.Redis.Password),
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   strings.TrimSpace(cfg.Redis.Prefix),
	}
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.Window <= 0 {
		out.Window = config.DefaultRateWindow
	}
	if out.RedisPrefix == "" {
		out.RedisPrefix = config.DefaultRedisPrefix
	}
	if out.RedisDB < 0 {
		out.RedisDB = 0
	}
	return out
}

// StaticSettings returns a provider that always yields cfg.
func StaticSettings(cfg SettingsConfig) SettingsProvider {
	return func() SettingsConfig { return cfg }
}
