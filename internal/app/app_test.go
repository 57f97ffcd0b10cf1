package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/ratelimit"
)

func TestWriteConfigFile_LoadsBack(t *testing.T) {
	t.Setenv(config.EnvDBConnection, "")
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvJWTExpiry, "")
	t.Setenv(config.EnvGeminiAPIKey, "")

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteConfigFile(configPath, "", 9191); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if !ConfigExists(configPath) {
		t.Fatalf("expected config file to exist")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != 9191 {
		t.Fatalf("expected port=9191, got %d", cfg.Port)
	}
	if cfg.DatabaseDSN != config.DefaultDatabaseDSN {
		t.Fatalf("expected default dsn, got %q", cfg.DatabaseDSN)
	}
	if len(cfg.JWT.Secret) != 64 {
		t.Fatalf("expected generated jwt secret, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiry != 720*time.Hour {
		t.Fatalf("expected expiry=720h, got %s", cfg.JWT.Expiry)
	}
	if cfg.RateLimit.Limit != config.DefaultRateLimit || cfg.RateLimit.Window != config.DefaultRateWindow {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}

	if errAgain := WriteConfigFile(configPath, "", 9191); !errors.Is(errAgain, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", errAgain)
	}
}

func TestNewHandler_ServesHealthAndCORS(t *testing.T) {
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "app-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	cfg := config.ServerConfig{
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{Limit: 5, Window: time.Minute},
		JWT:       config.JWTConfig{Secret: "s", Expiry: time.Hour},
	}
	handler := NewHandler(cfg, conn)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/api/generate_plan", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate_plan", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 without api key, got %d", rec.Code)
	}
}

func TestStartMaintenance_SchedulesPrune(t *testing.T) {
	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsConfig{Limit: 1, Window: time.Second}), nil, nil)
	s, err := startMaintenance(limiter, time.Second)
	if err != nil {
		t.Fatalf("start maintenance: %v", err)
	}
	defer s.Stop()
	if s.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", s.Len())
	}
	if !s.IsRunning() {
		t.Fatalf("expected scheduler to be running")
	}
}
