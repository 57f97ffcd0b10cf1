package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aurora-planner/aurora/internal/ai"
	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/http/api"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/logging"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/aurora-planner/aurora/internal/ratelimit"
	"github.com/aurora-planner/aurora/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 5 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	log.WithContext(ctx).Infof("migrating %s database", db.DialectName(conn))
	return db.Migrate(conn)
}

// RunServer boots the plan API and serves until ctx is cancelled.
// A positive port overrides the configured one.
func RunServer(ctx context.Context, appCfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	logCloser, errLog := logging.Setup(logging.Options{
		Debug:  cfg.Debug,
		ToFile: cfg.LoggingToFile,
		Dir:    cfg.LogDir,
	})
	if errLog != nil {
		return errLog
	}
	defer func() { _ = logCloser.Close() }()

	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	limiter := newLimiter(cfg)
	defer func() { _ = limiter.Close() }()
	sched, errSched := startMaintenance(limiter, cfg.RateLimit.Window)
	if errSched != nil {
		return fmt.Errorf("schedule maintenance: %w", errSched)
	}
	defer sched.Stop()

	handler := buildHandler(cfg, conn, limiter)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting aurora api on %s (config %s)", srv.Addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", errListen)
	}
	return nil
}

// NewHandler assembles the API routes over conn, wrapped in CORS handling.
func NewHandler(cfg config.ServerConfig, conn *gorm.DB) http.Handler {
	return buildHandler(cfg, conn, newLimiter(cfg))
}

func newLimiter(cfg config.ServerConfig) *ratelimit.Manager {
	return ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsFromConfig(cfg.RateLimit)), nil, nil)
}

func buildHandler(cfg config.ServerConfig, conn *gorm.DB, limiter *ratelimit.Manager) http.Handler {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logging.GinLogger(), gin.Recovery())

	docs := store.NewGormDocumentStore(conn)

	var gen planner.Generator
	if cfg.Gemini.APIKey != "" {
		gen = ai.NewGeminiClient(ai.Options{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.RequestTimeout,
		})
	} else {
		log.Warn("gemini api key is not set; plan generation will fail")
	}

	verifier := identity.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURI)
	if !verifier.Configured() {
		log.Warn("google oauth client is not configured; sign-in is disabled")
	}
	if cfg.JWT.Secret == "" {
		log.Warn("jwt secret is not set; sign-in is disabled")
	}

	api.RegisterRoutes(engine, api.Dependencies{
		DB:       conn,
		Docs:     docs,
		Planner:  planner.NewService(gen, docs, cfg.Gemini.Model),
		Verifier: verifier,
		Limiter:  limiter,
		JWT:      cfg.JWT,
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler(engine)
}
