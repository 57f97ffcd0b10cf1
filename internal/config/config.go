package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath         = "CONFIG_PATH"
	EnvFile               = "AURORA_ENV_FILE"
	EnvDBConnection       = "DB_CONNECTION"
	EnvJWTSecret          = "JWT_SECRET"
	EnvJWTExpiry          = "JWT_EXPIRY"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
)

// Defaults applied when the config file omits a value.
const (
	DefaultHost        = ""
	DefaultPort        = 8080
	DefaultDatabaseDSN = "file:aurora.db"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultRateLimit   = 10
	DefaultRateWindow  = time.Minute
	DefaultRedisPrefix = "aurora:rl"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables. Variables from an
// optional dotenv file (AURORA_ENV_FILE, default ./.env) fill in anything the
// process environment leaves unset.
func LoadFromEnv() (AppConfig, error) {
	if errEnv := LoadEnvFile(os.Getenv(EnvFile)); errEnv != nil {
		return AppConfig{}, errEnv
	}
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// LoadEnvFile applies a dotenv file without overriding variables already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ".env"
	}
	if errLoad := godotenv.Load(path); errLoad != nil && !errors.Is(errLoad, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, errLoad)
	}
	return nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates the config file sets an empty database DSN.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// GeminiConfig configures the generative model client.
type GeminiConfig struct {
	APIKey         string        `yaml:"api-key"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base-url"`
	RequestTimeout time.Duration `yaml:"request-timeout"` // 0 disables the client timeout.
}

// GoogleConfig holds the OAuth client used for sign-in.
type GoogleConfig struct {
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret"`
	RedirectURI  string `yaml:"redirect-uri"`
}

// RedisConfig configures the optional Redis rate limit backend.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RateLimitConfig limits plan generation requests per client.
type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
	Redis  RedisConfig   `yaml:"redis"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed-origins"`
}

// ServerConfig is the full server configuration.
type ServerConfig struct {
	Host          string          `yaml:"host"`
	Port          int             `yaml:"port"`
	Debug         bool            `yaml:"debug"`
	LoggingToFile bool            `yaml:"logging-to-file"`
	LogDir        string          `yaml:"log-dir"`
	Gemini        GeminiConfig    `yaml:"gemini"`
	Google        GoogleConfig    `yaml:"google"`
	RateLimit     RateLimitConfig `yaml:"rate-limit"`
	CORS          CORSConfig      `yaml:"cors"`

	DatabaseDSN string    `yaml:"-"`
	JWT         JWTConfig `yaml:"-"`
}

// Load reads the server config from configPath and applies environment overrides.
// A missing file yields defaults.
func Load(configPath string) (ServerConfig, error) {
	cfg := ServerConfig{
		Host: DefaultHost,
		Port: DefaultPort,
		RateLimit: RateLimitConfig{
			Limit:  DefaultRateLimit,
			Window: DefaultRateWindow,
		},
	}

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return ServerConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if key := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); key != "" {
		cfg.Gemini.APIKey = key
	}
	if id := strings.TrimSpace(os.Getenv(EnvGoogleClientID)); id != "" {
		cfg.Google.ClientID = id
	}
	if secret := strings.TrimSpace(os.Getenv(EnvGoogleClientSecret)); secret != "" {
		cfg.Google.ClientSecret = secret
	}

	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)
	if strings.TrimSpace(cfg.Gemini.Model) == "" {
		cfg.Gemini.Model = DefaultGeminiModel
	}
	if strings.TrimSpace(cfg.Gemini.BaseURL) == "" {
		cfg.Gemini.BaseURL = DefaultGeminiURL
	}
	if cfg.Gemini.RequestTimeout < 0 {
		cfg.Gemini.RequestTimeout = 0
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RateLimit.Limit < 0 {
		cfg.RateLimit.Limit = 0
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = DefaultRateWindow
	}
	if strings.TrimSpace(cfg.RateLimit.Redis.Prefix) == "" {
		cfg.RateLimit.Redis.Prefix = DefaultRedisPrefix
	}
	if cfg.RateLimit.Redis.DB < 0 {
		cfg.RateLimit.Redis.DB = 0
	}

	dsn, errDSN := LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return ServerConfig{}, errDSN
	}
	cfg.DatabaseDSN = dsn

	jwtCfg, errJWT := LoadJWTConfig(configPath)
	if errJWT != nil {
		return ServerConfig{}, errJWT
	}
	cfg.JWT = jwtCfg
	return cfg, nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", strings.TrimSpace(c.Host), c.Port)
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
// Without a config file the local SQLite database is used.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN *string `yaml:"database-dsn"`
		Database    struct {
			DSN *string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultDatabaseDSN, nil
		}
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if cfg.DatabaseDSN == nil && cfg.Database.DSN == nil {
		return DefaultDatabaseDSN, nil
	}
	if cfg.DatabaseDSN != nil {
		if dsn := strings.TrimSpace(*cfg.DatabaseDSN); dsn != "" {
			return dsn, nil
		}
	}
	if cfg.Database.DSN != nil {
		if dsn := strings.TrimSpace(*cfg.Database.DSN); dsn != "" {
			return dsn, nil
		}
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}
