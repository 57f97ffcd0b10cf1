package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/security"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned when a starter config would overwrite a file.
var ErrConfigExists = errors.New("config file already exists")

// configFile is the YAML shape written by WriteConfigFile.
type configFile struct {
	Host          string    `yaml:"host"`
	Port          int       `yaml:"port"`
	DatabaseDSN   string    `yaml:"database-dsn"`
	Debug         bool      `yaml:"debug"`
	LoggingToFile bool      `yaml:"logging-to-file"`
	JWT           jwtCfg    `yaml:"jwt"`
	Gemini        geminiCfg `yaml:"gemini"`
	RateLimit     rateCfg   `yaml:"rate-limit"`
}

// jwtCfg holds JWT settings for the generated config file.
type jwtCfg struct {
	Secret string `yaml:"secret"`
	Expiry string `yaml:"expiry"`
}

// geminiCfg holds model settings for the generated config file.
type geminiCfg struct {
	APIKey string `yaml:"api-key"`
	Model  string `yaml:"model"`
}

// rateCfg holds rate limit settings for the generated config file.
type rateCfg struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// generateJWTSecret creates a random JWT secret string.
func generateJWTSecret() string {
	secret, err := security.GenerateRandomString(32)
	if err != nil {
		return "change-me-to-a-secure-random-string"
	}
	return secret
}

// WriteConfigFile writes a starter config file with a fresh JWT secret.
// An existing file is never overwritten.
func WriteConfigFile(configPath string, dsn string, port int) error {
	if ConfigExists(configPath) {
		return ErrConfigExists
	}
	if dsn == "" {
		dsn = config.DefaultDatabaseDSN
	}
	if port <= 0 {
		port = config.DefaultPort
	}
	cfg := configFile{
		Port:        port,
		DatabaseDSN: dsn,
		JWT: jwtCfg{
			Secret: generateJWTSecret(),
			Expiry: "720h",
		},
		Gemini: geminiCfg{
			Model: config.DefaultGeminiModel,
		},
		RateLimit: rateCfg{
			Limit:  config.DefaultRateLimit,
			Window: config.DefaultRateWindow.String(),
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
		return fmt.Errorf("create config dir: %w", errMkdir)
	}

	if errWrite := os.WriteFile(configPath, data, 0600); errWrite != nil {
		return fmt.Errorf("write config file: %w", errWrite)
	}

	return nil
}
