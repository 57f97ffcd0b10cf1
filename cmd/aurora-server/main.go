package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aurora-planner/aurora/internal/app"
	"github.com/aurora-planner/aurora/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the server entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, resolves the config path and starts the requested mode.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("aurora-server", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 0, "server port (overrides the config file)")
	initConfig := fs.Bool("init-config", false, "write a starter config file and exit")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if *port != 0 {
		if errValidate := validatePort(*port); errValidate != nil {
			return errValidate
		}
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)

	switch {
	case *initConfig:
		if errWrite := app.WriteConfigFile(configPath, "", *port); errWrite != nil {
			if errors.Is(errWrite, app.ErrConfigExists) {
				log.Infof("config already exists at %s", configPath)
				return nil
			}
			return errWrite
		}
		log.Infof("wrote starter config to %s", configPath)
		return nil
	case *migrateOnly:
		return app.Migrate(ctx, appCfg)
	}

	if !app.ConfigExists(configPath) {
		log.Infof("config not found at %s, using defaults and environment", configPath)
	}
	return app.RunServer(ctx, appCfg, *port)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
