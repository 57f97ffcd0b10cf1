package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/aurora-planner/aurora/internal/cli"
	"github.com/aurora-planner/aurora/internal/client"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/progress"
	"github.com/aurora-planner/aurora/internal/settings"
)

var CLI struct {
	Server  string `help:"Aurora API base URL." env:"AURORA_SERVER" default:"http://localhost:8080"`
	DataDir string `help:"Directory for local progress files." type:"path" default:"~/.config/aurora"`
	Debug   bool   `help:"Print diagnostics to stderr."`

	Generate  cli.GenerateCmd  `cmd:"" help:"Generate a new study plan."`
	Show      cli.ShowCmd      `cmd:"" help:"Show a study plan with your progress."`
	Toggle    cli.ToggleCmd    `cmd:"" help:"Mark a task done or not done."`
	Checklist cli.ChecklistCmd `cmd:"" help:"Work through a plan interactively."`
	Login     cli.LoginCmd     `cmd:"" help:"Sign in with a Google authorization code."`
	Logout    cli.LogoutCmd    `cmd:"" help:"Sign out."`
	Whoami    cli.WhoamiCmd    `cmd:"" help:"Show the signed-in account."`
	Plans     struct {
		List   cli.PlansListCmd   `cmd:"" help:"List your saved plans." default:"1"`
		Save   cli.PlansSaveCmd   `cmd:"" help:"Save a generated plan to your account."`
		Delete cli.PlansDeleteCmd `cmd:"" help:"Delete a saved plan."`
	} `cmd:"" help:"Manage saved plans."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(settings.AppName),
		kong.Description("AI study planner"),
		kong.UsageOnError(),
		kong.Vars{"default_plan_name": settings.DefaultSavedPlanName},
	)

	api := client.New(CLI.Server)
	session := identity.NewSession(identity.NewState(), identity.NewKeyringTokenStore(), api)
	store := progress.NewFileStore(filepath.Join(CLI.DataDir, "progress"))

	logger, logCloser, err := cli.NewLogger(CLI.DataDir, CLI.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()

	appCtx := cli.NewContext(context.Background(), api, session, store, os.Stdout).WithLogger(logger)
	if err := ctx.Run(appCtx); err != nil {
		logger.Error("command failed", "cmd", ctx.Command(), "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = logCloser.Close()
		os.Exit(1)
	}
}
