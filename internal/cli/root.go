package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aurora-planner/aurora/internal/client"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/aurora-planner/aurora/internal/progress"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
)

// API is the server surface the commands use.
type API interface {
	GeneratePlan(ctx context.Context, token string, req planner.Request) (string, error)
	GetPlan(ctx context.Context, id string) (models.StudyPlan, error)
	SavePlan(ctx context.Context, token, name, originalPlanID string) (models.SavedPlan, error)
	ListPlans(ctx context.Context, token, search string) ([]models.SavedPlan, error)
	DeletePlan(ctx context.Context, token, id string) error
}

type Context struct {
	Ctx      context.Context
	API      API
	Session  *identity.Session
	Progress progress.Store
	Out      io.Writer
	Quote    func() string
	Confirm  func(title string) (bool, error)
	Log      *log.Logger
}

func randomQuote() string {
	quotes := settings.MotivationalQuotes
	if len(quotes) == 0 {
		return ""
	}
	return quotes[rand.IntN(len(quotes))]
}

// WithLogger replaces the diagnostics logger.
func (c *Context) WithLogger(logger *log.Logger) *Context {
	if logger != nil {
		c.Log = logger
	}
	return c
}

func (c *Context) logger() *log.Logger {
	if c.Log == nil {
		return discardLogger()
	}
	return c.Log
}

// NewContext wires the commands to a server client, a session and a progress store.
func NewContext(ctx context.Context, api *client.Client, session *identity.Session, store progress.Store, out io.Writer) *Context {
	return &Context{
		Ctx:      ctx,
		API:      api,
		Session:  session,
		Progress: store,
		Out:      out,
		Quote:    randomQuote,
		Confirm:  confirmPrompt,
		Log:      discardLogger(),
	}
}

// optionalToken returns the stored session token, or "" when signed out.
func (c *Context) optionalToken() (string, error) {
	if c.Session == nil {
		return "", nil
	}
	token, err := c.Session.Token()
	if errors.Is(err, identity.ErrNoToken) {
		return "", nil
	}
	return token, err
}

// requireToken returns the session token or a sign-in hint.
func (c *Context) requireToken() (string, error) {
	token, err := c.optionalToken()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("not signed in, run `aurora login --code <code>` first")
	}
	return token, nil
}

// loadPlan fetches a plan and its completion tracker. found is false when the
// server has no such plan.
func (c *Context) loadPlan(id string) (plan models.StudyPlan, days []timetable.DayView, tracker *progress.Tracker, found bool, err error) {
	plan, err = c.API.GetPlan(c.Ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		c.logger().Debug("plan not found", "id", id)
		return models.StudyPlan{}, nil, nil, false, nil
	}
	if err != nil {
		c.logger().Error("fetch plan", "id", id, "err", err)
		return models.StudyPlan{}, nil, nil, false, err
	}
	days = timetable.BuildDays(plan)
	tracker, err = progress.NewTracker(plan.ID, days, c.Progress)
	if err != nil {
		c.logger().Error("load progress", "id", id, "err", err)
		return models.StudyPlan{}, nil, nil, false, fmt.Errorf("load progress: %w", err)
	}
	c.logger().Debug("loaded plan", "id", plan.ID, "days", len(days))
	return plan, days, tracker, true, nil
}

func parseDate(value string, now time.Time) (string, error) {
	if value == "" {
		return "", fmt.Errorf("exam date is required")
	}
	t, err := time.Parse(timetable.DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid exam date %q, use YYYY-MM-DD: %w", value, err)
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if t.Before(today) {
		return "", fmt.Errorf("exam date %s is in the past", value)
	}
	if !t.Before(today.AddDate(0, 0, settings.MaxPlanDays)) {
		return "", fmt.Errorf("exam date %s is more than %d days away", value, settings.MaxPlanDays)
	}
	return t.Format(timetable.DateLayout), nil
}
