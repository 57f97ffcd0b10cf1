package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aurora-planner/aurora/internal/tui"
)

type ChecklistCmd struct {
	ID string `arg:"" help:"Plan ID."`
}

func (c *ChecklistCmd) Run(ctx *Context) error {
	plan, days, tracker, found, err := ctx.loadPlan(c.ID)
	if err != nil {
		return err
	}
	if !found {
		renderNotFound(ctx.Out, c.ID)
		return nil
	}

	p := tea.NewProgram(tui.New(plan, days, tracker, ctx.Quote()), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("checklist: %w", err)
	}
	fmt.Fprintln(ctx.Out, renderProgress(tracker.Percent()))
	return nil
}
