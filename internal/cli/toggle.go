package cli

import (
	"fmt"

	"github.com/aurora-planner/aurora/internal/timetable"
)

type ToggleCmd struct {
	ID      string `arg:"" help:"Plan ID."`
	Day     string `arg:"" help:"Day key as shown by show (date or label)."`
	Subject string `arg:"" help:"Subject of the task."`
	Action  string `arg:"" help:"Action of the task, e.g. Study."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	_, _, tracker, found, err := ctx.loadPlan(c.ID)
	if err != nil {
		return err
	}
	if !found {
		renderNotFound(ctx.Out, c.ID)
		return nil
	}

	completed, err := tracker.Toggle(c.Day, c.Subject, c.Action)
	if err != nil {
		return err
	}
	mark := "[ ]"
	if tracker.Done(timetable.CompositeKey(c.Day, c.Subject, c.Action)) {
		mark = "[x]"
	}
	fmt.Fprintf(ctx.Out, "%s %s: %s on %s\n", mark, c.Subject, c.Action, c.Day)
	if completed {
		if cel, ok := tracker.ActiveCelebration(); ok {
			fmt.Fprintln(ctx.Out, celebrationStyle.Render(fmt.Sprintf("🎉 Day complete! Everything on %s is done.", cel.Day)))
		}
	}
	fmt.Fprintln(ctx.Out, renderProgress(tracker.Percent()))
	return nil
}
