package cli

import (
	"fmt"
	"time"

	"github.com/aurora-planner/aurora/internal/planner"
)

type GenerateCmd struct {
	Subjects     string  `arg:"" help:"Comma-separated subjects, e.g. \"Math, Physics\"."`
	Exam         string  `help:"Exam date (YYYY-MM-DD)." required:""`
	Hours        float64 `help:"Hours available per day." default:"3"`
	Difficulty   []int   `help:"Difficulty per subject, 1-5, in subject order." sep:","`
	RevisionDays int     `help:"Revision days before the exam." default:"1"`
	Pomodoro     int     `help:"Pomodoro length in minutes." default:"25"`
	RestDays     int     `help:"Rest days per week." default:"1"`
}

func (c *GenerateCmd) Run(ctx *Context) error {
	exam, err := parseDate(c.Exam, time.Now())
	if err != nil {
		return err
	}
	subjects := planner.NormalizeSubjects(c.Subjects)
	if len(subjects) == 0 {
		return fmt.Errorf("at least one subject is required")
	}

	req := planner.Request{
		SubjectsCount: len(subjects),
		Subjects:      c.Subjects,
		ExamDate:      exam,
		HoursPerDay:   c.Hours,
		Difficulties:  c.Difficulty,
		RevisionDays:  c.RevisionDays,
		Pomodoro:      c.Pomodoro,
		RestDays:      c.RestDays,
	}

	token, err := ctx.optionalToken()
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, mutedStyle.Render("Generating your study plan..."))
	ctx.logger().Debug("requesting plan", "subjects", len(subjects), "exam", exam, "signedIn", token != "")
	id, err := ctx.API.GeneratePlan(ctx.Ctx, token, req)
	if err != nil {
		ctx.logger().Error("generate plan", "err", err)
		return fmt.Errorf("generate plan: %w", err)
	}

	plan, days, tracker, found, err := ctx.loadPlan(id)
	if err != nil {
		return err
	}
	if !found {
		renderNotFound(ctx.Out, id)
		return nil
	}
	renderPlan(ctx.Out, plan, days, tracker, ctx.Quote())
	return nil
}
