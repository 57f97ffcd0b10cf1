package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aurora-planner/aurora/internal/client"
	"github.com/aurora-planner/aurora/internal/settings"
)

type PlansListCmd struct {
	Search string `help:"Only show plans whose name contains this text."`
}

func (c *PlansListCmd) Run(ctx *Context) error {
	token, err := ctx.requireToken()
	if err != nil {
		return err
	}
	plans, err := ctx.API.ListPlans(ctx.Ctx, token, c.Search)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	renderSavedPlans(ctx.Out, plans)
	return nil
}

type PlansSaveCmd struct {
	ID   string `arg:"" help:"ID of the generated plan to save."`
	Name string `help:"Name for the saved plan." default:"${default_plan_name}"`
}

func (c *PlansSaveCmd) Run(ctx *Context) error {
	token, err := ctx.requireToken()
	if err != nil {
		return err
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = settings.DefaultSavedPlanName
	}
	saved, err := ctx.API.SavePlan(ctx.Ctx, token, name, c.ID)
	if errors.Is(err, client.ErrNotFound) {
		renderNotFound(ctx.Out, c.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Saved %s as %s\n", titleStyle.Render(saved.Name), mutedStyle.Render(saved.ID))
	return nil
}

type PlansDeleteCmd struct {
	ID  string `arg:"" help:"ID of the saved plan."`
	Yes bool   `short:"y" help:"Delete without asking."`
}

func (c *PlansDeleteCmd) Run(ctx *Context) error {
	token, err := ctx.requireToken()
	if err != nil {
		return err
	}
	if !c.Yes && ctx.Confirm != nil {
		ok, errConfirm := ctx.Confirm(fmt.Sprintf("Delete saved plan %s?", c.ID))
		if errConfirm != nil {
			return fmt.Errorf("confirm: %w", errConfirm)
		}
		if !ok {
			fmt.Fprintln(ctx.Out, mutedStyle.Render("Kept "+c.ID))
			return nil
		}
	}
	if err := ctx.API.DeletePlan(ctx.Ctx, token, c.ID); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("saved plan %s not found", c.ID)
		}
		return fmt.Errorf("delete plan: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Deleted %s\n", c.ID)
	return nil
}
