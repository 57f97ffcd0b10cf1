package cli

type ShowCmd struct {
	ID string `arg:"" help:"Plan ID."`
}

func (c *ShowCmd) Run(ctx *Context) error {
	plan, days, tracker, found, err := ctx.loadPlan(c.ID)
	if err != nil {
		return err
	}
	if !found {
		renderNotFound(ctx.Out, c.ID)
		return nil
	}
	renderPlan(ctx.Out, plan, days, tracker, ctx.Quote())
	return nil
}
