package cli

import (
	"fmt"
	"strings"
)

type LoginCmd struct {
	Code string `help:"Google OAuth authorization code." required:""`
}

func (c *LoginCmd) Run(ctx *Context) error {
	code := strings.TrimSpace(c.Code)
	if code == "" {
		return fmt.Errorf("authorization code is required")
	}
	user, err := ctx.Session.SignIn(ctx.Ctx, code)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Signed in as %s\n", titleStyle.Render(displayName(user.Name, user.Email)))
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	if err := ctx.Session.SignOut(ctx.Ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	fmt.Fprintln(ctx.Out, "Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *Context) error {
	if err := ctx.Session.Restore(ctx.Ctx); err != nil {
		return err
	}
	snap := ctx.Session.State().Current()
	if !snap.SignedIn() {
		fmt.Fprintln(ctx.Out, mutedStyle.Render("Not signed in"))
		return nil
	}
	fmt.Fprintf(ctx.Out, "%s <%s>\n", titleStyle.Render(displayName(snap.User.Name, snap.User.Email)), snap.User.Email)
	return nil
}

func displayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return email
}
