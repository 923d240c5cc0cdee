package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/desertthunder/faves/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Login exchanges credentials for a token, stores it and prints the resolved identity.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, (*tasks.Controller).Login)
}

// Register creates an account, stores its token and prints the resolved identity.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, (*tasks.Controller).Register)
}

func (r *Runner) authenticate(ctx context.Context, cmd *cli.Command, intent func(*tasks.Controller, models.Credentials) tasks.Task) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	c, err := r.controller()
	if err != nil {
		return err
	}

	r.logger.Info("authenticating", "command", cmd.Name, "username", creds.Username)
	c.Run(ctx, intent(c, creds))

	state := c.State()
	if state.Message != "" {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, state.Message)
	}
	if !state.Authenticated() {
		return fmt.Errorf("%w: token stored but identity lookup failed", shared.ErrAuthFailed)
	}

	return r.writePlain("✓ Logged in as %s (id %s)\n", state.Identity.Username, state.Identity.ID)
}

// Logout removes the stored token. No request is sent.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	c, err := r.controller()
	if err != nil {
		return err
	}
	if err := c.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// WhoAmI resolves the identity behind the stored token.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	c, err := r.resolved(ctx)
	if err != nil {
		return err
	}

	identity := c.State().Identity
	if cmd.Bool("json") {
		return r.writeJSON(identity, true)
	}
	return r.writePlain("%s (id %s)\n", identity.Username, identity.ID)
}

// resolved returns a controller with identity and favorites loaded, or ErrNotAuthenticated.
func (r *Runner) resolved(ctx context.Context) (*tasks.Controller, error) {
	c, err := r.controller()
	if err != nil {
		return nil, err
	}

	c.Run(ctx, c.ResolveIdentity())
	if !c.State().Authenticated() {
		return nil, fmt.Errorf("%w: run 'faves login' first", shared.ErrNotAuthenticated)
	}
	return c, nil
}
