package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/watchwave/internal/session"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in and persists the session credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	if err := r.session.Login(ctx, email, cmd.String("password")); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	u := r.session.User()
	name := email
	if u != nil && u.FullName() != "" {
		name = u.FullName()
	}
	return r.writePlain("✓ Signed in as %s\n", name)
}

// AuthRegister creates an account. The user signs in separately afterwards.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	r.logger.Info("registering account", "email", email)

	err := r.session.Register(ctx, cmd.String("first-name"), cmd.String("last-name"), email, cmd.String("password"))
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.writePlain("✓ Account created for %s\n", email)
	return r.writePlain("Run 'watchwave auth login --email %s' to sign in\n", email)
}

// AuthLogout forgets the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	State string `json:"state"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AuthStatus validates the stored credential and reports the session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("stored session is no longer valid", "error", err)
	}

	status := authStatus{State: r.session.State().String()}
	if u := r.session.User(); u != nil {
		status.Email = u.Email
		status.Name = u.FullName()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if r.session.State() != session.Authenticated {
		return r.writePlain("✗ Not signed in\n")
	}
	r.writePlain("✓ Signed in\n")
	r.writePlain("Name: %s\n", status.Name)
	return r.writePlain("Email: %s\n", status.Email)
}
