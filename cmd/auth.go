package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"medialog/internal/shared"
)

// AuthLogin signs in through the configured identity provider.
//
// Opens the provider's consent page in a browser and waits for the local
// callback server to receive the authorization code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if !r.authConfigured() {
		return fmt.Errorf("%w: set [auth] issuer and client_id in config.toml", shared.ErrMissingConfig)
	}

	auth, err := r.authService(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("starting sign-in", "issuer", r.config.Auth.Issuer)

	session, err := auth.SignIn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Signed in as %s\n", session.Email)
}

// AuthStatus shows the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if !r.authConfigured() {
		r.writePlain("Mode: local (no identity provider configured)\n")
		return r.writePlain("Records are stored for the built-in %q owner.\n", localUserID)
	}

	auth, err := r.authService(ctx)
	if err != nil {
		return err
	}

	session, err := auth.Resume(ctx)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("✗ Not signed in. Run 'medialog auth login'.\n")
	case errors.Is(err, shared.ErrTokenExpired):
		return r.writePlain("✗ Session expired. Run 'medialog auth login'.\n")
	case err != nil:
		return err
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("User: %s\n", session.UserID)
	if session.Email != "" {
		r.writePlain("Email: %s\n", session.Email)
	}
	return nil
}

// AuthLogout clears the saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.authConfigured() {
		return r.writePlain("Mode: local, nothing to sign out of.\n")
	}

	auth, err := r.authService(ctx)
	if err != nil {
		return err
	}

	if err := auth.SignOut(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	return r.writePlain("✓ Signed out\n")
}
