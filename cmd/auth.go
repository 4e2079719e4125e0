package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

// Login signs in and stores the issued tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	r.logger.Info("signing in", "id", id)

	profile, err := r.session.Login(ctx, id, cmd.String("pw"))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if profile == nil {
		r.logger.Warn("signed in but the profile could not be loaded, retry 'festa auth status' later")
		return r.writePlainln("✓ Signed in as %s (profile unavailable)", id)
	}
	return r.writePlainln("✓ Signed in as %s (%s)", profile.DisplayName(), profile.Role)
}

// Logout clears the session and the stored tokens.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(ctx); err != nil {
		return err
	}
	return r.writePlainln("✓ Signed out")
}

// Status shows the signed-in user.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	state := r.tryRestore(ctx)
	if !state.Authenticated || state.User == nil {
		return r.writePlainln("Not signed in, %s", loginHint)
	}

	u := state.User
	expiry := "-"
	if !state.Expiry.IsZero() {
		expiry = state.Expiry.Local().Format(time.DateTime)
	}
	return r.render(cmd, formatter.Table{
		Title:   "Session",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"ID", u.ID},
			{"UID", u.UID},
			{"Name", u.DisplayName()},
			{"Email", u.Email},
			{"Role", string(u.Role)},
			{"Token expiry", expiry},
		},
		Data: u,
	})
}

// SignUp registers a new account.
func (r *Runner) SignUp(ctx context.Context, cmd *cli.Command) error {
	accepted := cmd.Bool("accept-terms")
	req := models.SignUpRequest{
		ID:             cmd.String("id"),
		PW:             cmd.String("pw"),
		Email:          cmd.String("email"),
		Name:           cmd.String("name"),
		TermsOfService: accepted,
		PrivacyPolicy:  accepted,
		AlertPolicy:    cmd.Bool("alerts"),
	}
	if !accepted {
		return fmt.Errorf("%w: --accept-terms is required to sign up", shared.ErrMissingArgument)
	}

	if err := r.users.SignUp(ctx, req); err != nil {
		return fmt.Errorf("sign up failed: %w", err)
	}
	return r.writePlainln("✓ Account %s created. It must be approved before you can sign in", req.ID)
}
