package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/session"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in and stores the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	creds := models.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}
	r.logger.Info("signing in", "username", creds.Username)

	tok, err := a.sessions.Login(ctx, creds)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", tok.Username)
}

// AuthRegister creates an account and stores the resulting token.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := models.Registration{
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
		Email:     cmd.String("email"),
		Username:  cmd.String("username"),
		Password:  cmd.String("password"),
	}
	r.logger.Info("registering", "username", reg.Username)

	tok, err := a.sessions.Register(ctx, reg)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Registered and signed in as %s\n", tok.Username)
}

// AuthLogout removes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports what the session gate sees, plus any claims readable from the token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gate := r.gate(a)
	if err := gate.Start(ctx); err != nil {
		return err
	}
	state := gate.Current()
	gate.Stop()

	r.writePlainHeader("Session")
	r.writePlain("State: %s\n", state)
	if state != session.Authenticated {
		return nil
	}

	if user, ok := a.sessions.User(ctx); ok {
		r.writePlain("User: %s\n", user)
	}

	raw, _ := a.sessions.Token(ctx)
	info, err := session.DescribeToken(raw)
	if err != nil {
		r.logger.Debug("token is not a readable JWT", "error", err)
		return nil
	}
	if info.Email != "" {
		r.writePlain("Email: %s\n", info.Email)
	}
	if !info.ExpiresAt.IsZero() {
		status := "valid"
		if info.Expired(time.Now()) {
			status = "expired"
		}
		r.writePlain("Expires: %s (%s)\n", info.ExpiresAt.Local().Format(time.RFC1123), status)
	}
	return nil
}

// AuthMe fetches the profile for the stored token.
func (r *Runner) AuthMe(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	profile, err := a.auth.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlainHeader(profile.FullName())
	r.writePlain("Username: %s\n", profile.Username)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.ID != 0 {
		r.writePlain("ID: %d\n", profile.ID)
	}
	return nil
}
