package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/coursefinder/internal/preferences"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/urfave/cli/v3"
)

// ThemeShow prints the stored theme and its palette.
func (r *Runner) ThemeShow(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return r.printTheme(a.theme.Current())
}

// ThemeToggle flips between light and dark.
func (r *Runner) ThemeToggle(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	theme := a.theme.Toggle()
	if err := a.theme.Flush(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Theme is now %s\n", theme.Mode)
}

// ThemeSet switches to the named mode, toggling only when it differs.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	mode, err := preferences.ParseMode(cmd.StringArg("mode"))
	if err != nil {
		return fmt.Errorf("%w: expected light or dark", err)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.theme.Mode() == mode {
		return r.writePlain("Theme already %s\n", mode)
	}
	a.theme.Toggle()
	if err := a.theme.Flush(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Theme is now %s\n", mode)
}

func (r *Runner) printTheme(t preferences.Theme) error {
	if t.Mode == "" {
		return fmt.Errorf("%w: empty theme", shared.ErrInvalidConfig)
	}
	r.writePlainHeader(fmt.Sprintf("Theme: %s", t.Mode))
	for _, row := range [][2]string{
		{"background", t.Background},
		{"card", t.Card},
		{"text", t.Text},
		{"text secondary", t.TextSecondary},
		{"primary", t.Primary},
		{"danger", t.Danger},
		{"success", t.Success},
		{"border", t.Border},
	} {
		r.writePlain("%-15s %s\n", row[0], row[1])
	}
	return nil
}
