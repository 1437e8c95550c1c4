package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/desertthunder/coursefinder/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gate := r.gate(a)
	if err := gate.Start(ctx); err != nil {
		return err
	}
	defer gate.Stop()

	model := ui.NewModel(ctx, ui.Deps{
		Gate:        gate,
		Sessions:    a.sessions,
		Auth:        a.auth,
		Catalog:     a.catalog,
		Favorites:   a.favorites,
		Theme:       a.theme,
		CoversURL:   r.config.API.CoversURL,
		SearchLimit: r.config.UI.SearchLimit,
		Logger:      r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
