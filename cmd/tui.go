package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/shared"
	"github.com/desertthunder/festa/internal/ui"
)

// tuiBefore redirects logs to a file, so they do not interfere with rendering, and then wires services.
func (r *Runner) tuiBefore(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return ctx, fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.logger = fileLogger
	return r.wire(ctx, cmd)
}

// TUI launches the interactive festival browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: session not initialized", shared.ErrServiceUnavailable)
	}
	if err := r.session.Initialize(ctx); err != nil {
		r.logger.Warn("continuing signed out", "error", err)
	}

	deps := ui.Deps{
		Session:   r.session,
		Festivals: r.festivals,
		Jobs:      r.jobs,
		Reviews:   r.reviews,
		Margin:    r.config.Pager.Margin,
		Logger:    r.logger,
	}
	if r.recent != nil {
		deps.Recent = r.recent
	}

	model := ui.NewModel(ctx, deps)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	r.session.OnExpired(func() { go p.Send(ui.SessionExpiredMsg()) })

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
