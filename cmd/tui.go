package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/watchwave/internal/shared"
	"github.com/desertthunder/watchwave/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal interface.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("stored session is no longer valid", "error", err)
	}

	model := ui.NewModel(ctx, ui.Options{
		Catalog: r.catalog,
		Store:   r.store,
		Session: r.session,
		Remote:  r.remote,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
