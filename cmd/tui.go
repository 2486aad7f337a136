package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"medialog/internal/shared"
	"medialog/internal/ui"
)

// TUI launches the interactive terminal UI for library management.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/medialog-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ui.UseTheme(r.config.UI.Theme)

	model := ui.NewModel(ctx, s)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
