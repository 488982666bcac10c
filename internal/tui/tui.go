// Package tui is the interactive terminal UI of a watched run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/run"

	"github.com/slok/runview/internal/app/watch"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/workspace"
)

const inputQueueSize = 64

// Watcher mounts a run and reports its views.
type Watcher interface {
	Run(ctx context.Context, req watch.Request) (*watch.Result, error)
}

// Config is the TUI configuration.
type Config struct {
	Watcher Watcher
	RunID   string
	In      io.Reader
	Out     io.Writer
	// AltScreen renders the UI in the terminal alternate screen.
	AltScreen bool
	Logger    log.Logger
}

func (c *Config) defaults() error {
	if c.Watcher == nil {
		return fmt.Errorf("watcher is required")
	}
	if c.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tui.Run"})
	return nil
}

// Run runs the TUI until the user quits, ctx is canceled or the watcher fails.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.defaults(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	input := make(chan workspace.Msg, inputQueueSize)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.In != nil {
		opts = append(opts, tea.WithInput(cfg.In))
	}
	if cfg.Out != nil {
		opts = append(opts, tea.WithOutput(cfg.Out))
	}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(NewModel(cfg.RunID, input), opts...)

	var g run.Group

	// Watcher.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				_, err := cfg.Watcher.Run(ctx, watch.Request{
					RunID:  cfg.RunID,
					OnView: func(v workspace.View) { p.Send(ViewMsg{View: v}) },
					Input:  input,
				})
				if err != nil {
					p.Send(DoneMsg{Err: err})
					return fmt.Errorf("watch failed: %w", err)
				}
				cfg.Logger.Debugf("Watcher stopped")
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// UI.
	g.Add(
		func() error {
			final, err := p.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("tui failed: %w", err)
			}
			if m, ok := final.(Model); ok && m.Err() != nil {
				return m.Err()
			}
			return nil
		},
		func(_ error) {
			p.Quit()
		},
	)

	return g.Run()
}
