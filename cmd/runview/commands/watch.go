package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/watch"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/printer"
	"github.com/slok/runview/internal/tui"
	"github.com/slok/runview/internal/workspace"
)

type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID     string
	noTUI     bool
	untilDone bool
	deltas    bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Watch a run live.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	c.Cmd.Flag("no-tui", "Print the run events as lines instead of the interactive UI.").BoolVar(&c.noTUI)
	c.Cmd.Flag("until-done", "Stop once the run finishes (implies --no-tui).").BoolVar(&c.untilDone)
	c.Cmd.Flag("deltas", "Print the streamed output chunks in line mode.").BoolVar(&c.deltas)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

// Interactive returns true when the command takes over the terminal.
func (c WatchCommand) Interactive() bool { return !c.noTUI && !c.untilDone }

func (c WatchCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, cfg, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := watch.NewService(watch.ServiceConfig{
		Client:       client,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if c.Interactive() {
		return tui.Run(ctx, tui.Config{
			Watcher:   svc,
			RunID:     c.runID,
			In:        c.rootCmd.Stdin,
			Out:       c.rootCmd.Stdout,
			AltScreen: true,
			Logger:    logger,
		})
	}

	fp := printer.NewFollowPrinter(c.rootCmd.Stdout, c.deltas)
	res, err := svc.Run(ctx, watch.Request{
		RunID: c.runID,
		OnView: func(v workspace.View) {
			if err := fp.PrintView(v); err != nil {
				logger.Warningf("Could not print run update: %s", err)
			}
		},
		UntilDone: c.untilDone,
	})
	if err != nil {
		return fmt.Errorf("could not watch run: %w", err)
	}

	if c.untilDone && res.View.Status != model.RunStatusSucceeded {
		return fmt.Errorf("run %s finished with status %s", res.RunID, res.View.Status)
	}

	return nil
}
