package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/control"
)

type ControlCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	action control.Action
	runID  string
	node   string
	format string
}

// NewControlCommand returns a run control command (pause, resume, cancel, rerun).
func NewControlCommand(rootCmd *RootCommand, app *kingpin.Application, action control.Action) *ControlCommand {
	c := &ControlCommand{rootCmd: rootCmd, action: action}

	switch action {
	case control.ActionPause:
		c.Cmd = app.Command("pause", "Pause a running run.")
	case control.ActionResume:
		c.Cmd = app.Command("resume", "Resume a paused run.")
	case control.ActionCancel:
		c.Cmd = app.Command("cancel", "Cancel an active run.")
	case control.ActionRerun:
		c.Cmd = app.Command("rerun", "Create a new run seeded from a node checkpoint.")
	}
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	if action == control.ActionRerun {
		c.Cmd.Flag("node", "Node to re-run from (defaults to the latest checkpoint).").StringVar(&c.node)
	}
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c ControlCommand) Name() string { return c.Cmd.FullCommand() }

func (c ControlCommand) Run(ctx context.Context) error {
	client, _, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := control.NewService(control.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	run, err := svc.Run(ctx, control.Request{
		RunID:  c.runID,
		Action: c.action,
		Node:   c.node,
	})
	if err != nil {
		return fmt.Errorf("could not %s run: %w", c.action, err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintRun(*run); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}
