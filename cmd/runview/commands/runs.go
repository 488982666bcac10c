package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/list"
	"github.com/slok/runview/internal/model"
)

type RunsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	project      string
	statusFilter string
	limit        int
	format       string
}

// NewRunsCommand returns the runs command.
func NewRunsCommand(rootCmd *RootCommand, app *kingpin.Application) *RunsCommand {
	c := &RunsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("runs", "List runs, newest first.")
	c.Cmd.Flag("project", "Only list runs of this project (ID or name).").StringVar(&c.project)
	c.Cmd.Flag("status", "Filter by status (queued, running, paused, succeeded, failed, canceled).").StringVar(&c.statusFilter)
	c.Cmd.Flag("limit", "Maximum number of runs listed (0 lists all).").Default("20").IntVar(&c.limit)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c RunsCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunsCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Parse status filter if provided.
	var statusFilter *model.RunStatus
	if c.statusFilter != "" {
		status := model.RunStatus(strings.ToLower(c.statusFilter))
		if !status.Active() && !status.Terminal() {
			return fmt.Errorf("invalid status filter: %s (must be: queued, running, paused, succeeded, failed, canceled)", c.statusFilter)
		}
		statusFilter = &status
	}

	client, _, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := list.NewService(list.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.Run(ctx, list.Request{
		Project:      c.project,
		StatusFilter: statusFilter,
		Limit:        c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintRuns(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}
