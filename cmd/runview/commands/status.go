package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/status"
	"github.com/slok/runview/internal/workspace"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the status, progress and output of a run.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	v, err := runSnapshot(ctx, c.rootCmd, status.Request{RunID: c.runID})
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintStatus(*v); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}

type NodesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	format string
}

// NewNodesCommand returns the nodes command.
func NewNodesCommand(rootCmd *RootCommand, app *kingpin.Application) *NodesCommand {
	c := &NodesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("nodes", "List the executed workflow nodes of a run.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c NodesCommand) Name() string { return c.Cmd.FullCommand() }

func (c NodesCommand) Run(ctx context.Context) error {
	v, err := runSnapshot(ctx, c.rootCmd, status.Request{RunID: c.runID})
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintNodes(*v); err != nil {
		return fmt.Errorf("could not print nodes: %w", err)
	}

	return nil
}

type ArtifactsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	query  string
	meta   bool
	format string
}

// NewArtifactsCommand returns the artifacts command.
func NewArtifactsCommand(rootCmd *RootCommand, app *kingpin.Application) *ArtifactsCommand {
	c := &ArtifactsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("artifacts", "List the artifacts of a run, or its live files while nothing is finalized.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	c.Cmd.Flag("query", "Only list files whose name contains the query (case insensitive).").Short('q').StringVar(&c.query)
	c.Cmd.Flag("meta", "Include the bookkeeping artifacts.").BoolVar(&c.meta)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c ArtifactsCommand) Name() string { return c.Cmd.FullCommand() }

func (c ArtifactsCommand) Run(ctx context.Context) error {
	v, err := runSnapshot(ctx, c.rootCmd, status.Request{
		RunID:    c.runID,
		Query:    c.query,
		ShowMeta: c.meta,
	})
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintArtifacts(*v); err != nil {
		return fmt.Errorf("could not print artifacts: %w", err)
	}

	return nil
}

func runSnapshot(ctx context.Context, rootCmd *RootCommand, req status.Request) (*workspace.View, error) {
	client, _, err := rootCmd.NewClient()
	if err != nil {
		return nil, err
	}

	svc, err := status.NewService(status.ServiceConfig{
		Client: client,
		Logger: rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	v, err := svc.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("could not get run status: %w", err)
	}

	return v, nil
}
