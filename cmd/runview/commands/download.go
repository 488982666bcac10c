package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/download"
	"github.com/slok/runview/internal/printer"
)

type DownloadCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID       string
	ref         string
	destination string
	workspace   bool
}

// NewDownloadCommand returns the download command.
func NewDownloadCommand(rootCmd *RootCommand, app *kingpin.Application) *DownloadCommand {
	c := &DownloadCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("download", "Download a run artifact.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	c.Cmd.Arg("artifact", "Artifact ID or name.").Required().StringVar(&c.ref)
	c.Cmd.Flag("output", "Destination file or directory.").Short('o').StringVar(&c.destination)

	return c
}

// NewExportCommand returns the export command, it downloads the whole run workspace.
func NewExportCommand(rootCmd *RootCommand, app *kingpin.Application) *DownloadCommand {
	c := &DownloadCommand{rootCmd: rootCmd, workspace: true}

	c.Cmd = app.Command("export", "Download the run workspace as a zip file.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	c.Cmd.Flag("output", "Destination file or directory.").Short('o').StringVar(&c.destination)

	return c
}

func (c DownloadCommand) Name() string { return c.Cmd.FullCommand() }

func (c DownloadCommand) Run(ctx context.Context) error {
	client, _, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := download.NewService(download.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, download.Request{
		RunID:       c.runID,
		Ref:         c.ref,
		Workspace:   c.workspace,
		Destination: c.destination,
	})
	if err != nil {
		return fmt.Errorf("could not download: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Saved %s (%s)\n", res.Path, printer.FormatBytes(res.Bytes))
	return nil
}
