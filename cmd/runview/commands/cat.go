package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/content"
)

type CatCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID string
	ref   string
	live  bool
}

// NewCatCommand returns the cat command.
func NewCatCommand(rootCmd *RootCommand, app *kingpin.Application) *CatCommand {
	c := &CatCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cat", "Print the content of a run file.")
	c.Cmd.Arg("run-id", "Run ID.").Required().StringVar(&c.runID)
	c.Cmd.Arg("file", "Artifact ID, artifact name or live file path (defaults to the main file).").StringVar(&c.ref)
	c.Cmd.Flag("live", "Prefer the in-progress files over the finalized artifacts.").BoolVar(&c.live)

	return c
}

func (c CatCommand) Name() string { return c.Cmd.FullCommand() }

func (c CatCommand) Run(ctx context.Context) error {
	client, _, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := content.NewService(content.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, content.Request{
		RunID: c.runID,
		Ref:   c.ref,
		Live:  c.live,
	})
	if err != nil {
		return fmt.Errorf("could not get file content: %w", err)
	}
	c.rootCmd.Logger.Debugf("printing %s (%s, live: %t)", res.Name, res.MimeType, res.Live)

	out := res.Content
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := io.WriteString(c.rootCmd.Stdout, out); err != nil {
		return fmt.Errorf("could not write content: %w", err)
	}

	return nil
}
