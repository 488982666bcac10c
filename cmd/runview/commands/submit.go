package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/create"
	"github.com/slok/runview/internal/model"
)

type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	input     string
	mode      string
	roles     []string
	projectID string
	rules     []string
	format    string
	watch     bool
	watchCmd  *WatchCommand
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Create a new run.")
	c.Cmd.Arg("input", `Run input, "-" reads it from stdin.`).Required().StringVar(&c.input)
	c.Cmd.Flag("mode", "Run mode.").Default(create.ModeEngineer).EnumVar(&c.mode, create.ModeEngineer, create.ModeTeam)
	c.Cmd.Flag("role", "Team role (repeatable, required by team mode).").StringsVar(&c.roles)
	c.Cmd.Flag("project", "Project ID the run belongs to.").StringVar(&c.projectID)
	c.Cmd.Flag("rule", "User rule applied to the run (repeatable).").StringsVar(&c.rules)
	c.Cmd.Flag("watch", "Follow the created run until it finishes.").BoolVar(&c.watch)
	formatFlag(c.Cmd, &c.format)

	// Submit and watch share the follow mode.
	c.watchCmd = &WatchCommand{rootCmd: rootCmd, noTUI: true, untilDone: true}

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Run(ctx context.Context) error {
	input := c.input
	if input == "-" {
		data, err := io.ReadAll(c.rootCmd.Stdin)
		if err != nil {
			return fmt.Errorf("could not read input: %w", err)
		}
		input = string(data)
	}

	client, _, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := create.NewService(create.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	run, err := svc.Create(ctx, create.CreateOptions{
		Request: model.CreateRunRequest{
			Input:     strings.TrimSpace(input),
			Mode:      c.mode,
			Roles:     c.roles,
			ProjectID: c.projectID,
			UserRules: c.rules,
		},
	})
	if err != nil {
		return fmt.Errorf("could not submit run: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintRun(*run); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	if !c.watch {
		return nil
	}

	c.watchCmd.runID = run.ID
	return c.watchCmd.Run(ctx)
}
