package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/app/devserver"
)

// DevServerCommand serves a fake platform with simulated runs, used for demos and tests.
type DevServerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr string
	token      string
	step       time.Duration
	seed       bool
}

// NewDevServerCommand returns the dev-server command.
func NewDevServerCommand(rootCmd *RootCommand, app *kingpin.Application) *DevServerCommand {
	c := &DevServerCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("dev-server", "Run a fake platform API that simulates runs.")
	c.Cmd.Flag("listen-addr", "Address the API listens on.").Default("127.0.0.1:8000").StringVar(&c.listenAddr)
	c.Cmd.Flag("auth-token", "Accepted bearer token or session cookie value (empty disables auth).").StringVar(&c.token)
	c.Cmd.Flag("step", "Pace of the simulated runs.").Default("400ms").DurationVar(&c.step)
	c.Cmd.Flag("seed", "Create a demo run on start.").Default("true").BoolVar(&c.seed)

	return c
}

func (c DevServerCommand) Name() string { return c.Cmd.FullCommand() }

func (c DevServerCommand) Run(ctx context.Context) error {
	svc, err := devserver.NewService(devserver.ServiceConfig{
		Token:  c.token,
		Step:   c.step,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	return svc.Run(ctx, devserver.Request{
		ListenAddr: c.listenAddr,
		Seed:       c.seed,
		OnListen: func(addr string) {
			c.rootCmd.Logger.Infof("Use it with: runview --api-url http://%s runs", addr)
		},
	})
}
