package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/runview/internal/config"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/platform/api"
	"github.com/slok/runview/internal/printer"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	ConfigPath   string
	APIURL       string
	Token        string
	Cookie       string
	PollInterval time.Duration
	Timeout      time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("config", "Path to the config file.").Envar("RUNVIEW_CONFIG").Default(config.DefaultPath()).StringVar(&c.ConfigPath)
	app.Flag("api-url", "Platform API URL, overrides the config file.").Envar("RUNVIEW_API_URL").StringVar(&c.APIURL)
	app.Flag("token", "Platform API bearer token, overrides the config file.").Envar("RUNVIEW_TOKEN").StringVar(&c.Token)
	app.Flag("cookie", "Raw platform session cookie header, overrides the config file.").Envar("RUNVIEW_COOKIE").StringVar(&c.Cookie)
	app.Flag("poll-interval", "Polling interval of watched runs, overrides the config file.").Envar("RUNVIEW_POLL_INTERVAL").DurationVar(&c.PollInterval)
	app.Flag("timeout", "Platform API request timeout, overrides the config file.").Envar("RUNVIEW_TIMEOUT").DurationVar(&c.Timeout)

	return c
}

// Config returns the config file values with the flag overrides applied.
func (r RootCommand) Config() (config.Config, error) {
	cfg, err := config.LoadFile(r.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("could not load config: %w", err)
	}

	if r.APIURL != "" {
		cfg.APIURL = r.APIURL
	}
	if r.Token != "" {
		cfg.Token = r.Token
	}
	if r.Cookie != "" {
		cfg.Cookie = r.Cookie
	}
	if r.PollInterval > 0 {
		cfg.PollInterval = r.PollInterval
	}
	if r.Timeout > 0 {
		cfg.Timeout = r.Timeout
	}

	return cfg, nil
}

// NewClient returns the platform API client for the resolved configuration.
func (r RootCommand) NewClient() (*api.Client, config.Config, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, config.Config{}, err
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Cookie:  cfg.Cookie,
		Timeout: cfg.Timeout,
		Logger:  r.Logger,
	})
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("could not create platform client: %w", err)
	}

	return client, cfg, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(w)
	}
	return printer.NewTablePrinter(w)
}

func formatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}
