package runview

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slok/runview/internal/app/content"
	"github.com/slok/runview/internal/app/control"
	"github.com/slok/runview/internal/app/create"
	"github.com/slok/runview/internal/app/download"
	"github.com/slok/runview/internal/app/list"
	"github.com/slok/runview/internal/app/status"
	"github.com/slok/runview/internal/app/watch"
	"github.com/slok/runview/internal/config"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform/api"
	"github.com/slok/runview/internal/workspace"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} talks to a platform on
// http://127.0.0.1:8000 without credentials.
type Config struct {
	// APIURL is the platform base URL.
	// Default: http://127.0.0.1:8000.
	APIURL string

	// Token is sent as a bearer token.
	Token string

	// Cookie is sent as the raw cookie header, for cookie session deployments.
	Cookie string

	// Timeout is the timeout of every non streaming request.
	// Default: 30s.
	Timeout time.Duration

	// PollInterval is the pacing of the fallback polling while watching.
	// Default: 1s.
	PollInterval time.Duration

	// HTTPClient is the HTTP client used for every request.
	// Default: a new http.Client.
	HTTPClient *http.Client

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.APIURL == "" {
		c.APIURL = config.DefaultAPIURL
	}

	if c.Timeout <= 0 {
		c.Timeout = config.DefaultTimeout
	}

	if c.PollInterval <= 0 {
		c.PollInterval = config.DefaultPollInterval
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to follow and drive runs programmatically.
//
// Create a Client with [New]. A Client holds no open connections between
// calls and is safe for concurrent use.
type Client struct {
	api          *api.Client
	pollInterval time.Duration
	logger       log.Logger
}

// New creates a new SDK client.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.APIURL,
		Token:      cfg.Token,
		Cookie:     cfg.Cookie,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create platform client: %w: %w", err, model.ErrNotValid))
	}

	return &Client{
		api:          c,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// ListRuns returns the runs, newest first.
//
// Pass nil opts to list every run of every project.
func (c *Client) ListRuns(ctx context.Context, opts *ListRunsOpts) ([]Run, error) {
	svc, err := list.NewService(list.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create list service: %w", err)
	}

	req := list.Request{}
	if opts != nil {
		req.Project = opts.Project
		req.Limit = opts.Limit
		if opts.Status != "" {
			st := model.RunStatus(opts.Status)
			req.StatusFilter = &st
		}
	}

	runs, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalRunList(runs), nil
}

// GetRun returns a run by its ID.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required: %w", ErrNotValid)
	}

	r, err := c.api.GetRun(ctx, runID)
	if err != nil {
		return nil, mapError(err)
	}

	run := fromInternalRun(*r)
	return &run, nil
}

// Workspace returns a one-shot snapshot of the run workspace.
//
// Pass nil opts to get the unfiltered workspace.
func (c *Client) Workspace(ctx context.Context, runID string, opts *WorkspaceOpts) (*Workspace, error) {
	svc, err := status.NewService(status.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create status service: %w", err)
	}

	req := status.Request{RunID: runID}
	if opts != nil {
		req.Query = opts.Query
		req.ShowMeta = opts.ShowMeta
	}

	v, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	ws := fromInternalView(*v)
	return &ws, nil
}

// Content returns a run file. The ref is an artifact ID, an artifact name or a
// live file path. An empty ref selects the same default file the workspace shows.
func (c *Client) Content(ctx context.Context, runID, ref string, opts *ContentOpts) (*File, error) {
	svc, err := content.NewService(content.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create content service: %w", err)
	}

	req := content.Request{RunID: runID, Ref: ref}
	if opts != nil {
		req.Live = opts.Live
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return &File{
		Name:     res.Name,
		MimeType: res.MimeType,
		Content:  res.Content,
		Live:     res.Live,
	}, nil
}

// DownloadArtifact saves an artifact, referenced by ID or name, into dest.
// dest is a file or a directory, empty means the current directory.
func (c *Client) DownloadArtifact(ctx context.Context, runID, ref, dest string) (*DownloadResult, error) {
	return c.download(ctx, download.Request{RunID: runID, Ref: ref, Destination: dest})
}

// ExportWorkspace saves the whole run workspace as a zip into dest.
// dest is a file or a directory, empty means the current directory.
func (c *Client) ExportWorkspace(ctx context.Context, runID, dest string) (*DownloadResult, error) {
	return c.download(ctx, download.Request{RunID: runID, Workspace: true, Destination: dest})
}

func (c *Client) download(ctx context.Context, req download.Request) (*DownloadResult, error) {
	svc, err := download.NewService(download.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create download service: %w", err)
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return &DownloadResult{Path: res.Path, Bytes: res.Bytes}, nil
}

// Submit creates a new run.
func (c *Client) Submit(ctx context.Context, opts SubmitOpts) (*Run, error) {
	svc, err := create.NewService(create.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create create service: %w", err)
	}

	r, err := svc.Create(ctx, create.CreateOptions{
		Request: toInternalCreateRunRequest(opts),
	})
	if err != nil {
		return nil, mapError(err)
	}

	run := fromInternalRun(*r)
	return &run, nil
}

// Pause pauses a running run between nodes and returns the refreshed run.
func (c *Client) Pause(ctx context.Context, runID string) (*Run, error) {
	return c.control(ctx, control.Request{RunID: runID, Action: control.ActionPause})
}

// Resume resumes a paused run and returns the refreshed run.
func (c *Client) Resume(ctx context.Context, runID string) (*Run, error) {
	return c.control(ctx, control.Request{RunID: runID, Action: control.ActionResume})
}

// Cancel cancels an active run and returns the refreshed run.
func (c *Client) Cancel(ctx context.Context, runID string) (*Run, error) {
	return c.control(ctx, control.Request{RunID: runID, Action: control.ActionCancel})
}

// Rerun re-executes the workflow from node and returns the new run.
func (c *Client) Rerun(ctx context.Context, runID, node string) (*Run, error) {
	return c.control(ctx, control.Request{RunID: runID, Action: control.ActionRerun, Node: node})
}

func (c *Client) control(ctx context.Context, req control.Request) (*Run, error) {
	svc, err := control.NewService(control.ServiceConfig{
		Client: c.api,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create control service: %w", err)
	}

	r, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	run := fromInternalRun(*r)
	return &run, nil
}

// Watch keeps the run mounted and delivers every workspace update to
// opts.OnUpdate. It blocks until ctx is canceled or, with opts.UntilDone, until
// the run is terminal. The last workspace is returned in both cases.
//
// Pass nil opts to watch until the context is canceled without callbacks.
func (c *Client) Watch(ctx context.Context, runID string, opts *WatchOpts) (*Workspace, error) {
	svc, err := watch.NewService(watch.ServiceConfig{
		Client:       c.api,
		PollInterval: c.pollInterval,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create watch service: %w", err)
	}

	req := watch.Request{RunID: runID}
	if opts != nil {
		req.UntilDone = opts.UntilDone
		if opts.OnUpdate != nil {
			onUpdate := opts.OnUpdate
			req.OnView = func(v workspace.View) { onUpdate(fromInternalView(v)) }
		}
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	ws := fromInternalView(res.View)
	return &ws, nil
}
