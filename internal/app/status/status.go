package status

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/platform"
	"github.com/slok/runview/internal/workspace"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client platform.RunReader
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.status.Service"})

	return nil
}

// Service retrieves a point in time workspace view of a run.
type Service struct {
	client platform.RunReader
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	RunID string
	// Query filters the artifacts and live files by name.
	Query string
	// ShowMeta includes the bookkeeping artifacts.
	ShowMeta bool
}

// Run loads all the run resources once and projects them the same way a watched run is.
// Without push data the view source is always polling.
func (s *Service) Run(ctx context.Context, req Request) (*workspace.View, error) {
	s.logger.Debugf("getting status for run: %s", req.RunID)

	snap, err := Snapshot(ctx, s.client, req.RunID)
	if err != nil {
		return nil, err
	}

	c := workspace.NewController(req.RunID)
	for _, msg := range snap {
		c.Apply(msg)
	}
	c.Apply(workspace.SetQuery{Query: req.Query})
	if req.ShowMeta {
		c.Apply(workspace.ToggleMeta{})
	}

	v := c.View()
	return &v, nil
}

// Snapshot loads the polled resources of a run concurrently and returns them as workspace
// messages, the run first.
func Snapshot(ctx context.Context, client platform.RunReader, runID string) ([]workspace.Msg, error) {
	g, ctx := errgroup.WithContext(ctx)
	msgs := make([]workspace.Msg, 4)

	g.Go(func() error {
		r, err := client.GetRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("could not get run %q: %w", runID, err)
		}
		msgs[0] = workspace.RunLoaded{Run: *r}
		return nil
	})
	g.Go(func() error {
		events, err := client.ListEvents(ctx, runID)
		if err != nil {
			return fmt.Errorf("could not list run events: %w", err)
		}
		msgs[1] = workspace.EventsPolled{Events: events}
		return nil
	})
	g.Go(func() error {
		cps, err := client.ListCheckpoints(ctx, runID)
		if err != nil {
			return fmt.Errorf("could not list run checkpoints: %w", err)
		}
		msgs[2] = workspace.CheckpointsPolled{Checkpoints: cps}
		return nil
	})
	g.Go(func() error {
		arts, err := client.ListArtifacts(ctx, runID)
		if err != nil {
			return fmt.Errorf("could not list run artifacts: %w", err)
		}
		msgs[3] = workspace.ArtifactsPolled{Artifacts: arts}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return msgs, nil
}
