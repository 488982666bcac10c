package control

import (
	"context"
	"fmt"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// Action is a control action on a run.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionCancel Action = "cancel"
	ActionRerun  Action = "rerun"
)

// Client is the platform API used by the control service.
type Client interface {
	platform.RunReader
	platform.Controller
}

// ServiceConfig is the configuration for the control service.
type ServiceConfig struct {
	Client Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.control.Service"})

	return nil
}

// Service executes control actions on runs.
type Service struct {
	client Client
	logger log.Logger
}

// NewService creates a new control service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the control request parameters.
type Request struct {
	RunID  string
	Action Action
	// Node is the node a re-run starts from, empty uses the latest checkpoint.
	Node string
}

// Run executes the action and returns the resulting run: the updated run, or the new one
// for re-runs. The current status is validated first so invalid actions don't reach the
// platform.
func (s *Service) Run(ctx context.Context, req Request) (*model.Run, error) {
	s.logger.Debugf("%s run: %s", req.Action, req.RunID)

	run, err := s.client.GetRun(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	if err := allowed(req.Action, run.Status); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionPause:
		err = s.client.Pause(ctx, run.ID)
	case ActionResume:
		err = s.client.Resume(ctx, run.ID)
	case ActionCancel:
		err = s.client.Cancel(ctx, run.ID)
	case ActionRerun:
		newRun, err := s.client.Rerun(ctx, run.ID, req.Node)
		if err != nil {
			return nil, fmt.Errorf("could not re-run: %w", err)
		}
		s.logger.Infof("re-ran run %s from %q as %s", run.ID, req.Node, newRun.ID)
		return newRun, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not %s run: %w", req.Action, err)
	}

	run, err = s.client.GetRun(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	s.logger.Infof("%s run: %s (status: %s)", req.Action, run.ID, run.Status)
	return run, nil
}

func allowed(action Action, status model.RunStatus) error {
	ok := false
	switch action {
	case ActionPause:
		ok = status == model.RunStatusRunning
	case ActionResume:
		ok = status == model.RunStatusPaused
	case ActionCancel:
		ok = status.Active()
	case ActionRerun:
		ok = true
	default:
		return fmt.Errorf("unknown action %q: %w", action, model.ErrNotValid)
	}

	if !ok {
		return fmt.Errorf("cannot %s run (current status: %s): %w", action, status, model.ErrNotValid)
	}
	return nil
}
