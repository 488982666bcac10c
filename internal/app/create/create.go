package create

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// Run modes known by the platform.
const (
	ModeEngineer = "engineer"
	ModeTeam     = "team"
)

// ServiceConfig is the configuration for the create service.
type ServiceConfig struct {
	Client platform.Controller
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Create"})
	return nil
}

// Service handles run submission.
type Service struct {
	client platform.Controller
	logger log.Logger
}

// NewService creates a new create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// CreateOptions are the options for submitting a run.
type CreateOptions struct {
	Request model.CreateRunRequest
}

// Create submits a new run.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (*model.Run, error) {
	req := opts.Request

	// 1. Validate and normalize the request.
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return nil, fmt.Errorf("input is required: %w", model.ErrNotValid)
	}
	if req.Mode == "" {
		req.Mode = ModeEngineer
	}
	if req.Mode != ModeEngineer && req.Mode != ModeTeam {
		return nil, fmt.Errorf("unknown mode %q: %w", req.Mode, model.ErrNotValid)
	}
	if req.Mode == ModeTeam && len(req.Roles) == 0 {
		return nil, fmt.Errorf("team runs require at least one role: %w", model.ErrNotValid)
	}
	req.UserRules = cleanRules(req.UserRules)

	// 2. Submit.
	run, err := s.client.CreateRun(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("could not create run: %w", err)
	}

	s.logger.Infof("Created run: %s (%s)", run.ID, run.Mode)

	return run, nil
}

func cleanRules(rules []string) []string {
	var out []string
	for _, r := range rules {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
