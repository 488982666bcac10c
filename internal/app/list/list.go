package list

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// ServiceConfig is the configuration for the list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.list.Service"})

	return nil
}

// Service lists runs with optional filtering.
type Service struct {
	client platform.RunReader
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// Project is an optional project ID or name, only runs of the project are listed.
	Project string
	// StatusFilter is an optional filter to only show runs with this status.
	StatusFilter *model.RunStatus
	// Limit is the maximum number of runs returned, 0 means no limit.
	Limit int
}

// Run lists the runs, newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Run, error) {
	s.logger.Debugf("listing runs with project %q and filter: %v", req.Project, req.StatusFilter)

	projectID, err := s.resolveProject(ctx, req.Project)
	if err != nil {
		return nil, err
	}

	runs, err := s.client.ListRuns(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	if req.StatusFilter != nil {
		filtered := make([]model.Run, 0, len(runs))
		for _, r := range runs {
			if r.Status == *req.StatusFilter {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	slices.SortStableFunc(runs, func(a, b model.Run) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	s.logger.Debugf("found %d runs", len(runs))
	return runs, nil
}

// resolveProject returns the project ID of a project ID or name. Names are matched case
// insensitive against the user projects.
func (s *Service) resolveProject(ctx context.Context, project string) (string, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return "", nil
	}
	if _, err := uuid.Parse(project); err == nil {
		return project, nil
	}

	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return "", fmt.Errorf("could not list projects: %w", err)
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, project) {
			s.logger.Debugf("project %q resolved to %s", project, p.ID)
			return p.ID, nil
		}
	}

	return "", fmt.Errorf("project %q: %w", project, model.ErrNotFound)
}
