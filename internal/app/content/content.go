package content

import (
	"context"
	"fmt"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/livefile"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// ServiceConfig is the configuration for the content service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Content"})
	return nil
}

// Service resolves the content of a run file, finalized or live.
type Service struct {
	client platform.RunReader
	logger log.Logger
}

// NewService creates a new content service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters for a content lookup.
type Request struct {
	RunID string
	// Ref is an artifact ID, an artifact name or a live file path. Empty selects the same
	// default file the workspace shows.
	Ref string
	// Live prefers the in-progress files over the finalized artifacts.
	Live bool
}

// Result is a resolved run file.
type Result struct {
	Name     string
	MimeType string
	Content  string
	// Live is true when the content comes from the in-progress files.
	Live bool
}

// Run resolves the requested file. Live files are used when asked for or when the run has
// no finalized artifact yet.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	arts, err := s.client.ListArtifacts(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("could not list artifacts: %w", err)
	}

	if !req.Live && len(arts) > 0 {
		a, ok := resolveArtifact(arts, req.Ref)
		if ok {
			s.logger.Debugf("resolved %q to artifact %s", req.Ref, a.ID)
			d, err := s.client.GetArtifact(ctx, req.RunID, a.ID)
			if err != nil {
				return nil, fmt.Errorf("could not get artifact: %w", err)
			}
			return &Result{Name: d.Name, MimeType: d.MimeType, Content: d.Body()}, nil
		}
	}

	cps, err := s.client.ListCheckpoints(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("could not list checkpoints: %w", err)
	}
	f, ok := resolveLive(livefile.Project(cps), req.Ref)
	if !ok {
		return nil, fmt.Errorf("file %q: %w", req.Ref, model.ErrNotFound)
	}

	s.logger.Debugf("resolved %q to live file", req.Ref)
	return &Result{Name: f.Path, MimeType: catalog.MimeFromPath(f.Path), Content: f.Content, Live: true}, nil
}

func resolveArtifact(arts []model.Artifact, ref string) (model.Artifact, bool) {
	if ref == "" {
		return catalog.Build(arts, "").First()
	}
	if a, ok := catalog.Find(arts, ref); ok {
		return a, true
	}
	for _, a := range arts {
		if a.Name == ref {
			return a, true
		}
	}
	return model.Artifact{}, false
}

func resolveLive(files []model.LiveFile, ref string) (model.LiveFile, bool) {
	if ref == "" {
		if len(files) == 0 {
			return model.LiveFile{}, false
		}
		return files[0], true
	}
	return livefile.Find(files, ref)
}
