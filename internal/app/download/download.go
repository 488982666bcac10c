package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// Client is the platform API used by the download service.
type Client interface {
	platform.RunReader
	platform.Downloader
}

// ServiceConfig is the configuration for the download service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Download"})
	return nil
}

// Service downloads run files to the local filesystem.
type Service struct {
	client Client
	logger log.Logger
}

// NewService creates a new download service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters for a download.
type Request struct {
	RunID string
	// Ref is the artifact ID or name, ignored when Workspace is set.
	Ref string
	// Workspace downloads the whole run workspace as a zip.
	Workspace bool
	// Destination is a file or a directory (existing or ending with a separator), empty
	// means the current directory.
	Destination string
}

// Result is a completed download.
type Result struct {
	Path  string
	Bytes int64
}

// Run downloads an artifact, named after it, or the run workspace as `run-<id>.zip`.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	// 1. Resolve what and where.
	var (
		name  string
		fetch func(w io.Writer) error
	)
	if req.Workspace {
		name = WorkspaceFileName(req.RunID)
		fetch = func(w io.Writer) error { return s.client.ExportWorkspace(ctx, req.RunID, w) }
	} else {
		a, err := s.resolve(ctx, req.RunID, req.Ref)
		if err != nil {
			return nil, err
		}
		name = catalog.DownloadName(a)
		fetch = func(w io.Writer) error { return s.client.DownloadArtifact(ctx, req.RunID, a.ID, w) }
	}
	path := destinationPath(req.Destination, name)

	// 2. Download into a temporary file next to the destination and move it in place.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runview-download-*")
	if err != nil {
		return nil, fmt.Errorf("could not create temporary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	cw := &countingWriter{w: tmp}
	err = fetch(cw)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("could not download %q: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("could not move download into place: %w", err)
	}

	s.logger.Infof("Downloaded %s (%d bytes)", path, cw.n)
	return &Result{Path: path, Bytes: cw.n}, nil
}

func (s *Service) resolve(ctx context.Context, runID, ref string) (model.Artifact, error) {
	if ref == "" {
		return model.Artifact{}, fmt.Errorf("artifact is required: %w", model.ErrNotValid)
	}

	arts, err := s.client.ListArtifacts(ctx, runID)
	if err != nil {
		return model.Artifact{}, fmt.Errorf("could not list artifacts: %w", err)
	}
	if a, ok := catalog.Find(arts, ref); ok {
		return a, nil
	}
	for _, a := range arts {
		if a.Name == ref {
			return a, nil
		}
	}

	return model.Artifact{}, fmt.Errorf("artifact %q: %w", ref, model.ErrNotFound)
}

// WorkspaceFileName is the file name of an exported run workspace.
func WorkspaceFileName(runID string) string { return "run-" + runID + ".zip" }

// destinationPath returns where name is written. Artifact names may contain directories,
// only the base name is used.
func destinationPath(dest, name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	if dest == "" {
		return base
	}
	if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(filepath.Separator)) {
		return filepath.Join(dest, base)
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return filepath.Join(dest, base)
	}
	return dest
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
