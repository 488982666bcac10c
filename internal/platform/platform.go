// Package platform defines the boundary with the agent execution platform backend: the
// polled resources, the push subscription, the control actions and the file transfers.
package platform

//go:generate mockery --case underscore --output platformmock --outpkg platformmock --name Client

import (
	"context"
	"io"

	"github.com/slok/runview/internal/model"
)

// Push message names.
const (
	PushMessageRunEvent = "run_event"
	PushMessageDone     = "done"
)

// PushMessage is a single named message received from a run push subscription.
type PushMessage struct {
	Name string
	Data []byte
}

// Subscription is an open push subscription for a run.
type Subscription interface {
	// Messages returns the received messages, the channel is closed when the
	// connection ends for any reason.
	Messages() <-chan PushMessage
	// Err returns the transport error that ended the subscription, if any.
	Err() error
	// Close closes the subscription, it's safe to be called multiple times.
	Close() error
}

// Streamer knows how to subscribe to the push channel of a run.
type Streamer interface {
	Subscribe(ctx context.Context, runID string) (Subscription, error)
}

// RunReader knows how to read the polled run resources.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListEvents(ctx context.Context, runID string) ([]model.Event, error)
	ListCheckpoints(ctx context.Context, runID string) ([]model.Checkpoint, error)
	ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error)
	GetArtifact(ctx context.Context, runID, artifactID string) (*model.ArtifactDetail, error)
	ListRuns(ctx context.Context, projectID string) ([]model.Run, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Controller knows how to act on runs.
type Controller interface {
	CreateRun(ctx context.Context, req model.CreateRunRequest) (*model.Run, error)
	Pause(ctx context.Context, runID string) error
	Resume(ctx context.Context, runID string) error
	Cancel(ctx context.Context, runID string) error
	// Rerun creates a new run seeded from the latest checkpoint of node and returns it.
	Rerun(ctx context.Context, runID, node string) (*model.Run, error)
}

// Downloader knows how to download run files.
type Downloader interface {
	DownloadArtifact(ctx context.Context, runID, artifactID string, w io.Writer) error
	ExportWorkspace(ctx context.Context, runID string, w io.Writer) error
}

// Client is the full platform API.
type Client interface {
	RunReader
	Streamer
	Controller
	Downloader
}
