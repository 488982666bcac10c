package runview

import (
	"errors"
	"time"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/workspace"
)

var (
	// ErrNotFound is returned when a run, artifact or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a request is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrConflict is returned when a request conflicts with the current run status,
	// like pausing a run that is not running.
	ErrConflict = errors.New("conflict")
)

// RunStatus represents the status of a run as reported by the platform.
//
// The typical lifecycle is:
//
//	queued -> running <-> paused -> succeeded | failed | canceled
type RunStatus string

const (
	// RunStatusQueued indicates the run is waiting to be executed.
	RunStatusQueued RunStatus = "queued"
	// RunStatusRunning indicates the run is executing nodes.
	RunStatusRunning RunStatus = "running"
	// RunStatusPaused indicates the run has been paused between nodes.
	RunStatusPaused RunStatus = "paused"
	// RunStatusSucceeded indicates the run finished successfully.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed indicates the run finished with an error.
	RunStatusFailed RunStatus = "failed"
	// RunStatusCanceled indicates the run was canceled.
	RunStatusCanceled RunStatus = "canceled"
)

// Terminal returns true when the run will not change anymore.
func (s RunStatus) Terminal() bool { return model.RunStatus(s).Terminal() }

// Run is one execution of a user request through the workflow engine.
type Run struct {
	ID         string
	Status     RunStatus
	Mode       string
	Roles      []string
	ProjectID  string
	Input      string
	OutputText string
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// ListRunsOpts are the options for [Client.ListRuns].
type ListRunsOpts struct {
	// Project is a project ID or name.
	Project string
	// Status only lists runs with this status.
	Status RunStatus
	// Limit is the maximum number of runs, 0 means no limit.
	Limit int
}

// SubmitOpts are the options for [Client.Submit].
type SubmitOpts struct {
	// Input is the user request (required).
	Input string
	// Mode is "engineer" (default) or "team".
	Mode string
	// Roles are the team roles, required on team mode.
	Roles []string
	// ProjectID is an optional project the run belongs to.
	ProjectID string
	// Rules are extra user rules for the agents.
	Rules []string
}

// WorkspaceOpts are the options for [Client.Workspace].
type WorkspaceOpts struct {
	// Query filters the artifacts by name, case insensitive.
	Query string
	// ShowMeta includes the meta artifacts in the workspace.
	ShowMeta bool
}

// ContentOpts are the options for [Client.Content].
type ContentOpts struct {
	// Live prefers the in-progress files over the finalized artifacts.
	Live bool
}

// WatchOpts are the options for [Client.Watch].
type WatchOpts struct {
	// UntilDone returns once the run is terminal and its final data loaded.
	UntilDone bool
	// OnUpdate receives every workspace update, from a single goroutine.
	OnUpdate func(Workspace)
}

// NodeState is the derived state of a workflow node.
type NodeState string

const (
	// NodeStatePending indicates the node has not started.
	NodeStatePending NodeState = "pending"
	// NodeStateRunning indicates the node is executing.
	NodeStateRunning NodeState = "running"
	// NodeStateCompleted indicates the node finished.
	NodeStateCompleted NodeState = "completed"
)

// Node is an executed workflow node.
type Node struct {
	// Index is the 1-based execution order.
	Index int
	ID    string
	Title string
	State NodeState
	// Output is the primary output, the in progress text when Streaming.
	Output    string
	Streaming bool
	// CanRerun is true when the run can be re-executed from this node.
	CanRerun bool
}

// Progress is the completed nodes progress.
type Progress struct {
	Done    int
	Total   int
	Percent int
}

// Artifact is a finalized run file.
type Artifact struct {
	ID        string
	Name      string
	MimeType  string
	CreatedAt time.Time
}

// LiveFile is an in-progress file inferred from the latest checkpoint.
type LiveFile struct {
	Path    string
	Content string
}

// Workspace is the projected state of a run.
type Workspace struct {
	RunID  string
	Status RunStatus
	// Source is where the updates come from ("SSE" or "Polling").
	Source   string
	Progress Progress
	Nodes    []Node
	// Artifacts are the code artifacts matching the query.
	Artifacts []Artifact
	// MetaArtifacts are only set when requested.
	MetaArtifacts []Artifact
	// LiveFiles are only set while the run has no artifact.
	LiveFiles []LiveFile
	// Error is the run error, if any.
	Error string
}

// File is a resolved run file.
type File struct {
	Name     string
	MimeType string
	Content  string
	// Live is true when the content comes from the in-progress files.
	Live bool
}

// DownloadResult is a completed download.
type DownloadResult struct {
	Path  string
	Bytes int64
}

func toInternalCreateRunRequest(opts SubmitOpts) model.CreateRunRequest {
	return model.CreateRunRequest{
		Input:     opts.Input,
		Mode:      opts.Mode,
		Roles:     opts.Roles,
		ProjectID: opts.ProjectID,
		UserRules: opts.Rules,
	}
}

func fromInternalRun(r model.Run) Run {
	return Run{
		ID:         r.ID,
		Status:     RunStatus(r.Status),
		Mode:       r.Mode,
		Roles:      r.Roles,
		ProjectID:  r.ProjectID,
		Input:      r.Input,
		OutputText: r.OutputText,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func fromInternalRunList(rs []model.Run) []Run {
	runs := make([]Run, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, fromInternalRun(r))
	}
	return runs
}

func fromInternalArtifacts(as []model.Artifact) []Artifact {
	if len(as) == 0 {
		return nil
	}
	arts := make([]Artifact, 0, len(as))
	for _, a := range as {
		arts = append(arts, Artifact{ID: a.ID, Name: a.Name, MimeType: a.MimeType, CreatedAt: a.CreatedAt})
	}
	return arts
}

func fromInternalView(v workspace.View) Workspace {
	ws := Workspace{
		RunID:    v.RunID,
		Status:   RunStatus(v.Status),
		Source:   v.Source,
		Progress: Progress(v.Progress),
		// Finalized artifacts replace the in-progress files.
		Artifacts: fromInternalArtifacts(v.Code),
	}
	if v.Run != nil {
		ws.Error = v.Run.Error
	}
	if v.ShowMeta {
		ws.MetaArtifacts = fromInternalArtifacts(v.Meta)
	}
	if len(v.Code) == 0 && len(v.Meta) == 0 {
		for _, f := range v.LiveFiles {
			ws.LiveFiles = append(ws.LiveFiles, LiveFile(f))
		}
	}
	for _, n := range v.Nodes {
		ws.Nodes = append(ws.Nodes, Node{
			Index:     n.Index,
			ID:        n.ID,
			Title:     n.Title,
			State:     NodeState(n.State),
			Output:    n.Output,
			Streaming: n.Streaming,
			CanRerun:  n.CanRerun,
		})
	}
	return ws
}

// mapError maps internal errors to the SDK sentinel errors, keeping the original message.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return &mappedError{original: err, sentinel: ErrNotFound}
	case errors.Is(err, model.ErrNotValid):
		return &mappedError{original: err, sentinel: ErrNotValid}
	case errors.Is(err, model.ErrConflict):
		return &mappedError{original: err, sentinel: ErrConflict}
	default:
		return err
	}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool { return target == e.sentinel }

func (e *mappedError) Unwrap() error { return e.original }
