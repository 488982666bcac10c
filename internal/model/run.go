package model

import "time"

// RunStatus represents the status of a run as reported by the platform.
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

// Active returns true when the platform may still produce new data for the run.
func (s RunStatus) Active() bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusPaused:
		return true
	}
	return false
}

// Terminal returns true when the run will not change anymore.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCanceled:
		return true
	}
	return false
}

// Run represents one execution of a user request through the workflow engine.
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

// CreateRunRequest are the options to submit a new run.
type CreateRunRequest struct {
	Input     string
	Mode      string
	Roles     []string
	ProjectID string
	UserRules []string
}

// Project is only used to filter run listings.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
