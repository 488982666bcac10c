// Package workspace is the run workspace view controller. All the view state of a mounted
// run is held in a single State value that only changes through Reduce, the I/O requested
// by a transition is returned as effects for the caller to execute.
package workspace

import (
	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/channel"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/timeline"
)

// SelectionKind is the kind of the selected workspace file.
type SelectionKind string

const (
	SelectionNone     SelectionKind = ""
	SelectionArtifact SelectionKind = "artifact"
	SelectionLive     SelectionKind = "live"
)

// Selection identifies a workspace file, ID is the artifact ID or the live file path.
type Selection struct {
	Kind SelectionKind
	ID   string
}

// IsZero returns true when nothing is selected.
func (s Selection) IsZero() bool { return s.Kind == SelectionNone }

// ControlAction is a user action on the run.
type ControlAction string

const (
	ControlNone   ControlAction = ""
	ControlPause  ControlAction = "pause"
	ControlResume ControlAction = "resume"
	ControlCancel ControlAction = "cancel"
	ControlRerun  ControlAction = "rerun"
)

// State is the whole view state of a mounted run.
type State struct {
	RunID string
	// Run is nil until the first run detail is loaded.
	Run      *model.Run
	Timeline timeline.Timeline
	Channel  channel.State

	Checkpoints    []model.Checkpoint
	CheckpointsRev uint64
	Artifacts      []model.Artifact
	ArtifactsRev   uint64

	// Details are the loaded artifact details by artifact ID. Finalized artifacts are
	// immutable so they are never invalidated.
	Details       map[string]model.ArtifactDetail
	DetailToken   uint64
	DetailPending string
	DetailErr     string

	Selected Selection
	Tabs     []Selection
	Dirs     catalog.DirState
	DirsRev  uint64
	Query    string
	ShowMeta bool

	AutoFollow bool
	OpenNode   string
	// NodeClosed is set when the user collapsed the open node.
	NodeClosed bool

	ControlPending ControlAction
	ControlErr     string

	// FetchErrs are the last failure of every polled resource, cleared on the next success.
	FetchErrs map[string]string
	// Stopped is set once the run is terminal and the pollers have been stopped.
	Stopped bool
}

// NewState returns the initial state of a mounted run.
func NewState(runID string) State {
	return State{
		RunID:      runID,
		Channel:    channel.NewState(),
		Details:    map[string]model.ArtifactDetail{},
		Dirs:       catalog.DirState{},
		AutoFollow: true,
		FetchErrs:  map[string]string{},
	}
}

// Status returns the run status, empty until loaded.
func (s State) Status() model.RunStatus {
	if s.Run == nil {
		return ""
	}
	return s.Run.Status
}

// Polled resource names.
const (
	ResourceRun         = "run"
	ResourceEvents      = "events"
	ResourceCheckpoints = "checkpoints"
	ResourceArtifacts   = "artifacts"
)

// Msg is a reducer input.
type Msg interface{ isMsg() }

type (
	// RunLoaded is a polled run detail.
	RunLoaded struct{ Run model.Run }
	// EventsPolled is a polled event list.
	EventsPolled struct{ Events []model.Event }
	// CheckpointsPolled is a polled checkpoint list.
	CheckpointsPolled struct{ Checkpoints []model.Checkpoint }
	// ArtifactsPolled is a polled artifact list.
	ArtifactsPolled struct{ Artifacts []model.Artifact }
	// FetchFailed is a polling failure, stale data stays.
	FetchFailed struct {
		Resource string
		Err      error
	}
	// StreamEvent is a pushed event.
	StreamEvent struct{ Event model.Event }
	// StreamDone is the push terminal message.
	StreamDone struct{ Status string }
	// StreamFailed is a push subscription failure.
	StreamFailed struct{ Err error }
	// ArtifactDetailLoaded is the result of a FetchArtifactDetail effect.
	ArtifactDetailLoaded struct {
		Token  uint64
		Detail model.ArtifactDetail
	}
	// ArtifactDetailFailed is the failure of a FetchArtifactDetail effect.
	ArtifactDetailFailed struct {
		Token      uint64
		ArtifactID string
		Err        error
	}
	SelectArtifact   struct{ ID string }
	SelectLiveFile   struct{ Path string }
	CloseTab         struct{ Tab Selection }
	ToggleDir        struct{ Path string }
	SetQuery         struct{ Query string }
	ToggleMeta       struct{}
	ToggleAutoFollow struct{}
	// OpenNode opens a node, opening the already open node collapses it.
	OpenNode struct{ Node string }
	// ControlRequested asks for a control action, Node is used by re-runs.
	ControlRequested struct {
		Action ControlAction
		Node   string
	}
	// ControlFinished is the result of a RunControl effect.
	ControlFinished struct {
		Action   ControlAction
		NewRunID string
		Err      error
	}
)

func (RunLoaded) isMsg()            {}
func (EventsPolled) isMsg()         {}
func (CheckpointsPolled) isMsg()    {}
func (ArtifactsPolled) isMsg()      {}
func (FetchFailed) isMsg()          {}
func (StreamEvent) isMsg()          {}
func (StreamDone) isMsg()           {}
func (StreamFailed) isMsg()         {}
func (ArtifactDetailLoaded) isMsg() {}
func (ArtifactDetailFailed) isMsg() {}
func (SelectArtifact) isMsg()       {}
func (SelectLiveFile) isMsg()       {}
func (CloseTab) isMsg()             {}
func (ToggleDir) isMsg()            {}
func (SetQuery) isMsg()             {}
func (ToggleMeta) isMsg()           {}
func (ToggleAutoFollow) isMsg()     {}
func (OpenNode) isMsg()             {}
func (ControlRequested) isMsg()     {}
func (ControlFinished) isMsg()      {}

// Effect is an I/O request returned by a transition.
type Effect interface{ isEffect() }

type (
	// FetchArtifactDetail requests the artifact content, the result must carry the token.
	FetchArtifactDetail struct {
		Token      uint64
		RunID      string
		ArtifactID string
	}
	// StopPolling stops all the pollers of the run.
	StopPolling struct{}
	// CloseStream closes the push subscription of the run, it's never reopened.
	CloseStream struct{}
	// RunControl executes a control action on the run.
	RunControl struct {
		Action ControlAction
		RunID  string
		Node   string
	}
	// Navigate mounts another run.
	Navigate struct{ RunID string }
)

func (FetchArtifactDetail) isEffect() {}
func (StopPolling) isEffect()         {}
func (CloseStream) isEffect()         {}
func (RunControl) isEffect()          {}
func (Navigate) isEffect()            {}
