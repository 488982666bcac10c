package workspace

import (
	"strings"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/channel"
	"github.com/slok/runview/internal/checkpoint"
	"github.com/slok/runview/internal/livefile"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/output"
)

// MaxViewerLines is the maximum number of content lines shown by the viewer.
const MaxViewerLines = 5000

// ViewerMode is what the content viewer is showing.
type ViewerMode string

const (
	ViewerWaiting  ViewerMode = "waiting"
	ViewerArtifact ViewerMode = "artifact"
	ViewerLive     ViewerMode = "live"
)

// View is the renderable projection of the workspace state.
type View struct {
	RunID       string
	Run         *model.Run
	Status      model.RunStatus
	Source      string
	ChannelMode channel.Mode
	Events      []model.Event
	Stopped     bool
	FetchErrs   map[string]string

	Nodes      []NodeView
	OpenNode   string
	AutoFollow bool
	Progress   Progress

	Code      []model.Artifact
	Meta      []model.Artifact
	ShowMeta  bool
	Query     string
	Tree      []catalog.Row
	LiveFiles []model.LiveFile

	Viewer   Viewer
	Tabs     []Tab
	Controls Controls
}

// NodeView is an executed workflow node.
type NodeView struct {
	Index int
	ID    string
	Title string
	State checkpoint.NodeState
	// Output is the primary output, in progress delta text when Streaming.
	Output     string
	History    []string
	Preview    string
	Streaming  bool
	Open       bool
	CanRerun   bool
	Checkpoint model.Checkpoint
}

// Progress is the completed nodes progress.
type Progress struct {
	Done    int
	Total   int
	Percent int
}

// Viewer is the content viewer state.
type Viewer struct {
	Mode       ViewerMode
	Title      string
	MimeType   string
	Content    string
	TotalLines int
	Truncated  bool
	Loading    bool
	Err        string
}

// Tab is an open workspace file.
type Tab struct {
	Selection
	Label  string
	Active bool
}

// Controls is the control actions availability.
type Controls struct {
	CanPause  bool
	CanResume bool
	CanCancel bool
	Pending   ControlAction
	Err       string
}

// Controller owns the workspace state of a mounted run. It's not safe for concurrent use,
// it must be driven from a single goroutine.
type Controller struct {
	state State

	outputs memo[uint64, output.Outputs]
	summary memo[[2]uint64, checkpoint.Summary]
	catalog memo[catalogKey, catalog.Catalog]
	tree    memo[catalogKey, catalog.Dir]
	rows    memo[rowsKey, []catalog.Row]
	live    memo[uint64, []model.LiveFile]
}

type catalogKey struct {
	rev   uint64
	query string
}

type rowsKey struct {
	catalogKey
	dirsRev uint64
}

// NewController returns a controller for runID.
func NewController(runID string) *Controller {
	return &Controller{state: NewState(runID)}
}

// Apply reduces msg into the state and returns the effects to execute.
func (c *Controller) Apply(msg Msg) []Effect {
	var effects []Effect
	c.state, effects = Reduce(c.state, msg)
	return effects
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// View projects the current state.
func (c *Controller) View() View {
	s := c.state

	outs := c.outputs.get(s.Timeline.Rev(), func() output.Outputs {
		return output.Compose(s.Timeline.Events(), nil)
	})
	summary := c.summary.get([2]uint64{s.Timeline.Rev(), s.CheckpointsRev}, func() checkpoint.Summary {
		return checkpoint.Aggregate(s.Checkpoints, s.Timeline.Events())
	})
	ck := catalogKey{rev: s.ArtifactsRev, query: s.Query}
	cat := c.catalog.get(ck, func() catalog.Catalog {
		return catalog.Build(s.Artifacts, s.Query)
	})
	tree := c.tree.get(ck, func() catalog.Dir {
		return catalog.BuildTree(cat.Code)
	})
	rows := c.rows.get(rowsKey{catalogKey: ck, dirsRev: s.DirsRev}, func() []catalog.Row {
		return catalog.Flatten(tree, s.Dirs)
	})
	live := c.live.get(s.CheckpointsRev, func() []model.LiveFile {
		return livefile.Project(s.Checkpoints)
	})

	v := View{
		RunID:       s.RunID,
		Run:         s.Run,
		Status:      s.Status(),
		Source:      s.Timeline.Source().Label(),
		ChannelMode: s.Channel.Mode,
		Events:      s.Timeline.Events(),
		Stopped:     s.Stopped,
		FetchErrs:   s.FetchErrs,
		AutoFollow:  s.AutoFollow,
		Code:        cat.Code,
		Meta:        cat.Meta,
		ShowMeta:    s.ShowMeta,
		Query:       s.Query,
		Tree:        rows,
		LiveFiles:   livefile.Filter(live, s.Query),
		Controls:    s.controls(),
	}
	if !s.NodeClosed {
		v.OpenNode = s.OpenNode
	}

	done, total, percent := summary.Progress()
	v.Progress = Progress{Done: done, Total: total, Percent: percent}
	for i, n := range summary.Nodes {
		out := outs.ForNode(n)
		cp, _ := summary.Latest(n)
		v.Nodes = append(v.Nodes, NodeView{
			Index:      i + 1,
			ID:         n,
			Title:      NodeTitle(n),
			State:      summary.StateOf(n, s.Status()),
			Output:     out.Primary(),
			History:    out.History(),
			Preview:    out.Preview(),
			Streaming:  !out.Pending() && !out.Final,
			Open:       v.OpenNode == n,
			CanRerun:   s.controlAllowed(ControlRerun, n),
			Checkpoint: cp,
		})
	}

	v.Tabs = s.tabs()
	v.Viewer = s.viewer(live)
	return v
}

func (s State) controls() Controls {
	return Controls{
		CanPause:  s.controlAllowed(ControlPause, ""),
		CanResume: s.controlAllowed(ControlResume, ""),
		CanCancel: s.controlAllowed(ControlCancel, ""),
		Pending:   s.ControlPending,
		Err:       s.ControlErr,
	}
}

func (s State) tabs() []Tab {
	tabs := make([]Tab, 0, len(s.Tabs))
	for _, t := range s.Tabs {
		label := t.ID
		if t.Kind == SelectionArtifact {
			a, ok := catalog.Find(s.Artifacts, t.ID)
			if !ok {
				continue
			}
			label = a.Name
		}
		tabs = append(tabs, Tab{Selection: t, Label: label, Active: t == s.Selected})
	}
	return tabs
}

func (s State) viewer(live []model.LiveFile) Viewer {
	switch s.Selected.Kind {
	case SelectionLive:
		f, _ := livefile.Find(live, s.Selected.ID)
		v := Viewer{Mode: ViewerLive, Title: s.Selected.ID, MimeType: catalog.MimeFromPath(s.Selected.ID)}
		v.setContent(f.Content)
		return v

	case SelectionArtifact:
		a, _ := catalog.Find(s.Artifacts, s.Selected.ID)
		v := Viewer{
			Mode:     ViewerArtifact,
			Title:    a.Name,
			MimeType: a.MimeType,
			Loading:  s.DetailPending == s.Selected.ID,
			Err:      s.DetailErr,
		}
		if d, ok := s.Details[s.Selected.ID]; ok {
			v.setContent(d.Body())
		}
		return v
	}

	return Viewer{Mode: ViewerWaiting, Title: "Waiting for artifacts..."}
}

func (v *Viewer) setContent(content string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	v.TotalLines = len(lines)
	if len(lines) > MaxViewerLines {
		content = strings.Join(lines[:MaxViewerLines], "\n")
		v.Truncated = true
	}
	v.Content = content
}
