package workspace

import (
	"maps"
	"slices"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/channel"
	"github.com/slok/runview/internal/livefile"
	"github.com/slok/runview/internal/model"
)

// Reduce is the workspace transition function. It's pure: the returned effects are the
// I/O the caller must execute, their results come back as new messages.
func Reduce(s State, msg Msg) (State, []Effect) {
	var effects []Effect

	switch m := msg.(type) {
	case RunLoaded:
		if m.Run.ID != s.RunID {
			return s, nil
		}
		s = s.withRun(m.Run)
		s.FetchErrs = withoutKey(s.FetchErrs, ResourceRun)

	case EventsPolled:
		s.Timeline = s.Timeline.WithPolled(m.Events)
		s.FetchErrs = withoutKey(s.FetchErrs, ResourceEvents)

	case CheckpointsPolled:
		if !sameCheckpoints(s.Checkpoints, m.Checkpoints) {
			s.Checkpoints = m.Checkpoints
			s.CheckpointsRev++
		}
		s.FetchErrs = withoutKey(s.FetchErrs, ResourceCheckpoints)

	case ArtifactsPolled:
		if !sameArtifacts(s.Artifacts, m.Artifacts) {
			s.Artifacts = m.Artifacts
			s.ArtifactsRev++
		}
		s.FetchErrs = withoutKey(s.FetchErrs, ResourceArtifacts)

	case FetchFailed:
		s.FetchErrs = withKey(s.FetchErrs, m.Resource, errString(m.Err))

	case StreamEvent:
		var accepted int
		s.Timeline, accepted = s.Timeline.WithPushed(m.Event)
		s.Channel = s.Channel.OnEvent(accepted > 0)

	case StreamDone:
		s.Channel = s.Channel.OnDone(m.Status)
		if st := model.RunStatus(m.Status); st.Terminal() && s.Run != nil {
			r := *s.Run
			r.Status = st
			s.Run = &r
		}

	case StreamFailed:
		if s.Channel.Open() {
			s.Timeline = s.Timeline.WithFallback()
		}
		s.Channel = s.Channel.OnFailed(m.Err)

	case ArtifactDetailLoaded:
		if m.Token != s.DetailToken {
			return s, nil
		}
		details := maps.Clone(s.Details)
		if details == nil {
			details = map[string]model.ArtifactDetail{}
		}
		details[m.Detail.ID] = m.Detail
		s.Details = details
		s.DetailPending = ""
		s.DetailErr = ""

	case ArtifactDetailFailed:
		if m.Token != s.DetailToken {
			return s, nil
		}
		s.DetailPending = ""
		s.DetailErr = errString(m.Err)

	case SelectArtifact:
		if _, ok := catalog.Find(s.Artifacts, m.ID); !ok {
			return s, nil
		}
		s, effects = s.selectArtifact(m.ID)

	case SelectLiveFile:
		if _, ok := livefile.Find(livefile.Project(s.Checkpoints), m.Path); !ok {
			return s, nil
		}
		s = s.selectLive(m.Path)

	case CloseTab:
		s, effects = s.closeTab(m.Tab)

	case ToggleDir:
		s.Dirs = s.Dirs.Toggle(m.Path)
		s.DirsRev++

	case SetQuery:
		s.Query = m.Query

	case ToggleMeta:
		s.ShowMeta = !s.ShowMeta

	case ToggleAutoFollow:
		s.AutoFollow = !s.AutoFollow

	case OpenNode:
		if m.Node == s.OpenNode && !s.NodeClosed {
			s.NodeClosed = true
		} else {
			s.OpenNode = m.Node
			s.NodeClosed = false
		}

	case ControlRequested:
		if !s.controlAllowed(m.Action, m.Node) {
			return s, nil
		}
		s.ControlPending = m.Action
		s.ControlErr = ""
		effects = append(effects, RunControl{Action: m.Action, RunID: s.RunID, Node: m.Node})

	case ControlFinished:
		s.ControlPending = ControlNone
		switch {
		case m.Err != nil:
			s.ControlErr = errString(m.Err)
		case m.Action == ControlRerun && m.NewRunID != "":
			effects = append(effects, Navigate{RunID: m.NewRunID})
		}
	}

	s, more := s.normalize()
	return s, append(effects, more...)
}

// normalize applies the invariants that must hold after every transition.
func (s State) normalize() (State, []Effect) {
	var effects []Effect

	if !s.Stopped && s.Status().Terminal() {
		s.Stopped = true
		// Without the done message the push channel may still owe the tail events, the
		// final sweep snapshot replaces it once it has caught up.
		if s.Channel.Mode != channel.ModeFinished {
			s.Timeline = s.Timeline.WithFallback()
		}
		s.Channel = s.Channel.OnClosed()
		effects = append(effects, StopPolling{}, CloseStream{})
	}

	// Finalized artifacts supersede the live files for new selections only, a selected
	// live file is kept until the user selects something else.
	if s.Selected.IsZero() {
		if len(s.Artifacts) > 0 {
			if a, ok := catalog.Build(s.Artifacts, s.Query).First(); ok {
				var eff []Effect
				s, eff = s.selectArtifact(a.ID)
				effects = append(effects, eff...)
			}
		} else if live := livefile.Project(s.Checkpoints); len(live) > 0 {
			s = s.selectLive(live[0].Path)
		}
	}

	if s.OpenNode == "" && !s.NodeClosed && len(s.Checkpoints) > 0 {
		s.OpenNode = s.Checkpoints[len(s.Checkpoints)-1].Node
	}

	return s, effects
}

func (s State) withRun(r model.Run) State {
	// Once stopped, a late in-flight poll can't move the run back to an active status.
	if s.Stopped && s.Run != nil && !r.Status.Terminal() {
		r.Status = s.Run.Status
	}
	s.Run = &r
	return s
}

func (s State) selectArtifact(id string) (State, []Effect) {
	s.Selected = Selection{Kind: SelectionArtifact, ID: id}
	s.Tabs = appendTab(s.Tabs, s.Selected)
	s.DetailToken++
	s.DetailErr = ""

	if _, ok := s.Details[id]; ok {
		s.DetailPending = ""
		return s, nil
	}
	s.DetailPending = id
	return s, []Effect{FetchArtifactDetail{Token: s.DetailToken, RunID: s.RunID, ArtifactID: id}}
}

func (s State) selectLive(path string) State {
	s.Selected = Selection{Kind: SelectionLive, ID: path}
	s.Tabs = appendTab(s.Tabs, s.Selected)
	s.DetailToken++
	s.DetailPending = ""
	s.DetailErr = ""
	return s
}

func (s State) closeTab(tab Selection) (State, []Effect) {
	idx := slices.Index(s.Tabs, tab)
	if idx < 0 {
		return s, nil
	}
	s.Tabs = slices.Delete(slices.Clone(s.Tabs), idx, idx+1)
	if s.Selected != tab {
		return s, nil
	}

	if len(s.Tabs) == 0 {
		s.Selected = Selection{}
		s.DetailPending = ""
		s.DetailErr = ""
		return s, nil
	}

	next := s.Tabs[min(idx, len(s.Tabs)-1)]
	if next.Kind == SelectionLive {
		return s.selectLive(next.ID), nil
	}
	return s.selectArtifact(next.ID)
}

func (s State) controlAllowed(action ControlAction, node string) bool {
	if s.ControlPending != ControlNone || s.Run == nil {
		return false
	}

	st := s.Run.Status
	switch action {
	case ControlPause:
		return st == model.RunStatusRunning
	case ControlResume:
		return st == model.RunStatusPaused
	case ControlCancel:
		return st.Active()
	case ControlRerun:
		if node == "" {
			return false
		}
		for _, c := range s.Checkpoints {
			if c.Node == node {
				return true
			}
		}
	}
	return false
}

func appendTab(tabs []Selection, tab Selection) []Selection {
	if slices.Contains(tabs, tab) {
		return tabs
	}
	return append(slices.Clone(tabs), tab)
}

func sameCheckpoints(a, b []model.Checkpoint) bool {
	return slices.EqualFunc(a, b, func(x, y model.Checkpoint) bool {
		return x.Seq == y.Seq && x.Node == y.Node
	})
}

func sameArtifacts(a, b []model.Artifact) bool {
	return slices.EqualFunc(a, b, func(x, y model.Artifact) bool {
		return x.ID == y.ID && x.Name == y.Name
	})
}

func withKey(m map[string]string, k, v string) map[string]string {
	m = maps.Clone(m)
	if m == nil {
		m = map[string]string{}
	}
	m[k] = v
	return m
}

func withoutKey(m map[string]string, k string) map[string]string {
	if _, ok := m[k]; !ok {
		return m
	}
	m = maps.Clone(m)
	delete(m, k)
	return m
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
