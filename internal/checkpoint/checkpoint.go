// Package checkpoint derives the executed node list and node states from the
// checkpoint sequence of a run.
package checkpoint

import (
	"math"

	"github.com/slok/runview/internal/model"
)

// NodeState is the derived state of a node.
type NodeState string

const (
	NodeStatePending   NodeState = "pending"
	NodeStateRunning   NodeState = "running"
	NodeStateCompleted NodeState = "completed"
)

// Summary is the aggregated view of the checkpoints.
type Summary struct {
	// Nodes are the distinct nodes in order of first appearance.
	Nodes []string
	// Current is the node of the last checkpoint.
	Current string
	// Completed are the nodes with a completion event in the timeline.
	Completed map[string]bool

	latest map[string]model.Checkpoint
}

// Aggregate computes the summary. It does not perform any I/O and is safe to be called
// on every update.
func Aggregate(checkpoints []model.Checkpoint, events []model.Event) Summary {
	s := Summary{
		Nodes:     []string{},
		Completed: map[string]bool{},
		latest:    map[string]model.Checkpoint{},
	}

	for _, cp := range checkpoints {
		if _, ok := s.latest[cp.Node]; !ok {
			s.Nodes = append(s.Nodes, cp.Node)
		}
		s.latest[cp.Node] = cp
	}

	if len(checkpoints) > 0 {
		s.Current = checkpoints[len(checkpoints)-1].Node
	}

	for _, e := range events {
		if e.Type != model.EventTypeNodeCompleted {
			continue
		}
		if n := e.DataString("node"); n != "" {
			s.Completed[n] = true
		}
	}

	return s
}

// Latest returns the most recent checkpoint of a node.
func (s Summary) Latest(node string) (model.Checkpoint, bool) {
	cp, ok := s.latest[node]
	return cp, ok
}

// StateOf returns the state of a node given the run status.
func (s Summary) StateOf(node string, status model.RunStatus) NodeState {
	switch {
	case s.Completed[node]:
		return NodeStateCompleted
	case node == s.Current && status == model.RunStatusRunning:
		return NodeStateRunning
	default:
		return NodeStatePending
	}
}

// Progress returns the completed nodes count, the known nodes count and the completion
// percentage capped at 100.
func (s Summary) Progress() (done, total, percent int) {
	done, total = len(s.Completed), len(s.Nodes)
	if total == 0 {
		return done, total, 0
	}
	percent = int(math.Round(float64(done) / float64(total) * 100))
	return done, total, min(100, percent)
}
