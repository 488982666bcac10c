package checkpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/checkpoint"
	"github.com/slok/runview/internal/model"
)

func cp(seq int64, node string) model.Checkpoint {
	return model.Checkpoint{Seq: seq, Node: node, State: map[string]any{"seq": seq}}
}

func completed(seq int64, node string) model.Event {
	return model.Event{Seq: seq, Type: model.EventTypeNodeCompleted, Data: map[string]any{"node": node}}
}

func TestAggregateNodeOrder(t *testing.T) {
	tests := map[string]struct {
		checkpoints []model.Checkpoint
		expNodes    []string
		expCurrent  string
	}{
		"No checkpoints should return no nodes.": {
			expNodes: []string{},
		},
		"Nodes should keep first appearance order.": {
			checkpoints: []model.Checkpoint{cp(1, "init"), cp(2, "team_lead"), cp(3, "architect"), cp(4, "team_lead"), cp(5, "engineer")},
			expNodes:    []string{"init", "team_lead", "architect", "engineer"},
			expCurrent:  "engineer",
		},
		"Re-executed nodes should not move and the current node is the last checkpoint.": {
			checkpoints: []model.Checkpoint{cp(1, "b"), cp(2, "a"), cp(3, "b")},
			expNodes:    []string{"b", "a"},
			expCurrent:  "b",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := checkpoint.Aggregate(test.checkpoints, nil)

			assert.Equal(t, test.expNodes, s.Nodes)
			assert.Equal(t, test.expCurrent, s.Current)
		})
	}
}

func TestAggregateLatest(t *testing.T) {
	s := checkpoint.Aggregate([]model.Checkpoint{cp(1, "a"), cp(2, "b"), cp(3, "a")}, nil)

	got, ok := s.Latest("a")
	assert.True(t, ok)
	assert.Equal(t, int64(3), got.Seq)

	_, ok = s.Latest("missing")
	assert.False(t, ok)
}

func TestAggregateStates(t *testing.T) {
	cps := []model.Checkpoint{cp(1, "init"), cp(2, "architect"), cp(3, "engineer")}
	events := []model.Event{
		completed(1, "init"),
		{Seq: 2, Type: "agent.output", Data: map[string]any{"node": "architect"}},
		completed(3, "architect"),
		{Seq: 4, Type: model.EventTypeNodeCompleted},
	}

	tests := map[string]struct {
		node   string
		status model.RunStatus
		exp    checkpoint.NodeState
	}{
		"Completed node.": {
			node: "init", status: model.RunStatusRunning, exp: checkpoint.NodeStateCompleted,
		},
		"Current node on a running run should be running.": {
			node: "engineer", status: model.RunStatusRunning, exp: checkpoint.NodeStateRunning,
		},
		"Current node on a paused run should be pending.": {
			node: "engineer", status: model.RunStatusPaused, exp: checkpoint.NodeStatePending,
		},
		"Unknown node should be pending.": {
			node: "x", status: model.RunStatusRunning, exp: checkpoint.NodeStatePending,
		},
	}

	s := checkpoint.Aggregate(cps, events)
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, s.StateOf(test.node, test.status))
		})
	}

	done, total, pct := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 67, pct)
}

func TestProgressIsCapped(t *testing.T) {
	s := checkpoint.Aggregate([]model.Checkpoint{cp(1, "a")}, []model.Event{completed(1, "a"), completed(2, "b")})

	done, total, pct := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, total)
	assert.Equal(t, 100, pct)
}
