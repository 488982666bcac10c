package model

import "time"

// Checkpoint is the workflow state snapshot taken right after a node step.
type Checkpoint struct {
	Seq       int64
	Node      string
	State     map[string]any
	CreatedAt time.Time
}

// LiveFile is an in-progress file inferred from checkpoint state.
type LiveFile struct {
	Path    string
	Content string
}
