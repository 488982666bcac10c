package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Well known event types.
const (
	EventTypeNodeCompleted  = "node.completed"
	EventTypeAgentOutput    = "agent.output"
	EventTypeAgentDelta     = "agent.delta"
	EventTypeCheckpointSave = "checkpoint.saved"
	EventTypeRunSucceeded   = "run.succeeded"
	EventTypeRunFailed      = "run.failed"
	EventTypeRunCanceled    = "run.canceled"
)

// Event is a single record of the run timeline. Seq is unique per run and
// assigned by the platform in increasing order.
type Event struct {
	Seq       int64
	Type      string
	Message   string
	Data      map[string]any
	CreatedAt time.Time
}

// DataString returns the data value for key rendered as a string, empty when missing.
func (e Event) DataString(key string) string {
	if e.Data == nil {
		return ""
	}
	v, ok := e.Data[key]
	if !ok {
		return ""
	}
	return AnyString(v)
}

// AnyString renders an arbitrary decoded JSON value as text. Strings are returned
// as they are, nil is empty and structures are JSON encoded.
func AnyString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case map[string]any, []any:
		b, err := json.Marshal(tv)
		if err != nil {
			return fmt.Sprint(tv)
		}
		return string(b)
	default:
		return fmt.Sprint(tv)
	}
}
