package platform

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/slok/runview/internal/model"
)

// The JSON representations used by the platform HTTP API.

type RunJSON struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	Mode       string   `json:"mode,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	ProjectID  *string  `json:"project_id,omitempty"`
	Input      string   `json:"input"`
	CreatedAt  string   `json:"created_at"`
	StartedAt  *string  `json:"started_at,omitempty"`
	FinishedAt *string  `json:"finished_at,omitempty"`
	OutputText *string  `json:"output_text,omitempty"`
	Error      *string  `json:"error,omitempty"`
}

type RunListJSON struct {
	Runs []RunJSON `json:"runs"`
}

type EventJSON struct {
	Seq       *int64         `json:"seq"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt string         `json:"created_at"`
}

type EventsJSON struct {
	Events []EventJSON `json:"events"`
}

type CheckpointJSON struct {
	Seq       int64          `json:"seq"`
	Node      string         `json:"node"`
	State     map[string]any `json:"state"`
	CreatedAt string         `json:"created_at"`
}

type CheckpointsJSON struct {
	Checkpoints []CheckpointJSON `json:"checkpoints"`
}

type ArtifactJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	CreatedAt string `json:"created_at"`
}

type ArtifactsJSON struct {
	Artifacts []ArtifactJSON `json:"artifacts"`
}

type ArtifactDetailJSON struct {
	ArtifactJSON
	ContentJSON map[string]any `json:"content_json,omitempty"`
	ContentText *string        `json:"content_text,omitempty"`
}

type ProjectJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type ProjectsJSON struct {
	Projects []ProjectJSON `json:"projects"`
}

type CreateRunJSON struct {
	Input     string   `json:"input"`
	Mode      string   `json:"mode,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	UserRules []string `json:"user_rules,omitempty"`
}

type DoneJSON struct {
	Status string `json:"status"`
}

// ToModel converts the wire run.
func (r RunJSON) ToModel() model.Run {
	return model.Run{
		ID:         r.ID,
		Status:     model.RunStatus(r.Status),
		Mode:       r.Mode,
		Roles:      r.Roles,
		ProjectID:  deref(r.ProjectID),
		Input:      r.Input,
		OutputText: deref(r.OutputText),
		Error:      deref(r.Error),
		CreatedAt:  ParseTime(r.CreatedAt),
		StartedAt:  parseTimePtr(r.StartedAt),
		FinishedAt: parseTimePtr(r.FinishedAt),
	}
}

// RunToJSON converts a model run to its wire format.
func RunToJSON(r model.Run) RunJSON {
	return RunJSON{
		ID:         r.ID,
		Status:     string(r.Status),
		Mode:       r.Mode,
		Roles:      r.Roles,
		ProjectID:  ptr(r.ProjectID),
		Input:      r.Input,
		CreatedAt:  FormatTime(r.CreatedAt),
		StartedAt:  formatTimePtr(r.StartedAt),
		FinishedAt: formatTimePtr(r.FinishedAt),
		OutputText: ptr(r.OutputText),
		Error:      ptr(r.Error),
	}
}

// ToModel converts the wire event.
func (e EventJSON) ToModel() model.Event {
	var seq int64
	if e.Seq != nil {
		seq = *e.Seq
	}
	return model.Event{
		Seq:       seq,
		Type:      e.Type,
		Message:   e.Message,
		Data:      e.Data,
		CreatedAt: ParseTime(e.CreatedAt),
	}
}

// EventToJSON converts a model event to its wire format.
func EventToJSON(e model.Event) EventJSON {
	seq := e.Seq
	return EventJSON{
		Seq:       &seq,
		Type:      e.Type,
		Message:   e.Message,
		Data:      e.Data,
		CreatedAt: FormatTime(e.CreatedAt),
	}
}

// DecodeEvent decodes a pushed run event payload. Payloads that are not JSON objects or
// miss the sequence number are not valid.
func DecodeEvent(data []byte) (model.Event, error) {
	var e EventJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Event{}, fmt.Errorf("could not decode event: %w: %w", model.ErrNotValid, err)
	}
	if e.Seq == nil {
		return model.Event{}, fmt.Errorf("event without seq: %w", model.ErrNotValid)
	}
	return e.ToModel(), nil
}

// DecodeDone decodes the terminal push message status. An undecodable payload is reported
// with the "done" status.
func DecodeDone(data []byte) string {
	var d DoneJSON
	if err := json.Unmarshal(data, &d); err != nil || d.Status == "" {
		return "done"
	}
	return d.Status
}

// ToModel converts the wire checkpoint.
func (c CheckpointJSON) ToModel() model.Checkpoint {
	return model.Checkpoint{
		Seq:       c.Seq,
		Node:      c.Node,
		State:     c.State,
		CreatedAt: ParseTime(c.CreatedAt),
	}
}

// CheckpointToJSON converts a model checkpoint to its wire format.
func CheckpointToJSON(c model.Checkpoint) CheckpointJSON {
	return CheckpointJSON{
		Seq:       c.Seq,
		Node:      c.Node,
		State:     c.State,
		CreatedAt: FormatTime(c.CreatedAt),
	}
}

// ToModel converts the wire artifact.
func (a ArtifactJSON) ToModel() model.Artifact {
	return model.Artifact{
		ID:        a.ID,
		Name:      a.Name,
		MimeType:  a.MimeType,
		CreatedAt: ParseTime(a.CreatedAt),
	}
}

// ArtifactToJSON converts a model artifact to its wire format.
func ArtifactToJSON(a model.Artifact) ArtifactJSON {
	return ArtifactJSON{
		ID:        a.ID,
		Name:      a.Name,
		MimeType:  a.MimeType,
		CreatedAt: FormatTime(a.CreatedAt),
	}
}

// ToModel converts the wire artifact detail.
func (a ArtifactDetailJSON) ToModel() model.ArtifactDetail {
	return model.ArtifactDetail{
		Artifact:    a.ArtifactJSON.ToModel(),
		ContentText: deref(a.ContentText),
		ContentJSON: a.ContentJSON,
	}
}

// ArtifactDetailToJSON converts a model artifact detail to its wire format.
func ArtifactDetailToJSON(a model.ArtifactDetail) ArtifactDetailJSON {
	return ArtifactDetailJSON{
		ArtifactJSON: ArtifactToJSON(a.Artifact),
		ContentJSON:  a.ContentJSON,
		ContentText:  ptr(a.ContentText),
	}
}

// ToModel converts the wire project.
func (p ProjectJSON) ToModel() model.Project {
	return model.Project{ID: p.ID, Name: p.Name, CreatedAt: ParseTime(p.CreatedAt)}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime parses the platform ISO-8601 timestamps. Timestamps without zone are UTC.
// Unparseable values return the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatTime formats a timestamp for the wire.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := ParseTime(*s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
