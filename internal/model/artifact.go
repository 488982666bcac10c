package model

import (
	"encoding/json"
	"time"
)

// Artifact is a finalized file produced by a run. Name may contain `/` separators
// that denote a virtual directory structure.
type Artifact struct {
	ID        string
	Name      string
	MimeType  string
	CreatedAt time.Time
}

// ArtifactDetail is an artifact with its resolved content.
type ArtifactDetail struct {
	Artifact
	ContentText string
	ContentJSON map[string]any
}

// Body returns the textual representation of the artifact content.
func (a ArtifactDetail) Body() string {
	if a.ContentText != "" {
		return a.ContentText
	}
	if a.ContentJSON != nil {
		b, err := json.MarshalIndent(a.ContentJSON, "", "  ")
		if err == nil {
			return string(b)
		}
	}
	return ""
}
