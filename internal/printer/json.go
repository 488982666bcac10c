package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
	"github.com/slok/runview/internal/workspace"
)

// JSONPrinter prints run information in JSON format, runs use the platform wire format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type nodeOutput struct {
	Index         int    `json:"index"`
	ID            string `json:"id"`
	Title         string `json:"title"`
	State         string `json:"state"`
	Streaming     bool   `json:"streaming"`
	CheckpointSeq int64  `json:"checkpoint_seq"`
	Output        string `json:"output"`
}

type progressOutput struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type statusOutput struct {
	Run       *platform.RunJSON `json:"run"`
	Progress  progressOutput    `json:"progress"`
	Events    int               `json:"events"`
	Nodes     []nodeOutput      `json:"nodes"`
	Artifacts int               `json:"artifacts"`
}

type artifactsOutput struct {
	Artifacts []platform.ArtifactJSON `json:"artifacts"`
	Meta      []platform.ArtifactJSON `json:"meta,omitempty"`
	LiveFiles []string                `json:"live_files"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintRuns prints runs.
func (j *JSONPrinter) PrintRuns(runs []model.Run) error {
	items := make([]platform.RunJSON, 0, len(runs))
	for _, r := range runs {
		items = append(items, platform.RunToJSON(r))
	}
	return j.encode(platform.RunListJSON{Runs: items})
}

// PrintRun prints a run.
func (j *JSONPrinter) PrintRun(r model.Run) error {
	return j.encode(platform.RunToJSON(r))
}

// PrintStatus prints the run with its progress and nodes.
func (j *JSONPrinter) PrintStatus(v workspace.View) error {
	out := statusOutput{
		Progress:  progressOutput{Done: v.Progress.Done, Total: v.Progress.Total, Percent: v.Progress.Percent},
		Events:    len(v.Events),
		Nodes:     nodesOutput(v.Nodes),
		Artifacts: len(v.Code) + len(v.Meta),
	}
	if v.Run != nil {
		r := platform.RunToJSON(*v.Run)
		out.Run = &r
	}
	return j.encode(out)
}

// PrintNodes prints the executed nodes.
func (j *JSONPrinter) PrintNodes(v workspace.View) error {
	return j.encode(nodesOutput(v.Nodes))
}

// PrintArtifacts prints the finalized artifacts and live files.
func (j *JSONPrinter) PrintArtifacts(v workspace.View) error {
	out := artifactsOutput{
		Artifacts: artifactsJSON(v.Code),
		LiveFiles: []string{},
	}
	if v.ShowMeta {
		out.Meta = artifactsJSON(v.Meta)
	}
	for _, f := range v.LiveFiles {
		out.LiveFiles = append(out.LiveFiles, f.Path)
	}
	return j.encode(out)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nodesOutput(nodes []workspace.NodeView) []nodeOutput {
	out := make([]nodeOutput, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeOutput{
			Index:         n.Index,
			ID:            n.ID,
			Title:         n.Title,
			State:         string(n.State),
			Streaming:     n.Streaming,
			CheckpointSeq: n.Checkpoint.Seq,
			Output:        n.Output,
		})
	}
	return out
}

func artifactsJSON(arts []model.Artifact) []platform.ArtifactJSON {
	out := make([]platform.ArtifactJSON, 0, len(arts))
	for _, a := range arts {
		out = append(out, platform.ArtifactToJSON(a))
	}
	return out
}
