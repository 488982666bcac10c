// Package livefile reconstructs the in-progress file set of a run from its checkpoints
// while no finalized artifact exists.
package livefile

import (
	"strings"

	"github.com/slok/runview/internal/model"
)

// Project returns the files of the most recent checkpoint carrying at least one valid
// file entry. Older checkpoints are ignored once a match is found.
func Project(checkpoints []model.Checkpoint) []model.LiveFile {
	for i := len(checkpoints) - 1; i >= 0; i-- {
		files := filesFromState(checkpoints[i].State)
		if len(files) > 0 {
			return files
		}
	}
	return []model.LiveFile{}
}

func filesFromState(state map[string]any) []model.LiveFile {
	if state == nil {
		return nil
	}
	raw, ok := state["files"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	out := make([]model.LiveFile, 0, len(raw))
	for _, r := range raw {
		f, ok := r.(map[string]any)
		if !ok {
			continue
		}
		path := strings.TrimSpace(model.AnyString(f["path"]))
		if path == "" {
			continue
		}
		out = append(out, model.LiveFile{
			Path:    path,
			Content: model.AnyString(f["content"]),
		})
	}

	return out
}

// Filter returns the files whose path contains query, case insensitive.
func Filter(files []model.LiveFile, query string) []model.LiveFile {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return files
	}

	out := []model.LiveFile{}
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Path), q) {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the file with path.
func Find(files []model.LiveFile, path string) (model.LiveFile, bool) {
	for _, f := range files {
		if f.Path == path {
			return f, true
		}
	}
	return model.LiveFile{}, false
}
