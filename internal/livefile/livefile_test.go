package livefile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/livefile"
	"github.com/slok/runview/internal/model"
)

func files(fs ...map[string]any) map[string]any {
	raw := []any{}
	for _, f := range fs {
		raw = append(raw, f)
	}
	return map[string]any{"files": raw}
}

func TestProject(t *testing.T) {
	tests := map[string]struct {
		checkpoints []model.Checkpoint
		exp         []model.LiveFile
	}{
		"No checkpoints should return no files.": {
			exp: []model.LiveFile{},
		},
		"Checkpoints without files should return no files.": {
			checkpoints: []model.Checkpoint{
				{Node: "a", State: map[string]any{"outputs": map[string]any{}}},
				{Node: "b", State: nil},
			},
			exp: []model.LiveFile{},
		},
		"The nearest to end checkpoint with files should be used.": {
			checkpoints: []model.Checkpoint{
				{Node: "a", State: files()},
				{Node: "b", State: files(map[string]any{"path": "index.html", "content": "<h1>x</h1>"})},
				{Node: "c", State: files()},
			},
			exp: []model.LiveFile{{Path: "index.html", Content: "<h1>x</h1>"}},
		},
		"Older checkpoints should be ignored once files are found.": {
			checkpoints: []model.Checkpoint{
				{Node: "a", State: files(map[string]any{"path": "old.js", "content": "old"})},
				{Node: "b", State: files(map[string]any{"path": "new.js", "content": "new"})},
			},
			exp: []model.LiveFile{{Path: "new.js", Content: "new"}},
		},
		"Paths should be trimmed and empty paths discarded.": {
			checkpoints: []model.Checkpoint{
				{Node: "a", State: files(
					map[string]any{"path": "  app.js ", "content": "x"},
					map[string]any{"path": "   ", "content": "y"},
					map[string]any{"content": "z"},
					map[string]any{"path": "data.json", "content": map[string]any{"k": "v"}},
					map[string]any{"path": "empty.txt"},
				)},
			},
			exp: []model.LiveFile{
				{Path: "app.js", Content: "x"},
				{Path: "data.json", Content: `{"k":"v"}`},
				{Path: "empty.txt", Content: ""},
			},
		},
		"A file list without valid entries should fall back to older checkpoints.": {
			checkpoints: []model.Checkpoint{
				{Node: "a", State: files(map[string]any{"path": "a.txt", "content": "a"})},
				{Node: "b", State: files(map[string]any{"path": ""})},
			},
			exp: []model.LiveFile{{Path: "a.txt", Content: "a"}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, livefile.Project(test.checkpoints))
		})
	}
}

func TestFilter(t *testing.T) {
	fs := []model.LiveFile{{Path: "src/App.js"}, {Path: "index.html"}}

	assert.Equal(t, fs, livefile.Filter(fs, "  "))
	assert.Equal(t, []model.LiveFile{{Path: "src/App.js"}}, livefile.Filter(fs, "app"))
	assert.Equal(t, []model.LiveFile{}, livefile.Filter(fs, "nope"))
}
