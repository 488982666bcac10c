package workspace_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/checkpoint"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/workspace"
)

func nodeEvent(seq int64, typ, role string, data map[string]any) workspace.Msg {
	if data == nil {
		data = map[string]any{}
	}
	data["role"] = role
	return workspace.StreamEvent{Event: model.Event{Seq: seq, Type: typ, Data: data}}
}

func TestControllerViewNodes(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	c := workspace.NewController(runID)
	c.Apply(workspace.RunLoaded{Run: run(model.RunStatusRunning)})
	c.Apply(nodeEvent(1, model.EventTypeAgentOutput, "product_manager", map[string]any{"text": "PRD v1"}))
	c.Apply(nodeEvent(2, model.EventTypeAgentOutput, "product_manager", map[string]any{"text": "PRD v2\nmore"}))
	c.Apply(workspace.StreamEvent{Event: model.Event{Seq: 3, Type: model.EventTypeNodeCompleted, Data: map[string]any{"node": "product_manager"}}})
	c.Apply(nodeEvent(4, model.EventTypeAgentDelta, "architect", map[string]any{"delta": "Des"}))
	c.Apply(nodeEvent(5, model.EventTypeAgentDelta, "architect", map[string]any{"delta": "ign"}))
	c.Apply(workspace.CheckpointsPolled{Checkpoints: []model.Checkpoint{
		{Seq: 1, Node: "product_manager"},
		{Seq: 2, Node: "architect"},
	}})

	v := c.View()
	assert.Equal("SSE", v.Source)
	assert.Len(v.Events, 5)
	assert.Equal(workspace.Progress{Done: 1, Total: 2, Percent: 50}, v.Progress)
	assert.Equal("architect", v.OpenNode)

	require.Len(v.Nodes, 2)
	pm, arch := v.Nodes[0], v.Nodes[1]

	assert.Equal(1, pm.Index)
	assert.Equal("Product manager", pm.Title)
	assert.Equal(checkpoint.NodeStateCompleted, pm.State)
	assert.Equal("PRD v2\nmore", pm.Output)
	assert.Equal([]string{"PRD v1"}, pm.History)
	assert.Equal("PRD v2", pm.Preview)
	assert.False(pm.Streaming)
	assert.False(pm.Open)
	assert.True(pm.CanRerun)
	assert.Equal(int64(1), pm.Checkpoint.Seq)

	assert.Equal(2, arch.Index)
	assert.Equal("Architect", arch.Title)
	assert.Equal(checkpoint.NodeStateRunning, arch.State)
	assert.Equal("Design", arch.Output)
	assert.True(arch.Streaming)
	assert.True(arch.Open)

	// Collapsing the open node.
	c.Apply(workspace.OpenNode{Node: "architect"})
	v = c.View()
	assert.Empty(v.OpenNode)
	assert.False(v.Nodes[1].Open)
}

func TestControllerViewTerminalStatusBeforePushedTail(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	c := workspace.NewController(runID)
	c.Apply(workspace.RunLoaded{Run: run(model.RunStatusRunning)})
	c.Apply(workspace.CheckpointsPolled{Checkpoints: []model.Checkpoint{{Seq: 1, Node: "engineer"}}})
	c.Apply(nodeEvent(1, model.EventTypeAgentDelta, "engineer", map[string]any{"delta": "FI"}))
	c.Apply(nodeEvent(2, model.EventTypeAgentDelta, "engineer", map[string]any{"delta": "NAL"}))

	// The run status is polled as finished before the push channel delivers the tail.
	effects := c.Apply(workspace.RunLoaded{Run: run(model.RunStatusSucceeded)})
	assert.Equal([]workspace.Effect{workspace.StopPolling{}, workspace.CloseStream{}}, effects)
	assert.Equal("SSE", c.View().Source)

	// Final sweep.
	c.Apply(workspace.EventsPolled{Events: []model.Event{
		{Seq: 1, Type: model.EventTypeAgentDelta, Data: map[string]any{"role": "engineer", "delta": "FI"}},
		{Seq: 2, Type: model.EventTypeAgentDelta, Data: map[string]any{"role": "engineer", "delta": "NAL"}},
		{Seq: 3, Type: model.EventTypeAgentOutput, Data: map[string]any{"role": "engineer", "text": "FINAL"}},
		{Seq: 4, Type: model.EventTypeNodeCompleted, Data: map[string]any{"node": "engineer"}},
	}})

	v := c.View()
	assert.True(v.Stopped)
	assert.Equal("Polling", v.Source)
	assert.Len(v.Events, 4)
	assert.Equal(workspace.Progress{Done: 1, Total: 1, Percent: 100}, v.Progress)
	require.Len(v.Nodes, 1)
	assert.Equal(checkpoint.NodeStateCompleted, v.Nodes[0].State)
	assert.Equal("FINAL", v.Nodes[0].Output)
	assert.False(v.Nodes[0].Streaming)
}

func TestControllerViewControls(t *testing.T) {
	tests := map[string]struct {
		status     model.RunStatus
		expControl workspace.Controls
	}{
		"Running runs can be paused and canceled.": {
			status:     model.RunStatusRunning,
			expControl: workspace.Controls{CanPause: true, CanCancel: true},
		},
		"Paused runs can be resumed and canceled.": {
			status:     model.RunStatusPaused,
			expControl: workspace.Controls{CanResume: true, CanCancel: true},
		},
		"Queued runs can be canceled.": {
			status:     model.RunStatusQueued,
			expControl: workspace.Controls{CanCancel: true},
		},
		"Finished runs can't be controlled.": {
			status:     model.RunStatusSucceeded,
			expControl: workspace.Controls{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := workspace.NewController(runID)
			c.Apply(workspace.RunLoaded{Run: run(test.status)})
			assert.Equal(t, test.expControl, c.View().Controls)
		})
	}
}

func TestControllerViewWorkspace(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	c := workspace.NewController(runID)

	// Nothing yet.
	v := c.View()
	assert.Equal(workspace.ViewerWaiting, v.Viewer.Mode)
	assert.Equal("Polling", v.Source)
	assert.Empty(v.Tabs)

	// Live files while the run is working.
	c.Apply(workspace.CheckpointsPolled{Checkpoints: []model.Checkpoint{
		liveCheckpoint("engineer", "index.html", "src/app.js"),
	}})
	v = c.View()
	assert.Equal(workspace.ViewerLive, v.Viewer.Mode)
	assert.Equal("index.html", v.Viewer.Title)
	assert.Equal("text/html", v.Viewer.MimeType)
	assert.Equal("content of index.html", v.Viewer.Content)
	assert.Len(v.LiveFiles, 2)

	c.Apply(workspace.SetQuery{Query: "APP"})
	v = c.View()
	require.Len(v.LiveFiles, 1)
	assert.Equal("src/app.js", v.LiveFiles[0].Path)
	c.Apply(workspace.SetQuery{Query: ""})

	// Finalized artifacts.
	effects := c.Apply(workspace.ArtifactsPolled{Artifacts: []model.Artifact{
		{ID: "a1", Name: "src/app.js", MimeType: "text/javascript"},
		{ID: "a2", Name: "index.html", MimeType: "text/html"},
		{ID: "a3", Name: "final_output.json", MimeType: "application/json"},
	}})
	assert.Empty(effects)
	v = c.View()
	assert.Equal([]string{"index.html", "src/app.js"}, names(v.Code))
	assert.Equal([]string{"final_output.json"}, names(v.Meta))
	assert.Equal([]catalog.Row{
		{Kind: catalog.RowKindDir, Name: "src", Path: "src", Depth: 0, Open: true},
		{Kind: catalog.RowKindFile, Name: "app.js", Path: "src/app.js", Depth: 1, Artifact: v.Code[1]},
		{Kind: catalog.RowKindFile, Name: "index.html", Path: "index.html", Depth: 0, Artifact: v.Code[0]},
	}, v.Tree)

	c.Apply(workspace.ToggleDir{Path: "src"})
	v = c.View()
	assert.Len(v.Tree, 2)

	// Selecting the artifact loads it.
	effects = c.Apply(workspace.SelectArtifact{ID: "a2"})
	require.Equal([]workspace.Effect{workspace.FetchArtifactDetail{Token: 2, RunID: runID, ArtifactID: "a2"}}, effects)
	v = c.View()
	assert.Equal(workspace.ViewerArtifact, v.Viewer.Mode)
	assert.True(v.Viewer.Loading)
	assert.Equal([]workspace.Tab{
		{Selection: workspace.Selection{Kind: workspace.SelectionLive, ID: "index.html"}, Label: "index.html"},
		{Selection: workspace.Selection{Kind: workspace.SelectionArtifact, ID: "a2"}, Label: "index.html", Active: true},
	}, v.Tabs)

	c.Apply(workspace.ArtifactDetailLoaded{Token: 2, Detail: model.ArtifactDetail{
		Artifact:    model.Artifact{ID: "a2", Name: "index.html"},
		ContentText: "<html>\r\n</html>",
	}})
	v = c.View()
	assert.False(v.Viewer.Loading)
	assert.Equal("<html>\n</html>", v.Viewer.Content)
	assert.Equal(2, v.Viewer.TotalLines)
	assert.False(v.Viewer.Truncated)
}

func TestControllerViewTruncatesContent(t *testing.T) {
	assert := assert.New(t)

	lines := make([]string, workspace.MaxViewerLines+10)
	for i := range lines {
		lines[i] = "x"
	}
	c := workspace.NewController(runID)
	c.Apply(workspace.ArtifactsPolled{Artifacts: []model.Artifact{{ID: "a1", Name: "big.txt"}}})
	c.Apply(workspace.ArtifactDetailLoaded{Token: 1, Detail: model.ArtifactDetail{
		Artifact:    model.Artifact{ID: "a1", Name: "big.txt"},
		ContentText: strings.Join(lines, "\n"),
	}})

	v := c.View()
	assert.True(v.Viewer.Truncated)
	assert.Equal(workspace.MaxViewerLines+10, v.Viewer.TotalLines)
	assert.Equal(workspace.MaxViewerLines, strings.Count(v.Viewer.Content, "\n")+1)
}

func names(arts []model.Artifact) []string {
	var res []string
	for _, a := range arts {
		res = append(res, a.Name)
	}
	return res
}
