package runview_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform/fake"
	"github.com/slok/runview/pkg/runview"
	"github.com/slok/runview/pkg/runview/log"
)

// This example shows how to read the workspace of a run.
func Example_workspace() {
	ctx := context.Background()

	// A fake platform stands in for the real one.
	p, _ := fake.NewPlatform(fake.PlatformConfig{})
	h, _ := fake.NewHandler(fake.HandlerConfig{Platform: p})
	srv := httptest.NewServer(h)
	defer srv.Close()

	run := p.AddRun(model.Run{ID: "r1", Status: model.RunStatusSucceeded, Input: "landing"})
	_ = p.AppendCheckpoints(run.ID, model.Checkpoint{Node: "architect", State: map[string]any{}})
	_ = p.AppendEvents(run.ID, model.Event{Type: model.EventTypeNodeCompleted, Data: map[string]any{"node": "architect"}})
	_ = p.AddArtifacts(run.ID, model.ArtifactDetail{Artifact: model.Artifact{Name: "index.html"}, ContentText: "<h1>Coffee</h1>"})

	client, err := runview.New(runview.Config{APIURL: srv.URL})
	if err != nil {
		panic(err)
	}

	ws, err := client.Workspace(ctx, "r1", nil)
	if err != nil {
		panic(err)
	}
	for _, n := range ws.Nodes {
		fmt.Printf("%d. %s [%s]\n", n.Index, n.Title, n.State)
	}
	for _, a := range ws.Artifacts {
		fmt.Println(a.Name)
	}

	f, err := client.Content(ctx, "r1", "index.html", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(f.Content)

	// Output:
	// 1. Architect [completed]
	// index.html
	// <h1>Coffee</h1>
}

// This example shows how to handle SDK errors.
func Example_errorHandling() {
	ctx := context.Background()

	p, _ := fake.NewPlatform(fake.PlatformConfig{})
	h, _ := fake.NewHandler(fake.HandlerConfig{Platform: p})
	srv := httptest.NewServer(h)
	defer srv.Close()

	client, err := runview.New(runview.Config{
		APIURL: srv.URL,
		Logger: log.Noop,
	})
	if err != nil {
		panic(err)
	}

	_, err = client.GetRun(ctx, "nonexistent")
	if errors.Is(err, runview.ErrNotFound) {
		fmt.Println("Run not found")
	}

	// Output:
	// Run not found
}
