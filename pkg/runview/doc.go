// Package runview provides a Go SDK to follow and drive agent platform runs.
//
// It exposes the same operations as the runview CLI: listing runs, reading the
// workspace of a run (nodes, artifacts and in-progress files), submitting new
// runs, controlling them and watching them live.
//
// # Quick Start
//
// Create a client, submit a run and wait until it finishes:
//
//	client, err := runview.New(runview.Config{
//	    APIURL: "http://127.0.0.1:8000",
//	    Token:  os.Getenv("RUNVIEW_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	run, err := client.Submit(ctx, runview.SubmitOpts{
//	    Input: "Build a landing page for a coffee shop",
//	})
//
//	ws, err := client.Watch(ctx, run.ID, &runview.WatchOpts{UntilDone: true})
//	fmt.Println(ws.Status, len(ws.Artifacts))
//
// # Workspaces
//
// A [Workspace] is the projected state of a run: the executed nodes in
// execution order with their outputs, the finalized code artifacts, the meta
// artifacts and, while nothing has been finalized yet, the in-progress files
// inferred from the latest checkpoint.
//
//	ws, err := client.Workspace(ctx, runID, &runview.WorkspaceOpts{Query: "css"})
//	for _, n := range ws.Nodes {
//	    fmt.Printf("%d. %s [%s]\n", n.Index, n.Title, n.State)
//	}
//
// # Watching
//
// [Client.Watch] keeps the run mounted, consuming the platform push stream and
// polling as a fallback. Every update is delivered to [WatchOpts].OnUpdate from
// a single goroutine. It blocks until the context is canceled or, with
// [WatchOpts].UntilDone, until the run is terminal and its final data loaded:
//
//	ws, err := client.Watch(ctx, runID, &runview.WatchOpts{
//	    UntilDone: true,
//	    OnUpdate: func(ws runview.Workspace) {
//	        fmt.Printf("%s %d/%d\n", ws.Status, ws.Progress.Done, ws.Progress.Total)
//	    },
//	})
//
// # Files
//
// Read a file by artifact ID, artifact name or live file path, or save it:
//
//	f, err := client.Content(ctx, runID, "index.html", nil)
//	res, err := client.DownloadArtifact(ctx, runID, "index.html", "./out")
//	res, err = client.ExportWorkspace(ctx, runID, "./out")
//
// # Control
//
// Pause, resume and cancel return the refreshed run. Re-running a node creates
// a new run:
//
//	newRun, err := client.Rerun(ctx, runID, "architect")
//
// # Error Handling
//
// The SDK returns sentinel errors that can be checked with [errors.Is]:
//
//	_, err := client.GetRun(ctx, "missing")
//	if errors.Is(err, runview.ErrNotFound) {
//	    // Handle not found.
//	}
//
// Available sentinel errors: [ErrNotFound], [ErrNotValid], [ErrConflict].
//
// # Logging
//
// By default the SDK is silent. To enable logging, provide a [log.Logger]
// implementation via [Config].Logger. See the log sub-package for details.
package runview
