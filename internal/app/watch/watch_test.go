package watch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/app/watch"
	"github.com/slok/runview/internal/checkpoint"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
	"github.com/slok/runview/internal/platform/fake"
	"github.com/slok/runview/internal/workspace"
)

const pollInterval = 10 * time.Millisecond

// countingClient counts the polled run requests and artifact detail fetches.
type countingClient struct {
	platform.Client
	getRuns      atomic.Int64
	getArtifacts atomic.Int64
}

func (c *countingClient) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	c.getRuns.Add(1)
	return c.Client.GetRun(ctx, runID)
}

func (c *countingClient) GetArtifact(ctx context.Context, runID, artifactID string) (*model.ArtifactDetail, error) {
	c.getArtifacts.Add(1)
	return c.Client.GetArtifact(ctx, runID, artifactID)
}

// viewRecorder stores the last view published by the watcher.
type viewRecorder struct {
	mu   sync.Mutex
	last workspace.View
}

func (v *viewRecorder) OnView(view workspace.View) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = view
}

func (v *viewRecorder) Last() workspace.View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// stallingClient delivers only the first pushed messages of each subscription, the rest
// (done included) stay stuck in the connection until it's closed locally.
type stallingClient struct {
	platform.Client
	deliver int
}

func (c *stallingClient) Subscribe(ctx context.Context, runID string) (platform.Subscription, error) {
	sub, err := c.Client.Subscribe(ctx, runID)
	if err != nil {
		return nil, err
	}

	s := &stalledSubscription{
		Subscription: sub,
		msgs:         make(chan platform.PushMessage),
		closed:       make(chan struct{}),
	}
	go s.forward(c.deliver)
	return s, nil
}

type stalledSubscription struct {
	platform.Subscription
	msgs   chan platform.PushMessage
	once   sync.Once
	closed chan struct{}
}

func (s *stalledSubscription) Messages() <-chan platform.PushMessage { return s.msgs }

func (s *stalledSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return s.Subscription.Close()
}

func (s *stalledSubscription) forward(deliver int) {
	defer close(s.msgs)
	for msg := range s.Subscription.Messages() {
		if deliver == 0 {
			continue
		}
		deliver--
		select {
		case s.msgs <- msg:
		case <-s.closed:
			return
		}
	}
	<-s.closed
}

type watching struct {
	res  *watch.Result
	err  error
	done chan struct{}
}

func startWatch(ctx context.Context, t *testing.T, client platform.Client, req watch.Request) *watching {
	svc, err := watch.NewService(watch.ServiceConfig{Client: client, PollInterval: pollInterval})
	require.NoError(t, err)

	w := &watching{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.res, w.err = svc.Run(ctx, req)
	}()
	return w
}

func (w *watching) wait(t *testing.T) {
	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch didn't finish")
	}
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config watch.ServiceConfig
		expErr bool
	}{
		"Missing client should fail.": {
			config: watch.ServiceConfig{},
			expErr: true,
		},
		"A valid config should not fail.": {
			config: watch.ServiceConfig{Client: &countingClient{}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := watch.NewService(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServiceRunMissingRunID(t *testing.T) {
	svc, err := watch.NewService(watch.ServiceConfig{Client: &countingClient{}})
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), watch.Request{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestServiceRunStopsOnTerminalStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusRunning})
	require.NoError(p.AppendEvents(run.ID, model.Event{Type: "run.started"}))
	client := &countingClient{Client: p}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &viewRecorder{}
	w := startWatch(ctx, t, client, watch.Request{RunID: run.ID, OnView: rec.OnView})

	require.Eventually(func() bool {
		v := rec.Last()
		return v.Status == model.RunStatusRunning && v.Source == "SSE"
	}, 5*time.Second, pollInterval)

	// The run finishes with data produced right before the end.
	require.NoError(p.AddArtifacts(run.ID, model.ArtifactDetail{
		Artifact:    model.Artifact{Name: "index.html"},
		ContentText: "<html></html>",
	}))
	require.NoError(p.SetStatus(run.ID, model.RunStatusSucceeded))

	require.Eventually(func() bool {
		v := rec.Last()
		return v.Stopped && len(v.Code) == 1 && v.Viewer.Content == "<html></html>"
	}, 5*time.Second, pollInterval)

	// Pollers are stopped, push is never reopened.
	polls := client.getRuns.Load()
	time.Sleep(10 * pollInterval)
	assert.LessOrEqual(client.getRuns.Load(), polls+1)
	assert.Equal(1, p.Subscribes(run.ID))
	assert.Equal(0, p.OpenSubscriptions(run.ID))
	assert.Equal(model.RunStatusSucceeded, rec.Last().Status)

	cancel()
	w.wait(t)
	require.NoError(w.err)
	assert.Equal(run.ID, w.res.RunID)
}

func TestServiceRunTerminalStatusBeforePushedTail(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusRunning})
	require.NoError(p.AppendCheckpoints(run.ID, model.Checkpoint{Node: "engineer"}))
	client := &stallingClient{Client: p, deliver: 2}

	rec := &viewRecorder{}
	w := startWatch(context.Background(), t, client, watch.Request{RunID: run.ID, UntilDone: true, OnView: rec.OnView})

	require.NoError(p.AppendEvents(run.ID,
		model.Event{Type: model.EventTypeAgentDelta, Data: map[string]any{"role": "engineer", "delta": "FI"}},
		model.Event{Type: model.EventTypeAgentDelta, Data: map[string]any{"role": "engineer", "delta": "NAL"}},
	))
	require.Eventually(func() bool {
		v := rec.Last()
		return v.Source == "SSE" && len(v.Events) == 2
	}, 5*time.Second, pollInterval)

	// The tail and the done message never leave the push connection.
	require.NoError(p.AppendEvents(run.ID,
		model.Event{Type: model.EventTypeAgentOutput, Data: map[string]any{"role": "engineer", "text": "FINAL"}},
		model.Event{Type: model.EventTypeNodeCompleted, Data: map[string]any{"node": "engineer"}},
	))
	require.NoError(p.SetStatus(run.ID, model.RunStatusSucceeded))

	w.wait(t)
	require.NoError(w.err)

	v := w.res.View
	assert.True(v.Stopped)
	assert.Equal(model.RunStatusSucceeded, v.Status)
	assert.Equal("Polling", v.Source)
	assert.Len(v.Events, 4)
	assert.Equal(workspace.Progress{Done: 1, Total: 1, Percent: 100}, v.Progress)
	require.Len(v.Nodes, 1)
	assert.Equal("engineer", v.Nodes[0].ID)
	assert.Equal(checkpoint.NodeStateCompleted, v.Nodes[0].State)
	assert.Equal("FINAL", v.Nodes[0].Output)
}

func TestServiceRunUntilDone(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusFailed})
	require.NoError(p.AppendEvents(run.ID, model.Event{Type: model.EventTypeRunFailed}))
	require.NoError(p.AppendCheckpoints(run.ID, model.Checkpoint{Node: "init"}))

	w := startWatch(context.Background(), t, p, watch.Request{RunID: run.ID, UntilDone: true})
	w.wait(t)
	require.NoError(w.err)

	assert.Equal(run.ID, w.res.RunID)
	assert.True(w.res.View.Stopped)
	assert.Equal(model.RunStatusFailed, w.res.View.Status)
	assert.Len(w.res.View.Events, 1)
	require.Len(w.res.View.Nodes, 1)
	assert.Equal("init", w.res.View.Nodes[0].ID)
}

func TestServiceRunPushFailureFallsBackToPolling(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	p.SetError("Subscribe", errors.New("no push for you"))
	run := p.AddRun(model.Run{Status: model.RunStatusRunning})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &viewRecorder{}
	w := startWatch(ctx, t, p, watch.Request{RunID: run.ID, OnView: rec.OnView})

	require.NoError(p.AppendEvents(run.ID, model.Event{Type: "a"}, model.Event{Type: "b"}))
	require.Eventually(func() bool {
		return len(rec.Last().Events) == 2
	}, 5*time.Second, pollInterval)
	assert.Equal("Polling", rec.Last().Source)

	cancel()
	w.wait(t)
	require.NoError(w.err)
}

func TestServiceRunControl(t *testing.T) {
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusRunning})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &viewRecorder{}
	input := make(chan workspace.Msg, 1)
	w := startWatch(ctx, t, p, watch.Request{RunID: run.ID, OnView: rec.OnView, Input: input})

	require.Eventually(func() bool { return rec.Last().Controls.CanPause }, 5*time.Second, pollInterval)
	input <- workspace.ControlRequested{Action: workspace.ControlPause}
	require.Eventually(func() bool {
		v := rec.Last()
		return v.Status == model.RunStatusPaused && v.Controls.CanResume && v.Controls.Pending == workspace.ControlNone
	}, 5*time.Second, pollInterval)

	// Invalid actions on the platform are shown as errors.
	p.SetError("Cancel", errors.New("forbidden"))
	input <- workspace.ControlRequested{Action: workspace.ControlCancel}
	require.Eventually(func() bool { return rec.Last().Controls.Err != "" }, 5*time.Second, pollInterval)

	cancel()
	w.wait(t)
	require.NoError(w.err)
}

func TestServiceRunRerunNavigates(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusSucceeded})
	require.NoError(p.AppendCheckpoints(run.ID, model.Checkpoint{Node: "init"}, model.Checkpoint{Node: "architect"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &viewRecorder{}
	input := make(chan workspace.Msg, 1)
	w := startWatch(ctx, t, p, watch.Request{RunID: run.ID, OnView: rec.OnView, Input: input})

	require.Eventually(func() bool {
		v := rec.Last()
		return len(v.Nodes) == 2 && v.Nodes[1].CanRerun
	}, 5*time.Second, pollInterval)
	input <- workspace.ControlRequested{Action: workspace.ControlRerun, Node: "architect"}

	require.Eventually(func() bool {
		v := rec.Last()
		return v.RunID != run.ID && v.Status == model.RunStatusQueued
	}, 5*time.Second, pollInterval)
	newRunID := rec.Last().RunID

	cancel()
	w.wait(t)
	require.NoError(w.err)
	assert.Equal(newRunID, w.res.RunID)

	events, err := p.ListEvents(context.Background(), newRunID)
	require.NoError(err)
	require.NotEmpty(events)
	assert.Equal("run.seeded", events[0].Type)
}

func TestServiceRunCachesArtifactDetails(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := fake.NewPlatform(fake.PlatformConfig{})
	require.NoError(err)
	run := p.AddRun(model.Run{Status: model.RunStatusSucceeded})
	require.NoError(p.AddArtifacts(run.ID,
		model.ArtifactDetail{Artifact: model.Artifact{ID: "a1", Name: "index.html"}, ContentText: "index"},
		model.ArtifactDetail{Artifact: model.Artifact{ID: "a2", Name: "app.js"}, ContentText: "app"},
	))
	client := &countingClient{Client: p}

	svc, err := watch.NewService(watch.ServiceConfig{Client: client, PollInterval: pollInterval})
	require.NoError(err)

	// Mounting the same run twice reuses the loaded details.
	for i := 0; i < 2; i++ {
		res, err := svc.Run(context.Background(), watch.Request{RunID: run.ID, UntilDone: true})
		require.NoError(err)
		assert.Equal("index.html", res.View.Viewer.Title)
	}

	require.Eventually(func() bool { return client.getArtifacts.Load() == 1 }, 5*time.Second, pollInterval)
}
