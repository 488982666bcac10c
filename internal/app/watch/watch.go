package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/run"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/slok/runview/internal/channel"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
	"github.com/slok/runview/internal/workspace"
)

// ServiceConfig is the configuration for the watch service.
type ServiceConfig struct {
	Client platform.Client
	// PollInterval is the pacing of every poller.
	PollInterval time.Duration
	// DetailCacheSize is the number of artifact details kept in memory.
	DetailCacheSize int
	Logger          log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}

	if c.DetailCacheSize <= 0 {
		c.DetailCacheSize = 256
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.watch.Service"})

	return nil
}

// Service keeps a live workspace of a run: it mounts the run, reconciles the push and poll
// channels through the workspace controller and publishes every new view.
type Service struct {
	client       platform.Client
	pollInterval time.Duration
	logger       log.Logger

	details *lru.Cache[string, model.ArtifactDetail]
	flight  singleflight.Group
}

// NewService creates a new watch service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cache, err := lru.New[string, model.ArtifactDetail](cfg.DetailCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create artifact detail cache: %w", err)
	}

	return &Service{
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		details:      cache,
	}, nil
}

// Request represents the watch request parameters.
type Request struct {
	RunID string
	// OnView receives every projected view, from a single goroutine.
	OnView func(workspace.View)
	// Input are user messages (selections, control actions...) applied to the mounted run.
	Input <-chan workspace.Msg
	// UntilDone returns once the run is terminal and the final data has been loaded.
	UntilDone bool
}

// Result is the outcome of a watch.
type Result struct {
	// RunID is the last mounted run, it changes after a re-run.
	RunID string
	View  workspace.View
}

// errNavigate stops a mount group when the workspace navigates to another run.
var errNavigate = errors.New("navigate")

// Run watches the run until the context is canceled or, with UntilDone, the run finishes.
// Re-running a node tears down the mounted run and mounts the new one.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.RunID == "" {
		return nil, fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}
	if req.OnView == nil {
		req.OnView = func(workspace.View) {}
	}

	runID := req.RunID
	for {
		m := newMount(s, runID, req)
		next, err := m.run(ctx)
		if err != nil {
			return nil, err
		}
		if next == "" {
			return &Result{RunID: runID, View: m.controller.View()}, nil
		}

		s.logger.Infof("Navigating from run %s to run %s", runID, next)
		runID = next
	}
}

// detail returns the artifact detail, finalized artifacts never change so they are cached
// and concurrent requests of the same artifact share a single fetch.
func (s *Service) detail(ctx context.Context, runID, artifactID string) (model.ArtifactDetail, error) {
	key := runID + "/" + artifactID
	if d, ok := s.details.Get(key); ok {
		return d, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		d, err := s.client.GetArtifact(ctx, runID, artifactID)
		if err != nil {
			return nil, err
		}
		s.details.Add(key, *d)
		return *d, nil
	})
	if err != nil {
		return model.ArtifactDetail{}, fmt.Errorf("could not get artifact %q: %w", artifactID, err)
	}

	return v.(model.ArtifactDetail), nil
}

// mount is a single mounted run. Only the reducer actor touches the controller, the rest of
// the actors post messages into the inbox.
type mount struct {
	svc        *Service
	runID      string
	req        Request
	logger     log.Logger
	controller *workspace.Controller
	inbox      chan workspace.Msg
	sweep      chan []workspace.Msg
	navigate   string

	stopPolling context.CancelFunc
	arbiter     *channel.Arbiter
}

func newMount(s *Service, runID string, req Request) *mount {
	return &mount{
		svc:        s,
		runID:      runID,
		req:        req,
		logger:     s.logger.WithValues(log.Kv{"run-id": runID}),
		controller: workspace.NewController(runID),
		inbox:      make(chan workspace.Msg, 256),
		sweep:      make(chan []workspace.Msg, 1),
	}
}

func (m *mount) run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	arbiter, err := channel.NewArbiter(channel.ArbiterConfig{Streamer: m.svc.client, Logger: m.logger})
	if err != nil {
		return "", fmt.Errorf("could not create arbiter: %w", err)
	}
	m.arbiter = arbiter

	pollCtx, stopPolling := context.WithCancel(ctx)
	m.stopPolling = stopPolling

	var g run.Group

	// Reducer.
	g.Add(
		func() error { return m.reduceLoop(ctx) },
		func(_ error) { cancel() },
	)

	// Push channel.
	g.Add(
		func() error {
			err := m.arbiter.Attach(ctx, m.runID, m.onSignal)
			if err != nil {
				m.logger.Warningf("Push channel unavailable, polling only: %s", err)
				m.post(ctx, workspace.StreamFailed{Err: err})
			}
			<-ctx.Done()
			return nil
		},
		func(_ error) {
			cancel()
			m.arbiter.Detach()
		},
	)

	// Pollers.
	for _, p := range m.pollers() {
		p := p
		g.Add(
			func() error {
				m.poll(pollCtx, p)
				<-ctx.Done()
				return nil
			},
			func(_ error) { cancel() },
		)
	}

	err = g.Run()
	switch {
	case errors.Is(err, errNavigate):
		return m.navigate, nil
	case err != nil:
		return "", err
	}

	return "", nil
}

func (m *mount) reduceLoop(ctx context.Context) error {
	m.req.OnView(m.controller.View())

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-m.inbox:
			if err := m.apply(ctx, msg); err != nil {
				return err
			}
		case msg, ok := <-m.req.Input:
			if !ok {
				m.req.Input = nil
				continue
			}
			if err := m.apply(ctx, msg); err != nil {
				return err
			}
		case msgs := <-m.sweep:
			for _, msg := range msgs {
				if err := m.apply(ctx, msg); err != nil {
					return err
				}
			}
			m.logger.Debugf("Final sweep applied")
			if m.req.UntilDone {
				return nil
			}
		}
	}
}

func (m *mount) apply(ctx context.Context, msg workspace.Msg) error {
	effects := m.controller.Apply(msg)
	m.req.OnView(m.controller.View())

	for _, eff := range effects {
		switch e := eff.(type) {
		case workspace.FetchArtifactDetail:
			go m.fetchDetail(ctx, e)
		case workspace.StopPolling:
			m.logger.Debugf("Run finished, stopping pollers")
			m.stopPolling()
			go m.finalSweep(ctx)
		case workspace.CloseStream:
			// The arbiter never reattaches, the remaining data comes from the final sweep.
			go m.arbiter.Detach()
		case workspace.RunControl:
			go m.control(ctx, e)
		case workspace.Navigate:
			m.navigate = e.RunID
			return errNavigate
		}
	}

	return nil
}

// post queues a message for the reducer, dropping it when ctx is done.
func (m *mount) post(ctx context.Context, msg workspace.Msg) {
	select {
	case m.inbox <- msg:
	case <-ctx.Done():
	}
}

func (m *mount) onSignal(ctx context.Context, s channel.Signal) {
	switch s.Kind {
	case channel.SignalEvent:
		m.post(ctx, workspace.StreamEvent{Event: s.Event})
	case channel.SignalDone:
		m.post(ctx, workspace.StreamDone{Status: s.Status})
	case channel.SignalFailed:
		m.logger.Warningf("Push channel failed, falling back to polling: %s", s.Err)
		m.post(ctx, workspace.StreamFailed{Err: s.Err})
	}
}

type poller struct {
	resource string
	fetch    func(ctx context.Context) (workspace.Msg, error)
}

func (m *mount) pollers() []poller {
	c := m.svc.client
	return []poller{
		{resource: workspace.ResourceRun, fetch: func(ctx context.Context) (workspace.Msg, error) {
			r, err := c.GetRun(ctx, m.runID)
			if err != nil {
				return nil, err
			}
			return workspace.RunLoaded{Run: *r}, nil
		}},
		{resource: workspace.ResourceEvents, fetch: func(ctx context.Context) (workspace.Msg, error) {
			events, err := c.ListEvents(ctx, m.runID)
			if err != nil {
				return nil, err
			}
			return workspace.EventsPolled{Events: events}, nil
		}},
		{resource: workspace.ResourceCheckpoints, fetch: func(ctx context.Context) (workspace.Msg, error) {
			cps, err := c.ListCheckpoints(ctx, m.runID)
			if err != nil {
				return nil, err
			}
			return workspace.CheckpointsPolled{Checkpoints: cps}, nil
		}},
		{resource: workspace.ResourceArtifacts, fetch: func(ctx context.Context) (workspace.Msg, error) {
			arts, err := c.ListArtifacts(ctx, m.runID)
			if err != nil {
				return nil, err
			}
			return workspace.ArtifactsPolled{Artifacts: arts}, nil
		}},
	}
}

// poll fetches the resource once per interval, a single request in flight at a time. Failures
// are reported and retried on the next tick.
func (m *mount) poll(ctx context.Context, p poller) {
	limiter := rate.NewLimiter(rate.Every(m.svc.pollInterval), 1)
	logger := m.logger.WithValues(log.Kv{"resource": p.resource})

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		msg, err := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warningf("Could not poll: %s", err)
			msg = workspace.FetchFailed{Resource: p.resource, Err: err}
		}
		m.post(ctx, msg)
	}
}

// finalSweep loads the data produced right before the run finished.
func (m *mount) finalSweep(ctx context.Context) {
	var msgs []workspace.Msg
	for _, p := range m.pollers() {
		msg, err := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			m.logger.Warningf("Could not load final %s: %s", p.resource, err)
			msg = workspace.FetchFailed{Resource: p.resource, Err: err}
		}
		msgs = append(msgs, msg)
	}

	select {
	case m.sweep <- msgs:
	case <-ctx.Done():
	}
}

func (m *mount) fetchDetail(ctx context.Context, e workspace.FetchArtifactDetail) {
	d, err := m.svc.detail(ctx, e.RunID, e.ArtifactID)
	if err != nil {
		m.post(ctx, workspace.ArtifactDetailFailed{Token: e.Token, ArtifactID: e.ArtifactID, Err: err})
		return
	}
	m.post(ctx, workspace.ArtifactDetailLoaded{Token: e.Token, Detail: d})
}

func (m *mount) control(ctx context.Context, e workspace.RunControl) {
	c := m.svc.client
	res := workspace.ControlFinished{Action: e.Action}

	switch e.Action {
	case workspace.ControlPause:
		res.Err = c.Pause(ctx, e.RunID)
	case workspace.ControlResume:
		res.Err = c.Resume(ctx, e.RunID)
	case workspace.ControlCancel:
		res.Err = c.Cancel(ctx, e.RunID)
	case workspace.ControlRerun:
		r, err := c.Rerun(ctx, e.RunID, e.Node)
		if err == nil {
			res.NewRunID = r.ID
		}
		res.Err = err
	default:
		res.Err = fmt.Errorf("unknown control action %q: %w", e.Action, model.ErrNotValid)
	}

	if res.Err != nil {
		m.logger.Warningf("Control action %s failed: %s", e.Action, res.Err)
	} else {
		m.logger.Infof("Control action %s executed", e.Action)
	}
	m.post(ctx, res)

	// Refresh the run right away so the new status doesn't wait for the next tick.
	if res.Err == nil && e.Action != workspace.ControlRerun {
		if r, err := c.GetRun(ctx, e.RunID); err == nil {
			m.post(ctx, workspace.RunLoaded{Run: *r})
		}
	}
}
