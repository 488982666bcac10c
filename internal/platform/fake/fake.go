// Package fake is an in-memory agent execution platform. It implements platform.Client,
// exposes the same HTTP API as the real platform and can simulate runs.
package fake

import (
	"archive/zip"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// PlatformConfig is the configuration for the fake platform.
type PlatformConfig struct {
	// OnRunCreated is called (outside the platform lock) every time a run is created
	// or re-run, used to start simulations.
	OnRunCreated func(runID string)
	Logger       log.Logger
}

func (c *PlatformConfig) defaults() error {
	if c.OnRunCreated == nil {
		c.OnRunCreated = func(string) {}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "platform.Fake"})
	return nil
}

type runData struct {
	run         model.Run
	userRules   []string
	events      []model.Event
	checkpoints []model.Checkpoint
	artifacts   []model.ArtifactDetail
	subs        []*subscription
	subscribes  int
}

// Platform is a fake implementation of platform.Client.
type Platform struct {
	runs         map[string]*runData
	projects     []model.Project
	errors       map[string]error
	onRunCreated func(runID string)
	mu           sync.RWMutex
	logger       log.Logger
}

var _ platform.Client = &Platform{}

// NewPlatform creates a new fake platform.
func NewPlatform(cfg PlatformConfig) (*Platform, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Platform{
		runs:         map[string]*runData{},
		errors:       map[string]error{},
		onRunCreated: cfg.OnRunCreated,
		logger:       cfg.Logger,
	}, nil
}

// Scripting helpers.

// AddRun stores a run as it is. A missing ID is generated.
func (p *Platform) AddRun(r model.Run) model.Run {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = model.RunStatusQueued
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	p.runs[r.ID] = &runData{run: r}
	return r
}

// AddProject stores a project.
func (p *Platform) AddProject(pr model.Project) model.Project {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now().UTC()
	}
	p.projects = append(p.projects, pr)
	return pr
}

// AppendEvents appends events to the run timeline and pushes them to the open subscriptions.
// Events without seq get the next one.
func (p *Platform) AppendEvents(runID string, events ...model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	for _, e := range events {
		p.appendEvent(rd, e)
	}
	return nil
}

// AppendCheckpoints appends checkpoints to the run. Checkpoints without seq get the next one.
func (p *Platform) AppendCheckpoints(runID string, checkpoints ...model.Checkpoint) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	for _, c := range checkpoints {
		if c.Seq == 0 {
			c.Seq = int64(len(rd.checkpoints)) + 1
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		rd.checkpoints = append(rd.checkpoints, c)
	}
	return nil
}

// AddArtifacts adds finalized artifacts to the run. Artifacts without ID get a new one.
func (p *Platform) AddArtifacts(runID string, artifacts ...model.ArtifactDetail) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		if a.ID == "" {
			a.ID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}
		if a.MimeType == "" {
			a.MimeType = catalog.MimeFromPath(a.Name)
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		rd.artifacts = append(rd.artifacts, a)
	}
	return nil
}

// SetStatus sets the run status. A terminal status sends the done message to the open
// subscriptions and closes them.
func (p *Platform) SetStatus(runID string, status model.RunStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	p.setStatus(rd, status)
	return nil
}

// SetOutput sets the run final output text.
func (p *Platform) SetOutput(runID, output string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	rd.run.OutputText = output
	return nil
}

// PushRaw pushes a raw message to the open subscriptions of the run.
func (p *Platform) PushRaw(runID, name string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	p.publish(rd, platform.PushMessage{Name: name, Data: data})
	return nil
}

// BreakStreams ends all the open subscriptions of the run with a transport error.
func (p *Platform) BreakStreams(runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}
	for _, s := range rd.subs {
		s.end(ErrStreamBroken)
	}
	rd.subs = nil
	return nil
}

// SetError makes every call of the named method fail with err, a nil err removes it.
func (p *Platform) SetError(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		delete(p.errors, method)
		return
	}
	p.errors[method] = err
}

// OpenSubscriptions returns the number of open push subscriptions of the run.
func (p *Platform) OpenSubscriptions(runID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, ok := p.runs[runID]
	if !ok {
		return 0
	}
	rd.subs = openSubs(rd.subs)
	return len(rd.subs)
}

// Subscribes returns the number of push subscriptions ever requested for the run.
func (p *Platform) Subscribes(runID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rd, ok := p.runs[runID]
	if !ok {
		return 0
	}
	return rd.subscribes
}

// platform.RunReader.

func (p *Platform) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("GetRun"); err != nil {
		return nil, err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return nil, err
	}
	r := rd.run
	return &r, nil
}

func (p *Platform) ListEvents(ctx context.Context, runID string) ([]model.Event, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("ListEvents"); err != nil {
		return nil, err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rd.events), nil
}

func (p *Platform) ListCheckpoints(ctx context.Context, runID string) ([]model.Checkpoint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("ListCheckpoints"); err != nil {
		return nil, err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rd.checkpoints), nil
}

func (p *Platform) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("ListArtifacts"); err != nil {
		return nil, err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return nil, err
	}
	arts := make([]model.Artifact, 0, len(rd.artifacts))
	for _, a := range rd.artifacts {
		arts = append(arts, a.Artifact)
	}
	return arts, nil
}

func (p *Platform) GetArtifact(ctx context.Context, runID, artifactID string) (*model.ArtifactDetail, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("GetArtifact"); err != nil {
		return nil, err
	}
	a, err := p.getArtifact(runID, artifactID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Platform) ListRuns(ctx context.Context, projectID string) ([]model.Run, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("ListRuns"); err != nil {
		return nil, err
	}
	if projectID != "" {
		if _, err := uuid.Parse(projectID); err != nil {
			return nil, fmt.Errorf("invalid project id %q: %w", projectID, model.ErrNotValid)
		}
	}

	runs := []model.Run{}
	for _, rd := range p.runs {
		if projectID != "" && rd.run.ProjectID != projectID {
			continue
		}
		runs = append(runs, rd.run)
	}
	slices.SortFunc(runs, func(a, b model.Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

func (p *Platform) ListProjects(ctx context.Context) ([]model.Project, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.failure("ListProjects"); err != nil {
		return nil, err
	}
	return slices.Clone(p.projects), nil
}

// platform.Controller.

func (p *Platform) CreateRun(ctx context.Context, req model.CreateRunRequest) (*model.Run, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("input is required: %w", model.ErrNotValid)
	}
	if req.ProjectID != "" {
		if _, err := uuid.Parse(req.ProjectID); err != nil {
			return nil, fmt.Errorf("invalid project id %q: %w", req.ProjectID, model.ErrNotValid)
		}
	}

	p.mu.Lock()
	if err := p.failure("CreateRun"); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = "engineer"
	}
	r := model.Run{
		ID:        uuid.NewString(),
		Status:    model.RunStatusQueued,
		Mode:      mode,
		Roles:     req.Roles,
		ProjectID: req.ProjectID,
		Input:     req.Input,
		CreatedAt: time.Now().UTC(),
	}
	p.runs[r.ID] = &runData{run: r, userRules: req.UserRules}
	p.mu.Unlock()

	p.logger.Infof("Created fake run: %s", r.ID)
	p.onRunCreated(r.ID)
	return &r, nil
}

func (p *Platform) Pause(ctx context.Context, runID string) error {
	return p.transition("Pause", runID, model.RunStatusRunning, model.RunStatusPaused, "run.pause.requested", "Pause requested")
}

func (p *Platform) Resume(ctx context.Context, runID string) error {
	return p.transition("Resume", runID, model.RunStatusPaused, model.RunStatusRunning, "run.resume.requested", "Resume requested")
}

func (p *Platform) Cancel(ctx context.Context, runID string) error {
	return p.transition("Cancel", runID, "", model.RunStatusCanceled, "run.canceled.requested", "Cancel requested")
}

func (p *Platform) Rerun(ctx context.Context, runID, node string) (*model.Run, error) {
	p.mu.Lock()
	if err := p.failure("Rerun"); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	src, err := p.getRun(runID)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	var cp *model.Checkpoint
	for i := len(src.checkpoints) - 1; i >= 0; i-- {
		if node == "" || src.checkpoints[i].Node == node {
			cp = &src.checkpoints[i]
			break
		}
	}
	if cp == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("no checkpoint found to rerun from: %w", model.ErrNotValid)
	}
	goTo := node
	if goTo == "" {
		goTo = cp.Node
	}

	r := model.Run{
		ID:        uuid.NewString(),
		Status:    model.RunStatusQueued,
		Mode:      src.run.Mode,
		Roles:     src.run.Roles,
		ProjectID: src.run.ProjectID,
		Input:     src.run.Input,
		CreatedAt: time.Now().UTC(),
	}
	rd := &runData{run: r, userRules: src.userRules}
	p.runs[r.ID] = rd
	p.appendEvent(rd, model.Event{
		Type:    "run.seeded",
		Message: "Seeded from checkpoint",
		Data: map[string]any{
			"parent_run_id":   runID,
			"checkpoint_seq":  cp.Seq,
			"checkpoint_node": cp.Node,
			"goto":            goTo,
		},
	})
	p.mu.Unlock()

	p.logger.Infof("Re-ran fake run %s from node %q as %s", runID, goTo, r.ID)
	p.onRunCreated(r.ID)
	return &r, nil
}

// platform.Downloader.

func (p *Platform) DownloadArtifact(ctx context.Context, runID, artifactID string, w io.Writer) error {
	p.mu.RLock()
	if err := p.failure("DownloadArtifact"); err != nil {
		p.mu.RUnlock()
		return err
	}
	a, err := p.getArtifact(runID, artifactID)
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, a.Body())
	return err
}

func (p *Platform) ExportWorkspace(ctx context.Context, runID string, w io.Writer) error {
	p.mu.RLock()
	if err := p.failure("ExportWorkspace"); err != nil {
		p.mu.RUnlock()
		return err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		p.mu.RUnlock()
		return err
	}
	run := rd.run
	arts := slices.Clone(rd.artifacts)
	p.mu.RUnlock()

	zw := zip.NewWriter(w)
	for _, a := range arts {
		name := strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(a.Name), `\`, "/"), "/")
		if name == "" {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("could not add %q to workspace: %w", name, err)
		}
		if _, err := io.WriteString(fw, a.Body()); err != nil {
			return fmt.Errorf("could not write %q to workspace: %w", name, err)
		}
	}

	meta, err := json.MarshalIndent(platform.RunToJSON(run), "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal run metadata: %w", err)
	}
	fw, err := zw.Create("run_meta.json")
	if err != nil {
		return fmt.Errorf("could not add run metadata to workspace: %w", err)
	}
	if _, err := fw.Write(meta); err != nil {
		return fmt.Errorf("could not write run metadata to workspace: %w", err)
	}

	return zw.Close()
}

func (p *Platform) transition(method, runID string, from, to model.RunStatus, eventType, msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failure(method); err != nil {
		return err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return err
	}

	// Acting on finished runs is a no-op.
	if rd.run.Status.Terminal() {
		return nil
	}
	if from != "" && rd.run.Status != from {
		return fmt.Errorf("run is %s, not %s: %w", rd.run.Status, from, model.ErrNotValid)
	}

	p.appendEvent(rd, model.Event{Type: eventType, Message: msg, Data: map[string]any{}})
	p.setStatus(rd, to)
	p.logger.Infof("Fake run %s is %s", runID, to)
	return nil
}

func (p *Platform) setStatus(rd *runData, status model.RunStatus) {
	now := time.Now().UTC()
	rd.run.Status = status
	if status == model.RunStatusRunning && rd.run.StartedAt == nil {
		rd.run.StartedAt = &now
	}
	if !status.Terminal() {
		return
	}

	rd.run.FinishedAt = &now
	data, _ := json.Marshal(platform.DoneJSON{Status: string(status)})
	for _, s := range rd.subs {
		s.send(platform.PushMessage{Name: platform.PushMessageDone, Data: data})
		s.end(nil)
	}
	rd.subs = nil
}

func (p *Platform) appendEvent(rd *runData, e model.Event) {
	if e.Seq == 0 {
		var last int64
		if len(rd.events) > 0 {
			last = rd.events[len(rd.events)-1].Seq
		}
		e.Seq = last + 1
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	rd.events = append(rd.events, e)

	data, err := json.Marshal(platform.EventToJSON(e))
	if err != nil {
		p.logger.Errorf("Could not marshal event %d: %s", e.Seq, err)
		return
	}
	p.publish(rd, platform.PushMessage{Name: platform.PushMessageRunEvent, Data: data})
}

func (p *Platform) publish(rd *runData, msg platform.PushMessage) {
	rd.subs = openSubs(rd.subs)
	for _, s := range rd.subs {
		s.send(msg)
	}
}

func (p *Platform) failure(method string) error {
	if err, ok := p.errors[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (p *Platform) getRun(runID string) (*runData, error) {
	rd, ok := p.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}
	return rd, nil
}

func (p *Platform) getArtifact(runID, artifactID string) (model.ArtifactDetail, error) {
	rd, err := p.getRun(runID)
	if err != nil {
		return model.ArtifactDetail{}, err
	}
	for _, a := range rd.artifacts {
		if a.ID == artifactID {
			return a, nil
		}
	}
	return model.ArtifactDetail{}, fmt.Errorf("artifact %s: %w", artifactID, model.ErrNotFound)
}
