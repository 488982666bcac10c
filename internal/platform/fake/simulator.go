package fake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
)

// SimulatorConfig is the configuration of the run simulator.
type SimulatorConfig struct {
	Platform *Platform
	// Step is the time between two simulated run steps.
	Step   time.Duration
	Logger log.Logger
}

func (c *SimulatorConfig) defaults() error {
	if c.Platform == nil {
		return fmt.Errorf("platform is required")
	}

	if c.Step <= 0 {
		c.Step = 400 * time.Millisecond
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "platform.Simulator"})
	return nil
}

// Simulator plays realistic multi node runs on the fake platform.
type Simulator struct {
	platform *Platform
	step     time.Duration
	logger   log.Logger
}

// NewSimulator returns a new simulator.
func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Simulator{
		platform: cfg.Platform,
		step:     cfg.Step,
		logger:   cfg.Logger,
	}, nil
}

type simNode struct {
	node   string
	role   string
	output string
	files  []simFile
}

type simFile struct {
	path    string
	content string
}

var simPlan = []simNode{
	{node: "init"},
	{
		node:   "product_manager",
		role:   "product_manager",
		output: "Landing page for a coffee shop.\nSections: hero, menu and contact form.",
	},
	{
		node:   "architect",
		role:   "architect",
		output: "Static site with a single page.\nFiles: index.html, style.css, app.js and src/lib/util.js.",
		files: []simFile{
			{path: "index.html", content: "<!doctype html>\n<html>\n  <head><title>Coffee</title></head>\n</html>\n"},
		},
	},
	{
		node:   "engineer",
		role:   "engineer",
		output: "Implemented the landing page with a responsive layout.",
		files: []simFile{
			{path: "index.html", content: simIndexHTML},
			{path: "style.css", content: "body {\n  font-family: sans-serif;\n  margin: 0;\n}\n"},
			{path: "app.js", content: "import { greet } from './src/lib/util.js';\n\ndocument.title = greet('coffee');\n"},
			{path: "src/lib/util.js", content: "export function greet(name) {\n  return `Welcome to ${name}`;\n}\n"},
		},
	},
}

const simIndexHTML = `<!doctype html>
<html>
  <head>
    <title>Coffee</title>
    <link rel="stylesheet" href="style.css">
  </head>
  <body>
    <h1>Coffee</h1>
    <script type="module" src="app.js"></script>
  </body>
</html>
`

// Play simulates the run until it finishes, is canceled on the platform or ctx is done.
// Re-runs start from the seeded node.
func (s *Simulator) Play(ctx context.Context, runID string) error {
	logger := s.logger.WithValues(log.Kv{"run-id": runID})
	plan, err := s.planFor(ctx, runID)
	if err != nil {
		return err
	}

	if err := s.wait(ctx); err != nil {
		return err
	}
	err = s.platform.transition("start", runID, model.RunStatusQueued, model.RunStatusRunning, "run.started", "Run started")
	if err != nil {
		return err
	}

	var files []simFile
	for _, n := range plan {
		ok, err := s.ready(ctx, runID)
		if err != nil || !ok {
			return err
		}

		logger.Debugf("Simulating node %s", n.node)
		if err := s.playNode(ctx, runID, n, &files); err != nil {
			return err
		}
	}

	ok, err := s.ready(ctx, runID)
	if err != nil || !ok {
		return err
	}
	if err := s.finish(runID, files); err != nil {
		return err
	}

	logger.Infof("Simulated run finished")
	return nil
}

func (s *Simulator) planFor(ctx context.Context, runID string) ([]simNode, error) {
	events, err := s.platform.ListEvents(ctx, runID)
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		if e.Type != "run.seeded" {
			continue
		}
		goTo := e.DataString("goto")
		for i, n := range simPlan {
			if n.node == goTo {
				return simPlan[i:], nil
			}
		}
	}
	return simPlan, nil
}

func (s *Simulator) playNode(ctx context.Context, runID string, n simNode, files *[]simFile) error {
	err := s.platform.AppendEvents(runID, model.Event{
		Type:    "node.started",
		Message: fmt.Sprintf("Node %s started", n.node),
		Data:    map[string]any{"node": n.node},
	})
	if err != nil {
		return err
	}

	if n.role != "" {
		for _, chunk := range chunks(n.output, 3) {
			if err := s.wait(ctx); err != nil {
				return err
			}
			err := s.platform.AppendEvents(runID, model.Event{
				Type:    "agent.delta",
				Message: n.role,
				Data:    map[string]any{"role": n.role, "delta": chunk},
			})
			if err != nil {
				return err
			}
		}
		err := s.platform.AppendEvents(runID, model.Event{
			Type:    "agent.output",
			Message: n.role,
			Data:    map[string]any{"role": n.role, "text": n.output},
		})
		if err != nil {
			return err
		}
	}

	*files = mergeFiles(*files, n.files)
	state := map[string]any{"node": n.node}
	if len(*files) > 0 {
		state["files"] = filesState(*files)
	}
	if err := s.platform.AppendCheckpoints(runID, model.Checkpoint{Node: n.node, State: state}); err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	return s.platform.AppendEvents(runID,
		model.Event{Type: "checkpoint.saved", Message: "Checkpoint saved", Data: map[string]any{"node": n.node}},
		model.Event{Type: "node.completed", Message: fmt.Sprintf("Node %s completed", n.node), Data: map[string]any{"node": n.node}},
	)
}

func (s *Simulator) finish(runID string, files []simFile) error {
	arts := make([]model.ArtifactDetail, 0, len(files)+2)
	manifest := make([]any, 0, len(files))
	for _, f := range files {
		arts = append(arts, model.ArtifactDetail{
			Artifact:    model.Artifact{Name: f.path, MimeType: catalog.MimeFromPath(f.path)},
			ContentText: f.content,
		})
		manifest = append(manifest, map[string]any{"path": f.path, "bytes": len(f.content)})
	}

	output := "Coffee shop landing page ready."
	arts = append(arts,
		model.ArtifactDetail{
			Artifact:    model.Artifact{Name: catalog.MetaFinalOutput, MimeType: "application/json"},
			ContentJSON: map[string]any{"output": output},
		},
		model.ArtifactDetail{
			Artifact:    model.Artifact{Name: catalog.MetaFilesManifest, MimeType: "application/json"},
			ContentJSON: map[string]any{"files": manifest},
		},
	)

	if err := s.platform.AddArtifacts(runID, arts...); err != nil {
		return err
	}
	if err := s.platform.SetOutput(runID, output); err != nil {
		return err
	}
	return s.platform.transition("finish", runID, "", model.RunStatusSucceeded, model.EventTypeRunSucceeded, "Run succeeded")
}

// ready waits while the run is paused, returns false when the run should not continue.
func (s *Simulator) ready(ctx context.Context, runID string) (bool, error) {
	for {
		run, err := s.platform.GetRun(ctx, runID)
		if err != nil {
			return false, err
		}
		switch {
		case run.Status.Terminal():
			return false, nil
		case run.Status != model.RunStatusPaused:
			return true, nil
		}
		if err := s.wait(ctx); err != nil {
			return false, err
		}
	}
}

func (s *Simulator) wait(ctx context.Context) error {
	t := time.NewTimer(s.step)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mergeFiles(current, updates []simFile) []simFile {
	merged := append([]simFile{}, current...)
	for _, u := range updates {
		replaced := false
		for i := range merged {
			if merged[i].path == u.path {
				merged[i] = u
				replaced = true
			}
		}
		if !replaced {
			merged = append(merged, u)
		}
	}
	return merged
}

func filesState(files []simFile) []any {
	state := make([]any, 0, len(files))
	for _, f := range files {
		state = append(state, map[string]any{"path": f.path, "content": f.content})
	}
	return state
}

func chunks(text string, n int) []string {
	words := strings.SplitAfter(text, " ")
	size := (len(words) + n - 1) / n
	if size == 0 {
		return nil
	}

	var res []string
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		res = append(res, strings.Join(words[i:end], ""))
	}
	return res
}
