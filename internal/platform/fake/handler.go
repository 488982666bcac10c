package fake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// HandlerConfig is the configuration of the fake platform HTTP API.
type HandlerConfig struct {
	Platform platform.Client
	// Token is the accepted bearer token or session cookie value, empty disables auth.
	Token        string
	PingInterval time.Duration
	Logger       log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Platform == nil {
		return fmt.Errorf("platform is required")
	}

	if c.PingInterval <= 0 {
		c.PingInterval = 5 * time.Second
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "platform.FakeHandler"})
	return nil
}

type handler struct {
	platform     platform.Client
	token        string
	pingInterval time.Duration
	logger       log.Logger
}

// NewHandler returns the HTTP API of the platform.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	h := handler{
		platform:     cfg.Platform,
		token:        cfg.Token,
		pingInterval: cfg.PingInterval,
		logger:       cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/projects", h.listProjects)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.listRuns)
			r.Post("/", h.createRun)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", h.getRun)
				r.Get("/events", h.listEvents)
				r.Get("/checkpoints", h.listCheckpoints)
				r.Get("/artifacts", h.listArtifacts)
				r.Get("/artifacts/{artifactID}", h.getArtifact)
				r.Get("/artifacts/{artifactID}/download", h.downloadArtifact)
				r.Get("/workspace.zip", h.exportWorkspace)
				r.Get("/stream", h.stream)
				r.Post("/pause", h.control(h.platform.Pause))
				r.Post("/resume", h.control(h.platform.Resume))
				r.Post("/cancel", h.control(h.platform.Cancel))
				r.Post("/rerun", h.rerun)
			})
		})
	})

	return r, nil
}

func (h handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		if token, ok := bearerToken(r.Header.Get("Authorization")); ok && token == h.token {
			next.ServeHTTP(w, r)
			return
		}
		for _, c := range r.Cookies() {
			if c.Value == h.token {
				next.ServeHTTP(w, r)
				return
			}
		}

		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	})
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func (h handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.platform.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := platform.ProjectsJSON{Projects: []platform.ProjectJSON{}}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, platform.ProjectJSON{ID: p.ID, Name: p.Name, CreatedAt: platform.FormatTime(p.CreatedAt)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.platform.ListRuns(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := platform.RunListJSON{Runs: []platform.RunJSON{}}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, platform.RunToJSON(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h handler) createRun(w http.ResponseWriter, r *http.Request) {
	var req platform.CreateRunJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	run, err := h.platform.CreateRun(r.Context(), model.CreateRunRequest{
		Input:     req.Input,
		Mode:      req.Mode,
		Roles:     req.Roles,
		ProjectID: req.ProjectID,
		UserRules: req.UserRules,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, platform.RunToJSON(*run))
}

func (h handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.platform.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, platform.RunToJSON(*run))
}

func (h handler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.platform.ListEvents(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := platform.EventsJSON{Events: []platform.EventJSON{}}
	for _, e := range events {
		resp.Events = append(resp.Events, platform.EventToJSON(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h handler) listCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := h.platform.ListCheckpoints(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := platform.CheckpointsJSON{Checkpoints: []platform.CheckpointJSON{}}
	for _, c := range cps {
		resp.Checkpoints = append(resp.Checkpoints, platform.CheckpointToJSON(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h handler) listArtifacts(w http.ResponseWriter, r *http.Request) {
	arts, err := h.platform.ListArtifacts(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := platform.ArtifactsJSON{Artifacts: []platform.ArtifactJSON{}}
	for _, a := range arts {
		resp.Artifacts = append(resp.Artifacts, platform.ArtifactToJSON(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h handler) getArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := h.platform.GetArtifact(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "artifactID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, platform.ArtifactDetailToJSON(*a))
}

func (h handler) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	runID, artifactID := chi.URLParam(r, "runID"), chi.URLParam(r, "artifactID")
	a, err := h.platform.GetArtifact(r.Context(), runID, artifactID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	mime := a.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", catalog.DownloadName(a.Artifact)))
	if err := h.platform.DownloadArtifact(r.Context(), runID, artifactID, w); err != nil {
		h.logger.Errorf("Could not download artifact %s: %s", artifactID, err)
	}
}

func (h handler) exportWorkspace(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := h.platform.GetRun(r.Context(), runID); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "run-"+runID+".zip"))
	if err := h.platform.ExportWorkspace(r.Context(), runID, w); err != nil {
		h.logger.Errorf("Could not export workspace of run %s: %s", runID, err)
	}
}

func (h handler) control(action func(ctx context.Context, runID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		if err := action(r.Context(), runID); err != nil {
			h.writeError(w, err)
			return
		}
		h.getRun(w, r)
	}
}

func (h handler) rerun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	node := strings.TrimSpace(q.Get("node"))
	if node == "" {
		node = strings.TrimSpace(q.Get("goto"))
	}

	run, err := h.platform.Rerun(r.Context(), chi.URLParam(r, "runID"), node)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, platform.RunToJSON(*run))
}

func (h handler) stream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	sub, err := h.platform.Subscribe(r.Context(), runID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	flush := func() {
		if canFlush {
			flusher.Flush()
		}
	}
	flush()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	msgs := sub.Messages()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flush()
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Name, msg.Data)
			flush()
		}
	}
}

func (h handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, model.ErrNotValid):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrConflict):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		h.logger.Errorf("Request failed: %s", err)
		writeDetail(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
