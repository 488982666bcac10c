// Package api is the HTTP implementation of the platform client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// ClientConfig is the configuration of the platform HTTP client.
type ClientConfig struct {
	BaseURL string
	// Token is sent as a bearer token.
	Token string
	// Cookie is sent as the raw cookie header, used by cookie session deployments.
	Cookie     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url %q is not a valid absolute URL", c.BaseURL)
	}

	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "platform.API"})
	return nil
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Unwrap maps the status code to the domain errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrNotValid
	case http.StatusConflict:
		return model.ErrConflict
	}
	return nil
}

// Client is the platform HTTP API client.
type Client struct {
	baseURL    string
	token      string
	cookie     string
	timeout    time.Duration
	httpClient *http.Client
	logger     log.Logger
}

var _ platform.Client = &Client{}

// NewClient returns a new platform HTTP client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		cookie:     cfg.Cookie,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var resp platform.RunJSON
	if err := c.do(ctx, http.MethodGet, runPath(runID, ""), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not get run: %w", err)
	}
	r := resp.ToModel()
	return &r, nil
}

func (c *Client) ListEvents(ctx context.Context, runID string) ([]model.Event, error) {
	var resp platform.EventsJSON
	if err := c.do(ctx, http.MethodGet, runPath(runID, "events"), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}

	events := make([]model.Event, 0, len(resp.Events))
	for _, e := range resp.Events {
		if e.Seq == nil {
			c.logger.Debugf("Ignoring polled event without seq")
			continue
		}
		events = append(events, e.ToModel())
	}
	return events, nil
}

func (c *Client) ListCheckpoints(ctx context.Context, runID string) ([]model.Checkpoint, error) {
	var resp platform.CheckpointsJSON
	if err := c.do(ctx, http.MethodGet, runPath(runID, "checkpoints"), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not list checkpoints: %w", err)
	}

	cps := make([]model.Checkpoint, 0, len(resp.Checkpoints))
	for _, cp := range resp.Checkpoints {
		cps = append(cps, cp.ToModel())
	}
	return cps, nil
}

func (c *Client) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	var resp platform.ArtifactsJSON
	if err := c.do(ctx, http.MethodGet, runPath(runID, "artifacts"), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not list artifacts: %w", err)
	}

	arts := make([]model.Artifact, 0, len(resp.Artifacts))
	for _, a := range resp.Artifacts {
		arts = append(arts, a.ToModel())
	}
	return arts, nil
}

func (c *Client) GetArtifact(ctx context.Context, runID, artifactID string) (*model.ArtifactDetail, error) {
	var resp platform.ArtifactDetailJSON
	if err := c.do(ctx, http.MethodGet, runPath(runID, "artifacts/"+url.PathEscape(artifactID)), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not get artifact: %w", err)
	}
	a := resp.ToModel()
	return &a, nil
}

func (c *Client) ListRuns(ctx context.Context, projectID string) ([]model.Run, error) {
	endpoint := "/api/runs"
	if projectID != "" {
		endpoint += "?" + url.Values{"project_id": {projectID}}.Encode()
	}

	var resp platform.RunListJSON
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	runs := make([]model.Run, 0, len(resp.Runs))
	for _, r := range resp.Runs {
		runs = append(runs, r.ToModel())
	}
	return runs, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var resp platform.ProjectsJSON
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &resp); err != nil {
		return nil, fmt.Errorf("could not list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		projects = append(projects, p.ToModel())
	}
	return projects, nil
}

func (c *Client) CreateRun(ctx context.Context, req model.CreateRunRequest) (*model.Run, error) {
	body := platform.CreateRunJSON{
		Input:     req.Input,
		Mode:      req.Mode,
		Roles:     req.Roles,
		ProjectID: req.ProjectID,
		UserRules: req.UserRules,
	}

	var resp platform.RunJSON
	if err := c.do(ctx, http.MethodPost, "/api/runs", body, &resp); err != nil {
		return nil, fmt.Errorf("could not create run: %w", err)
	}
	r := resp.ToModel()
	return &r, nil
}

func (c *Client) Pause(ctx context.Context, runID string) error {
	if err := c.do(ctx, http.MethodPost, runPath(runID, "pause"), nil, nil); err != nil {
		return fmt.Errorf("could not pause run: %w", err)
	}
	return nil
}

func (c *Client) Resume(ctx context.Context, runID string) error {
	if err := c.do(ctx, http.MethodPost, runPath(runID, "resume"), nil, nil); err != nil {
		return fmt.Errorf("could not resume run: %w", err)
	}
	return nil
}

func (c *Client) Cancel(ctx context.Context, runID string) error {
	if err := c.do(ctx, http.MethodPost, runPath(runID, "cancel"), nil, nil); err != nil {
		return fmt.Errorf("could not cancel run: %w", err)
	}
	return nil
}

func (c *Client) Rerun(ctx context.Context, runID, node string) (*model.Run, error) {
	endpoint := runPath(runID, "rerun")
	if node != "" {
		endpoint += "?" + url.Values{"node": {node}, "goto": {node}}.Encode()
	}

	var resp platform.RunJSON
	if err := c.do(ctx, http.MethodPost, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("could not re-run: %w", err)
	}
	r := resp.ToModel()
	return &r, nil
}

func (c *Client) DownloadArtifact(ctx context.Context, runID, artifactID string, w io.Writer) error {
	if err := c.download(ctx, runPath(runID, "artifacts/"+url.PathEscape(artifactID)+"/download"), w); err != nil {
		return fmt.Errorf("could not download artifact: %w", err)
	}
	return nil
}

func (c *Client) ExportWorkspace(ctx context.Context, runID string, w io.Writer) error {
	if err := c.download(ctx, runPath(runID, "workspace.zip"), w); err != nil {
		return fmt.Errorf("could not export workspace: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := c.newRequest(ctx, method, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("could not decode response: %w: %w", model.ErrNotValid, err)
		}
	}
	return nil
}

// download streams the body into w, downloads are not bound by the request timeout.
func (c *Client) download(ctx context.Context, endpoint string, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
}

func runPath(runID, sub string) string {
	p := "/api/runs/" + url.PathEscape(runID)
	if sub != "" {
		p += "/" + sub
	}
	return p
}
