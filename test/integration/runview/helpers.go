package runview

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/platform/fake"
	"github.com/slok/runview/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "runview"
	}

	// go test changes the CWD to the test package directory, relative paths would break.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("RUNVIEW_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("runview binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "RUNVIEW_INTEGRATION"
		envBinary     = "RUNVIEW_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Server is an in-process fake platform where every created run is simulated.
type Server struct {
	URL      string
	Token    string
	Platform *fake.Platform
}

// NewServer starts a fake platform server that is stopped when the test ends.
func NewServer(t *testing.T, token string, step time.Duration) Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		sims sync.WaitGroup
		sim  *fake.Simulator
	)

	p, err := fake.NewPlatform(fake.PlatformConfig{
		OnRunCreated: func(runID string) {
			sims.Add(1)
			go func() {
				defer sims.Done()
				if err := sim.Play(ctx, runID); err != nil && !errors.Is(err, context.Canceled) {
					t.Logf("simulation of run %s failed: %s", runID, err)
				}
			}()
		},
	})
	require.NoError(t, err)

	sim, err = fake.NewSimulator(fake.SimulatorConfig{Platform: p, Step: step})
	require.NoError(t, err)

	h, err := fake.NewHandler(fake.HandlerConfig{Platform: p, Token: token, PingInterval: 50 * time.Millisecond})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.CloseClientConnections()
		srv.Close()
		sims.Wait()
	})

	return Server{URL: srv.URL, Token: token, Platform: p}
}

// NewDevServer starts the dev server of the runview binary, seeded with the demo run and
// stopped when the test ends. The returned server has no in-process platform.
func NewDevServer(t *testing.T, config Config, token string) Server {
	t.Helper()

	ds, err := testutils.StartDevServer(context.Background(), config.Binary, token, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(ds.Stop)

	return Server{URL: ds.Target.APIURL, Token: ds.Target.Token}
}

// Target returns the runview target of the server.
func (s Server) Target() testutils.Target {
	return testutils.Target{APIURL: s.URL, Token: s.Token, PollInterval: 200 * time.Millisecond}
}

// Run executes runview against the server.
func (s Server) Run(ctx context.Context, config Config, cmdArgs string) (stdout, stderr []byte, err error) {
	return testutils.RunRunview(ctx, config.Binary, s.Target(), cmdArgs)
}

// RunArgs executes runview against the server with pre-split arguments.
func (s Server) RunArgs(ctx context.Context, config Config, args []string) (stdout, stderr []byte, err error) {
	return testutils.RunRunviewArgs(ctx, config.Binary, s.Target(), args)
}
