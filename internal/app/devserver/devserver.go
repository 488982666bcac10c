package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform/fake"
)

// DemoInput is the input of the run created when seeding.
const DemoInput = "Build a landing page for a coffee shop"

// ServiceConfig is the configuration for the dev server service.
type ServiceConfig struct {
	// Token is the accepted bearer token or session cookie, empty disables auth.
	Token string
	// Step is the pace of the simulated runs.
	Step   time.Duration
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Step <= 0 {
		c.Step = 400 * time.Millisecond
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.devserver.Service"})
	return nil
}

// Service serves a fake platform over HTTP, every created run is played by the simulator.
type Service struct {
	token  string
	step   time.Duration
	logger log.Logger
}

// NewService creates a new dev server service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		token:  cfg.Token,
		step:   cfg.Step,
		logger: cfg.Logger,
	}, nil
}

// Request represents the dev server run parameters.
type Request struct {
	ListenAddr string
	// Seed creates a demo project with a simulated run on start.
	Seed bool
	// OnListen is called with the listening address once the server accepts connections.
	OnListen func(addr string)
}

// Run serves until ctx is done, then waits for the simulations to stop.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.ListenAddr == "" {
		return fmt.Errorf("listen address is required: %w", model.ErrNotValid)
	}

	var (
		sims sync.WaitGroup
		sim  *fake.Simulator
	)
	defer sims.Wait()

	platform, err := fake.NewPlatform(fake.PlatformConfig{
		OnRunCreated: func(runID string) {
			sims.Add(1)
			go func() {
				defer sims.Done()
				if err := sim.Play(ctx, runID); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Warningf("Simulation of run %s failed: %s", runID, err)
				}
			}()
		},
		Logger: s.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create fake platform: %w", err)
	}

	sim, err = fake.NewSimulator(fake.SimulatorConfig{
		Platform: platform,
		Step:     s.step,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create simulator: %w", err)
	}

	handler, err := fake.NewHandler(fake.HandlerConfig{
		Platform: platform,
		Token:    s.token,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create handler: %w", err)
	}

	ln, err := net.Listen("tcp", req.ListenAddr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", req.ListenAddr, err)
	}
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Open streams end with ctx, otherwise shutdown would wait for them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	if req.Seed {
		if err := seed(ctx, platform); err != nil {
			_ = ln.Close()
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Fake platform listening on %s", ln.Addr())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if req.OnListen != nil {
		req.OnListen(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("dev server error: %w", err)
	case <-ctx.Done():
		s.logger.Infof("Shutting down fake platform")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown error: %w", err)
		}
		return nil
	}
}

func seed(ctx context.Context, platform *fake.Platform) error {
	project := platform.AddProject(model.Project{Name: "demo"})
	_, err := platform.CreateRun(ctx, model.CreateRunRequest{
		Input:     DemoInput,
		Mode:      "engineer",
		ProjectID: project.ID,
	})
	if err != nil {
		return fmt.Errorf("could not seed demo run: %w", err)
	}
	return nil
}
