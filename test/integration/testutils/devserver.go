package testutils

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/slok/runview/pkg/runview"
)

// DevServer is a `runview dev-server` process listening on a local port.
type DevServer struct {
	Target Target

	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// StartDevServer starts the dev server of the runview binary with the demo run seeded, it returns
// once the API answers with the seeded run.
func StartDevServer(ctx context.Context, binary, token string, step time.Duration) (*DevServer, error) {
	addr, err := freeAddr()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	args := []string{"dev-server", "--listen-addr", addr, "--step", step.String(), "--seed"}
	if token != "" {
		args = append(args, "--auth-token", token)
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = runviewEnv(Target{})
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("could not start dev server: %w", err)
	}

	s := &DevServer{
		Target: Target{APIURL: "http://" + addr, Token: token},
		cmd:    cmd,
		cancel: cancel,
	}
	if err := s.waitSeeded(ctx); err != nil {
		s.Stop()
		return nil, err
	}

	return s, nil
}

// Stop kills the dev server and waits until it exits.
func (s *DevServer) Stop() {
	s.cancel()
	_ = s.cmd.Wait()
}

func (s *DevServer) waitSeeded(ctx context.Context) error {
	client, err := runview.New(runview.Config{APIURL: s.Target.APIURL, Token: s.Target.Token, Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("could not create runview client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()

	for {
		runs, err := client.ListRuns(ctx, nil)
		if err == nil && len(runs) > 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("dev server at %s not ready: %w", s.Target.APIURL, ctx.Err())
		case <-t.C:
		}
	}
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("could not get a free port: %w", err)
	}
	defer l.Close()
	return l.Addr().String(), nil
}
