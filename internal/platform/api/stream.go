package api

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/slok/runview/internal/platform"
)

const maxSSELine = 4 * 1024 * 1024

// Subscribe opens the run server-sent events stream.
func (c *Client) Subscribe(ctx context.Context, runID string) (platform.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(ctx, http.MethodGet, runPath(runID, "stream"), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("could not open stream: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("could not open stream: %w", err)
	}

	s := &sseSubscription{
		msgs:   make(chan platform.PushMessage),
		done:   make(chan struct{}),
		cancel: cancel,
		body:   resp.Body,
	}
	go s.read(ctx)

	return s, nil
}

type sseSubscription struct {
	msgs   chan platform.PushMessage
	done   chan struct{}
	cancel context.CancelFunc
	body   io.ReadCloser

	mu  sync.Mutex
	err error
}

func (s *sseSubscription) Messages() <-chan platform.PushMessage { return s.msgs }

func (s *sseSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *sseSubscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *sseSubscription) read(ctx context.Context) {
	defer close(s.done)
	defer close(s.msgs)
	defer s.body.Close()

	err := parseSSE(s.body, func(msg platform.PushMessage) bool {
		select {
		case s.msgs <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	})

	// Locally closed subscriptions don't report errors.
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// parseSSE reads a text/event-stream and dispatches every message until the stream ends or
// dispatch returns false. A clean end of stream returns nil.
func parseSSE(r io.Reader, dispatch func(platform.PushMessage) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var (
		event string
		data  bytes.Buffer
		has   bool
	)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")

		// Blank line dispatches the message.
		if line == "" {
			if has {
				name := event
				if name == "" {
					name = "message"
				}
				msg := platform.PushMessage{Name: name, Data: bytes.Clone(bytes.TrimSuffix(data.Bytes(), []byte("\n")))}
				if !dispatch(msg) {
					return nil
				}
			}
			event, has = "", false
			data.Reset()
			continue
		}

		// Comments, used for keep alive pings.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			has = true
		}
	}

	return sc.Err()
}
