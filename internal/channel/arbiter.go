// Package channel arbitrates the push channel of the mounted run. It owns at most one
// subscription at a time and translates its messages into signals.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

// SignalKind is the kind of signal emitted by the arbiter.
type SignalKind string

const (
	// SignalEvent is emitted for every valid pushed event.
	SignalEvent SignalKind = "event"
	// SignalDone is emitted once when the platform reports the run ended.
	SignalDone SignalKind = "done"
	// SignalFailed is emitted once when the subscription ended without a done message.
	SignalFailed SignalKind = "failed"
)

// Signal is emitted by the arbiter to the subscription sink.
type Signal struct {
	Kind   SignalKind
	RunID  string
	Event  model.Event
	Status string
	Err    error
}

// Sink receives the arbiter signals. Signals are delivered in order from a single goroutine,
// the context is canceled when the subscription is detached so sinks must not block past it.
type Sink func(ctx context.Context, s Signal)

// ErrStreamClosed is used when the push channel is closed by the platform without error.
var ErrStreamClosed = errors.New("push stream closed without done message")

// ArbiterConfig is the arbiter configuration.
type ArbiterConfig struct {
	Streamer platform.Streamer
	Logger   log.Logger
}

func (c *ArbiterConfig) defaults() error {
	if c.Streamer == nil {
		return fmt.Errorf("streamer is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "channel.Arbiter"})

	return nil
}

// Arbiter maintains a single push subscription for the mounted run. It never reconnects, once
// a subscription fails the consumer is expected to keep polling.
type Arbiter struct {
	streamer platform.Streamer
	logger   log.Logger

	mu     sync.Mutex
	active *subscription
}

type subscription struct {
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewArbiter returns a new arbiter.
func NewArbiter(cfg ArbiterConfig) (*Arbiter, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Arbiter{
		streamer: cfg.Streamer,
		logger:   cfg.Logger,
	}, nil
}

// Attach subscribes to the push channel of runID, closing any previous subscription first.
// When the subscription can't be opened no signal is emitted and the error is returned.
func (a *Arbiter) Attach(ctx context.Context, runID string, sink Sink) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.detach()

	logger := a.logger.WithValues(log.Kv{"run-id": runID})
	ctx, cancel := context.WithCancel(ctx)
	sub, err := a.streamer.Subscribe(ctx, runID)
	if err != nil {
		cancel()
		return fmt.Errorf("could not subscribe to run %q: %w", runID, err)
	}

	s := &subscription{
		runID:  runID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	a.active = s

	go func() {
		defer close(s.done)
		defer func() { _ = sub.Close() }()
		consume(ctx, logger, runID, sub, sink)
	}()

	logger.Debugf("Push subscription attached")
	return nil
}

// Detach closes the current subscription, if any, and waits until it is released. No signals
// are emitted for a detached subscription.
func (a *Arbiter) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detach()
}

// Attached returns the run ID of the current subscription.
func (a *Arbiter) Attached() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return "", false
	}
	select {
	case <-a.active.done:
		return "", false
	default:
	}
	return a.active.runID, true
}

func (a *Arbiter) detach() {
	if a.active == nil {
		return
	}
	a.active.cancel()
	<-a.active.done
	a.logger.WithValues(log.Kv{"run-id": a.active.runID}).Debugf("Push subscription detached")
	a.active = nil
}

func consume(ctx context.Context, logger log.Logger, runID string, sub platform.Subscription, sink Sink) {
	msgs := sub.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				err := sub.Err()
				if err == nil {
					err = ErrStreamClosed
				}
				logger.Warningf("Push subscription failed: %s", err)
				sink(ctx, Signal{Kind: SignalFailed, RunID: runID, Err: err})
				return
			}

			switch msg.Name {
			case platform.PushMessageRunEvent:
				ev, err := platform.DecodeEvent(msg.Data)
				if err != nil {
					logger.Debugf("Ignoring malformed pushed event: %s", err)
					continue
				}
				sink(ctx, Signal{Kind: SignalEvent, RunID: runID, Event: ev})
			case platform.PushMessageDone:
				status := platform.DecodeDone(msg.Data)
				logger.Debugf("Push subscription done with status %q", status)
				sink(ctx, Signal{Kind: SignalDone, RunID: runID, Status: status})
				return
			default:
				logger.Debugf("Ignoring unknown push message %q", msg.Name)
			}
		}
	}
}
