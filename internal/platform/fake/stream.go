package fake

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/runview/internal/platform"
)

// ErrStreamBroken is the transport error used by broken fake subscriptions.
var ErrStreamBroken = errors.New("fake stream broken")

// ErrSlowConsumer ends subscriptions that don't read their messages.
var ErrSlowConsumer = errors.New("push subscription buffer full")

const subscriptionBuffer = 1024

type subscription struct {
	id     string
	msgs   chan platform.PushMessage
	closed chan struct{}

	mu    sync.Mutex
	ended bool
	err   error
}

func newSubscription() *subscription {
	return &subscription{
		id:     ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		msgs:   make(chan platform.PushMessage, subscriptionBuffer),
		closed: make(chan struct{}),
	}
}

func (s *subscription) Messages() <-chan platform.PushMessage { return s.msgs }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.end(nil)
	return nil
}

func (s *subscription) send(msg platform.PushMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	select {
	case s.msgs <- msg:
	default:
		s.endLocked(ErrSlowConsumer)
	}
}

func (s *subscription) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(err)
}

func (s *subscription) endLocked(err error) {
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	close(s.msgs)
	close(s.closed)
}

func (s *subscription) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

func openSubs(subs []*subscription) []*subscription {
	open := subs[:0]
	for _, s := range subs {
		if s.isOpen() {
			open = append(open, s)
		}
	}
	return open
}

// Subscribe opens a push subscription. Like the real platform, the whole run timeline is replayed
// first and finished runs get the done message right away.
func (p *Platform) Subscribe(ctx context.Context, runID string) (platform.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failure("Subscribe"); err != nil {
		return nil, err
	}
	rd, err := p.getRun(runID)
	if err != nil {
		return nil, err
	}
	rd.subscribes++

	s := newSubscription()
	for _, e := range rd.events {
		data, err := json.Marshal(platform.EventToJSON(e))
		if err != nil {
			continue
		}
		s.send(platform.PushMessage{Name: platform.PushMessageRunEvent, Data: data})
	}

	if rd.run.Status.Terminal() {
		data, _ := json.Marshal(platform.DoneJSON{Status: string(rd.run.Status)})
		s.send(platform.PushMessage{Name: platform.PushMessageDone, Data: data})
		s.end(nil)
		return s, nil
	}

	rd.subs = append(rd.subs, s)
	go func() {
		select {
		case <-ctx.Done():
			s.end(nil)
		case <-s.closed:
		}
	}()

	p.logger.Debugf("Opened push subscription %s for run %s", s.id, runID)
	return s, nil
}
