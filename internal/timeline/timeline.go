// Package timeline merges run events coming from the push channel and the polling
// channel into one deduplicated timeline ordered by sequence number.
//
// A Timeline is an immutable value, every change returns a new Timeline so it can be
// held by a pure reducer state.
package timeline

import (
	"cmp"
	"slices"
	"sort"

	"github.com/slok/runview/internal/model"
)

// Source is the channel the exposed events come from.
type Source string

const (
	// SourceNone means no event has been received yet.
	SourceNone Source = ""
	// SourcePush means the push subscription is authoritative.
	SourcePush Source = "push"
	// SourcePoll means the last polled event list is authoritative.
	SourcePoll Source = "poll"
)

// Label is the user facing name of the source.
func (s Source) Label() string {
	if s == SourcePush {
		return "SSE"
	}
	return "Polling"
}

// Timeline is the sequenced view over the run events.
type Timeline struct {
	push     []model.Event
	poll     []model.Event
	fallback bool
	rev      uint64
}

// WithPushed returns the timeline with the pushed events accepted. Events whose seq has
// already been pushed are ignored (they are never updates). The returned int is the
// number of accepted events.
func (t Timeline) WithPushed(events ...model.Event) (Timeline, int) {
	accepted := 0
	push := t.push
	for _, e := range events {
		var ok bool
		push, ok = insertSorted(push, e)
		if ok {
			accepted++
		}
	}

	if accepted == 0 {
		return t, 0
	}

	t.push = push
	t.rev++
	return t, accepted
}

// WithPolled returns the timeline with the poll snapshot replaced by events.
func (t Timeline) WithPolled(events []model.Event) Timeline {
	poll := Normalize(events)
	if sameSeqs(poll, t.poll) {
		return t
	}

	t.poll = poll
	t.rev++
	return t
}

// WithFallback marks the push channel as failed. From now on the poll snapshot takes
// over as soon as it has caught up with what the push channel delivered.
func (t Timeline) WithFallback() Timeline {
	if t.fallback {
		return t
	}
	t.fallback = true
	t.rev++
	return t
}

// Source returns which channel backs Events.
func (t Timeline) Source() Source {
	switch {
	case len(t.push) == 0 && len(t.poll) == 0:
		return SourceNone
	case len(t.push) == 0:
		return SourcePoll
	case t.fallback && maxSeq(t.poll) >= maxSeq(t.push):
		return SourcePoll
	default:
		return SourcePush
	}
}

// Events returns the ordered events. The returned slice is shared and must not be modified.
func (t Timeline) Events() []model.Event {
	switch t.Source() {
	case SourcePush:
		return t.push
	case SourcePoll:
		return t.poll
	}
	return nil
}

// Len returns the number of exposed events.
func (t Timeline) Len() int { return len(t.Events()) }

// PushedLen returns the number of events accepted from the push channel.
func (t Timeline) PushedLen() int { return len(t.push) }

// Fallback returns true when the push channel has failed.
func (t Timeline) Fallback() bool { return t.fallback }

// Rev is bumped on every change of the timeline inputs.
func (t Timeline) Rev() uint64 { return t.rev }

// LastSeq returns the highest exposed seq, 0 when empty.
func (t Timeline) LastSeq() int64 { return maxSeq(t.Events()) }

// Normalize returns a copy of events deduplicated by seq (first occurrence wins) and
// sorted ascending by seq.
func Normalize(events []model.Event) []model.Event {
	if len(events) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(events))
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.Seq]; ok {
			continue
		}
		seen[e.Seq] = struct{}{}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b model.Event) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

func insertSorted(events []model.Event, e model.Event) ([]model.Event, bool) {
	i := sort.Search(len(events), func(i int) bool { return events[i].Seq >= e.Seq })
	if i < len(events) && events[i].Seq == e.Seq {
		return events, false
	}

	out := make([]model.Event, 0, len(events)+1)
	out = append(out, events[:i]...)
	out = append(out, e)
	out = append(out, events[i:]...)
	return out, true
}

func sameSeqs(a, b []model.Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Seq != b[i].Seq {
			return false
		}
	}
	return true
}

func maxSeq(events []model.Event) int64 {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].Seq
}
