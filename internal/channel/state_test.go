package channel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/channel"
)

func TestState(t *testing.T) {
	tests := map[string]struct {
		apply    func(s channel.State) channel.State
		expState channel.State
	}{
		"A new channel should be connecting.": {
			apply:    func(s channel.State) channel.State { return s },
			expState: channel.State{Mode: channel.ModeConnecting},
		},
		"Receiving events should stream.": {
			apply: func(s channel.State) channel.State {
				return s.OnEvent(true).OnEvent(false).OnEvent(true)
			},
			expState: channel.State{Mode: channel.ModeStreaming, Received: 2},
		},
		"Done should finish with the status.": {
			apply: func(s channel.State) channel.State {
				return s.OnEvent(true).OnDone("succeeded")
			},
			expState: channel.State{Mode: channel.ModeFinished, DoneStatus: "succeeded", Received: 1},
		},
		"A failure should fall back to polling.": {
			apply: func(s channel.State) channel.State {
				return s.OnEvent(true).OnFailed(errors.New("boom"))
			},
			expState: channel.State{Mode: channel.ModeFallback, Received: 1, LastError: "boom"},
		},
		"A failure after done should be ignored.": {
			apply: func(s channel.State) channel.State {
				return s.OnDone("failed").OnFailed(errors.New("boom"))
			},
			expState: channel.State{Mode: channel.ModeFinished, DoneStatus: "failed"},
		},
		"Closing a fallback channel should keep the fallback.": {
			apply: func(s channel.State) channel.State {
				return s.OnFailed(nil).OnClosed()
			},
			expState: channel.State{Mode: channel.ModeFallback},
		},
		"Closing an open channel should finish it.": {
			apply: func(s channel.State) channel.State {
				return s.OnClosed()
			},
			expState: channel.State{Mode: channel.ModeFinished},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := test.apply(channel.NewState())
			assert.Equal(t, test.expState, got)
		})
	}
}
