package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/platform"
)

func TestParseSSE(t *testing.T) {
	tests := map[string]struct {
		stream  string
		stopAt  int
		expMsgs []platform.PushMessage
	}{
		"Named events should be dispatched.": {
			stream: "event: run_event\ndata: {\"seq\":1}\n\nevent: done\ndata: {\"status\":\"succeeded\"}\n\n",
			expMsgs: []platform.PushMessage{
				{Name: "run_event", Data: []byte(`{"seq":1}`)},
				{Name: "done", Data: []byte(`{"status":"succeeded"}`)},
			},
		},
		"Comments and unknown fields should be ignored.": {
			stream: ": ping\n\nid: 3\nevent: run_event\nretry: 10\ndata: x\n\n: ping\n\n",
			expMsgs: []platform.PushMessage{
				{Name: "run_event", Data: []byte("x")},
			},
		},
		"Multi line data should be joined with new lines.": {
			stream: "data: a\ndata: b\n\n",
			expMsgs: []platform.PushMessage{
				{Name: "message", Data: []byte("a\nb")},
			},
		},
		"CRLF line endings should be supported.": {
			stream: "event: done\r\ndata: {}\r\n\r\n",
			expMsgs: []platform.PushMessage{
				{Name: "done", Data: []byte("{}")},
			},
		},
		"A message without final blank line should not be dispatched.": {
			stream:  "event: run_event\ndata: x\n",
			expMsgs: nil,
		},
		"Stopping the dispatch should end the parsing.": {
			stream: "data: a\n\ndata: b\n\n",
			stopAt: 1,
			expMsgs: []platform.PushMessage{
				{Name: "message", Data: []byte("a")},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var got []platform.PushMessage
			err := parseSSE(strings.NewReader(test.stream), func(m platform.PushMessage) bool {
				got = append(got, m)
				return test.stopAt == 0 || len(got) < test.stopAt
			})
			assert.NoError(t, err)
			assert.Equal(t, test.expMsgs, got)
		})
	}
}
