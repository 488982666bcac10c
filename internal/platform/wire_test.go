package platform_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform"
)

func TestParseTime(t *testing.T) {
	tests := map[string]struct {
		value  string
		expect time.Time
	}{
		"Empty should be zero.": {
			value:  "",
			expect: time.Time{},
		},
		"Garbage should be zero.": {
			value:  "yesterday",
			expect: time.Time{},
		},
		"RFC3339 with zone should be parsed.": {
			value:  "2026-01-02T10:00:00+02:00",
			expect: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
		},
		"Naive timestamps should be UTC.": {
			value:  "2026-01-02T10:00:00.123456",
			expect: time.Date(2026, 1, 2, 10, 0, 0, 123456000, time.UTC),
		},
		"Space separated naive timestamps should be UTC.": {
			value:  "2026-01-02 10:00:00",
			expect: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, test.expect.Equal(platform.ParseTime(test.value)))
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := map[string]struct {
		data     string
		expEvent model.Event
		expErr   bool
	}{
		"A valid payload should be decoded.": {
			data: `{"seq": 7, "type": "agent.delta", "message": "m", "data": {"role": "architect", "delta": "x"}, "created_at": "2026-01-02T10:00:00Z"}`,
			expEvent: model.Event{
				Seq:       7,
				Type:      "agent.delta",
				Message:   "m",
				Data:      map[string]any{"role": "architect", "delta": "x"},
				CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
			},
		},
		"Invalid JSON should fail.": {
			data:   `{"seq": `,
			expErr: true,
		},
		"A payload without seq should fail.": {
			data:   `{"type": "agent.delta"}`,
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			gotEvent, err := platform.DecodeEvent([]byte(test.data))
			if test.expErr {
				assert.ErrorIs(err, model.ErrNotValid)
				return
			}
			require.NoError(t, err)
			assert.Equal(test.expEvent, gotEvent)
		})
	}
}

func TestDecodeDone(t *testing.T) {
	assert.Equal(t, "succeeded", platform.DecodeDone([]byte(`{"status":"succeeded"}`)))
	assert.Equal(t, "done", platform.DecodeDone([]byte(`not json`)))
	assert.Equal(t, "done", platform.DecodeDone([]byte(`{}`)))
}

func TestRunRoundTrip(t *testing.T) {
	started := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	run := model.Run{
		ID:        "r1",
		Status:    model.RunStatusRunning,
		Input:     "build a landing page",
		CreatedAt: started,
		StartedAt: &started,
	}

	assert.Equal(t, run, platform.RunToJSON(run).ToModel())
}
