package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/model"
)

func TestRunStatus(t *testing.T) {
	tests := map[string]struct {
		status      model.RunStatus
		expActive   bool
		expTerminal bool
	}{
		"queued":        {status: model.RunStatusQueued, expActive: true},
		"running":       {status: model.RunStatusRunning, expActive: true},
		"paused":        {status: model.RunStatusPaused, expActive: true},
		"succeeded":     {status: model.RunStatusSucceeded, expTerminal: true},
		"failed":        {status: model.RunStatusFailed, expTerminal: true},
		"canceled":      {status: model.RunStatusCanceled, expTerminal: true},
		"unknown value": {status: model.RunStatus("archived")},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expActive, test.status.Active())
			assert.Equal(t, test.expTerminal, test.status.Terminal())
		})
	}
}

func TestEventDataString(t *testing.T) {
	tests := map[string]struct {
		event model.Event
		key   string
		exp   string
	}{
		"Missing data should be empty.": {
			event: model.Event{},
			key:   "node",
			exp:   "",
		},
		"String values should be returned as they are.": {
			event: model.Event{Data: map[string]any{"node": "architect"}},
			key:   "node",
			exp:   "architect",
		},
		"Numbers should be rendered.": {
			event: model.Event{Data: map[string]any{"n": float64(3)}},
			key:   "n",
			exp:   "3",
		},
		"Structures should be JSON encoded.": {
			event: model.Event{Data: map[string]any{"x": map[string]any{"a": "b"}}},
			key:   "x",
			exp:   `{"a":"b"}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.event.DataString(test.key))
		})
	}
}

func TestArtifactDetailBody(t *testing.T) {
	tests := map[string]struct {
		detail model.ArtifactDetail
		exp    string
	}{
		"Text content should win.": {
			detail: model.ArtifactDetail{ContentText: "<h1>x</h1>", ContentJSON: map[string]any{"a": "b"}},
			exp:    "<h1>x</h1>",
		},
		"JSON content should be indented.": {
			detail: model.ArtifactDetail{ContentJSON: map[string]any{"a": "b"}},
			exp:    "{\n  \"a\": \"b\"\n}",
		},
		"No content should be empty.": {
			detail: model.ArtifactDetail{},
			exp:    "",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.detail.Body())
		})
	}
}
