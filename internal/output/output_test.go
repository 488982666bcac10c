package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/output"
)

func outEv(seq int64, role, text string) model.Event {
	return model.Event{Seq: seq, Type: model.EventTypeAgentOutput, Message: role, Data: map[string]any{"role": role, "text": text}}
}

func deltaEv(seq int64, role, delta string) model.Event {
	return model.Event{Seq: seq, Type: model.EventTypeAgentDelta, Message: role, Data: map[string]any{"role": role, "delta": delta}}
}

func TestForNode(t *testing.T) {
	tests := map[string]struct {
		events     []model.Event
		node       string
		expTexts   []string
		expFinal   bool
		expHistory []string
	}{
		"No events should be pending.": {
			node: "architect",
		},
		"Finalized outputs should keep the history.": {
			events:     []model.Event{outEv(1, "architect", "v1"), outEv(2, "architect", "v2")},
			node:       "architect",
			expTexts:   []string{"v1", "v2"},
			expFinal:   true,
			expHistory: []string{"v1"},
		},
		"Deltas should be concatenated in timeline order when there is no final output.": {
			events:   []model.Event{deltaEv(1, "engineer", "hel"), deltaEv(2, "architect", "zz"), deltaEv(3, "engineer", "lo")},
			node:     "engineer",
			expTexts: []string{"hello"},
		},
		"Finalized outputs should win over deltas.": {
			events:   []model.Event{deltaEv(1, "engineer", "draft"), outEv(2, "engineer", "done")},
			node:     "engineer",
			expTexts: []string{"done"},
			expFinal: true,
		},
		"The alias node should share the canonical outputs.": {
			events:   []model.Event{outEv(1, "engineer", "code")},
			node:     "engineer_solo",
			expTexts: []string{"code"},
			expFinal: true,
		},
		"The alias node should share the canonical deltas.": {
			events:   []model.Event{deltaEv(1, "engineer", "co"), deltaEv(2, "engineer", "de")},
			node:     "engineer_solo",
			expTexts: []string{"code"},
		},
		"The role should fall back to the message.": {
			events: []model.Event{
				{Seq: 1, Type: model.EventTypeAgentOutput, Message: "team_lead", Data: map[string]any{"text": "plan"}},
			},
			node:     "team_lead",
			expTexts: []string{"plan"},
			expFinal: true,
		},
		"Empty texts should be ignored.": {
			events:   []model.Event{outEv(1, "architect", ""), deltaEv(2, "architect", "")},
			node:     "architect",
			expTexts: nil,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			o := output.Compose(test.events, nil).ForNode(test.node)

			assert.Equal(t, test.expTexts, o.Texts)
			assert.Equal(t, test.expFinal, o.Final)
			assert.Equal(t, test.expHistory, o.History())
			assert.Equal(t, len(test.expTexts) == 0, o.Pending())
		})
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 200)

	tests := map[string]struct {
		out output.NodeOutput
		exp string
	}{
		"Pending output has no preview.": {
			out: output.NodeOutput{},
			exp: "",
		},
		"The first line of the trimmed primary should be used.": {
			out: output.NodeOutput{Texts: []string{"old", "\n  first line\nsecond"}},
			exp: "first line",
		},
		"Long lines should be cut by runes.": {
			out: output.NodeOutput{Texts: []string{long}},
			exp: strings.Repeat("é", 140),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.out.Preview())
		})
	}
}
