// Package output derives the best available textual output of every node from the run
// timeline: finalized outputs when there are, streamed deltas otherwise.
package output

import (
	"strings"

	"github.com/slok/runview/internal/model"
)

const previewMaxRunes = 140

// DefaultAliases maps nodes that share the finalized outputs of a canonical role.
var DefaultAliases = map[string]string{
	"engineer_solo": "engineer",
}

// NodeOutput is the output of a node.
type NodeOutput struct {
	// Texts are ordered oldest first, the last one is the primary output.
	Texts []string
	// Final is false when Texts holds the in-progress streamed text.
	Final bool
}

// Pending returns true when the node has no output at all.
func (n NodeOutput) Pending() bool { return len(n.Texts) == 0 }

// Primary returns the most recent output.
func (n NodeOutput) Primary() string {
	if len(n.Texts) == 0 {
		return ""
	}
	return n.Texts[len(n.Texts)-1]
}

// History returns the outputs before the primary one.
func (n NodeOutput) History() []string {
	if len(n.Texts) < 2 {
		return nil
	}
	return n.Texts[:len(n.Texts)-1]
}

// Preview returns the first line of the primary output, shortened.
func (n NodeOutput) Preview() string {
	p := strings.TrimSpace(n.Primary())
	if p == "" {
		return ""
	}
	line, _, _ := strings.Cut(p, "\n")
	r := []rune(line)
	if len(r) > previewMaxRunes {
		r = r[:previewMaxRunes]
	}
	return string(r)
}

// Outputs is the composed output index of a timeline.
type Outputs struct {
	finals  map[string][]string
	deltas  map[string]string
	aliases map[string]string
}

// Compose indexes the finalized and streamed outputs of the events by role.
func Compose(events []model.Event, aliases map[string]string) Outputs {
	if aliases == nil {
		aliases = DefaultAliases
	}
	o := Outputs{
		finals:  map[string][]string{},
		deltas:  map[string]string{},
		aliases: aliases,
	}

	for _, e := range events {
		switch e.Type {
		case model.EventTypeAgentOutput:
			role, text := roleOf(e), e.DataString("text")
			if role == "" || text == "" {
				continue
			}
			o.finals[role] = append(o.finals[role], text)
		case model.EventTypeAgentDelta:
			role, delta := roleOf(e), e.DataString("delta")
			if role == "" || delta == "" {
				continue
			}
			o.deltas[role] += delta
		}
	}

	return o
}

func roleOf(e model.Event) string {
	if e.Data != nil {
		if _, ok := e.Data["role"]; ok {
			return e.DataString("role")
		}
	}
	return e.Message
}

// ForNode returns the output of a node.
func (o Outputs) ForNode(node string) NodeOutput {
	if texts, ok := o.finals[node]; ok {
		return NodeOutput{Texts: texts, Final: true}
	}

	role := node
	if canonical, ok := o.aliases[node]; ok {
		role = canonical
		if texts, ok := o.finals[canonical]; ok {
			return NodeOutput{Texts: texts, Final: true}
		}
	}

	if d := o.deltas[role]; d != "" {
		return NodeOutput{Texts: []string{d}}
	}

	return NodeOutput{}
}
