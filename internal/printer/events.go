package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/workspace"
)

// FollowPrinter prints the progress of a watched run as lines, only what changed since the
// previous view is printed.
type FollowPrinter struct {
	writer   io.Writer
	lastSeq  int64
	status   model.RunStatus
	source   string
	deltas   bool
	finished bool
}

// NewFollowPrinter returns a new follow printer. Streamed deltas are only printed with
// deltas enabled.
func NewFollowPrinter(w io.Writer, deltas bool) *FollowPrinter {
	return &FollowPrinter{writer: w, deltas: deltas}
}

// PrintView prints the new events of the view and the status and channel changes.
func (f *FollowPrinter) PrintView(v workspace.View) error {
	if v.Source != f.source && len(v.Events) > 0 {
		f.source = v.Source
		if _, err := fmt.Fprintf(f.writer, "-- live updates via %s\n", v.Source); err != nil {
			return err
		}
	}

	for _, e := range v.Events {
		if e.Seq <= f.lastSeq {
			continue
		}
		f.lastSeq = e.Seq
		if e.Type == model.EventTypeAgentDelta && !f.deltas {
			continue
		}
		if _, err := fmt.Fprintln(f.writer, FormatEvent(e)); err != nil {
			return err
		}
	}

	if v.Status != "" && v.Status != f.status {
		f.status = v.Status
		if _, err := fmt.Fprintf(f.writer, "-- run %s is %s (%d/%d nodes)\n", v.RunID, v.Status, v.Progress.Done, v.Progress.Total); err != nil {
			return err
		}
	}

	if v.Stopped && !f.finished {
		f.finished = true
		if v.Run != nil && v.Run.Error != "" {
			if _, err := fmt.Fprintf(f.writer, "-- error: %s\n", v.Run.Error); err != nil {
				return err
			}
		}
	}

	return nil
}

// FormatEvent returns the single line representation of an event.
func FormatEvent(e model.Event) string {
	var b strings.Builder
	if !e.CreatedAt.IsZero() {
		b.WriteString(e.CreatedAt.Local().Format("15:04:05"))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "#%-4d %s", e.Seq, e.Type)

	if n := e.DataString("node"); n != "" {
		fmt.Fprintf(&b, " [%s]", n)
	} else if r := e.DataString("role"); r != "" {
		fmt.Fprintf(&b, " [%s]", r)
	}

	text := e.Message
	switch e.Type {
	case model.EventTypeAgentOutput:
		text = e.DataString("text")
	case model.EventTypeAgentDelta:
		text = e.DataString("delta")
	}
	if text = strings.TrimSpace(text); text != "" {
		b.WriteString(" ")
		b.WriteString(shorten(text, 100))
	}

	return b.String()
}
