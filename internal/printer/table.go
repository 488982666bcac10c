package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/workspace"
)

// TablePrinter prints run information as tables.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

func (t *TablePrinter) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.writer)
	tw.SetStyle(table.StyleLight)
	return tw
}

// PrintRuns prints runs in a table format.
func (t *TablePrinter) PrintRuns(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := t.newTable()
	tw.AppendHeader(table.Row{"ID", "Status", "Mode", "Input", "Created", "Elapsed"})
	for _, r := range runs {
		tw.AppendRow(table.Row{r.ID, r.Status, r.Mode, shorten(r.Input, 48), TimeAgo(r.CreatedAt), Elapsed(r.StartedAt, r.FinishedAt)})
	}
	tw.Render()

	return nil
}

// PrintRun prints the run details.
func (t *TablePrinter) PrintRun(r model.Run) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", r.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", r.Status)
	fmt.Fprintf(t.writer, "Mode:       %s\n", r.Mode)
	if len(r.Roles) > 0 {
		fmt.Fprintf(t.writer, "Roles:      %s\n", strings.Join(r.Roles, ", "))
	}
	if r.ProjectID != "" {
		fmt.Fprintf(t.writer, "Project:    %s\n", r.ProjectID)
	}
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(r.CreatedAt))
	if r.StartedAt != nil {
		fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(*r.StartedAt))
	}
	if r.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(*r.FinishedAt))
	}
	fmt.Fprintf(t.writer, "Elapsed:    %s\n", Elapsed(r.StartedAt, r.FinishedAt))
	fmt.Fprintf(t.writer, "Input:      %s\n", shorten(r.Input, 120))
	if r.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", r.Error)
	}

	return nil
}

// PrintStatus prints the run details, the progress and the nodes.
func (t *TablePrinter) PrintStatus(v workspace.View) error {
	if v.Run != nil {
		if err := t.PrintRun(*v.Run); err != nil {
			return err
		}
	}
	fmt.Fprintf(t.writer, "Progress:   %d/%d nodes (%d%%)\n", v.Progress.Done, v.Progress.Total, v.Progress.Percent)
	fmt.Fprintf(t.writer, "Events:     %d\n", len(v.Events))
	fmt.Fprintf(t.writer, "Artifacts:  %d files, %d meta\n", len(v.Code), len(v.Meta))
	if v.Run != nil && v.Run.OutputText != "" {
		fmt.Fprintf(t.writer, "\n%s\n", v.Run.OutputText)
	}
	fmt.Fprintln(t.writer)

	return t.PrintNodes(v)
}

// PrintNodes prints the executed nodes.
func (t *TablePrinter) PrintNodes(v workspace.View) error {
	if len(v.Nodes) == 0 {
		fmt.Fprintln(t.writer, "No nodes executed yet")
		return nil
	}

	tw := t.newTable()
	tw.AppendHeader(table.Row{"#", "Node", "Title", "State", "Checkpoint", "Output"})
	for _, n := range v.Nodes {
		preview := n.Preview
		if n.Streaming {
			preview += " …"
		}
		tw.AppendRow(table.Row{n.Index, n.ID, n.Title, n.State, n.Checkpoint.Seq, shorten(preview, 60)})
	}
	tw.Render()

	return nil
}

// PrintArtifacts prints the artifact tree, the meta artifacts when enabled, or the live
// files while nothing has been finalized.
func (t *TablePrinter) PrintArtifacts(v workspace.View) error {
	if len(v.Code) == 0 && len(v.Meta) == 0 {
		if len(v.LiveFiles) == 0 {
			fmt.Fprintln(t.writer, "Waiting for artifacts...")
			return nil
		}

		tw := t.newTable()
		tw.SetTitle("Live files")
		tw.AppendHeader(table.Row{"Path", "Lines"})
		for _, f := range v.LiveFiles {
			tw.AppendRow(table.Row{f.Path, strings.Count(f.Content, "\n") + 1})
		}
		tw.Render()
		return nil
	}

	tw := t.newTable()
	tw.AppendHeader(table.Row{"ID", "File", "Type", "Created"})
	for _, r := range v.Tree {
		name := strings.Repeat("  ", r.Depth) + r.Name
		if r.Kind == catalog.RowKindDir {
			tw.AppendRow(table.Row{"", name + "/", "", ""})
			continue
		}
		tw.AppendRow(table.Row{r.Artifact.ID, name, r.Artifact.MimeType, TimeAgo(r.Artifact.CreatedAt)})
	}
	if v.ShowMeta {
		for _, a := range v.Meta {
			tw.AppendRow(table.Row{a.ID, a.Name, a.MimeType, TimeAgo(a.CreatedAt)})
		}
	}
	tw.Render()

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
