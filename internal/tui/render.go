package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/slok/runview/internal/workspace"
)

// Max output lines shown under the open node.
const maxNodeOutputLines = 12

func (m Model) View() string {
	if !m.loaded {
		return headerStyle.Render(fmt.Sprintf("Loading run %s...", m.runID))
	}

	leftW, rightW := m.paneWidths()
	filesH, contentH := m.rightHeights()
	body := m.bodyHeight()

	left := m.pane(paneNodes, leftW, body).Render(m.renderNodes(leftW - 4))
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(paneFiles, rightW, filesH).Render(m.renderFiles(filesH-2)),
		m.pane(paneContent, rightW, contentH).Render(m.renderContent()),
	)

	footer := m.help.View(keys)
	if m.filtering {
		footer = m.filter.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		footer,
	)
}

func (m Model) pane(p pane, width, height int) lipgloss.Style {
	st := paneStyle
	if m.focus == p {
		st = focusedPaneStyle
	}
	// Sizes exclude the border.
	return st.Width(max(width-2, 1)).Height(max(height-2, 1))
}

func (m Model) renderHeader() string {
	v := m.view

	status := string(v.Status)
	if status == "" {
		status = "loading"
	}
	parts := []string{
		"runview " + v.RunID,
		statusStyle(v.Status).Render(strings.ToUpper(status)),
		fmt.Sprintf("%d/%d nodes (%d%%)", v.Progress.Done, v.Progress.Total, v.Progress.Percent),
	}
	if v.Source != "" {
		parts = append(parts, "live updates via "+v.Source)
	}
	if v.AutoFollow {
		parts = append(parts, "following")
	}
	line := headerStyle.Render(strings.Join(parts, dimStyle.Render(" · ")))

	var notes []string
	switch {
	case v.Controls.Pending != workspace.ControlNone:
		notes = append(notes, dimStyle.Render(string(v.Controls.Pending)+" requested..."))
	case v.Controls.Err != "":
		notes = append(notes, errStyle.Render(v.Controls.Err))
	}
	for res, err := range v.FetchErrs {
		notes = append(notes, errStyle.Render(res+": "+err))
	}
	if v.Run != nil && v.Run.Error != "" {
		notes = append(notes, errStyle.Render(v.Run.Error))
	}

	return line + "\n " + strings.Join(notes, "  ")
}

func (m Model) renderNodes(width int) string {
	v := m.view
	if len(v.Nodes) == 0 {
		return dimStyle.Render("Waiting for the first node...")
	}

	var b strings.Builder
	for i, n := range v.Nodes {
		title := fmt.Sprintf("%d. %s", n.Index, n.Title)
		if i == m.nodeCursor && m.focus == paneNodes {
			title = cursorStyle.Render(title)
		}
		b.WriteString(nodeMark(n.State) + " " + title)
		if n.Streaming {
			b.WriteString(dimStyle.Render(" streaming"))
		}
		b.WriteString("\n")

		if !n.Open {
			if n.Preview != "" {
				b.WriteString("   " + dimStyle.Render(truncate(n.Preview, width-3)) + "\n")
			}
			continue
		}

		out := n.Output
		if out == "" {
			out = "No output yet."
		}
		wrapped := lipgloss.NewStyle().Width(max(width-3, 10)).Render(out)
		lines := strings.Split(wrapped, "\n")
		if len(lines) > maxNodeOutputLines {
			lines = append([]string{"..."}, lines[len(lines)-maxNodeOutputLines:]...)
		}
		for _, l := range lines {
			b.WriteString("   " + l + "\n")
		}
	}

	return b.String()
}

func (m Model) renderFiles(height int) string {
	v := m.view

	var b strings.Builder
	if len(v.Tabs) > 0 {
		tabs := make([]string, 0, len(v.Tabs))
		for _, t := range v.Tabs {
			if t.Active {
				tabs = append(tabs, activeTabStyle.Render(t.Label))
				continue
			}
			tabs = append(tabs, tabStyle.Render(t.Label))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n")
	}
	if v.Query != "" {
		b.WriteString(dimStyle.Render("filter: "+v.Query) + "\n")
	}

	items := fileItems(v)
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("Waiting for files..."))
		return b.String()
	}
	if len(v.Code) == 0 && len(v.Meta) == 0 {
		b.WriteString(dimStyle.Render("live files") + "\n")
	}

	// Keep the cursor visible.
	start := 0
	if visible := max(height-3, 1); m.fileCursor >= visible {
		start = m.fileCursor - visible + 1
	}
	for i := start; i < len(items); i++ {
		it := items[i]
		label := strings.Repeat("  ", it.depth) + it.label
		if it.dir && !it.open {
			label += dimStyle.Render(" +")
		}
		if i == m.fileCursor && m.focus == paneFiles {
			label = cursorStyle.Render(label)
		}
		b.WriteString(label + "\n")
	}

	return b.String()
}

func (m Model) renderContent() string {
	vw := m.view.Viewer

	switch {
	case vw.Mode == workspace.ViewerWaiting:
		return dimStyle.Render("Waiting for files...")
	case vw.Loading:
		return vw.Title + "\n" + dimStyle.Render("Loading...")
	case vw.Err != "":
		return vw.Title + "\n" + errStyle.Render(vw.Err)
	}

	title := vw.Title
	if vw.MimeType != "" {
		title += dimStyle.Render(" (" + vw.MimeType + ")")
	}
	if vw.Mode == workspace.ViewerLive {
		title += dimStyle.Render(" live")
	}
	notice := ""
	if vw.Truncated {
		notice = dimStyle.Render(fmt.Sprintf("Showing the first %d of %d lines.", workspace.MaxViewerLines, vw.TotalLines))
	}

	return title + "\n" + notice + "\n" + m.content.View()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
