package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/slok/runview/internal/checkpoint"
	"github.com/slok/runview/internal/model"
)

var (
	green  = lipgloss.Color("#50fa7b")
	yellow = lipgloss.Color("#f1fa8c")
	red    = lipgloss.Color("#ff5555")
	blue   = lipgloss.Color("#8be9fd")
	muted  = lipgloss.Color("#6272a4")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(muted)
	errStyle    = lipgloss.NewStyle().Foreground(red)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(blue)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(blue)

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(muted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
)

func statusStyle(s model.RunStatus) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch s {
	case model.RunStatusSucceeded:
		return st.Foreground(green)
	case model.RunStatusFailed, model.RunStatusCanceled:
		return st.Foreground(red)
	case model.RunStatusPaused:
		return st.Foreground(yellow)
	case model.RunStatusRunning:
		return st.Foreground(blue)
	}
	return st.Foreground(muted)
}

func nodeMark(s checkpoint.NodeState) string {
	switch s {
	case checkpoint.NodeStateCompleted:
		return lipgloss.NewStyle().Foreground(green).Render("✔")
	case checkpoint.NodeStateRunning:
		return lipgloss.NewStyle().Foreground(blue).Render("●")
	}
	return dimStyle.Render("○")
}
