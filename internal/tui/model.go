package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/workspace"
)

// ViewMsg carries a new projection of the watched run.
type ViewMsg struct{ View workspace.View }

// DoneMsg is sent when the watcher stops, a non nil Err ends the program.
type DoneMsg struct{ Err error }

type pane int

const (
	paneNodes pane = iota
	paneFiles
	paneContent
	paneCount
)

// fileItem is a row of the files pane.
type fileItem struct {
	label string
	depth int
	dir   bool
	open  bool
	path  string
	sel   workspace.Selection
}

// Model is the watch TUI. Workspace changes are never applied locally, they are sent to
// the watcher as workspace messages and come back as a new view.
type Model struct {
	runID  string
	input  chan<- workspace.Msg
	view   workspace.View
	loaded bool

	focus      pane
	nodeCursor int
	fileCursor int
	// unfollowSent is set while a requested auto follow stop has not been applied yet.
	unfollowSent bool

	filter     textinput.Model
	filtering  bool
	content    viewport.Model
	contentKey string
	help       help.Model

	width  int
	height int
	err    error
}

// NewModel returns the TUI model of runID, user actions are sent to input.
func NewModel(runID string, input chan<- workspace.Msg) Model {
	f := textinput.New()
	f.Prompt = "filter: "
	f.Placeholder = "file name"

	m := Model{
		runID:   runID,
		input:   input,
		filter:  f,
		content: viewport.New(0, 0),
		help:    help.New(),
		width:   120,
		height:  40,
	}
	m.resize()
	return m
}

// Err returns the watcher error that ended the program, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case ViewMsg:
		m.setView(msg.View)

	case DoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, tea.Quit
		}

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.send(workspace.SetQuery{Query: m.filter.Value()})
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Focus):
		m.focus = (m.focus + 1) % paneCount

	case key.Matches(msg, keys.Filter):
		m.filtering = true
		m.filter.SetValue(v.Query)
		cmd := m.filter.Focus()
		return m, cmd

	case key.Matches(msg, keys.Meta):
		m.send(workspace.ToggleMeta{})

	case key.Matches(msg, keys.AutoFollow):
		m.send(workspace.ToggleAutoFollow{})

	case key.Matches(msg, keys.Pause):
		if v.Controls.CanPause {
			m.send(workspace.ControlRequested{Action: workspace.ControlPause})
		}

	case key.Matches(msg, keys.Resume):
		if v.Controls.CanResume {
			m.send(workspace.ControlRequested{Action: workspace.ControlResume})
		}

	case key.Matches(msg, keys.Cancel):
		if v.Controls.CanCancel {
			m.send(workspace.ControlRequested{Action: workspace.ControlCancel})
		}

	case key.Matches(msg, keys.Rerun):
		if n, ok := m.selectedNode(); ok && n.CanRerun {
			m.send(workspace.ControlRequested{Action: workspace.ControlRerun, Node: n.ID})
		}

	case key.Matches(msg, keys.NextTab):
		m.nextTab()

	case key.Matches(msg, keys.CloseTab):
		for _, t := range v.Tabs {
			if t.Active {
				m.send(workspace.CloseTab{Tab: t.Selection})
				break
			}
		}

	case key.Matches(msg, keys.Up):
		m.move(-1)

	case key.Matches(msg, keys.Down):
		m.move(1)

	case key.Matches(msg, keys.Enter):
		m.enter()

	default:
		if m.focus == paneContent {
			var cmd tea.Cmd
			m.content, cmd = m.content.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) move(delta int) {
	switch m.focus {
	case paneNodes:
		// Manual navigation stops following the newest node.
		if m.view.AutoFollow && !m.unfollowSent {
			m.send(workspace.ToggleAutoFollow{})
			m.unfollowSent = true
		}
		m.nodeCursor = clamp(m.nodeCursor+delta, 0, len(m.view.Nodes)-1)
	case paneFiles:
		m.fileCursor = clamp(m.fileCursor+delta, 0, len(fileItems(m.view))-1)
	case paneContent:
		if delta < 0 {
			m.content.LineUp(-delta)
		} else {
			m.content.LineDown(delta)
		}
	}
}

func (m *Model) enter() {
	switch m.focus {
	case paneNodes:
		if n, ok := m.selectedNode(); ok {
			m.send(workspace.OpenNode{Node: n.ID})
		}
	case paneFiles:
		items := fileItems(m.view)
		if m.fileCursor >= len(items) {
			return
		}
		it := items[m.fileCursor]
		switch {
		case it.dir:
			m.send(workspace.ToggleDir{Path: it.path})
		case it.sel.Kind == workspace.SelectionArtifact:
			m.send(workspace.SelectArtifact{ID: it.sel.ID})
		case it.sel.Kind == workspace.SelectionLive:
			m.send(workspace.SelectLiveFile{Path: it.sel.ID})
		}
	}
}

func (m *Model) nextTab() {
	tabs := m.view.Tabs
	if len(tabs) < 2 {
		return
	}
	next := tabs[0]
	for i, t := range tabs {
		if t.Active {
			next = tabs[(i+1)%len(tabs)]
			break
		}
	}
	m.send(selectMsg(next.Selection))
}

func (m Model) selectedNode() (workspace.NodeView, bool) {
	if m.nodeCursor < 0 || m.nodeCursor >= len(m.view.Nodes) {
		return workspace.NodeView{}, false
	}
	return m.view.Nodes[m.nodeCursor], true
}

// send queues a workspace message. The watcher drains the queue fast, when it's full the
// action is dropped so the UI never blocks.
func (m *Model) send(msg workspace.Msg) {
	select {
	case m.input <- msg:
	default:
	}
}

func (m *Model) setView(v workspace.View) {
	m.view = v
	m.loaded = true
	if !v.AutoFollow {
		m.unfollowSent = false
	}

	if v.AutoFollow && !m.unfollowSent && len(v.Nodes) > 0 {
		m.nodeCursor = len(v.Nodes) - 1
	}
	m.nodeCursor = clamp(m.nodeCursor, 0, len(v.Nodes)-1)
	m.fileCursor = clamp(m.fileCursor, 0, len(fileItems(v))-1)

	vw := v.Viewer
	contentKey := string(vw.Mode) + "\x00" + vw.Title
	if contentKey != m.contentKey {
		m.content.SetContent(vw.Content)
		m.content.GotoTop()
		m.contentKey = contentKey
		return
	}
	m.content.SetContent(vw.Content)
}

func (m *Model) resize() {
	_, rightW := m.paneWidths()
	_, contentH := m.rightHeights()
	m.content.Width = max(rightW-4, 10)
	// Border, title and notice lines.
	m.content.Height = max(contentH-4, 3)
	m.help.Width = m.width
}

func (m Model) bodyHeight() int {
	return max(m.height-4, 10)
}

func (m Model) paneWidths() (left, right int) {
	left = m.width * 2 / 5
	return left, m.width - left
}

func (m Model) rightHeights() (files, content int) {
	body := m.bodyHeight()
	files = max(body/3, 6)
	return files, body - files
}

// fileItems returns the files pane rows: the artifact tree (and the meta artifacts when
// shown) or the live files while nothing has been finalized.
func fileItems(v workspace.View) []fileItem {
	var items []fileItem
	for _, r := range v.Tree {
		if r.Kind == catalog.RowKindDir {
			items = append(items, fileItem{label: r.Name + "/", depth: r.Depth, dir: true, open: r.Open, path: r.Path})
			continue
		}
		items = append(items, fileItem{
			label: r.Name,
			depth: r.Depth,
			sel:   workspace.Selection{Kind: workspace.SelectionArtifact, ID: r.Artifact.ID},
		})
	}
	if v.ShowMeta {
		for _, a := range v.Meta {
			items = append(items, fileItem{
				label: a.Name,
				sel:   workspace.Selection{Kind: workspace.SelectionArtifact, ID: a.ID},
			})
		}
	}
	if len(v.Code) > 0 || len(v.Meta) > 0 {
		return items
	}

	for _, f := range v.LiveFiles {
		items = append(items, fileItem{
			label: f.Path,
			sel:   workspace.Selection{Kind: workspace.SelectionLive, ID: f.Path},
		})
	}
	return items
}

func selectMsg(s workspace.Selection) workspace.Msg {
	if s.Kind == workspace.SelectionLive {
		return workspace.SelectLiveFile{Path: s.ID}
	}
	return workspace.SelectArtifact{ID: s.ID}
}

func clamp(v, low, high int) int {
	if high < low {
		return low
	}
	return min(max(v, low), high)
}
