package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris-regnier/dailyctl/internal/daily"
)

type boardScreen int

const (
	screenTasks boardScreen = iota
	screenRequest
)

// BoardConfig holds what the board needs besides the plan.
type BoardConfig struct {
	MaxWidth int
	Theme    Theme
	// Complete marks every milestone in a task done.
	Complete func(g daily.Group) error
}

// taskItem implements list.Item for one planned group.
type taskItem struct {
	batch int
	group daily.Group
	done  bool
}

func (t taskItem) Title() string {
	marker := "○"
	if t.done {
		marker = "●"
	}
	return fmt.Sprintf("%s #%d  %s / %s  %s", marker, t.batch+1, t.group.GameName, t.group.AccountName, t.group.EventToken)
}

func (t taskItem) Description() string {
	kinds := make([]string, len(t.group.Requests))
	for i, r := range t.group.Requests {
		kinds[i] = r.RequestType
	}
	desc := fmt.Sprintf("%s  time %d", strings.Join(kinds, "+"), t.group.TimeSpent)
	if t.group.Offset > 0 {
		desc += "  +" + t.group.Offset.String()
	}
	return desc
}

func (t taskItem) FilterValue() string {
	return t.group.AccountName + " " + t.group.EventToken
}

type completedMsg struct {
	index int
	err   error
}

type boardModel struct {
	cfg      BoardConfig
	plan     daily.Plan
	screen   boardScreen
	list     list.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func planItems(plan daily.Plan) []list.Item {
	var items []list.Item
	for _, b := range plan.Batches {
		for _, g := range b.Groups {
			items = append(items, taskItem{batch: b.Index, group: g})
		}
	}
	return items
}

func newBoardModel(plan daily.Plan, cfg BoardConfig) boardModel {
	l := cfg.Theme.NewList(planItems(plan), 0, 0)
	l.Title = fmt.Sprintf("Due %s", plan.Date)
	l.SetShowStatusBar(true)
	return boardModel{cfg: cfg, plan: plan, list: l}
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) contentWidth() int {
	if m.cfg.MaxWidth > 0 && m.width > m.cfg.MaxWidth {
		return m.cfg.MaxWidth
	}
	return m.width
}

func (m boardModel) selected() (taskItem, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	return it, ok
}

// requestView renders every request of a task as fenced blocks.
func (m boardModel) requestView(t taskItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s / %s\n\n", t.group.AccountName, t.group.EventToken)
	for _, r := range t.group.Requests {
		fmt.Fprintf(&b, "## %s (time %d)\n\n", r.RequestType, r.TimeSpent)
		b.WriteString(fence(r.Content))
		b.WriteString("\n\n")
	}
	return RenderMarkdownWithStyle(b.String(), m.contentWidth(), m.cfg.Theme.MarkdownStyle)
}

func (m boardModel) complete(index int, t taskItem) tea.Cmd {
	return func() tea.Msg {
		if m.cfg.Complete == nil {
			return completedMsg{index: index}
		}
		return completedMsg{index: index, err: m.cfg.Complete(t.group)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.contentWidth(), msg.Height-1)
		if !m.ready {
			m.viewport = viewport.New(m.contentWidth(), msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = m.contentWidth()
			m.viewport.Height = msg.Height - 1
		}
		return m, nil

	case completedMsg:
		if msg.err != nil {
			return m, m.list.NewStatusMessage(m.cfg.Theme.DangerStyle().Render("Error: " + msg.err.Error()))
		}
		if it, ok := m.list.Items()[msg.index].(taskItem); ok {
			it.done = true
			m.list.SetItem(msg.index, it)
		}
		return m, m.list.NewStatusMessage("Marked completed")

	case tea.KeyMsg:
		if m.screen == screenRequest {
			switch msg.String() {
			case "q", "esc", "backspace":
				m.screen = screenTasks
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if it, ok := m.selected(); ok {
				m.viewport.SetContent(m.requestView(it))
				m.viewport.GotoTop()
				m.screen = screenRequest
			}
			return m, nil
		case "c":
			if it, ok := m.selected(); ok && !it.done {
				return m, m.complete(m.list.Index(), it)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m boardModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	cw := m.contentWidth()
	var body, help string
	switch m.screen {
	case screenRequest:
		body = m.viewport.View()
		help = "↑/↓ scroll • esc back • q back"
	default:
		body = m.list.View()
		help = "enter view • c complete • / filter • q quit"
	}
	footer := m.cfg.Theme.HelpStyle().Width(cw).Render(help)
	return m.cfg.Theme.PaintScreen(body+"\n"+footer, m.width, m.height, cw)
}

// RunBoard shows the day's plan as an interactive task list.
func RunBoard(plan daily.Plan, cfg BoardConfig) error {
	if len(plan.Batches) == 0 {
		fmt.Printf("Nothing due on %s.\n", plan.Date)
		return nil
	}
	p := tea.NewProgram(newBoardModel(plan, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

