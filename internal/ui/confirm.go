package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmModel struct {
	prompt    string
	confirmed bool
	done      bool
	theme     Theme
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(msg.String()) {
		case "y":
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case "n", "enter", "esc", "ctrl+c":
			m.confirmed = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	prompt := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary).Render(m.prompt)
	return prompt + " " + m.theme.DangerStyle().Render("[y/N]") + " "
}

// Confirm asks a yes/no question. Anything but "y" declines.
func Confirm(prompt string, theme Theme) (bool, error) {
	result, err := tea.NewProgram(confirmModel{prompt: prompt, theme: theme}).Run()
	if err != nil {
		return false, err
	}
	return result.(confirmModel).confirmed, nil
}

// ConfirmDelete asks before removing a record and everything under it.
func ConfirmDelete(kind string, id int64, cascade string, theme Theme) (bool, error) {
	prompt := fmt.Sprintf("Delete %s %d?", kind, id)
	if cascade != "" {
		prompt = fmt.Sprintf("Delete %s %d and its %s?", kind, id, cascade)
	}
	return Confirm(prompt, theme)
}
