package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			next, cmd := confirmModel{prompt: "Delete game 1?"}.Update(tt.key)
			m := next.(confirmModel)
			if !m.done || cmd == nil {
				t.Fatal("expected the prompt to finish")
			}
			if m.confirmed != tt.want {
				t.Errorf("confirmed = %v, want %v", m.confirmed, tt.want)
			}
			if m.View() != "" {
				t.Errorf("finished prompt still renders %q", m.View())
			}
		})
	}
}
