package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris-regnier/dailyctl/internal/config"
)

func TestPagerView(t *testing.T) {
	tests := []struct {
		name          string
		preset        string
		maxWidth      int
		width, height int
	}{
		{"full width", "default-dark", 0, 80, 24},
		{"capped width", "dracula", 60, 100, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pagerModel{
				content:  "POST /session\nHost: example.com\n\n{}",
				maxWidth: tt.maxWidth,
				theme:    ResolveTheme(config.ThemeConfig{Preset: tt.preset}),
			}
			if got := m.View(); got != "Loading..." {
				t.Errorf("unsized view = %q", got)
			}

			sized, _ := m.Update(tea.WindowSizeMsg{Width: tt.width, Height: tt.height})
			m = sized.(pagerModel)

			out := stripANSI(m.View())
			lines := strings.Split(out, "\n")
			if len(lines) != tt.height {
				t.Errorf("lines = %d, want %d", len(lines), tt.height)
			}
			for i, line := range lines {
				if len(line) < tt.width {
					t.Errorf("line %d: width %d, want at least %d", i, len(line), tt.width)
				}
			}
			if !strings.Contains(out, "Host: example.com") || !strings.Contains(out, "q quit") {
				t.Errorf("content or footer missing:\n%s", out)
			}
		})
	}
}

func TestPagerQuits(t *testing.T) {
	m := pagerModel{content: "x"}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestOutputOrPageWritesToBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := OutputOrPage(&buf, "plain\n", false, Theme{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain\n" {
		t.Errorf("wrote %q", buf.String())
	}
}
