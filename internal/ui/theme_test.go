package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/dailyctl/internal/config"
)

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.ThemeConfig
		primary    lipgloss.Color
		background lipgloss.Color
		markdown   string
	}{
		{"empty uses default dark", config.ThemeConfig{}, "15", "235", "dark"},
		{"light preset", config.ThemeConfig{Preset: "default-light"}, "0", "254", "light"},
		{"unknown preset falls back", config.ThemeConfig{Preset: "nonexistent"}, "15", "235", "dark"},
		{
			"overrides",
			config.ThemeConfig{Preset: "dracula", Primary: "#FF0000", Background: "#112233", MarkdownStyle: "notty"},
			"#FF0000", "#112233", "notty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := ResolveTheme(tt.cfg)
			if theme.Primary != tt.primary {
				t.Errorf("primary = %q, want %q", theme.Primary, tt.primary)
			}
			if theme.Background != tt.background {
				t.Errorf("background = %q, want %q", theme.Background, tt.background)
			}
			if theme.MarkdownStyle != tt.markdown {
				t.Errorf("markdown style = %q, want %q", theme.MarkdownStyle, tt.markdown)
			}
		})
	}
}

func TestPresetsHaveMarkdownStyle(t *testing.T) {
	names := Presets()
	if len(names) != len(presets) || names[0] != "default-dark" {
		t.Fatalf("Presets() = %v", names)
	}
	for _, name := range names {
		if md := presets[name].MarkdownStyle; md != "dark" && md != "light" {
			t.Errorf("%s: markdown style %q", name, md)
		}
	}
}

func TestStylesCarryBackground(t *testing.T) {
	theme := ResolveTheme(config.ThemeConfig{Preset: "gruvbox-dark"})
	ls := theme.ListStyles()
	styles := map[string]lipgloss.Style{
		"help":         theme.HelpStyle(),
		"header":       theme.HeaderStyle(),
		"accent":       theme.AccentStyle(),
		"danger":       theme.DangerStyle(),
		"list title":   ls.Title,
		"filter":       ls.FilterPrompt,
		"pagination":   ls.PaginationStyle,
		"no items":     ls.NoItems,
		"normal title": theme.ListDelegate().Styles.NormalTitle,
	}
	for name, style := range styles {
		if style.GetBackground() != theme.Background {
			t.Errorf("%s: background = %v, want %v", name, style.GetBackground(), theme.Background)
		}
	}
}

func TestBgEscapeCode(t *testing.T) {
	if got := ResolveTheme(config.ThemeConfig{}).bgEscapeCode(); got != "\x1b[48;5;235m" {
		t.Errorf("256-color escape = %q", got)
	}
	if got := ResolveTheme(config.ThemeConfig{Preset: "dracula"}).bgEscapeCode(); got != "\x1b[48;2;40;42;54m" {
		t.Errorf("true-color escape = %q", got)
	}
}

func TestPaintScreen(t *testing.T) {
	theme := ResolveTheme(config.ThemeConfig{})
	out := theme.PaintScreen("line1\nline2", 100, 6, 60)

	if n := countLines(out); n != 6 {
		t.Fatalf("lines = %d, want 6", n)
	}
	raw := strings.Split(out, "\n")
	for i, line := range raw {
		if !strings.HasSuffix(line, "\x1b[K") {
			t.Errorf("line %d does not end with erase sequence", i)
		}
		if w := len(stripANSI(line)); w < 100 {
			t.Errorf("line %d: width %d, want at least 100", i, w)
		}
	}
	first := stripANSI(raw[0])
	if !strings.HasPrefix(first, strings.Repeat(" ", 20)+"line1") {
		t.Errorf("first line not centered: %q", first)
	}
}
