package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/dailyctl/internal/config"
)

// Theme holds resolved lipgloss colors for the board and pager.
type Theme struct {
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Accent        lipgloss.Color
	Muted         lipgloss.Color
	Danger        lipgloss.Color
	Background    lipgloss.Color
	MarkdownStyle string
}

const defaultPreset = "default-dark"

func preset(primary, secondary, accent, muted, danger, bg, md string) Theme {
	return Theme{
		Primary:       lipgloss.Color(primary),
		Secondary:     lipgloss.Color(secondary),
		Accent:        lipgloss.Color(accent),
		Muted:         lipgloss.Color(muted),
		Danger:        lipgloss.Color(danger),
		Background:    lipgloss.Color(bg),
		MarkdownStyle: md,
	}
}

var presets = map[string]Theme{
	"default-dark":  preset("15", "243", "33", "241", "9", "235", "dark"),
	"default-light": preset("0", "240", "27", "245", "1", "254", "light"),
	"dracula":       preset("#F8F8F2", "#6272A4", "#BD93F9", "#6272A4", "#FF5555", "#282A36", "dark"),
	"gruvbox-dark":  preset("#EBDBB2", "#665C54", "#FABD2F", "#928374", "#FB4934", "#282828", "dark"),
	"gruvbox-light": preset("#3C3836", "#A89984", "#D79921", "#928374", "#CC241D", "#FBF1C7", "light"),
}

// Presets lists the built-in theme names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveTheme starts from the configured preset and applies any color
// overrides. Unknown presets fall back to default-dark.
func ResolveTheme(cfg config.ThemeConfig) Theme {
	theme, ok := presets[cfg.Preset]
	if !ok {
		theme = presets[defaultPreset]
	}

	overrides := []struct {
		value  string
		target *lipgloss.Color
	}{
		{cfg.Primary, &theme.Primary},
		{cfg.Secondary, &theme.Secondary},
		{cfg.Accent, &theme.Accent},
		{cfg.Muted, &theme.Muted},
		{cfg.Danger, &theme.Danger},
		{cfg.Background, &theme.Background},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = lipgloss.Color(o.value)
		}
	}
	if cfg.MarkdownStyle != "" {
		theme.MarkdownStyle = cfg.MarkdownStyle
	}
	return theme
}

func (t Theme) base() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Background)
}

// HelpStyle is used for footers.
func (t Theme) HelpStyle() lipgloss.Style {
	return t.base().Foreground(t.Muted)
}

func (t Theme) HeaderStyle() lipgloss.Style {
	return t.base().Bold(true).Foreground(t.Primary)
}

func (t Theme) AccentStyle() lipgloss.Style {
	return t.base().Foreground(t.Accent)
}

func (t Theme) DangerStyle() lipgloss.Style {
	return t.base().Foreground(t.Danger)
}

// bgEscapeCode is the raw SGR sequence for the background color, paired with
// \x1b[K so erased line ends keep the theme color.
func (t Theme) bgEscapeCode() string {
	s := string(t.Background)
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		var r, g, b int
		fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
	}
	return "\x1b[48;5;" + s + "m"
}

// PaintScreen pads every line to termWidth, centers a contentWidth column
// when it is narrower than the terminal, and fills out to termHeight lines.
func (t Theme) PaintScreen(content string, termWidth, termHeight, contentWidth int) string {
	bg := t.base()
	clearEOL := t.bgEscapeCode() + "\x1b[K"

	leftPad := 0
	if contentWidth > 0 && contentWidth < termWidth {
		leftPad = (termWidth - contentWidth) / 2
	}
	left := ""
	if leftPad > 0 {
		left = bg.Render(strings.Repeat(" ", leftPad))
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		var b strings.Builder
		b.WriteString(left)
		b.WriteString(line)
		if pad := termWidth - leftPad - lipgloss.Width(line); pad > 0 {
			b.WriteString(bg.Render(strings.Repeat(" ", pad)))
		}
		b.WriteString(clearEOL)
		lines[i] = b.String()
	}

	blank := bg.Render(strings.Repeat(" ", termWidth)) + clearEOL
	for len(lines) < termHeight {
		lines = append(lines, blank)
	}
	return strings.Join(lines[:termHeight], "\n")
}

// NewList creates a list.Model styled by the theme.
func (t Theme) NewList(items []list.Item, width, height int) list.Model {
	l := list.New(items, t.ListDelegate(), width, height)
	l.Styles = t.ListStyles()
	return l
}

func (t Theme) ListDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.NormalTitle = t.base().Foreground(t.Primary).Padding(0, 0, 0, 2)
	d.Styles.NormalDesc = d.Styles.NormalTitle.Foreground(t.Muted)
	d.Styles.SelectedTitle = t.base().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Accent).
		Foreground(t.Accent).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(t.Secondary)
	d.Styles.DimmedTitle = t.base().Foreground(t.Muted).Padding(0, 0, 0, 2)
	d.Styles.DimmedDesc = d.Styles.DimmedTitle
	return d
}

// ListStyles covers the chrome around the list items.
func (t Theme) ListStyles() list.Styles {
	s := list.DefaultStyles()
	s.Title = t.HeaderStyle()
	s.TitleBar = t.base()
	s.StatusBar = t.HelpStyle()
	s.FilterPrompt = t.AccentStyle()
	s.FilterCursor = t.AccentStyle()
	s.PaginationStyle = t.HelpStyle()
	s.HelpStyle = t.HelpStyle()
	s.ActivePaginationDot = t.AccentStyle()
	s.InactivePaginationDot = t.HelpStyle()
	s.NoItems = t.HelpStyle()
	return s
}
