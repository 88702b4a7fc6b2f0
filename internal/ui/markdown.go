package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderer caches one glamour renderer keyed by width and style.
var renderer struct {
	sync.Mutex
	term  *glamour.TermRenderer
	width int
	style string
}

func termRenderer(width int, style string) (*glamour.TermRenderer, error) {
	if width < 1 {
		width = 80
	}
	if style == "" {
		style = "dark"
	}
	if renderer.term != nil && renderer.width == width && renderer.style == style {
		return renderer.term, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	renderer.term, renderer.width, renderer.style = r, width, style
	return r, nil
}

// RenderMarkdownWithStyle renders markdown with the given glamour style.
// The input comes back unchanged when rendering fails.
func RenderMarkdownWithStyle(content string, width int, style string) string {
	if content == "" {
		return ""
	}
	renderer.Lock()
	defer renderer.Unlock()

	r, err := termRenderer(width, style)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// fence wraps content in a code fence long enough not to collide with any
// backtick run inside it.
func fence(content string) string {
	ticks := "```"
	for strings.Contains(content, ticks) {
		ticks += "`"
	}
	return ticks + "http\n" + strings.TrimRight(content, "\n") + "\n" + ticks
}

// RenderRequest shows a rendered HTTP request as a highlighted block.
func RenderRequest(content string, width int, style string) string {
	return RenderMarkdownWithStyle(fence(content), width, style)
}
