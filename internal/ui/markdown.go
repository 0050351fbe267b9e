package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
)

const (
	defaultWrap = 100
	minWrap     = 40
)

var markdownRenderer *glamour.TermRenderer

func init() {
	SetWordWrap(terminalWidth())
}

// terminalWidth returns the stdout width, or defaultWrap when it is not a terminal
func terminalWidth() int {
	w := readline.GetScreenWidth()
	if w < minWrap {
		return defaultWrap
	}
	return w
}

// RenderMarkdown renders markdown for the terminal. Plain content is returned when rendering is off or fails.
func RenderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}

	// Glamour pads output with blank lines
	return strings.TrimSpace(rendered)
}

// SetWordWrap reinitializes the renderer with a new word wrap width
func SetWordWrap(width int) {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// DisableMarkdown turns rendering off (--plain)
func DisableMarkdown() {
	markdownRenderer = nil
}

// IsMarkdownEnabled returns whether markdown rendering is available
func IsMarkdownEnabled() bool {
	return markdownRenderer != nil
}
