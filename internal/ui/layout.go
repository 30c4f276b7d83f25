package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/theme"
)

// Bounds for the message-list sidebar width.
const (
	MinSidebarWidth  = 24
	minContentWidth  = 30
	SidebarWidthStep = 2
)

// Layout manages the two-pane terminal layout: a message list on the left
// and the active view on the right.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
	SidebarWidth    int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height, sidebar int) Layout {
	l := Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
	l.SidebarWidth = l.ClampSidebar(sidebar)
	return l
}

// ClampSidebar limits w so both panes stay usable at the current width.
func (l Layout) ClampSidebar(w int) int {
	maxW := l.Width - minContentWidth
	if w > maxW {
		w = maxW
	}
	if w < MinSidebarWidth {
		w = MinSidebarWidth
	}
	return w
}

// ParseSidebarWidth reads a persisted width, falling back to def when the
// value is missing or malformed.
func ParseSidebarWidth(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ContentWidth returns the width of the right-hand pane.
func (l Layout) ContentWidth() int {
	w := l.Width - l.SidebarWidth - 1
	if w < 0 {
		return 0
	}
	return w
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title and status text.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar. When isErr is set the
// bar uses the error palette.
func (l Layout) RenderStatusBar(text string, isErr bool) string {
	style := theme.StatusBarStyle
	if isErr {
		style = theme.ErrorBarStyle
	}
	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderPanes places the sidebar and content side by side at the layout's
// dimensions.
func (l Layout) RenderPanes(sidebar, content string) string {
	h := l.ContentHeight()
	left := theme.SidebarStyle.
		Width(l.SidebarWidth).
		Height(h).
		MaxHeight(h).
		Render(sidebar)
	right := lipgloss.NewStyle().
		Width(l.ContentWidth()).
		Height(h).
		MaxHeight(h).
		Render(content)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
