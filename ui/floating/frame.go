// Package floating implements the popup overlays: the text prompt, the
// confirmation dialog, and the bookmark picker. Overlays hold their own
// buffer state; key routing stays in the app so popup bindings never
// leak into tab contexts.
package floating

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// renderFrame draws a titled rounded window of the given size centered
// in a screen of screenW x screenH.
func renderFrame(content, title string, windowWidth, windowHeight, screenW, screenH int) string {
	if windowWidth > screenW-4 {
		windowWidth = screenW - 4
	}
	if windowWidth < 10 {
		windowWidth = 10
	}
	if windowHeight > screenH-2 {
		windowHeight = screenH - 2
	}
	if windowHeight < 3 {
		windowHeight = 3
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorYellow).
		Width(windowWidth - 2).
		Height(windowHeight - 2)
	bordered := borderStyle.Render(content)

	lines := strings.Split(bordered, "\n")
	if len(lines) > 0 && title != "" {
		edge := lipgloss.NewStyle().Foreground(theme.ColorYellow)
		label := theme.FloatingTitleStyle.Render(" " + title + " ")
		remaining := windowWidth - 3 - lipgloss.Width(label)
		if remaining < 0 {
			remaining = 0
		}
		lines[0] = edge.Render(borders.TopLeft+borders.Horizontal) +
			label +
			edge.Render(strings.Repeat(borders.Horizontal, remaining)+borders.TopRight)
	}

	x := (screenW - windowWidth) / 2
	if x < 0 {
		x = 0
	}
	y := (screenH - windowHeight) / 2
	if y < 0 {
		y = 0
	}
	pad := strings.Repeat(" ", x)
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Repeat("\n", y) + strings.Join(lines, "\n")
}
