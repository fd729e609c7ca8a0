// Package borders renders rounded borders with the title embedded in the
// top edge, the frame style shared by tabs and floating windows.
package borders

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/ui/theme"
)

const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
)

// RenderTitledBorder wraps content in a rounded border of the given outer
// dimensions, with the title drawn inside the top edge. The border color
// signals focus.
func RenderTitledBorder(content, title string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return content
	}

	borderColor := theme.ColorDimWhite
	titleStyle := theme.TitleStyle
	if focused {
		borderColor = theme.ColorYellow
		titleStyle = theme.FocusedTitleStyle
	}
	edge := lipgloss.NewStyle().Foreground(borderColor)

	innerWidth := width - 2
	innerHeight := height - 2

	var b strings.Builder
	b.WriteString(topEdge(title, innerWidth, edge, titleStyle))
	b.WriteByte('\n')

	lines := strings.Split(content, "\n")
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		line = padLine(line, innerWidth)
		b.WriteString(edge.Render(Vertical))
		b.WriteString(line)
		b.WriteString(edge.Render(Vertical))
		b.WriteByte('\n')
	}

	b.WriteString(edge.Render(BottomLeft + strings.Repeat(Horizontal, innerWidth) + BottomRight))
	return b.String()
}

func topEdge(title string, innerWidth int, edge, titleStyle lipgloss.Style) string {
	if title == "" {
		return edge.Render(TopLeft + strings.Repeat(Horizontal, innerWidth) + TopRight)
	}
	label := " " + title + " "
	labelWidth := lipgloss.Width(label)
	remaining := innerWidth - labelWidth - 1
	if remaining < 0 {
		return edge.Render(TopLeft + strings.Repeat(Horizontal, innerWidth) + TopRight)
	}
	return edge.Render(TopLeft+Horizontal) +
		titleStyle.Render(label) +
		edge.Render(strings.Repeat(Horizontal, remaining)+TopRight)
}

// padLine truncates or pads a line to the exact inner width, accounting
// for embedded escape sequences.
func padLine(line string, width int) string {
	w := lipgloss.Width(line)
	if w > width {
		return truncateVisible(line, width)
	}
	return line + strings.Repeat(" ", width-w)
}

// truncateVisible cuts a line at a visible-cell budget while keeping any
// escape sequences it passes through, then resets styling.
func truncateVisible(line string, width int) string {
	var b strings.Builder
	visible := 0
	i := 0
	for i < len(line) && visible < width {
		if line[i] == 0x1b {
			j := i + 1
			if j < len(line) && line[j] == '[' {
				j++
				for j < len(line) && !(line[j] >= 0x40 && line[j] <= 0x7e) {
					j++
				}
				if j < len(line) {
					j++
				}
			}
			b.WriteString(line[i:j])
			i = j
			continue
		}
		r, size := utf8.DecodeRuneInString(line[i:])
		b.WriteRune(r)
		visible++
		i += size
	}
	return b.String() + "\x1b[0m" + strings.Repeat(" ", width-visible)
}
