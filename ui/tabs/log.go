package tabs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// LogTab shows the commit graph for the active revset, with the selected
// change's diff in a side panel.
type LogTab struct {
	output   *jj.LogOutput
	selected int // index into output.Changes, -1 for none
	offset   int // first visible graph line

	revset    string
	revsetErr string // invalid revset: previous list stays, indicator shows

	diff    string
	diffErr string

	// highlight is the raw SGR background prefix for the selected
	// change's lines. jj output carries its own resets, so the prefix
	// is re-applied after each one instead of going through lipgloss.
	highlight string

	width, height int
	vertical      bool // split orientation
}

// NewLogTab creates the tab with the configured highlight color and
// starting revset.
func NewLogTab(revset, highlightColor string, vertical bool) *LogTab {
	return &LogTab{
		selected:  -1,
		revset:    revset,
		vertical:  vertical,
		highlight: backgroundSeq(highlightColor),
	}
}

// backgroundSeq builds the SGR background prefix for a color given as a
// 256-palette index or "#rrggbb" hex.
func backgroundSeq(color string) string {
	if strings.HasPrefix(color, "#") && len(color) == 7 {
		var r, g, b int
		if _, err := fmt.Sscanf(color, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
		}
	}
	n := 238
	if _, err := fmt.Sscanf(color, "%d", &n); err != nil || n < 0 || n > 255 {
		n = 238
	}
	return fmt.Sprintf("\x1b[48;5;%dm", n)
}

// Revset returns the active query string.
func (l *LogTab) Revset() string { return l.revset }

// SetRevset replaces the query; the caller must trigger a refresh.
func (l *LogTab) SetRevset(revset string) {
	l.revset = revset
}

// SetRevsetError records a failed evaluation without clearing the
// previous list.
func (l *LogTab) SetRevsetError(msg string) {
	l.revsetErr = msg
}

// SetOutput replaces the working set after a refresh and recomputes the
// selection: the same change id is preserved when still present,
// otherwise selection falls back to the working copy, then to the first
// entry, then to none.
func (l *LogTab) SetOutput(out *jj.LogOutput) {
	prev := l.SelectedChangeID()
	l.output = out
	l.revsetErr = ""

	switch {
	case out == nil || len(out.Changes) == 0:
		l.selected = -1
	default:
		idx := out.IndexOf(prev)
		if idx < 0 {
			idx = out.HeadIndex()
		}
		if idx < 0 {
			idx = 0
		}
		l.selected = idx
	}
	l.ensureSelectedVisible()
}

// SelectedChange returns the selected change, or nil.
func (l *LogTab) SelectedChange() *jj.Change {
	if l.output == nil || l.selected < 0 || l.selected >= len(l.output.Changes) {
		return nil
	}
	return &l.output.Changes[l.selected]
}

// SelectedChangeID returns the selected change id, or "".
func (l *LogTab) SelectedChangeID() string {
	if c := l.SelectedChange(); c != nil {
		return c.ChangeID
	}
	return ""
}

// SelectedIndex returns the cursor position, -1 for none.
func (l *LogTab) SelectedIndex() int { return l.selected }

// Count returns the number of changes in the working set.
func (l *LogTab) Count() int {
	if l.output == nil {
		return 0
	}
	return len(l.output.Changes)
}

// SetDiff installs the preview content for the selected change.
func (l *LogTab) SetDiff(content string) {
	l.diff = content
	l.diffErr = ""
}

// SetDiffError marks the preview as failed.
func (l *LogTab) SetDiffError(msg string) {
	l.diffErr = msg
}

func (l *LogTab) Up()   { l.moveSelection(-1) }
func (l *LogTab) Down() { l.moveSelection(1) }

func (l *LogTab) HalfUp()   { l.moveSelection(-l.halfPage()) }
func (l *LogTab) HalfDown() { l.moveSelection(l.halfPage()) }

func (l *LogTab) Top() {
	if l.Count() > 0 {
		l.selected = 0
		l.ensureSelectedVisible()
	}
}

func (l *LogTab) Bottom() {
	if n := l.Count(); n > 0 {
		l.selected = n - 1
		l.ensureSelectedVisible()
	}
}

// FocusHead moves the selection to the working copy change, if shown.
func (l *LogTab) FocusHead() {
	if l.output == nil {
		return
	}
	if idx := l.output.HeadIndex(); idx >= 0 {
		l.selected = idx
		l.ensureSelectedVisible()
	}
}

func (l *LogTab) halfPage() int {
	h := l.graphHeight() / 2
	if h < 1 {
		h = 1
	}
	return h
}

func (l *LogTab) moveSelection(delta int) {
	n := l.Count()
	if n == 0 {
		return
	}
	if l.selected < 0 {
		l.selected = 0
	} else {
		l.selected += delta
		if l.selected < 0 {
			l.selected = 0
		}
		if l.selected >= n {
			l.selected = n - 1
		}
	}
	l.ensureSelectedVisible()
}

// SetSize sets the outer dimensions of the tab area.
func (l *LogTab) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.ensureSelectedVisible()
}

func (l *LogTab) graphWidth() int {
	if l.vertical {
		return l.width
	}
	return l.width / 2
}

func (l *LogTab) graphHeight() int {
	h := l.height
	if l.vertical {
		h = l.height / 2
	}
	if h < 3 {
		h = 3
	}
	return h - 2
}

// ensureSelectedVisible scrolls the graph window so every line of the
// selected change is on screen.
func (l *LogTab) ensureSelectedVisible() {
	c := l.SelectedChange()
	if c == nil {
		l.offset = 0
		return
	}
	h := l.graphHeight()
	if c.StartLine < l.offset {
		l.offset = c.StartLine
	}
	if c.EndLine > l.offset+h {
		l.offset = c.EndLine - h
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the graph and diff preview split. When wrap is set the
// diff body is soft-wrapped to the pane width instead of clipping.
func (l *LogTab) View(focused, wrap bool) string {
	graph := borders.RenderTitledBorder(
		l.renderGraph(), l.title(), l.graphWidth(), l.graphHeightOuter(), focused)

	diffTitle := "Diff"
	if c := l.SelectedChange(); c != nil {
		diffTitle = "Diff: " + c.ChangeID
	}
	diffBody := l.diff
	if l.diffErr != "" {
		diffBody = theme.ErrorStyle.Render("Error: " + l.diffErr)
	} else if wrap {
		w := l.diffPaneWidth() - 2
		if w > 0 {
			diffBody = lipgloss.NewStyle().Width(w).Render(diffBody)
		}
	}
	if l.vertical {
		diffHeight := l.height - l.graphHeightOuter()
		diffPane := borders.RenderTitledBorder(diffBody, diffTitle, l.width, diffHeight, false)
		return lipgloss.JoinVertical(lipgloss.Left, graph, diffPane)
	}
	diffPane := borders.RenderTitledBorder(diffBody, diffTitle, l.diffPaneWidth(), l.graphHeightOuter(), false)
	return lipgloss.JoinHorizontal(lipgloss.Top, graph, diffPane)
}

func (l *LogTab) diffPaneWidth() int {
	if l.vertical {
		return l.width
	}
	return l.width - l.graphWidth()
}

func (l *LogTab) graphHeightOuter() int {
	if l.vertical {
		return l.height / 2
	}
	return l.height
}

func (l *LogTab) title() string {
	title := "Log"
	if l.revset != "" {
		title = fmt.Sprintf("Log: %s", l.revset)
	}
	if l.revsetErr != "" {
		title += " " + theme.ErrorStyle.Render("[invalid revset]")
	}
	return title
}

// renderGraph windows the raw colorized graph, wrapping the selected
// change's lines in the highlight background.
func (l *LogTab) renderGraph() string {
	if l.output == nil {
		return theme.DimmedStyle.Render("Loading log...")
	}
	lines := strings.Split(l.output.RawANSI, "\n")
	h := l.graphHeight()
	end := l.offset + h
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := l.offset; i < end; i++ {
		line := lines[i]
		if l.selected >= 0 && i < len(l.output.LineToChange) && l.output.LineToChange[i] == l.selected {
			// Re-arm the background after embedded resets.
			line = l.highlight + strings.ReplaceAll(line, "\x1b[0m", "\x1b[0m"+l.highlight) + "\x1b[49m"
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
