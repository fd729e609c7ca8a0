package tabs

import (
	"strings"

	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// HelpTab renders the full live binding table, sectioned by context. The
// content reflects config overrides and disables, not the built-in
// defaults.
type HelpTab struct {
	keymap *keymap.Keymap
	lines  []string
	offset int

	width, height int
}

var helpSections = []struct {
	title string
	ctx   keymap.Context
}{
	{"Global", keymap.Global},
	{"Log", keymap.Log},
	{"Files", keymap.Files},
	{"Bookmarks", keymap.Bookmarks},
	{"Command Log", keymap.CommandLog},
	{"Prompt", keymap.Prompt},
	{"Confirm", keymap.Confirm},
	{"Picker", keymap.Picker},
}

func NewHelpTab(km *keymap.Keymap) *HelpTab {
	h := &HelpTab{keymap: km}
	h.rebuild()
	return h
}

func (h *HelpTab) rebuild() {
	var lines []string
	for i, sec := range helpSections {
		bindings := h.keymap.ContextBindings(sec.ctx)
		if len(bindings) == 0 {
			continue
		}
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, theme.FocusedTitleStyle.Render(sec.title))
		for _, b := range bindings {
			chords := strings.Join(b.Keys(), ", ")
			lines = append(lines, "  "+theme.HelpKeyStyle.UnsetBackground().Render(padRight(chords, 16))+
				theme.DimmedStyle.Render(b.Help().Desc))
		}
	}
	h.lines = lines
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func (h *HelpTab) innerHeight() int {
	ih := h.height - 2
	if ih < 1 {
		ih = 1
	}
	return ih
}

func (h *HelpTab) scroll(delta int) {
	h.offset += delta
	if max := len(h.lines) - h.innerHeight(); h.offset > max {
		h.offset = max
	}
	if h.offset < 0 {
		h.offset = 0
	}
}

func (h *HelpTab) Up()       { h.scroll(-1) }
func (h *HelpTab) Down()     { h.scroll(1) }
func (h *HelpTab) HalfUp()   { h.scroll(-h.innerHeight() / 2) }
func (h *HelpTab) HalfDown() { h.scroll(h.innerHeight() / 2) }
func (h *HelpTab) Top()      { h.offset = 0 }
func (h *HelpTab) Bottom()   { h.scroll(len(h.lines)) }

func (h *HelpTab) SetSize(width, height int) {
	h.width = width
	h.height = height
	h.scroll(0)
}

func (h *HelpTab) View(focused bool) string {
	end := h.offset + h.innerHeight()
	if end > len(h.lines) {
		end = len(h.lines)
	}
	start := h.offset
	if start > end {
		start = end
	}
	return borders.RenderTitledBorder(
		strings.Join(h.lines[start:end], "\n"), "Help", h.width, h.height, focused)
}
