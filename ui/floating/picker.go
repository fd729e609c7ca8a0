package floating

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/theme"
)

const pickerVisible = 8

// Picker is the bookmark chooser: a text input over a filtered list of
// existing names. Typing narrows the list; moving the cursor fills the
// input from it, so accept always submits the input value.
type Picker struct {
	input   textinput.Model
	title   string
	options []string
	cursor  int // index into filtered(), -1 when typing a new name
	pending bool
	errMsg  string

	screenW, screenH int
}

// NewPicker creates a focused picker over the given options. initial
// pre-fills the input, typically a configured bookmark name prefix.
func NewPicker(title string, options []string, initial string) *Picker {
	ti := textinput.New()
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50
	return &Picker{input: ti, title: title, options: options, cursor: -1}
}

// Context returns the sealed binding scope for this overlay.
func (p *Picker) Context() keymap.Context { return keymap.Picker }

func (p *Picker) Init() tea.Cmd { return textinput.Blink }

// Update forwards unresolved keys to the input and resets the list
// cursor, since the filter may have changed.
func (p *Picker) Update(msg tea.Msg) tea.Cmd {
	if p.pending {
		return nil
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		p.errMsg = ""
		p.cursor = -1
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *Picker) filtered() []string {
	needle := strings.ToLower(p.input.Value())
	if p.cursor >= 0 {
		// Cursor active: the input holds a picked name, keep the full list.
		needle = ""
	}
	var out []string
	for _, opt := range p.options {
		if needle == "" || strings.Contains(strings.ToLower(opt), needle) {
			out = append(out, opt)
		}
	}
	return out
}

// Up and Down move through the filtered list and copy the entry into the
// input buffer.
func (p *Picker) Up() {
	opts := p.filtered()
	if len(opts) == 0 {
		return
	}
	if p.cursor <= 0 {
		p.cursor = len(opts) - 1
	} else {
		p.cursor--
	}
	p.input.SetValue(opts[p.cursor])
	p.input.CursorEnd()
}

func (p *Picker) Down() {
	opts := p.filtered()
	if len(opts) == 0 {
		return
	}
	p.cursor = (p.cursor + 1) % len(opts)
	p.input.SetValue(opts[p.cursor])
	p.input.CursorEnd()
}

// Value returns the name to submit.
func (p *Picker) Value() string { return strings.TrimSpace(p.input.Value()) }

// SetPending freezes input while the submitted command runs.
func (p *Picker) SetPending(pending bool) { p.pending = pending }

// Pending reports whether a submission is in flight.
func (p *Picker) Pending() bool { return p.pending }

// SetError reports a failed submission; input and filter stay intact.
func (p *Picker) SetError(msg string) {
	p.pending = false
	p.errMsg = msg
}

func (p *Picker) SetSize(width, height int) {
	p.screenW = width
	p.screenH = height
}

func (p *Picker) View() string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, " "+p.input.View())
	lines = append(lines, "")

	opts := p.filtered()
	shown := len(opts)
	if shown > pickerVisible {
		shown = pickerVisible
	}
	start := 0
	if p.cursor >= pickerVisible {
		start = p.cursor - pickerVisible + 1
	}
	for i := start; i < start+shown && i < len(opts); i++ {
		line := "   " + opts[i]
		if i == p.cursor {
			line = " " + theme.SelectedItemStyle.Render("▸ "+opts[i])
		}
		lines = append(lines, line)
	}
	if len(opts) == 0 {
		lines = append(lines, " "+theme.DimmedStyle.Render("  no matching bookmarks"))
	}

	switch {
	case p.pending:
		lines = append(lines, " "+theme.PendingStyle.Render("running..."))
	case p.errMsg != "":
		lines = append(lines, " "+theme.ErrorStyle.Render(firstLine(p.errMsg)))
	default:
		lines = append(lines, " "+theme.DimmedStyle.Render("type a name or pick with up/down"))
	}

	return renderFrame(strings.Join(lines, "\n"), p.title, 60, shown+7, p.screenW, p.screenH)
}
