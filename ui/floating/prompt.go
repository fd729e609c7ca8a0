package floating

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/theme"
)

// Prompt is the floating single-line text input. The accept action is
// decided by the app; the prompt keeps its buffer across failed
// submissions so the input is not lost.
type Prompt struct {
	input   textinput.Model
	title   string
	hint    string
	errMsg  string
	pending bool

	screenW, screenH int
}

// NewPrompt creates a focused prompt pre-filled with initial text.
func NewPrompt(title, placeholder, initial string) *Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	return &Prompt{input: ti, title: title}
}

// SetHint sets the dimmed helper line under the input.
func (p *Prompt) SetHint(hint string) { p.hint = hint }

func (p *Prompt) Init() tea.Cmd { return textinput.Blink }

// Context returns the sealed binding scope for this overlay.
func (p *Prompt) Context() keymap.Context { return keymap.Prompt }

// Update forwards key events the app did not resolve to a prompt action.
// Typing clears a stale error.
func (p *Prompt) Update(msg tea.Msg) tea.Cmd {
	if p.pending {
		return nil
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		p.errMsg = ""
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Value returns the current buffer.
func (p *Prompt) Value() string { return p.input.Value() }

// SetPending freezes input while the submitted command runs.
func (p *Prompt) SetPending(pending bool) { p.pending = pending }

// Pending reports whether a submission is in flight.
func (p *Prompt) Pending() bool { return p.pending }

// SetError reports a failed submission. The buffer stays intact.
func (p *Prompt) SetError(msg string) {
	p.pending = false
	p.errMsg = msg
}

func (p *Prompt) SetSize(width, height int) {
	p.screenW = width
	p.screenH = height
	w := width - 8
	if w > 60 {
		w = 60
	}
	if w > 0 {
		p.input.Width = w
	}
}

func (p *Prompt) View() string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, " "+p.input.View())
	switch {
	case p.pending:
		lines = append(lines, " "+theme.PendingStyle.Render("running..."))
	case p.errMsg != "":
		lines = append(lines, " "+theme.ErrorStyle.Render(firstLine(p.errMsg)))
	default:
		lines = append(lines, "")
	}
	hint := p.hint
	if hint == "" {
		hint = "enter accept, esc cancel"
	}
	lines = append(lines, " "+theme.DimmedStyle.Render(hint))

	return renderFrame(strings.Join(lines, "\n"), p.title, 70, 6, p.screenW, p.screenH)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
