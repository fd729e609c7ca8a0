package floating

import (
	"strings"

	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/theme"
)

// Confirm is the floating yes/no dialog. It defaults to No; destructive
// operations only proceed on an explicit accept of Yes.
type Confirm struct {
	title   string
	message string
	yes     bool
	pending bool
	errMsg  string

	screenW, screenH int
}

func NewConfirm(title, message string) *Confirm {
	return &Confirm{title: title, message: message}
}

// Context returns the sealed binding scope for this overlay.
func (c *Confirm) Context() keymap.Context { return keymap.Confirm }

func (c *Confirm) SelectYes() { c.yes = true }
func (c *Confirm) SelectNo()  { c.yes = false }
func (c *Confirm) Toggle()    { c.yes = !c.yes }

// Confirmed reports whether Yes is selected.
func (c *Confirm) Confirmed() bool { return c.yes }

// SetPending freezes the dialog while the confirmed command runs.
func (c *Confirm) SetPending(pending bool) { c.pending = pending }

// Pending reports whether a confirmed command is in flight.
func (c *Confirm) Pending() bool { return c.pending }

// SetError reports a failed command; the dialog stays open.
func (c *Confirm) SetError(msg string) {
	c.pending = false
	c.errMsg = msg
}

func (c *Confirm) SetSize(width, height int) {
	c.screenW = width
	c.screenH = height
}

func (c *Confirm) View() string {
	yesStyle := theme.DimmedStyle
	noStyle := theme.DimmedStyle
	if c.yes {
		yesStyle = theme.SelectedItemStyle
	} else {
		noStyle = theme.SelectedItemStyle
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "  "+c.message)
	lines = append(lines, "")
	switch {
	case c.pending:
		lines = append(lines, "  "+theme.PendingStyle.Render("running..."))
	case c.errMsg != "":
		lines = append(lines, "  "+theme.ErrorStyle.Render(firstLine(c.errMsg)))
	default:
		lines = append(lines, "        "+yesStyle.Render("[ Yes ]")+"    "+noStyle.Render("[ No ]"))
	}

	return renderFrame(strings.Join(lines, "\n"), c.title, 60, 7, c.screenW, c.screenH)
}
