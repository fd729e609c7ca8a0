package tabs

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// CommandLogTab shows the append-only record of every jj invocation,
// newest first, with the selected record's output alongside.
type CommandLogTab struct {
	records []*jj.Record
	list    ListState

	outputOffset int

	width, height int
	vertical      bool
}

func NewCommandLogTab(vertical bool) *CommandLogTab {
	return &CommandLogTab{list: NewListState(), vertical: vertical}
}

// SetRecords installs a fresh snapshot. Records only ever append, so the
// selection is kept stable by sliding the cursor with the growth.
func (c *CommandLogTab) SetRecords(records []*jj.Record) {
	grown := len(records) - len(c.records)
	prev := c.list.Cursor
	c.records = records
	c.list.SetCount(len(records))
	if len(records) == 0 {
		return
	}
	switch {
	case prev < 0:
		c.list.Select(0)
	case grown > 0:
		// Newest-first display: existing entries shift down.
		c.list.Select(prev + grown)
	}
}

// Selected returns the selected record, or nil.
func (c *CommandLogTab) Selected() *jj.Record {
	if c.list.Cursor < 0 || c.list.Cursor >= len(c.records) {
		return nil
	}
	// Index 0 shows the newest record.
	return c.records[len(c.records)-1-c.list.Cursor]
}

// SelectedIndex returns the cursor position, -1 for none.
func (c *CommandLogTab) SelectedIndex() int { return c.list.Cursor }

// Count returns the number of records shown.
func (c *CommandLogTab) Count() int { return len(c.records) }

func (c *CommandLogTab) Up()   { c.list.Up(); c.outputOffset = 0 }
func (c *CommandLogTab) Down() { c.list.Down(); c.outputOffset = 0 }

func (c *CommandLogTab) HalfUp() {
	c.outputOffset -= c.outputHeight() / 2
	if c.outputOffset < 0 {
		c.outputOffset = 0
	}
}

func (c *CommandLogTab) HalfDown() {
	rec := c.Selected()
	if rec == nil {
		return
	}
	lines := strings.Count(c.recordOutput(rec), "\n") + 1
	c.outputOffset += c.outputHeight() / 2
	if max := lines - c.outputHeight(); c.outputOffset > max {
		c.outputOffset = max
	}
	if c.outputOffset < 0 {
		c.outputOffset = 0
	}
}

func (c *CommandLogTab) Top()    { c.list.Top(); c.outputOffset = 0 }
func (c *CommandLogTab) Bottom() { c.list.Bottom(); c.outputOffset = 0 }

func (c *CommandLogTab) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.list.SetHeight(c.listHeight())
}

func (c *CommandLogTab) listWidth() int {
	if c.vertical {
		return c.width
	}
	return c.width / 2
}

func (c *CommandLogTab) listHeight() int {
	h := c.height
	if c.vertical {
		h = c.height / 2
	}
	return h - 2
}

func (c *CommandLogTab) outputHeight() int {
	if c.vertical {
		return c.height - (c.listHeight() + 2) - 2
	}
	return c.height - 2
}

func (c *CommandLogTab) View(focused bool) string {
	listPane := borders.RenderTitledBorder(c.renderList(), "Command Log", c.listWidth(), c.listHeight()+2, focused)

	title := "Output"
	body := theme.DimmedStyle.Render("No command selected")
	if rec := c.Selected(); rec != nil {
		title = "Output: jj " + strings.Join(rec.Args, " ")
		body = c.renderOutput(rec)
	}
	if c.vertical {
		outPane := borders.RenderTitledBorder(body, title, c.width, c.outputHeight()+2, false)
		return lipgloss.JoinVertical(lipgloss.Left, listPane, outPane)
	}
	outPane := borders.RenderTitledBorder(body, title, c.width-c.listWidth(), c.outputHeight()+2, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, outPane)
}

func (c *CommandLogTab) renderList() string {
	if len(c.records) == 0 {
		return theme.DimmedStyle.Render("No commands run yet")
	}
	var b strings.Builder
	start, end := c.list.Window()
	for i := start; i < end; i++ {
		rec := c.records[len(c.records)-1-i]
		marker := theme.AddedStyle.Render("✓")
		switch {
		case rec.Cancelled:
			marker = theme.PendingStyle.Render("⊘")
		case rec.Failed():
			marker = theme.ErrorStyle.Render("✗")
		}
		line := marker + " " + theme.TimestampStyle.Render(rec.Start.Format("15:04:05")) +
			" jj " + strings.Join(rec.Args, " ")
		if i == c.list.Cursor {
			line = theme.SelectedItemStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// recordOutput assembles the full text for one record: stdout, stderr,
// and the outcome line.
func (c *CommandLogTab) recordOutput(rec *jj.Record) string {
	var parts []string
	if rec.Stdout != "" {
		parts = append(parts, rec.Stdout)
	}
	if rec.Stderr != "" {
		parts = append(parts, theme.ErrorStyle.Render("stderr:")+"\n"+rec.Stderr)
	}
	elapsed := rec.Duration.Round(time.Millisecond).String()
	switch {
	case rec.Cancelled:
		parts = append(parts, theme.PendingStyle.Render("cancelled after "+elapsed))
	case rec.Failed():
		parts = append(parts, theme.ErrorStyle.Render("exit "+strconv.Itoa(rec.ExitCode)+" in "+elapsed))
	default:
		parts = append(parts, theme.DimmedStyle.Render("ok in "+elapsed))
	}
	return strings.Join(parts, "\n")
}

func (c *CommandLogTab) renderOutput(rec *jj.Record) string {
	lines := strings.Split(c.recordOutput(rec), "\n")
	if c.outputOffset >= len(lines) {
		c.outputOffset = 0
	}
	end := c.outputOffset + c.outputHeight()
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[c.outputOffset:end], "\n")
}
