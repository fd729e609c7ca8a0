package tabs

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// FilesTab lists the files changed in one change, with the selected
// file's diff alongside.
type FilesTab struct {
	changeID    string
	description string
	files       []jj.FileChange
	list        ListState
	errMsg      string

	diff       string
	diffErr    string
	diffOffset int

	width, height int
	vertical      bool
}

// NewFilesTab creates an empty tab; the app points it at a change before
// switching to it.
func NewFilesTab(vertical bool) *FilesTab {
	return &FilesTab{list: NewListState(), vertical: vertical}
}

// ChangeID returns the change being inspected, "" when unset.
func (f *FilesTab) ChangeID() string { return f.changeID }

// SetChange points the tab at a change. The file list arrives later via
// SetFiles; stale state is cleared immediately.
func (f *FilesTab) SetChange(changeID, description string) {
	if f.changeID != changeID {
		f.files = nil
		f.list = NewListState()
		f.diff = ""
		f.diffOffset = 0
	}
	f.changeID = changeID
	f.description = description
	f.errMsg = ""
}

// SetFiles installs the refreshed file list, preserving the selected
// path when it survived the refresh.
func (f *FilesTab) SetFiles(files []jj.FileChange) {
	prev := f.SelectedPath()
	f.files = files
	f.errMsg = ""
	f.list.SetCount(len(files))
	if len(files) == 0 {
		return
	}
	idx := 0
	for i, file := range files {
		if file.Path == prev {
			idx = i
			break
		}
	}
	f.list.Select(idx)
}

// SetError records a failed file query.
func (f *FilesTab) SetError(msg string) { f.errMsg = msg }

// SelectedPath returns the selected file path, "" when none.
func (f *FilesTab) SelectedPath() string {
	if f.list.Cursor < 0 || f.list.Cursor >= len(f.files) {
		return ""
	}
	return f.files[f.list.Cursor].Path
}

// SelectedIndex returns the cursor position, -1 for none.
func (f *FilesTab) SelectedIndex() int { return f.list.Cursor }

// Count returns the number of listed files.
func (f *FilesTab) Count() int { return len(f.files) }

// SetDiff installs the diff preview for the selected file.
func (f *FilesTab) SetDiff(content string) {
	f.diff = content
	f.diffErr = ""
	f.diffOffset = 0
}

// SetDiffError marks the preview as failed.
func (f *FilesTab) SetDiffError(msg string) { f.diffErr = msg }

func (f *FilesTab) Up()     { f.list.Up() }
func (f *FilesTab) Down()   { f.list.Down() }
func (f *FilesTab) Top()    { f.list.Top() }
func (f *FilesTab) Bottom() { f.list.Bottom() }

// HalfUp and HalfDown scroll the diff pane rather than the file list.
func (f *FilesTab) HalfUp() {
	f.diffOffset -= f.diffHeight() / 2
	if f.diffOffset < 0 {
		f.diffOffset = 0
	}
}

func (f *FilesTab) HalfDown() {
	lines := strings.Count(f.diff, "\n") + 1
	f.diffOffset += f.diffHeight() / 2
	if max := lines - f.diffHeight(); f.diffOffset > max {
		f.diffOffset = max
	}
	if f.diffOffset < 0 {
		f.diffOffset = 0
	}
}

// SetSize sets the outer dimensions.
func (f *FilesTab) SetSize(width, height int) {
	f.width = width
	f.height = height
	f.list.SetHeight(f.listHeight())
}

func (f *FilesTab) listWidth() int {
	if f.vertical {
		return f.width
	}
	return f.width / 3
}

func (f *FilesTab) listHeight() int {
	h := f.height
	if f.vertical {
		h = f.height / 3
	}
	return h - 2
}

func (f *FilesTab) diffHeight() int {
	if f.vertical {
		return f.height - (f.listHeight() + 2) - 2
	}
	return f.height - 2
}

// View renders the file list and diff split.
func (f *FilesTab) View(focused bool, wrap bool) string {
	title := "Files"
	if f.changeID != "" {
		title = "Files: " + f.changeID
	}
	listPane := borders.RenderTitledBorder(f.renderList(), title, f.listWidth(), f.listHeight()+2, focused)

	diffTitle := "Diff"
	if p := f.SelectedPath(); p != "" {
		diffTitle = "Diff: " + p
	}
	body := f.renderDiff(wrap)
	if f.vertical {
		diffPane := borders.RenderTitledBorder(body, diffTitle, f.width, f.diffHeight()+2, false)
		return lipgloss.JoinVertical(lipgloss.Left, listPane, diffPane)
	}
	diffPane := borders.RenderTitledBorder(body, diffTitle, f.width-f.listWidth(), f.diffHeight()+2, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, diffPane)
}

func (f *FilesTab) renderList() string {
	if f.errMsg != "" {
		return theme.ErrorStyle.Render("Error: " + f.errMsg)
	}
	if len(f.files) == 0 {
		return theme.DimmedStyle.Render("No changed files")
	}
	var b strings.Builder
	if f.description != "" {
		b.WriteString(theme.DimmedStyle.Render(firstLine(f.description)))
		b.WriteByte('\n')
	}
	start, end := f.list.Window()
	for i := start; i < end; i++ {
		file := f.files[i]
		line := theme.StatusStyle(file.Status).Render(file.Status) + " " + file.Path
		if i == f.list.Cursor {
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

func (f *FilesTab) renderDiff(wrap bool) string {
	if f.diffErr != "" {
		return theme.ErrorStyle.Render("Error: " + f.diffErr)
	}
	content := f.diff
	if wrap {
		w := f.width - f.listWidth() - 2
		if f.vertical {
			w = f.width - 2
		}
		if w > 0 {
			content = lipgloss.NewStyle().Width(w).Render(content)
		}
	}
	lines := strings.Split(content, "\n")
	if f.diffOffset >= len(lines) {
		f.diffOffset = 0
	}
	end := f.diffOffset + f.diffHeight()
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[f.diffOffset:end], "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
