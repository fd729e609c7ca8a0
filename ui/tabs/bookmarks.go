package tabs

import (
	"strings"

	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/ui/borders"
	"github.com/gerunddev/jujube/ui/theme"
)

// BookmarksTab lists the repository's bookmarks.
type BookmarksTab struct {
	bookmarks []jj.Bookmark
	list      ListState
	errMsg    string

	width, height int
}

func NewBookmarksTab() *BookmarksTab {
	return &BookmarksTab{list: NewListState()}
}

// SetBookmarks installs the refreshed list, preserving the selection by
// display name when it survived.
func (b *BookmarksTab) SetBookmarks(bookmarks []jj.Bookmark) {
	prev := ""
	if sel := b.Selected(); sel != nil {
		prev = sel.Display()
	}
	b.bookmarks = bookmarks
	b.errMsg = ""
	b.list.SetCount(len(bookmarks))
	if len(bookmarks) == 0 {
		return
	}
	idx := 0
	for i, bm := range bookmarks {
		if bm.Display() == prev {
			idx = i
			break
		}
	}
	b.list.Select(idx)
}

// SetError records a failed bookmark query.
func (b *BookmarksTab) SetError(msg string) { b.errMsg = msg }

// LocalNames returns the local bookmark names, deduplicated, for the
// set-bookmark picker.
func (b *BookmarksTab) LocalNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, bm := range b.bookmarks {
		if bm.Remote != "" || seen[bm.Name] {
			continue
		}
		seen[bm.Name] = true
		names = append(names, bm.Name)
	}
	return names
}

// Selected returns the selected bookmark, or nil.
func (b *BookmarksTab) Selected() *jj.Bookmark {
	if b.list.Cursor < 0 || b.list.Cursor >= len(b.bookmarks) {
		return nil
	}
	return &b.bookmarks[b.list.Cursor]
}

// SelectedIndex returns the cursor position, -1 for none.
func (b *BookmarksTab) SelectedIndex() int { return b.list.Cursor }

// Count returns the number of listed bookmarks.
func (b *BookmarksTab) Count() int { return len(b.bookmarks) }

func (b *BookmarksTab) Up()       { b.list.Up() }
func (b *BookmarksTab) Down()     { b.list.Down() }
func (b *BookmarksTab) HalfUp()   { b.list.HalfUp() }
func (b *BookmarksTab) HalfDown() { b.list.HalfDown() }
func (b *BookmarksTab) Top()      { b.list.Top() }
func (b *BookmarksTab) Bottom()   { b.list.Bottom() }

func (b *BookmarksTab) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.list.SetHeight(height - 2)
}

func (b *BookmarksTab) View(focused bool) string {
	return borders.RenderTitledBorder(b.render(), "Bookmarks", b.width, b.height, focused)
}

func (b *BookmarksTab) render() string {
	if b.errMsg != "" {
		return theme.ErrorStyle.Render("Error: " + b.errMsg)
	}
	if len(b.bookmarks) == 0 {
		return theme.DimmedStyle.Render("No bookmarks")
	}
	var sb strings.Builder
	start, end := b.list.Window()
	for i := start; i < end; i++ {
		bm := b.bookmarks[i]
		name := theme.BookmarkStyle.Render(bm.Name)
		if bm.Remote != "" {
			name += theme.RemoteStyle.Render("@" + bm.Remote)
		}
		line := name
		if bm.ChangeID != "" {
			line += " " + theme.ChangeIDStyle.Render(bm.ChangeID)
		}
		if bm.Remote != "" && !bm.Tracked {
			line += " " + theme.DimmedStyle.Render("(untracked)")
		}
		if i == b.list.Cursor {
			line = theme.SelectedItemStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
