// Package messages defines the tea.Msg types that carry command
// completions back into the control loop. Gateway calls run in their own
// goroutines; their results are folded into state only when the loop
// consumes one of these messages.
package messages

import "github.com/gerunddev/jujube/jj"

// RefreshScope names what must be re-queried after a successful mutation.
type RefreshScope int

const (
	RefreshNone RefreshScope = iota
	RefreshLog
	RefreshLogAndBookmarks
	RefreshFiles
)

// MutationDone reports a mutating call's completion, success or failure.
// Seq identifies the dispatch, so a completion only touches the popup
// and cancel handle that belong to it.
type MutationDone struct {
	Seq       int
	Op        string
	Err       error
	Cancelled bool
	Scope     RefreshScope
}

// LogRefreshed carries a materialized revset evaluation. Seq implements
// last-refresh-wins: the app drops results older than the newest applied.
type LogRefreshed struct {
	Seq    int
	Output *jj.LogOutput
	Err    error
}

// BookmarksLoaded carries the bookmark list.
type BookmarksLoaded struct {
	Seq       int
	Bookmarks []jj.Bookmark
	Err       error
}

// FilesLoaded carries the changed-file list of one change.
type FilesLoaded struct {
	Seq      int
	ChangeID string
	Files    []jj.FileChange
	Err      error
}

// DiffLoaded carries rendered diff content for the active preview.
type DiffLoaded struct {
	Seq     int
	Content string
	Err     error
}

// DescriptionLoaded pre-fills the describe prompt with the existing text.
type DescriptionLoaded struct {
	ChangeID string
	Text     string
	Err      error
}
