// Package ui holds the application model: one bubbletea program that
// routes key events through the keymap, folds command completions into
// tab state, and owns the single popup slot.
package ui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/gerunddev/jujube/config"
	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/floating"
	"github.com/gerunddev/jujube/ui/messages"
	"github.com/gerunddev/jujube/ui/tabs"
	"github.com/gerunddev/jujube/ui/theme"
)

// Gateway is the command surface the app drives. *jj.Runner implements
// it; tests substitute a fake.
type Gateway interface {
	Log(ctx context.Context, revset string) (*jj.LogOutput, error)
	Diff(ctx context.Context, changeID string, format jj.DiffFormat, path string) (string, error)
	Files(ctx context.Context, changeID string) ([]jj.FileChange, error)
	Bookmarks(ctx context.Context) ([]jj.Bookmark, error)
	Description(ctx context.Context, changeID string) (string, error)

	New(ctx context.Context, base string) (string, error)
	Edit(ctx context.Context, changeID string) (string, error)
	Abandon(ctx context.Context, changeID string) (string, error)
	Describe(ctx context.Context, changeID, message string) (string, error)
	Squash(ctx context.Context, changeID string) (string, error)
	Rebase(ctx context.Context, source, dest string) (string, error)
	SquashFile(ctx context.Context, changeID, path string) (string, error)
	Restore(ctx context.Context, path string) (string, error)
	BookmarkSet(ctx context.Context, name, changeID string) (string, error)
	BookmarkCreate(ctx context.Context, name, changeID string) (string, error)
	BookmarkRename(ctx context.Context, old, new string) (string, error)
	BookmarkDelete(ctx context.Context, name string) (string, error)
	BookmarkForget(ctx context.Context, name string) (string, error)
	BookmarkTrack(ctx context.Context, nameAtRemote string) (string, error)
	BookmarkUntrack(ctx context.Context, nameAtRemote string) (string, error)
	GitFetch(ctx context.Context, allRemotes bool) (string, error)
	GitPush(ctx context.Context, bookmark string, allowNew bool) (string, error)
	Undo(ctx context.Context) (string, error)
	RawMutate(ctx context.Context, argLine string) (string, error)

	Records() []*jj.Record
}

// Tab indexes the five tabs in display order.
type Tab int

const (
	TabLog Tab = iota
	TabFiles
	TabBookmarks
	TabCommandLog
	TabHelp
)

var tabTitles = [...]string{"Log", "Files", "Bookmarks", "Command Log", "Help"}

func (t Tab) context() keymap.Context {
	switch t {
	case TabFiles:
		return keymap.Files
	case TabBookmarks:
		return keymap.Bookmarks
	case TabCommandLog:
		return keymap.CommandLog
	case TabHelp:
		return keymap.Help
	default:
		return keymap.Log
	}
}

// popup is the single floating window slot. Key routing happens here,
// not in the overlays; they only hold state.
type popup interface {
	Context() keymap.Context
	View() string
	SetSize(width, height int)
}

// App is the top-level model.
type App struct {
	gw     Gateway
	keymap *keymap.Keymap
	logger *log.Logger

	logTab       *tabs.LogTab
	filesTab     *tabs.FilesTab
	bookmarksTab *tabs.BookmarksTab
	cmdLogTab    *tabs.CommandLogTab
	helpTab      *tabs.HelpTab

	active Tab

	popup         popup
	onAccept      func(value string) tea.Cmd // prompt/picker submit
	acceptKeeps   bool                       // popup stays open until MutationDone
	onConfirm     func() tea.Cmd             // confirm dialog accept
	popupMutSeq   int                        // dispatch the open popup is waiting on, 0 for none
	wantDescribe  string                     // change id awaiting DescriptionLoaded
	describeScope messages.RefreshScope

	diffFormat     jj.DiffFormat
	wrap           bool
	vertical       bool
	bookmarkPrefix string

	// Issued/applied sequence pairs, one lane per refresh kind. A result
	// older than the newest applied one is stale and dropped.
	logSeq, logApplied   int
	bmSeq, bmApplied     int
	fileSeq, fileApplied int
	diffSeq, diffApplied int

	// mutSeq numbers every dispatched mutation; runningSeq marks the
	// one the cancel key and status line refer to.
	mutSeq        int
	runningSeq    int
	cancelRunning context.CancelFunc
	runningOp     string

	headChangeID string
	status       string

	width, height int
	ready         bool
}

// NewApp builds the model from a resolved keymap and configuration.
func NewApp(gw Gateway, km *keymap.Keymap, cfg *config.Config, logger *log.Logger) *App {
	vertical := cfg.Layout == "vertical"
	return &App{
		gw:             gw,
		keymap:         km,
		logger:         logger,
		logTab:         tabs.NewLogTab(cfg.Revset, cfg.HighlightColor, vertical),
		filesTab:       tabs.NewFilesTab(vertical),
		bookmarksTab:   tabs.NewBookmarksTab(),
		cmdLogTab:      tabs.NewCommandLogTab(vertical),
		helpTab:        tabs.NewHelpTab(km),
		diffFormat:     jj.ParseDiffFormat(cfg.DiffFormat),
		vertical:       vertical,
		bookmarkPrefix: cfg.BookmarkPrefix,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.refreshLog(), a.refreshBookmarks())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.LogRefreshed:
		return a.onLogRefreshed(msg)
	case messages.BookmarksLoaded:
		return a.onBookmarksLoaded(msg)
	case messages.FilesLoaded:
		return a.onFilesLoaded(msg)
	case messages.DiffLoaded:
		return a.onDiffLoaded(msg)
	case messages.DescriptionLoaded:
		return a.onDescriptionLoaded(msg)
	case messages.MutationDone:
		return a.onMutationDone(msg)
	}
	return a, nil
}

func (a *App) layout() {
	if !a.ready {
		return
	}
	contentHeight := a.height - 2 // tab bar and help bar
	a.logTab.SetSize(a.width, contentHeight)
	a.filesTab.SetSize(a.width, contentHeight)
	a.bookmarksTab.SetSize(a.width, contentHeight)
	a.cmdLogTab.SetSize(a.width, contentHeight)
	a.helpTab.SetSize(a.width, contentHeight)
	if a.popup != nil {
		a.popup.SetSize(a.width, a.height)
	}
}

// --- key routing ---

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""
	if a.popup != nil {
		return a.handlePopupKey(msg)
	}

	ctx := a.active.context()
	action, ok := a.keymap.Resolve(msg, ctx)
	if !ok {
		return a, nil
	}

	if cmd, handled := a.handleGlobal(action); handled {
		return a, cmd
	}
	if cmd, handled := a.handleNavigation(action); handled {
		return a, cmd
	}

	switch a.active {
	case TabLog:
		return a, a.handleLogAction(action)
	case TabFiles:
		return a, a.handleFilesAction(action)
	case TabBookmarks:
		return a, a.handleBookmarksAction(action)
	}
	return a, nil
}

func (a *App) handleGlobal(action keymap.Action) (tea.Cmd, bool) {
	switch action {
	case keymap.ActionQuit:
		return tea.Quit, true
	case keymap.ActionHelp, keymap.ActionTabHelp:
		a.active = TabHelp
		return nil, true
	case keymap.ActionNextTab:
		a.switchTab(Tab((int(a.active) + 1) % len(tabTitles)))
		return nil, true
	case keymap.ActionPrevTab:
		a.switchTab(Tab((int(a.active) + len(tabTitles) - 1) % len(tabTitles)))
		return nil, true
	case keymap.ActionTabLog:
		a.switchTab(TabLog)
		return nil, true
	case keymap.ActionTabFiles:
		return a.openFilesFor(a.logTab.SelectedChange()), true
	case keymap.ActionTabBookmarks:
		a.switchTab(TabBookmarks)
		return nil, true
	case keymap.ActionTabCommandLog:
		a.switchTab(TabCommandLog)
		return nil, true
	case keymap.ActionCommandPrompt:
		p := floating.NewPrompt("jj command", "git fetch", "")
		p.SetHint("arguments after \"jj\", run verbatim")
		a.openPrompt(p, true, func(value string) tea.Cmd {
			return a.dispatchMutation("jj "+value, messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.RawMutate(ctx, value) })
		})
		return p.Init(), true
	case keymap.ActionRefresh:
		return a.refreshAll(), true
	case keymap.ActionToggleFormat:
		a.diffFormat = a.diffFormat.Toggle()
		return a.reloadDiff(), true
	case keymap.ActionToggleWrap:
		a.wrap = !a.wrap
		return nil, true
	case keymap.ActionCancelRunning:
		if a.cancelRunning != nil {
			a.cancelRunning()
			a.status = "cancelling " + a.runningOp
		}
		return nil, true
	}
	return nil, false
}

func (a *App) handleNavigation(action keymap.Action) (tea.Cmd, bool) {
	type mover interface {
		Up()
		Down()
		HalfUp()
		HalfDown()
		Top()
		Bottom()
	}
	var m mover
	switch a.active {
	case TabLog:
		m = a.logTab
	case TabFiles:
		m = a.filesTab
	case TabBookmarks:
		m = a.bookmarksTab
	case TabCommandLog:
		m = a.cmdLogTab
	case TabHelp:
		m = a.helpTab
	}

	before := a.selectionFingerprint()
	switch action {
	case keymap.ActionUp:
		m.Up()
	case keymap.ActionDown:
		m.Down()
	case keymap.ActionHalfUp:
		m.HalfUp()
	case keymap.ActionHalfDown:
		m.HalfDown()
	case keymap.ActionTop:
		m.Top()
	case keymap.ActionBottom:
		m.Bottom()
	default:
		return nil, false
	}
	if a.selectionFingerprint() != before {
		return a.reloadDiff(), true
	}
	return nil, true
}

// selectionFingerprint identifies the entity whose diff the preview pane
// shows, so navigation only reloads it on real selection moves.
func (a *App) selectionFingerprint() string {
	switch a.active {
	case TabLog:
		return "log:" + a.logTab.SelectedChangeID()
	case TabFiles:
		return "files:" + a.filesTab.ChangeID() + ":" + a.filesTab.SelectedPath()
	}
	return ""
}

func (a *App) switchTab(t Tab) {
	a.active = t
	if t == TabCommandLog {
		a.syncRecords()
	}
}

// syncRecords re-snapshots the gateway's append-only record list so the
// command log tab reflects read-only queries too, not just mutations.
func (a *App) syncRecords() {
	a.cmdLogTab.SetRecords(a.gw.Records())
}

// --- per-tab actions ---

func (a *App) handleLogAction(action keymap.Action) tea.Cmd {
	sel := a.logTab.SelectedChange()
	switch action {
	case keymap.ActionFocusHead:
		a.logTab.FocusHead()
		return a.reloadDiff()
	case keymap.ActionOpenFiles:
		return a.openFilesFor(sel)
	case keymap.ActionNew:
		base := ""
		if sel != nil {
			base = sel.ChangeID
		}
		return a.dispatchMutation("new", messages.RefreshLog,
			func(ctx context.Context) (string, error) { return a.gw.New(ctx, base) })
	case keymap.ActionNewDescribe:
		base := ""
		if sel != nil {
			base = sel.ChangeID
		}
		p := floating.NewPrompt("Describe new change", "summary", "")
		a.openPrompt(p, true, func(value string) tea.Cmd {
			return a.dispatchMutation("new", messages.RefreshLog,
				func(ctx context.Context) (string, error) {
					if _, err := a.gw.New(ctx, base); err != nil {
						return "", err
					}
					return a.gw.Describe(ctx, "@", value)
				})
		})
		return p.Init()
	case keymap.ActionDescribe:
		if sel == nil {
			return nil
		}
		return a.loadDescription(sel.ChangeID, messages.RefreshLog)
	case keymap.ActionEditChange:
		if sel == nil {
			return nil
		}
		if sel.Immutable {
			a.status = "change " + sel.ChangeID + " is immutable"
			return nil
		}
		id := sel.ChangeID
		return a.dispatchMutation("edit", messages.RefreshLog,
			func(ctx context.Context) (string, error) { return a.gw.Edit(ctx, id) })
	case keymap.ActionAbandon:
		if sel == nil {
			return nil
		}
		if sel.Immutable {
			a.status = "change " + sel.ChangeID + " is immutable"
			return nil
		}
		id := sel.ChangeID
		a.openConfirm("Abandon change", "Abandon "+id+"?", func() tea.Cmd {
			return a.dispatchMutation("abandon", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.Abandon(ctx, id) })
		})
		return nil
	case keymap.ActionSquash:
		if sel == nil {
			return nil
		}
		id := sel.ChangeID
		a.openConfirm("Squash change", "Squash "+id+" into its parent?", func() tea.Cmd {
			return a.dispatchMutation("squash", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.Squash(ctx, id) })
		})
		return nil
	case keymap.ActionRebase:
		if sel == nil {
			return nil
		}
		if sel.Immutable {
			a.status = "change " + sel.ChangeID + " is immutable"
			return nil
		}
		id := sel.ChangeID
		p := floating.NewPrompt("Rebase "+id+" onto", "destination", "@-")
		p.SetHint("destination revision; descendants follow")
		a.openPrompt(p, true, func(value string) tea.Cmd {
			dest := strings.TrimSpace(value)
			return a.dispatchMutation("rebase", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.Rebase(ctx, id, dest) })
		})
		return p.Init()
	case keymap.ActionEditRevset:
		p := floating.NewPrompt("Revset", "all()", a.logTab.Revset())
		p.SetHint("empty resets to the default revset")
		a.openPrompt(p, false, func(value string) tea.Cmd {
			a.logTab.SetRevset(strings.TrimSpace(value))
			return a.refreshLog()
		})
		return p.Init()
	case keymap.ActionSetBookmark:
		if sel == nil {
			return nil
		}
		id := sel.ChangeID
		names := a.bookmarkNames()
		p := floating.NewPicker("Set bookmark on "+id, names, a.bookmarkPrefix)
		a.openPicker(p, func(value string) tea.Cmd {
			return a.dispatchMutation("bookmark set", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.BookmarkSet(ctx, value, id) })
		})
		return p.Init()
	case keymap.ActionFetch:
		return a.dispatchMutation("git fetch", messages.RefreshLogAndBookmarks,
			func(ctx context.Context) (string, error) { return a.gw.GitFetch(ctx, false) })
	case keymap.ActionFetchAll:
		return a.dispatchMutation("git fetch --all-remotes", messages.RefreshLogAndBookmarks,
			func(ctx context.Context) (string, error) { return a.gw.GitFetch(ctx, true) })
	case keymap.ActionPush:
		return a.dispatchMutation("git push", messages.RefreshLogAndBookmarks,
			func(ctx context.Context) (string, error) { return a.gw.GitPush(ctx, "", false) })
	case keymap.ActionPushAll:
		a.openConfirm("Push", "Push all bookmarks, including new ones?", func() tea.Cmd {
			return a.dispatchMutation("git push --allow-new", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.GitPush(ctx, "", true) })
		})
		return nil
	case keymap.ActionUndo:
		a.openConfirm("Undo", "Undo the last operation?", func() tea.Cmd {
			return a.dispatchMutation("undo", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.Undo(ctx) })
		})
		return nil
	}
	return nil
}

func (a *App) handleFilesAction(action keymap.Action) tea.Cmd {
	path := a.filesTab.SelectedPath()
	switch action {
	case keymap.ActionRestoreFile:
		if path == "" {
			return nil
		}
		if a.filesTab.ChangeID() != a.headChangeID {
			a.status = "restore only applies to the working copy"
			return nil
		}
		a.openConfirm("Discard changes", "Discard changes to "+path+"?", func() tea.Cmd {
			return a.dispatchMutation("restore", messages.RefreshFiles,
				func(ctx context.Context) (string, error) { return a.gw.Restore(ctx, path) })
		})
		return nil
	case keymap.ActionSquashFile:
		if path == "" {
			return nil
		}
		id := a.filesTab.ChangeID()
		a.openConfirm("Squash file", "Squash "+path+" into the parent?", func() tea.Cmd {
			return a.dispatchMutation("squash file", messages.RefreshFiles,
				func(ctx context.Context) (string, error) { return a.gw.SquashFile(ctx, id, path) })
		})
		return nil
	case keymap.ActionDescribe:
		if id := a.filesTab.ChangeID(); id != "" {
			return a.loadDescription(id, messages.RefreshLog)
		}
	}
	return nil
}

func (a *App) handleBookmarksAction(action keymap.Action) tea.Cmd {
	sel := a.bookmarksTab.Selected()
	switch action {
	case keymap.ActionBookmarkCreate:
		p := floating.NewPrompt("Create bookmark", "name", a.bookmarkPrefix)
		a.openPrompt(p, true, func(value string) tea.Cmd {
			name := strings.TrimSpace(value)
			return a.dispatchMutation("bookmark create", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.BookmarkCreate(ctx, name, "@") })
		})
		return p.Init()
	case keymap.ActionBookmarkRename:
		if sel == nil || sel.Remote != "" {
			return nil
		}
		old := sel.Name
		p := floating.NewPrompt("Rename bookmark "+old, "new name", old)
		a.openPrompt(p, true, func(value string) tea.Cmd {
			name := strings.TrimSpace(value)
			return a.dispatchMutation("bookmark rename", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.BookmarkRename(ctx, old, name) })
		})
		return p.Init()
	case keymap.ActionBookmarkDelete:
		if sel == nil {
			return nil
		}
		name := sel.Name
		a.openConfirm("Delete bookmark", "Delete "+name+"? Deletion propagates on push.", func() tea.Cmd {
			return a.dispatchMutation("bookmark delete", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.BookmarkDelete(ctx, name) })
		})
		return nil
	case keymap.ActionBookmarkForget:
		if sel == nil {
			return nil
		}
		name := sel.Name
		a.openConfirm("Forget bookmark", "Forget "+name+" without propagating?", func() tea.Cmd {
			return a.dispatchMutation("bookmark forget", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.BookmarkForget(ctx, name) })
		})
		return nil
	case keymap.ActionBookmarkTrack:
		if sel == nil || sel.Remote == "" || sel.Tracked {
			return nil
		}
		ref := sel.Display()
		return a.dispatchMutation("bookmark track", messages.RefreshLogAndBookmarks,
			func(ctx context.Context) (string, error) { return a.gw.BookmarkTrack(ctx, ref) })
	case keymap.ActionBookmarkUntrack:
		if sel == nil || sel.Remote == "" || !sel.Tracked {
			return nil
		}
		ref := sel.Display()
		return a.dispatchMutation("bookmark untrack", messages.RefreshLogAndBookmarks,
			func(ctx context.Context) (string, error) { return a.gw.BookmarkUntrack(ctx, ref) })
	case keymap.ActionPush:
		if sel == nil {
			return nil
		}
		name := sel.Name
		a.openConfirm("Push bookmark", "Push "+name+"?", func() tea.Cmd {
			return a.dispatchMutation("git push", messages.RefreshLogAndBookmarks,
				func(ctx context.Context) (string, error) { return a.gw.GitPush(ctx, name, true) })
		})
		return nil
	}
	return nil
}

func (a *App) bookmarkNames() []string {
	return a.bookmarksTab.LocalNames()
}

// --- popups ---

func (a *App) openPrompt(p *floating.Prompt, keepsOpen bool, accept func(string) tea.Cmd) {
	a.popup = p
	a.onAccept = accept
	a.acceptKeeps = keepsOpen
	a.layout()
}

func (a *App) openPicker(p *floating.Picker, accept func(string) tea.Cmd) {
	a.popup = p
	a.onAccept = accept
	a.acceptKeeps = true
	a.layout()
}

func (a *App) openConfirm(title, message string, confirm func() tea.Cmd) {
	c := floating.NewConfirm(title, message)
	a.popup = c
	a.onConfirm = confirm
	a.layout()
}

func (a *App) closePopup() {
	a.popup = nil
	a.onAccept = nil
	a.onConfirm = nil
	a.acceptKeeps = false
	a.popupMutSeq = 0
}

func (a *App) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, resolved := a.keymap.Resolve(msg, a.popup.Context())

	switch p := a.popup.(type) {
	case *floating.Prompt:
		if !resolved {
			return a, p.Update(msg)
		}
		switch action {
		case keymap.ActionAccept:
			if p.Pending() || a.onAccept == nil {
				return a, nil
			}
			cmd := a.onAccept(p.Value())
			if a.acceptKeeps {
				p.SetPending(true)
				a.popupMutSeq = a.mutSeq
			} else {
				a.closePopup()
			}
			return a, cmd
		case keymap.ActionCancel:
			a.closePopup()
			return a, nil
		}

	case *floating.Picker:
		if !resolved {
			return a, p.Update(msg)
		}
		switch action {
		case keymap.ActionUp:
			p.Up()
		case keymap.ActionDown:
			p.Down()
		case keymap.ActionAccept:
			if p.Pending() || p.Value() == "" || a.onAccept == nil {
				return a, nil
			}
			cmd := a.onAccept(p.Value())
			p.SetPending(true)
			a.popupMutSeq = a.mutSeq
			return a, cmd
		case keymap.ActionCancel:
			a.closePopup()
		}
		return a, nil

	case *floating.Confirm:
		if !resolved {
			return a, nil
		}
		switch action {
		case keymap.ActionYes, keymap.ActionLeft:
			p.SelectYes()
		case keymap.ActionNo, keymap.ActionRight:
			p.SelectNo()
		case keymap.ActionAccept:
			if p.Pending() {
				return a, nil
			}
			if !p.Confirmed() || a.onConfirm == nil {
				a.closePopup()
				return a, nil
			}
			cmd := a.onConfirm()
			p.SetPending(true)
			a.popupMutSeq = a.mutSeq
			return a, cmd
		case keymap.ActionCancel:
			a.closePopup()
		}
		return a, nil
	}
	return a, nil
}

// --- command dispatch and refresh ---

// dispatchMutation runs one mutating operation in its own goroutine and
// remembers its cancel handle. Ordering is the gateway's job; the app
// only tracks the in-flight operation for the cancel key.
func (a *App) dispatchMutation(op string, scope messages.RefreshScope, fn func(context.Context) (string, error)) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	a.mutSeq++
	seq := a.mutSeq
	a.runningSeq = seq
	a.cancelRunning = cancel
	a.runningOp = op
	a.status = "running " + op
	return func() tea.Msg {
		_, err := fn(ctx)
		cancelled := errors.Is(ctx.Err(), context.Canceled)
		cancel()
		return messages.MutationDone{Seq: seq, Op: op, Err: err, Cancelled: cancelled, Scope: scope}
	}
}

func (a *App) refreshAll() tea.Cmd {
	cmds := []tea.Cmd{a.refreshLog(), a.refreshBookmarks()}
	if a.filesTab.ChangeID() != "" {
		cmds = append(cmds, a.refreshFiles())
	}
	return tea.Batch(cmds...)
}

func (a *App) refreshScope(scope messages.RefreshScope) tea.Cmd {
	switch scope {
	case messages.RefreshLog:
		return a.refreshLog()
	case messages.RefreshLogAndBookmarks:
		return tea.Batch(a.refreshLog(), a.refreshBookmarks())
	case messages.RefreshFiles:
		return tea.Batch(a.refreshLog(), a.refreshFiles())
	}
	return nil
}

func (a *App) refreshLog() tea.Cmd {
	a.logSeq++
	seq := a.logSeq
	revset := a.logTab.Revset()
	return func() tea.Msg {
		out, err := a.gw.Log(context.Background(), revset)
		return messages.LogRefreshed{Seq: seq, Output: out, Err: err}
	}
}

func (a *App) refreshBookmarks() tea.Cmd {
	a.bmSeq++
	seq := a.bmSeq
	return func() tea.Msg {
		bms, err := a.gw.Bookmarks(context.Background())
		return messages.BookmarksLoaded{Seq: seq, Bookmarks: bms, Err: err}
	}
}

func (a *App) refreshFiles() tea.Cmd {
	a.fileSeq++
	seq := a.fileSeq
	id := a.filesTab.ChangeID()
	return func() tea.Msg {
		files, err := a.gw.Files(context.Background(), id)
		return messages.FilesLoaded{Seq: seq, ChangeID: id, Files: files, Err: err}
	}
}

// reloadDiff fetches the preview for whatever the active tab selects.
func (a *App) reloadDiff() tea.Cmd {
	var changeID, path string
	switch a.active {
	case TabLog:
		changeID = a.logTab.SelectedChangeID()
	case TabFiles:
		changeID = a.filesTab.ChangeID()
		path = a.filesTab.SelectedPath()
	default:
		return nil
	}
	if changeID == "" {
		return nil
	}
	a.diffSeq++
	seq := a.diffSeq
	format := a.diffFormat
	return func() tea.Msg {
		content, err := a.gw.Diff(context.Background(), changeID, format, path)
		return messages.DiffLoaded{Seq: seq, Content: content, Err: err}
	}
}

func (a *App) loadDescription(changeID string, scope messages.RefreshScope) tea.Cmd {
	a.wantDescribe = changeID
	a.describeScope = scope
	return func() tea.Msg {
		text, err := a.gw.Description(context.Background(), changeID)
		return messages.DescriptionLoaded{ChangeID: changeID, Text: text, Err: err}
	}
}

func (a *App) openFilesFor(sel *jj.Change) tea.Cmd {
	if sel == nil {
		a.switchTab(TabFiles)
		return nil
	}
	a.filesTab.SetChange(sel.ChangeID, sel.Description)
	a.switchTab(TabFiles)
	return tea.Batch(a.refreshFiles(), a.reloadDiff())
}

// --- message folding ---

func (a *App) onLogRefreshed(msg messages.LogRefreshed) (tea.Model, tea.Cmd) {
	if msg.Seq <= a.logApplied {
		return a, nil
	}
	a.logApplied = msg.Seq
	a.syncRecords()
	if msg.Err != nil {
		// The previous working set stays; only the indicator changes.
		a.logTab.SetRevsetError(errText(msg.Err))
		return a, nil
	}
	a.logTab.SetOutput(msg.Output)
	a.headChangeID = ""
	if idx := msg.Output.HeadIndex(); idx >= 0 {
		a.headChangeID = msg.Output.Changes[idx].ChangeID
	}
	if a.active == TabLog {
		return a, a.reloadDiff()
	}
	return a, nil
}

func (a *App) onBookmarksLoaded(msg messages.BookmarksLoaded) (tea.Model, tea.Cmd) {
	if msg.Seq <= a.bmApplied {
		return a, nil
	}
	a.bmApplied = msg.Seq
	a.syncRecords()
	if msg.Err != nil {
		a.bookmarksTab.SetError(errText(msg.Err))
		return a, nil
	}
	a.bookmarksTab.SetBookmarks(msg.Bookmarks)
	return a, nil
}

func (a *App) onFilesLoaded(msg messages.FilesLoaded) (tea.Model, tea.Cmd) {
	if msg.Seq <= a.fileApplied || msg.ChangeID != a.filesTab.ChangeID() {
		return a, nil
	}
	a.fileApplied = msg.Seq
	a.syncRecords()
	if msg.Err != nil {
		a.filesTab.SetError(errText(msg.Err))
		return a, nil
	}
	a.filesTab.SetFiles(msg.Files)
	if a.active == TabFiles {
		return a, a.reloadDiff()
	}
	return a, nil
}

func (a *App) onDiffLoaded(msg messages.DiffLoaded) (tea.Model, tea.Cmd) {
	if msg.Seq <= a.diffApplied {
		return a, nil
	}
	a.diffApplied = msg.Seq
	target := a.logTab.SetDiff
	targetErr := a.logTab.SetDiffError
	if a.active == TabFiles {
		target = a.filesTab.SetDiff
		targetErr = a.filesTab.SetDiffError
	}
	if msg.Err != nil {
		targetErr(errText(msg.Err))
		return a, nil
	}
	target(msg.Content)
	return a, nil
}

func (a *App) onDescriptionLoaded(msg messages.DescriptionLoaded) (tea.Model, tea.Cmd) {
	if msg.ChangeID != a.wantDescribe || a.popup != nil {
		return a, nil
	}
	a.wantDescribe = ""
	initial := msg.Text
	if msg.Err != nil {
		initial = ""
	}
	id := msg.ChangeID
	scope := a.describeScope
	p := floating.NewPrompt("Describe "+id, "summary", initial)
	a.openPrompt(p, true, func(value string) tea.Cmd {
		return a.dispatchMutation("describe", scope,
			func(ctx context.Context) (string, error) { return a.gw.Describe(ctx, id, value) })
	})
	return a, p.Init()
}

func (a *App) onMutationDone(msg messages.MutationDone) (tea.Model, tea.Cmd) {
	if msg.Seq == a.runningSeq {
		a.runningSeq = 0
		a.cancelRunning = nil
		a.runningOp = ""
	}
	a.syncRecords()

	// A completion only owns the popup it was submitted from; an older
	// mutation finishing in the background must not touch a prompt the
	// user has opened since.
	popupOwns := a.popup != nil && a.popupMutSeq != 0 && a.popupMutSeq == msg.Seq

	switch {
	case msg.Cancelled:
		a.status = msg.Op + " cancelled"
		if popupOwns {
			a.setPopupError("cancelled")
		}
		return a, nil
	case msg.Err != nil:
		text := errText(msg.Err)
		if a.logger != nil {
			a.logger.Error("command failed", "op", msg.Op, "err", msg.Err)
		}
		if popupOwns {
			a.setPopupError(text)
		} else {
			a.status = msg.Op + " failed: " + text
		}
		return a, nil
	}

	a.status = msg.Op + " done"
	if popupOwns {
		a.closePopup()
	}
	return a, a.refreshScope(msg.Scope)
}

func (a *App) setPopupError(text string) {
	switch p := a.popup.(type) {
	case *floating.Prompt:
		p.SetError(text)
	case *floating.Picker:
		p.SetError(text)
	case *floating.Confirm:
		p.SetError(text)
	}
}

// errText reduces an error to the line worth showing, preferring the
// command's own stderr.
func errText(err error) string {
	var exit *jj.ExitError
	if errors.As(err, &exit) && exit.Stderr != "" {
		s := strings.TrimSpace(exit.Stderr)
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[:i]
		}
		return s
	}
	return err.Error()
}

// --- rendering ---

func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.popup != nil {
		return a.popup.View()
	}

	var content string
	switch a.active {
	case TabLog:
		content = a.logTab.View(true, a.wrap)
	case TabFiles:
		content = a.filesTab.View(true, a.wrap)
	case TabBookmarks:
		content = a.bookmarksTab.View(true)
	case TabCommandLog:
		content = a.cmdLogTab.View(true)
	case TabHelp:
		content = a.helpTab.View(true)
	}

	bar := renderHelpBar(a.keymap, a.active.context(), a.status, a.width)
	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabBar(), content, bar)
}

func (a *App) renderTabBar() string {
	parts := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		label := " " + title + " "
		if Tab(i) == a.active {
			parts[i] = theme.FocusedTitleStyle.Render(label)
		} else {
			parts[i] = theme.DimmedStyle.Render(label)
		}
	}
	return strings.Join(parts, theme.DimmedStyle.Render("│"))
}
