package keymap

import "github.com/charmbracelet/bubbles/key"

func bind(desc string, chords ...string) key.Binding {
	return key.NewBinding(
		key.WithKeys(chords...),
		key.WithHelp(helpKey(chords), desc),
	)
}

func helpKey(chords []string) string {
	if len(chords) == 0 {
		return ""
	}
	return chords[0]
}

func navBindings() map[Action]key.Binding {
	return map[Action]key.Binding{
		ActionUp:       bind("up", "k", "up"),
		ActionDown:     bind("down", "j", "down"),
		ActionHalfUp:   bind("half page up", "K", "ctrl+u"),
		ActionHalfDown: bind("half page down", "J", "ctrl+d"),
		ActionTop:      bind("top", "g", "home"),
		ActionBottom:   bind("bottom", "G", "end"),
	}
}

func merged(extra map[Action]key.Binding) map[Action]key.Binding {
	m := navBindings()
	for a, b := range extra {
		m[a] = b
	}
	return m
}

func defaultBindings() map[Context]map[Action]key.Binding {
	return map[Context]map[Action]key.Binding{
		Global: {
			ActionQuit:          bind("quit", "q", "ctrl+c"),
			ActionHelp:          bind("help", "?"),
			ActionNextTab:       bind("next tab", "tab"),
			ActionPrevTab:       bind("prev tab", "shift+tab"),
			ActionTabLog:        bind("log tab", "1"),
			ActionTabFiles:      bind("files tab", "2"),
			ActionTabBookmarks:  bind("bookmarks tab", "3"),
			ActionTabCommandLog: bind("command log tab", "4"),
			ActionTabHelp:       bind("help tab", "5"),
			ActionCommandPrompt: bind("jj command", ":"),
			ActionRefresh:       bind("refresh", "R", "f5"),
			ActionToggleFormat:  bind("diff format", "w"),
			ActionToggleWrap:    bind("wrap", "W"),
			ActionCancelRunning: bind("cancel operation", "x"),
		},
		Log: merged(map[Action]key.Binding{
			ActionFocusHead:   bind("focus working copy", "@"),
			ActionNew:         bind("new change", "n"),
			ActionNewDescribe: bind("new + describe", "N"),
			ActionDescribe:    bind("describe", "d"),
			ActionEditChange:  bind("edit", "e"),
			ActionAbandon:     bind("abandon", "a"),
			ActionSquash:      bind("squash", "s"),
			ActionRebase:      bind("rebase onto", "m"),
			ActionEditRevset:  bind("revset", "r"),
			ActionSetBookmark: bind("set bookmark", "b"),
			ActionOpenFiles:   bind("view files", "enter"),
			ActionFetch:       bind("fetch", "f"),
			ActionFetchAll:    bind("fetch all remotes", "F"),
			ActionPush:        bind("push", "p"),
			ActionPushAll:     bind("push all", "P"),
			ActionUndo:        bind("undo", "u"),
		}),
		Files: merged(map[Action]key.Binding{
			ActionRestoreFile: bind("discard file", "backspace", "delete"),
			ActionSquashFile:  bind("squash file", "s"),
			ActionDescribe:    bind("describe", "d"),
		}),
		Bookmarks: merged(map[Action]key.Binding{
			ActionBookmarkCreate:  bind("create", "c"),
			ActionBookmarkRename:  bind("rename", "r"),
			ActionBookmarkDelete:  bind("delete", "d"),
			ActionBookmarkForget:  bind("forget", "f"),
			ActionBookmarkTrack:   bind("track", "t"),
			ActionBookmarkUntrack: bind("untrack", "T"),
			ActionPush:            bind("push", "p"),
		}),
		CommandLog: navBindings(),
		Help:       navBindings(),
		Prompt: {
			ActionAccept: bind("save", "enter", "ctrl+s"),
			ActionCancel: bind("cancel", "esc", "ctrl+x"),
		},
		Confirm: {
			ActionAccept: bind("confirm", "enter"),
			ActionCancel: bind("cancel", "esc", "q"),
			ActionYes:    bind("yes", "y"),
			ActionNo:     bind("no", "n"),
			ActionLeft:   bind("left", "left", "h"),
			ActionRight:  bind("right", "right", "l"),
		},
		// The picker is a live text input: printable chords would shadow
		// typing, so navigation and cancel stick to non-printing keys.
		Picker: {
			ActionUp:     bind("up", "up"),
			ActionDown:   bind("down", "down"),
			ActionAccept: bind("select", "enter"),
			ActionCancel: bind("cancel", "esc"),
		},
	}
}

// helpOrder fixes the rendering order of the help tab, per context.
var helpOrder = map[Context][]Action{
	Global: {
		ActionQuit, ActionHelp, ActionNextTab, ActionPrevTab,
		ActionTabLog, ActionTabFiles, ActionTabBookmarks,
		ActionTabCommandLog, ActionTabHelp, ActionCommandPrompt,
		ActionRefresh, ActionToggleFormat, ActionToggleWrap,
		ActionCancelRunning,
	},
	Log: {
		ActionUp, ActionDown, ActionHalfUp, ActionHalfDown,
		ActionTop, ActionBottom, ActionFocusHead,
		ActionNew, ActionNewDescribe, ActionDescribe, ActionEditChange,
		ActionAbandon, ActionSquash, ActionRebase, ActionEditRevset,
		ActionSetBookmark,
		ActionOpenFiles, ActionFetch, ActionFetchAll,
		ActionPush, ActionPushAll, ActionUndo,
	},
	Files: {
		ActionUp, ActionDown, ActionHalfUp, ActionHalfDown,
		ActionTop, ActionBottom,
		ActionRestoreFile, ActionSquashFile, ActionDescribe,
	},
	Bookmarks: {
		ActionUp, ActionDown, ActionHalfUp, ActionHalfDown,
		ActionTop, ActionBottom,
		ActionBookmarkCreate, ActionBookmarkRename, ActionBookmarkDelete,
		ActionBookmarkForget, ActionBookmarkTrack, ActionBookmarkUntrack,
		ActionPush,
	},
	CommandLog: {
		ActionUp, ActionDown, ActionHalfUp, ActionHalfDown,
		ActionTop, ActionBottom,
	},
	Help: {
		ActionUp, ActionDown, ActionHalfUp, ActionHalfDown,
		ActionTop, ActionBottom,
	},
	Prompt: {ActionAccept, ActionCancel},
	Confirm: {
		ActionYes, ActionNo, ActionLeft, ActionRight,
		ActionAccept, ActionCancel,
	},
	Picker: {ActionUp, ActionDown, ActionAccept, ActionCancel},
}
