// Package keymap maps raw key events to logical actions. The binding
// table is layered: built-in defaults per context, overridden
// entry-by-entry from user configuration. An override fully replaces the
// default chord set for that action; an explicit disable removes the
// binding without falling back to the default.
package keymap

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Context names a binding scope. Tab contexts fall back to Global on a
// missed lookup; popup contexts are sealed, so a chord bound in a tab can
// never fire while a popup has focus.
type Context string

const (
	Global     Context = "global"
	Log        Context = "log"
	Files      Context = "files"
	Bookmarks  Context = "bookmarks"
	CommandLog Context = "command_log"
	Help       Context = "help"

	// Popup contexts.
	Prompt  Context = "prompt"
	Confirm Context = "confirm"
	Picker  Context = "picker"
)

// IsPopup reports whether the context belongs to a popup and therefore
// never falls back to tab or global bindings.
func (c Context) IsPopup() bool {
	return c == Prompt || c == Confirm || c == Picker
}

// Action is a logical operation a key event can resolve to.
type Action string

const (
	ActionQuit          Action = "quit"
	ActionHelp          Action = "help"
	ActionNextTab       Action = "next_tab"
	ActionPrevTab       Action = "prev_tab"
	ActionTabLog        Action = "tab_log"
	ActionTabFiles      Action = "tab_files"
	ActionTabBookmarks  Action = "tab_bookmarks"
	ActionTabCommandLog Action = "tab_command_log"
	ActionTabHelp       Action = "tab_help"
	ActionCommandPrompt Action = "command_prompt"
	ActionRefresh       Action = "refresh"
	ActionToggleFormat  Action = "toggle_diff_format"
	ActionToggleWrap    Action = "toggle_wrap"
	ActionCancelRunning Action = "cancel_running"

	ActionUp       Action = "up"
	ActionDown     Action = "down"
	ActionHalfUp   Action = "half_up"
	ActionHalfDown Action = "half_down"
	ActionTop      Action = "top"
	ActionBottom   Action = "bottom"

	ActionFocusHead   Action = "focus_head"
	ActionNew         Action = "new"
	ActionNewDescribe Action = "new_describe"
	ActionDescribe    Action = "describe"
	ActionEditChange  Action = "edit"
	ActionAbandon     Action = "abandon"
	ActionSquash      Action = "squash"
	ActionRebase      Action = "rebase"
	ActionEditRevset  Action = "edit_revset"
	ActionSetBookmark Action = "set_bookmark"
	ActionOpenFiles   Action = "open_files"
	ActionFetch       Action = "fetch"
	ActionFetchAll    Action = "fetch_all"
	ActionPush        Action = "push"
	ActionPushAll     Action = "push_all"
	ActionUndo        Action = "undo"

	ActionRestoreFile Action = "restore_file"
	ActionSquashFile  Action = "squash_file"

	ActionBookmarkCreate  Action = "bookmark_create"
	ActionBookmarkRename  Action = "bookmark_rename"
	ActionBookmarkDelete  Action = "bookmark_delete"
	ActionBookmarkForget  Action = "bookmark_forget"
	ActionBookmarkTrack   Action = "bookmark_track"
	ActionBookmarkUntrack Action = "bookmark_untrack"

	ActionAccept Action = "accept"
	ActionCancel Action = "cancel"
	ActionYes    Action = "yes"
	ActionNo     Action = "no"
	ActionLeft   Action = "left"
	ActionRight  Action = "right"
)

// Override replaces the default binding of one action.
type Override struct {
	Chords  []string
	Disable bool
}

// Overrides is the configuration-supplied layer, keyed by context then
// action name.
type Overrides map[Context]map[Action]Override

// Keymap is the resolved, layered binding table.
type Keymap struct {
	bindings map[Context]map[Action]key.Binding
}

// Default returns the built-in binding table.
func Default() *Keymap {
	return &Keymap{bindings: defaultBindings()}
}

// Apply folds configuration overrides into the table. Each invalid entry
// is skipped, leaving the built-in default in place, and reported in the
// returned slice; a bad entry never aborts startup.
func (k *Keymap) Apply(overrides Overrides) []error {
	var errs []error
	for ctx, actions := range overrides {
		ctxBindings, ok := k.bindings[ctx]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown context %q", ctx))
			continue
		}
		for action, ov := range actions {
			def, ok := ctxBindings[action]
			if !ok {
				errs = append(errs, fmt.Errorf("unknown action %q in context %q", action, ctx))
				continue
			}
			if ov.Disable {
				def.SetEnabled(false)
				ctxBindings[action] = def
				continue
			}
			if err := validateChords(ov.Chords); err != nil {
				errs = append(errs, fmt.Errorf("action %q in context %q: %w", action, ctx, err))
				continue
			}
			// Full replacement of the default chord set, help text
			// regenerated from the new chords.
			desc := def.Help().Desc
			ctxBindings[action] = key.NewBinding(
				key.WithKeys(ov.Chords...),
				key.WithHelp(strings.Join(ov.Chords, "/"), desc),
			)
		}
	}
	return errs
}

func validateChords(chords []string) error {
	if len(chords) == 0 {
		return fmt.Errorf("empty chord list")
	}
	for _, c := range chords {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("blank chord")
		}
		if strings.ContainsAny(c, " \t") && c != " " {
			return fmt.Errorf("chord %q contains whitespace", c)
		}
	}
	return nil
}

// Resolve maps a key event plus active context to at most one action.
// Popup contexts consult only themselves. Tab contexts consult the tab
// first, then Global; the first live match wins. No match is a no-op.
func (k *Keymap) Resolve(msg tea.KeyMsg, ctx Context) (Action, bool) {
	if action, ok := k.lookup(msg, ctx); ok {
		return action, true
	}
	if !ctx.IsPopup() && ctx != Global {
		return k.lookup(msg, Global)
	}
	return "", false
}

func (k *Keymap) lookup(msg tea.KeyMsg, ctx Context) (Action, bool) {
	for action, binding := range k.bindings[ctx] {
		if key.Matches(msg, binding) {
			return action, true
		}
	}
	return "", false
}

// Chords returns the live chord set bound to an action in a context,
// consulting Global as Resolve would. Disabled or unbound actions yield
// nil. This is the reverse lookup used by help rendering.
func (k *Keymap) Chords(ctx Context, action Action) []string {
	if b, ok := k.bindings[ctx][action]; ok {
		if !b.Enabled() {
			return nil
		}
		return b.Keys()
	}
	if !ctx.IsPopup() && ctx != Global {
		return k.Chords(Global, action)
	}
	return nil
}

// Binding returns the live binding for help-bar rendering, with its help
// text. The second result is false when the action is disabled or
// unbound in the context.
func (k *Keymap) Binding(ctx Context, action Action) (key.Binding, bool) {
	if b, ok := k.bindings[ctx][action]; ok {
		if !b.Enabled() {
			return key.Binding{}, false
		}
		return b, true
	}
	if !ctx.IsPopup() && ctx != Global {
		return k.Binding(Global, action)
	}
	return key.Binding{}, false
}

// ContextBindings returns all live bindings of a context in a stable
// order for the help tab.
func (k *Keymap) ContextBindings(ctx Context) []key.Binding {
	order := helpOrder[ctx]
	out := make([]key.Binding, 0, len(order))
	for _, action := range order {
		if b, ok := k.bindings[ctx][action]; ok && b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}
