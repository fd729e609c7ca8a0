package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/theme"
)

// hint is one key/description pair in the bottom bar.
type hint struct {
	action keymap.Action
	desc   string
}

// barHints lists the actions advertised per context. The chord shown is
// looked up live, so overrides and disables are reflected.
var barHints = map[keymap.Context][]hint{
	keymap.Log: {
		{keymap.ActionNew, "new"},
		{keymap.ActionDescribe, "describe"},
		{keymap.ActionEditChange, "edit"},
		{keymap.ActionAbandon, "abandon"},
		{keymap.ActionSquash, "squash"},
		{keymap.ActionRebase, "rebase"},
		{keymap.ActionOpenFiles, "files"},
	},
	keymap.Files: {
		{keymap.ActionRestoreFile, "restore"},
		{keymap.ActionSquashFile, "squash"},
		{keymap.ActionDescribe, "describe"},
	},
	keymap.Bookmarks: {
		{keymap.ActionBookmarkCreate, "create"},
		{keymap.ActionBookmarkRename, "rename"},
		{keymap.ActionBookmarkDelete, "delete"},
		{keymap.ActionBookmarkTrack, "track"},
		{keymap.ActionPush, "push"},
	},
	keymap.CommandLog: {},
	keymap.Help:       {},
	keymap.Prompt: {
		{keymap.ActionAccept, "accept"},
		{keymap.ActionCancel, "cancel"},
	},
	keymap.Confirm: {
		{keymap.ActionAccept, "accept"},
		{keymap.ActionCancel, "cancel"},
	},
	keymap.Picker: {
		{keymap.ActionAccept, "accept"},
		{keymap.ActionCancel, "cancel"},
	},
}

var alwaysHints = []hint{
	{keymap.ActionHelp, "help"},
	{keymap.ActionQuit, "quit"},
}

// renderHelpBar draws the bottom hint bar for the active context: context
// hints on the left, the standing ones on the right.
func renderHelpBar(km *keymap.Keymap, ctx keymap.Context, status string, width int) string {
	left := formatHints(km, ctx, barHints[ctx])
	if status != "" {
		left = status
	}
	right := formatHints(km, ctx, alwaysHints)
	if ctx.IsPopup() {
		right = ""
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return theme.HelpBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func formatHints(km *keymap.Keymap, ctx keymap.Context, hints []hint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		chords := km.Chords(ctx, h.action)
		if len(chords) == 0 {
			continue
		}
		parts = append(parts,
			theme.HelpKeyStyle.Render(chords[0])+theme.HelpDescStyle.Render(" "+h.desc))
	}
	return strings.Join(parts, theme.HelpDescStyle.Render("  "))
}
