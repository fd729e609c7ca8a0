// Package interactive implements the -i quick-action mode: a small huh
// form flow for one-off operations without entering the full TUI.
package interactive

import (
	"context"

	"github.com/charmbracelet/huh"

	"github.com/gerunddev/jujube/jj"
)

// Run shows the action picker and executes the chosen flow.
func Run(ctx context.Context, runner *jj.Runner) error {
	var action string
	err := huh.NewSelect[string]().
		Title("jujube - Quick Actions").
		Options(
			huh.NewOption("Edit - switch the working copy to a revision", "edit"),
			huh.NewOption("Describe - set a revision's description", "describe"),
			huh.NewOption("Rebase - move a revision to a new parent", "rebase"),
			huh.NewOption("Abandon - remove a revision from the graph", "abandon"),
			huh.NewOption("Bookmark - point a bookmark at a revision", "bookmark"),
		).
		Value(&action).
		Run()
	if err != nil {
		return nil // cancelled
	}

	switch action {
	case "edit":
		return runEdit(ctx, runner)
	case "describe":
		return runDescribe(ctx, runner)
	case "rebase":
		return runRebase(ctx, runner)
	case "abandon":
		return runAbandon(ctx, runner)
	case "bookmark":
		return runBookmark(ctx, runner)
	}
	return nil
}
