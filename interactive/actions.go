package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/gerunddev/jujube/jj"
)

func selectRevision(ctx context.Context, runner *jj.Runner, title string) (string, bool, error) {
	out, err := runner.Log(ctx, "")
	if err != nil {
		return "", false, fmt.Errorf("load log: %w", err)
	}
	options := buildRevisionOptions(out.Changes)
	if len(options) == 0 {
		fmt.Println("No revisions available")
		return "", false, nil
	}

	var revision string
	if err := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&revision).
		Run(); err != nil {
		return "", false, nil // cancelled
	}
	return revision, true, nil
}

func runEdit(ctx context.Context, runner *jj.Runner) error {
	revision, ok, err := selectRevision(ctx, runner, "Select revision to edit")
	if err != nil || !ok {
		return err
	}
	if _, err := runner.Edit(ctx, revision); err != nil {
		return fmt.Errorf("edit failed: %w", err)
	}
	fmt.Printf("Now editing %s\n", revision)
	return nil
}

func runDescribe(ctx context.Context, runner *jj.Runner) error {
	revision, ok, err := selectRevision(ctx, runner, "Select revision to describe")
	if err != nil || !ok {
		return err
	}

	current, err := runner.Description(ctx, revision)
	if err != nil {
		current = ""
	}
	message := current
	if err := huh.NewText().
		Title("Description for " + revision).
		Value(&message).
		Run(); err != nil {
		return nil // cancelled
	}
	if _, err := runner.Describe(ctx, revision, message); err != nil {
		return fmt.Errorf("describe failed: %w", err)
	}
	fmt.Printf("Described %s\n", revision)
	return nil
}

func runRebase(ctx context.Context, runner *jj.Runner) error {
	source, ok, err := selectRevision(ctx, runner, "Select revision to rebase (source)")
	if err != nil || !ok {
		return err
	}
	dest, ok, err := selectRevision(ctx, runner, "Select destination (new parent)")
	if err != nil || !ok {
		return err
	}
	if source == dest {
		fmt.Println("Source and destination cannot be the same")
		return nil
	}
	if _, err := runner.Rebase(ctx, source, dest); err != nil {
		return fmt.Errorf("rebase failed: %w", err)
	}
	fmt.Printf("Rebased %s onto %s\n", source, dest)
	return nil
}

func runAbandon(ctx context.Context, runner *jj.Runner) error {
	revision, ok, err := selectRevision(ctx, runner, "Select revision to abandon")
	if err != nil || !ok {
		return err
	}

	confirmed := false
	if err := huh.NewConfirm().
		Title(fmt.Sprintf("Abandon %s?", revision)).
		Value(&confirmed).
		Run(); err != nil || !confirmed {
		return nil
	}
	if _, err := runner.Abandon(ctx, revision); err != nil {
		return fmt.Errorf("abandon failed: %w", err)
	}
	fmt.Printf("Abandoned %s\n", revision)
	return nil
}

func runBookmark(ctx context.Context, runner *jj.Runner) error {
	revision, ok, err := selectRevision(ctx, runner, "Select revision for the bookmark")
	if err != nil || !ok {
		return err
	}

	var name string
	if err := huh.NewInput().
		Title("Bookmark name").
		Value(&name).
		Run(); err != nil {
		return nil // cancelled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("No bookmark name given")
		return nil
	}
	if _, err := runner.BookmarkSet(ctx, name, revision); err != nil {
		return fmt.Errorf("bookmark set failed: %w", err)
	}
	fmt.Printf("Bookmark %s now points at %s\n", name, revision)
	return nil
}

func buildRevisionOptions(changes []jj.Change) []huh.Option[string] {
	var options []huh.Option[string]
	for _, c := range changes {
		label := c.ChangeID
		if c.IsWorkingCopy {
			label += " @"
		}
		if len(c.Bookmarks) > 0 {
			label += " [" + strings.Join(c.Bookmarks, ", ") + "]"
		}
		if c.Description != "" {
			label += " " + c.Description
		} else {
			label += " (no description)"
		}
		options = append(options, huh.NewOption(label, c.ChangeID))
	}
	return options
}
