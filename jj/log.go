package jj

import (
	"context"
	"strings"

	"github.com/gerunddev/jujube/ansi"
)

// unit separator keeps template fields unambiguous even when a
// description contains pipes or tabs.
const fieldSep = "\x1f"

// logTemplate is the structured companion to the graph query. One record
// per revision, fields split on fieldSep.
const logTemplate = `change_id.short(8) ++ "` + fieldSep + `" ++ commit_id.short(8) ++ "` + fieldSep + `" ++ if(current_working_copy, "@", "") ++ "` + fieldSep + `" ++ if(immutable, "i", "") ++ "` + fieldSep + `" ++ bookmarks.join(",") ++ "` + fieldSep + `" ++ description.first_line() ++ "\n"`

// Change is one node of the commit graph as jj reported it on the last
// refresh. Changes are never mutated in place; a refresh replaces them.
type Change struct {
	ChangeID      string
	CommitID      string
	IsWorkingCopy bool
	Immutable     bool
	Bookmarks     []string
	Description   string

	// Line range of this change inside LogOutput.RawANSI (half-open).
	StartLine int
	EndLine   int
}

// LogOutput is the materialized result of one revset evaluation: the
// colorized graph exactly as jj rendered it, plus structured records and
// a line-to-change mapping for selection highlighting.
type LogOutput struct {
	RawANSI      string
	LineToChange []int // line index -> index into Changes, -1 for none
	Changes      []Change
}

// HeadIndex returns the index of the working copy change, or -1.
func (o *LogOutput) HeadIndex() int {
	for i := range o.Changes {
		if o.Changes[i].IsWorkingCopy {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of the change with the given id, or -1.
func (o *LogOutput) IndexOf(changeID string) int {
	for i := range o.Changes {
		if o.Changes[i].ChangeID == changeID {
			return i
		}
	}
	return -1
}

// Log evaluates a revset and returns the rendered graph with structured
// metadata. Two passes against the same revset: one colorized for
// display, one templated for change identity. An empty revset uses the
// jj default.
func (r *Runner) Log(ctx context.Context, revset string) (*LogOutput, error) {
	graphArgs := []string{"log"}
	structArgs := []string{"log", "--no-graph", "-T", logTemplate}
	if revset != "" {
		graphArgs = append(graphArgs, "-r", revset)
		structArgs = append(structArgs, "-r", revset)
	}

	rawANSI, err := r.ReadOnly(ctx, graphArgs, true)
	if err != nil {
		return nil, err
	}
	structured, err := r.ReadOnly(ctx, structArgs, false)
	if err != nil {
		return nil, err
	}

	changes := parseStructuredLog(structured)
	return buildLogOutput(rawANSI, changes), nil
}

// parseStructuredLog splits templated records into Changes.
func parseStructuredLog(output string) []Change {
	var changes []Change
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(line, fieldSep)
		if len(fields) != 6 || fields[0] == "" {
			continue
		}
		c := Change{
			ChangeID:      fields[0],
			CommitID:      fields[1],
			IsWorkingCopy: fields[2] == "@",
			Immutable:     fields[3] == "i",
			Description:   fields[5],
		}
		if fields[4] != "" {
			c.Bookmarks = strings.Split(fields[4], ",")
		}
		changes = append(changes, c)
	}
	return changes
}

// buildLogOutput maps graph lines to changes by locating each change id
// in the stripped line text. Graph-only continuation lines stay attached
// to the change above them.
func buildLogOutput(rawANSI string, changes []Change) *LogOutput {
	lines := strings.Split(rawANSI, "\n")
	lineToChange := make([]int, len(lines))

	current := -1
	next := 0
	for i, line := range lines {
		plain := ansi.Strip(line)
		if next < len(changes) && strings.Contains(plain, changes[next].ChangeID) {
			changes[next].StartLine = i
			current = next
			next++
		}
		lineToChange[i] = current
	}

	for i := range changes {
		if i < len(changes)-1 {
			changes[i].EndLine = changes[i+1].StartLine
		} else {
			changes[i].EndLine = len(lines)
		}
	}

	return &LogOutput{
		RawANSI:      rawANSI,
		LineToChange: lineToChange,
		Changes:      changes,
	}
}
