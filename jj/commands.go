package jj

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DiffFormat selects between the two mutually exclusive diff renderings.
type DiffFormat int

const (
	DiffColorWords DiffFormat = iota
	DiffGit
)

func (f DiffFormat) String() string {
	if f == DiffGit {
		return "git"
	}
	return "color-words"
}

// Toggle flips between the two formats.
func (f DiffFormat) Toggle() DiffFormat {
	if f == DiffColorWords {
		return DiffGit
	}
	return DiffColorWords
}

// Args returns the jj flag for the format.
func (f DiffFormat) Args() []string {
	if f == DiffGit {
		return []string{"--git"}
	}
	return []string{"--color-words"}
}

// ParseDiffFormat reads a config value; unknown values default to
// color-words.
func ParseDiffFormat(s string) DiffFormat {
	if s == "git" {
		return DiffGit
	}
	return DiffColorWords
}

// Bookmark is a named pointer to a change. Identity is (Name, Remote);
// Remote is empty for the local copy.
type Bookmark struct {
	Name     string
	Remote   string
	Tracked  bool
	ChangeID string
}

// Display renders the bookmark identity as jj spells it.
func (b Bookmark) Display() string {
	if b.Remote == "" {
		return b.Name
	}
	return b.Name + "@" + b.Remote
}

const bookmarkTemplate = `name ++ "` + fieldSep + `" ++ if(remote, remote, "") ++ "` + fieldSep + `" ++ if(tracked, "t", "") ++ "` + fieldSep + `" ++ normal_target.change_id().short(8) ++ "\n"`

// Bookmarks lists all bookmarks including remote copies.
func (r *Runner) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	out, err := r.ReadOnly(ctx, []string{"bookmark", "list", "--all-remotes", "-T", bookmarkTemplate}, false)
	if err != nil {
		return nil, err
	}
	var bookmarks []Bookmark
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, fieldSep)
		if len(fields) != 4 || fields[0] == "" {
			continue
		}
		bookmarks = append(bookmarks, Bookmark{
			Name:     fields[0],
			Remote:   fields[1],
			Tracked:  fields[2] == "t",
			ChangeID: fields[3],
		})
	}
	return bookmarks, nil
}

// FileChange is one changed file within a revision.
type FileChange struct {
	Status string // M, A, D, R, C
	Path   string
}

// Files lists the files changed in a revision via diff --summary.
func (r *Runner) Files(ctx context.Context, changeID string) ([]FileChange, error) {
	out, err := r.ReadOnly(ctx, []string{"diff", "-r", changeID, "--summary"}, false)
	if err != nil {
		return nil, err
	}
	var files []FileChange
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) == 2 {
			files = append(files, FileChange{Status: parts[0], Path: parts[1]})
		}
	}
	return files, nil
}

// Diff returns the colorized diff for a change, optionally narrowed to a
// single file, in the requested format.
func (r *Runner) Diff(ctx context.Context, changeID string, format DiffFormat, path string) (string, error) {
	args := []string{"diff", "-r", changeID}
	args = append(args, format.Args()...)
	if path != "" {
		args = append(args, path)
	}
	return r.ReadOnly(ctx, args, true)
}

// Head returns the change id of the working copy.
func (r *Runner) Head(ctx context.Context) (string, error) {
	out, err := r.ReadOnly(ctx, []string{"log", "-r", "@", "--no-graph", "-T", "change_id.short(8)"}, false)
	if err != nil {
		return "", err
	}
	return trimEndLine(out), nil
}

// Description returns the full description of a change, empty when none
// is set.
func (r *Runner) Description(ctx context.Context, changeID string) (string, error) {
	out, err := r.ReadOnly(ctx, []string{"log", "-r", changeID, "--no-graph", "-T", `if(description, description, "")`}, false)
	if err != nil {
		return "", err
	}
	return trimEndLine(out), nil
}

// Root resolution: RepoRoot asks jj for the workspace root starting from
// any path inside it.
func RepoRoot(ctx context.Context, path string) (string, error) {
	r := NewRunner(path)
	defer r.Close()
	out, err := r.ReadOnly(ctx, []string{"root"}, false)
	if err != nil {
		return "", err
	}
	return trimEndLine(out), nil
}

// Mutating operations. Each dispatches through the FIFO lane.

// New creates a change on top of the given base (or @ when empty).
func (r *Runner) New(ctx context.Context, base string) (string, error) {
	args := []string{"new"}
	if base != "" {
		args = append(args, base)
	}
	return r.Mutate(ctx, args)
}

// Edit makes the given change the working copy.
func (r *Runner) Edit(ctx context.Context, changeID string) (string, error) {
	return r.Mutate(ctx, []string{"edit", changeID})
}

// Abandon removes a change from the graph.
func (r *Runner) Abandon(ctx context.Context, changeID string) (string, error) {
	return r.Mutate(ctx, []string{"abandon", changeID})
}

// Describe sets the description of a change. The message travels as a
// discrete argument, so shell metacharacters in it are inert.
func (r *Runner) Describe(ctx context.Context, changeID, message string) (string, error) {
	return r.Mutate(ctx, []string{"describe", "-r", changeID, "-m", message})
}

// Squash folds a change into its parent.
func (r *Runner) Squash(ctx context.Context, changeID string) (string, error) {
	return r.Mutate(ctx, []string{"squash", "-r", changeID})
}

// SquashFile folds a single file's changes into the parent revision.
func (r *Runner) SquashFile(ctx context.Context, changeID, path string) (string, error) {
	return r.Mutate(ctx, []string{"squash", "-r", changeID, path})
}

// Rebase moves a change (and its descendants) onto a new parent.
func (r *Runner) Rebase(ctx context.Context, source, dest string) (string, error) {
	return r.Mutate(ctx, []string{"rebase", "-s", source, "-d", dest})
}

// Restore discards changes to a file in the working copy.
func (r *Runner) Restore(ctx context.Context, path string) (string, error) {
	return r.Mutate(ctx, []string{"restore", path})
}

// BookmarkSet points a bookmark at a change, creating it if missing.
func (r *Runner) BookmarkSet(ctx context.Context, name, changeID string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "set", name, "-r", changeID, "--allow-backwards"})
}

// BookmarkCreate creates a new bookmark at a change.
func (r *Runner) BookmarkCreate(ctx context.Context, name, changeID string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "create", name, "-r", changeID})
}

// BookmarkRename renames a local bookmark.
func (r *Runner) BookmarkRename(ctx context.Context, old, new string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "rename", old, new})
}

// BookmarkDelete deletes a bookmark, propagating on next push.
func (r *Runner) BookmarkDelete(ctx context.Context, name string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "delete", name})
}

// BookmarkForget forgets a bookmark without propagating the deletion.
func (r *Runner) BookmarkForget(ctx context.Context, name string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "forget", name})
}

// BookmarkTrack starts tracking a remote bookmark (name@remote).
func (r *Runner) BookmarkTrack(ctx context.Context, nameAtRemote string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "track", nameAtRemote})
}

// BookmarkUntrack stops tracking a remote bookmark.
func (r *Runner) BookmarkUntrack(ctx context.Context, nameAtRemote string) (string, error) {
	return r.Mutate(ctx, []string{"bookmark", "untrack", nameAtRemote})
}

// GitFetch fetches from the default remote, or all remotes.
func (r *Runner) GitFetch(ctx context.Context, allRemotes bool) (string, error) {
	args := []string{"git", "fetch"}
	if allRemotes {
		args = append(args, "--all-remotes")
	}
	return r.Mutate(ctx, args)
}

// GitPush pushes a bookmark (or everything trackable when name is empty).
func (r *Runner) GitPush(ctx context.Context, bookmark string, allowNew bool) (string, error) {
	args := []string{"git", "push"}
	if bookmark != "" {
		args = append(args, "--bookmark", bookmark)
	}
	if allowNew {
		args = append(args, "--allow-new")
	}
	return r.Mutate(ctx, args)
}

// Undo reverts the last operation.
func (r *Runner) Undo(ctx context.Context) (string, error) {
	return r.Mutate(ctx, []string{"undo"})
}

// minVersion is the oldest jj release known to work; older releases use
// an incompatible bookmark template language.
var minVersion = [3]int{0, 20, 0}

// CheckVersion verifies the jj binary is present and recent enough.
func (r *Runner) CheckVersion(ctx context.Context) error {
	out, err := r.ReadOnly(ctx, []string{"version"}, false)
	if err != nil {
		return err
	}
	version, ok := strings.CutPrefix(trimEndLine(out), "jj ")
	if !ok {
		return fmt.Errorf("unrecognized jj version output %q", out)
	}
	parsed, err := parseVersion(version)
	if err != nil {
		return err
	}
	for i := range minVersion {
		if parsed[i] != minVersion[i] {
			if parsed[i] < minVersion[i] {
				return fmt.Errorf("jj %s is too old, need at least %d.%d.%d",
					version, minVersion[0], minVersion[1], minVersion[2])
			}
			break
		}
	}
	return nil
}

func parseVersion(s string) ([3]int, error) {
	var v [3]int
	// Tolerate suffixes like "0.23.0-abc123".
	if i := strings.IndexAny(s, "-+ "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return v, fmt.Errorf("malformed version %q", s)
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return v, fmt.Errorf("malformed version %q: %w", s, err)
		}
		v[i] = n
	}
	return v, nil
}
