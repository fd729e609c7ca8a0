package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/jujube/config"
	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui/floating"
	"github.com/gerunddev/jujube/ui/messages"
)

// fakeGateway satisfies Gateway without a jj binary. Mutations append
// to calls and records; queries return the configured fixtures.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []string
	records []*jj.Record

	output    *jj.LogOutput
	logErr    error
	bookmarks []jj.Bookmark
	files     []jj.FileChange

	mutateErr map[string]error
}

func (g *fakeGateway) mutate(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
	rec := &jj.Record{Args: strings.Fields(name), Start: time.Now()}
	if ctx.Err() != nil {
		rec.Cancelled = true
		g.records = append(g.records, rec)
		return "", ctx.Err()
	}
	if err := g.mutateErr[name]; err != nil {
		rec.Err = err
		g.records = append(g.records, rec)
		return "", err
	}
	g.records = append(g.records, rec)
	return "", nil
}

func (g *fakeGateway) callCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (g *fakeGateway) Log(ctx context.Context, revset string) (*jj.LogOutput, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "log")
	g.records = append(g.records, &jj.Record{Args: []string{"log"}, Start: time.Now()})
	return g.output, g.logErr
}

func (g *fakeGateway) Diff(ctx context.Context, changeID string, format jj.DiffFormat, path string) (string, error) {
	return "diff:" + changeID + ":" + path, nil
}

func (g *fakeGateway) Files(ctx context.Context, changeID string) ([]jj.FileChange, error) {
	return g.files, nil
}

func (g *fakeGateway) Bookmarks(ctx context.Context) ([]jj.Bookmark, error) {
	return g.bookmarks, nil
}

func (g *fakeGateway) Description(ctx context.Context, changeID string) (string, error) {
	return "existing text", nil
}

func (g *fakeGateway) New(ctx context.Context, base string) (string, error) {
	return g.mutate(ctx, "new")
}
func (g *fakeGateway) Edit(ctx context.Context, changeID string) (string, error) {
	return g.mutate(ctx, "edit")
}
func (g *fakeGateway) Abandon(ctx context.Context, changeID string) (string, error) {
	return g.mutate(ctx, "abandon "+changeID)
}
func (g *fakeGateway) Describe(ctx context.Context, changeID, message string) (string, error) {
	return g.mutate(ctx, "describe")
}
func (g *fakeGateway) Squash(ctx context.Context, changeID string) (string, error) {
	return g.mutate(ctx, "squash")
}
func (g *fakeGateway) SquashFile(ctx context.Context, changeID, path string) (string, error) {
	return g.mutate(ctx, "squash file")
}
func (g *fakeGateway) Rebase(ctx context.Context, source, dest string) (string, error) {
	return g.mutate(ctx, "rebase "+source+" "+dest)
}
func (g *fakeGateway) Restore(ctx context.Context, path string) (string, error) {
	return g.mutate(ctx, "restore")
}
func (g *fakeGateway) BookmarkSet(ctx context.Context, name, changeID string) (string, error) {
	return g.mutate(ctx, "bookmark set")
}
func (g *fakeGateway) BookmarkCreate(ctx context.Context, name, changeID string) (string, error) {
	return g.mutate(ctx, "bookmark create")
}
func (g *fakeGateway) BookmarkRename(ctx context.Context, old, new string) (string, error) {
	return g.mutate(ctx, "bookmark rename")
}
func (g *fakeGateway) BookmarkDelete(ctx context.Context, name string) (string, error) {
	return g.mutate(ctx, "bookmark delete")
}
func (g *fakeGateway) BookmarkForget(ctx context.Context, name string) (string, error) {
	return g.mutate(ctx, "bookmark forget")
}
func (g *fakeGateway) BookmarkTrack(ctx context.Context, nameAtRemote string) (string, error) {
	return g.mutate(ctx, "bookmark track")
}
func (g *fakeGateway) BookmarkUntrack(ctx context.Context, nameAtRemote string) (string, error) {
	return g.mutate(ctx, "bookmark untrack")
}
func (g *fakeGateway) GitFetch(ctx context.Context, allRemotes bool) (string, error) {
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
	return g.mutate(ctx, "git fetch")
}
func (g *fakeGateway) GitPush(ctx context.Context, bookmark string, allowNew bool) (string, error) {
	return g.mutate(ctx, "git push")
}
func (g *fakeGateway) Undo(ctx context.Context) (string, error) {
	return g.mutate(ctx, "undo")
}
func (g *fakeGateway) RawMutate(ctx context.Context, argLine string) (string, error) {
	return g.mutate(ctx, "raw "+argLine)
}

func (g *fakeGateway) Records() []*jj.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*jj.Record, len(g.records))
	copy(out, g.records)
	return out
}

func makeLog(changes ...jj.Change) *jj.LogOutput {
	lines := make([]string, 0, len(changes))
	lineToChange := make([]int, 0, len(changes))
	for i := range changes {
		changes[i].StartLine = i
		changes[i].EndLine = i + 1
		lines = append(lines, "○ "+changes[i].ChangeID)
		lineToChange = append(lineToChange, i)
	}
	return &jj.LogOutput{
		RawANSI:      strings.Join(lines, "\n"),
		LineToChange: lineToChange,
		Changes:      changes,
	}
}

// exec runs a command synchronously and feeds resulting messages back
// into the model, the way the runtime would.
func exec(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			exec(t, a, c)
		}
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		return
	}
	_, next := a.Update(msg)
	exec(t, a, next)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := a.Update(keyMsg(k))
		exec(t, a, cmd)
	}
}

func newTestApp(t *testing.T, gw *fakeGateway) *App {
	t.Helper()
	a := NewApp(gw, keymap.Default(), config.Defaults(), nil)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	exec(t, a, a.Init())
	return a
}

func TestAbandonFallsBackToWorkingCopy(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(
			jj.Change{ChangeID: "a1", IsWorkingCopy: true},
			jj.Change{ChangeID: "a2"},
			jj.Change{ChangeID: "a3"},
		),
	}
	a := newTestApp(t, gw)

	press(t, a, "j") // select a2
	if got := a.logTab.SelectedChangeID(); got != "a2" {
		t.Fatalf("selected = %q, want a2", got)
	}

	// The refresh after abandon no longer contains a2.
	gw.output = makeLog(
		jj.Change{ChangeID: "a1", IsWorkingCopy: true},
		jj.Change{ChangeID: "a3"},
	)
	press(t, a, "a") // confirm dialog, defaults to No
	if a.popup == nil {
		t.Fatal("abandon did not open a confirmation")
	}
	press(t, a, "y", "enter")

	if gw.callCount("abandon a2") != 1 {
		t.Fatalf("abandon calls = %v", gw.calls)
	}
	if a.popup != nil {
		t.Fatal("popup still open after successful abandon")
	}
	if got := a.logTab.SelectedChangeID(); got != "a1" {
		t.Fatalf("selection after abandon = %q, want working copy a1", got)
	}
}

func TestConfirmDefaultsToNo(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	press(t, a, "a", "enter")
	if gw.callCount("abandon a1") != 0 {
		t.Fatalf("plain enter ran abandon: %v", gw.calls)
	}
	if a.popup != nil {
		t.Fatal("dialog still open after declining")
	}
}

func TestPromptSealsTabBindings(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	press(t, a, "r") // revset prompt
	p, ok := a.popup.(*floating.Prompt)
	if !ok {
		t.Fatalf("popup = %T, want prompt", a.popup)
	}

	// "d" describes in the log tab and "q" quits globally; inside the
	// prompt both are plain text.
	press(t, a, "d", "q")
	if a.popup == nil {
		t.Fatal("popup closed by a tab-context chord")
	}
	if got := p.Value(); got != "dq" {
		t.Fatalf("prompt buffer = %q, want dq", got)
	}
	if gw.callCount("describe") != 0 {
		t.Fatalf("describe dispatched from inside prompt: %v", gw.calls)
	}
}

func TestFailedMutationKeepsPromptOpen(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
		mutateErr: map[string]error{
			"bookmark create": &jj.ExitError{Args: []string{"bookmark", "create"}, Stderr: "bookmark already exists", Code: 1},
		},
	}
	a := newTestApp(t, gw)

	press(t, a, "3", "c") // bookmarks tab, create prompt
	p, ok := a.popup.(*floating.Prompt)
	if !ok {
		t.Fatalf("popup = %T, want prompt", a.popup)
	}
	press(t, a, "x", "enter")

	if a.popup == nil {
		t.Fatal("popup closed after failed mutation")
	}
	if p.Pending() {
		t.Fatal("prompt still pending after failure")
	}
	if got := p.Value(); !strings.HasSuffix(got, "x") {
		t.Fatalf("buffer lost after failure: %q", got)
	}
}

func TestCancelledMutationSkipsRefresh(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)
	logsBefore := gw.callCount("log")

	_, fetchCmd := a.Update(keyMsg("f"))
	press(t, a, "x") // cancel while "in flight"
	exec(t, a, fetchCmd)

	if got := gw.callCount("log"); got != logsBefore {
		t.Fatalf("cancelled fetch triggered a refresh: %d -> %d log calls", logsBefore, got)
	}
	if !strings.Contains(a.status, "cancelled") {
		t.Fatalf("status = %q, want cancellation notice", a.status)
	}
	recs := gw.Records()
	if len(recs) == 0 || !recs[len(recs)-1].Cancelled {
		t.Fatal("cancelled run not marked in the command record")
	}
}

func TestStaleRefreshDropped(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	fresh := makeLog(
		jj.Change{ChangeID: "b1", IsWorkingCopy: true},
		jj.Change{ChangeID: "b2"},
	)
	stale := makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true})

	a.Update(messages.LogRefreshed{Seq: 5, Output: fresh})
	a.Update(messages.LogRefreshed{Seq: 4, Output: stale})

	if got := a.logTab.Count(); got != 2 {
		t.Fatalf("count = %d, want the newer result (2) kept", got)
	}
	if got := a.logTab.SelectedChangeID(); got != "b1" {
		t.Fatalf("selected = %q, want b1", got)
	}
}

func TestInvalidRevsetKeepsPreviousList(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(
			jj.Change{ChangeID: "a1", IsWorkingCopy: true},
			jj.Change{ChangeID: "a2"},
		),
	}
	a := newTestApp(t, gw)

	gw.logErr = &jj.ExitError{Args: []string{"log"}, Stderr: "error: revset parse error", Code: 1}
	press(t, a, "r")
	if _, ok := a.popup.(*floating.Prompt); !ok {
		t.Fatalf("popup = %T, want prompt", a.popup)
	}
	press(t, a, "b", "o", "g", "u", "s", "enter")

	if a.popup != nil {
		t.Fatal("revset prompt should close on accept")
	}
	if got := a.logTab.Count(); got != 2 {
		t.Fatalf("working set after invalid revset = %d entries, want 2", got)
	}
}

func TestOpenFilesLoadsSelection(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true, Description: "wip"}),
		files: []jj.FileChange{
			{Status: "M", Path: "main.go"},
			{Status: "A", Path: "util.go"},
		},
	}
	a := newTestApp(t, gw)

	press(t, a, "enter")
	if a.active != TabFiles {
		t.Fatalf("active tab = %v, want files", a.active)
	}
	if got := a.filesTab.ChangeID(); got != "a1" {
		t.Fatalf("files change = %q, want a1", got)
	}
	if got := a.filesTab.SelectedPath(); got != "main.go" {
		t.Fatalf("selected file = %q, want main.go", got)
	}
}

func TestDescribePrefillsExistingText(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	press(t, a, "d")
	p, ok := a.popup.(*floating.Prompt)
	if !ok {
		t.Fatalf("popup = %T, want describe prompt", a.popup)
	}
	if got := p.Value(); got != "existing text" {
		t.Fatalf("prompt prefill = %q", got)
	}

	press(t, a, "enter")
	if gw.callCount("describe") != 1 {
		t.Fatalf("describe calls = %v", gw.calls)
	}
	if a.popup != nil {
		t.Fatal("popup still open after successful describe")
	}
}

func TestRawCommandPrompt(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	press(t, a, ":")
	if _, ok := a.popup.(*floating.Prompt); !ok {
		t.Fatalf("popup = %T, want prompt", a.popup)
	}
	press(t, a, "u", "n", "d", "o", "enter")
	if gw.callCount("raw undo") != 1 {
		t.Fatalf("raw calls = %v", gw.calls)
	}
}

func TestBackgroundCompletionLeavesPromptOpen(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	// Start a fetch, then open a describe prompt while it is in flight.
	_, fetchCmd := a.Update(keyMsg("f"))
	press(t, a, "d")
	p, ok := a.popup.(*floating.Prompt)
	if !ok {
		t.Fatalf("popup = %T, want describe prompt", a.popup)
	}
	press(t, a, "!")

	// The fetch finishing must not close or freeze the unrelated prompt.
	exec(t, a, fetchCmd)
	if a.popup == nil {
		t.Fatal("fetch completion closed a prompt it did not own")
	}
	if p.Pending() {
		t.Fatal("prompt marked pending by an unrelated completion")
	}
	if got := p.Value(); !strings.HasSuffix(got, "!") {
		t.Fatalf("prompt buffer = %q, want typed text kept", got)
	}
	if gw.callCount("describe") != 0 {
		t.Fatalf("describe dispatched without accept: %v", gw.calls)
	}
}

func TestCancelTargetsLatestMutation(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)

	_, fetchCmd := a.Update(keyMsg("f"))
	_, pushCmd := a.Update(keyMsg("p"))

	// The older fetch finishing must leave the push's cancel handle alive.
	exec(t, a, fetchCmd)
	if a.cancelRunning == nil {
		t.Fatal("older completion cleared the newer mutation's cancel handle")
	}

	press(t, a, "x")
	exec(t, a, pushCmd)
	if !strings.Contains(a.status, "cancelled") {
		t.Fatalf("status = %q, want push cancellation", a.status)
	}
	recs := gw.Records()
	if len(recs) == 0 || !recs[len(recs)-1].Cancelled {
		t.Fatal("cancelled push not marked in the command record")
	}
}

func TestPickerAcceptsTypedText(t *testing.T) {
	gw := &fakeGateway{
		output:    makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
		bookmarks: []jj.Bookmark{{Name: "main", ChangeID: "a1"}},
	}
	a := newTestApp(t, gw)

	press(t, a, "b")
	p, ok := a.popup.(*floating.Picker)
	if !ok {
		t.Fatalf("popup = %T, want picker", a.popup)
	}

	// j, k and q navigate lists elsewhere; inside the picker they are
	// plain characters of the bookmark name.
	press(t, a, "j", "k", "q")
	if got := p.Value(); !strings.HasSuffix(got, "jkq") {
		t.Fatalf("picker buffer = %q, want typed jkq kept", got)
	}
	if a.popup == nil {
		t.Fatal("picker closed while typing")
	}
}

func TestCommandLogShowsReadOnlyQueries(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := newTestApp(t, gw)
	if len(gw.Records()) == 0 {
		t.Fatal("startup refresh left no records")
	}

	// Switching to the tab snapshots the log even when no mutation ran.
	press(t, a, "4")
	if a.active != TabCommandLog {
		t.Fatalf("active tab = %v, want command log", a.active)
	}
	if got, want := a.cmdLogTab.Count(), len(gw.Records()); got != want {
		t.Fatalf("command log shows %d records, gateway has %d", got, want)
	}
}

func TestRebasePromptDispatches(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(
			jj.Change{ChangeID: "a1", IsWorkingCopy: true},
			jj.Change{ChangeID: "a2"},
		),
	}
	a := newTestApp(t, gw)

	press(t, a, "j", "m") // select a2, open the rebase prompt
	if _, ok := a.popup.(*floating.Prompt); !ok {
		t.Fatalf("popup = %T, want rebase prompt", a.popup)
	}
	press(t, a, "enter") // accept the @- default destination

	if gw.callCount("rebase a2 @-") != 1 {
		t.Fatalf("rebase calls = %v", gw.calls)
	}
	if a.popup != nil {
		t.Fatal("popup still open after successful rebase")
	}
}

func TestRebaseRefusesImmutableChange(t *testing.T) {
	gw := &fakeGateway{
		output: makeLog(
			jj.Change{ChangeID: "a1", IsWorkingCopy: true},
			jj.Change{ChangeID: "a2", Immutable: true},
		),
	}
	a := newTestApp(t, gw)

	press(t, a, "j", "m")
	if a.popup != nil {
		t.Fatal("rebase prompt opened on an immutable change")
	}
	if !strings.Contains(a.status, "immutable") {
		t.Fatalf("status = %q, want immutable notice", a.status)
	}
}

func TestKeymapOverrideReachesApp(t *testing.T) {
	km := keymap.Default()
	errs := km.Apply(keymap.Overrides{
		keymap.Log: {keymap.ActionNew: {Chords: []string{"ctrl+n"}}},
	})
	if len(errs) != 0 {
		t.Fatalf("apply errors: %v", errs)
	}
	gw := &fakeGateway{
		output: makeLog(jj.Change{ChangeID: "a1", IsWorkingCopy: true}),
	}
	a := NewApp(gw, km, config.Defaults(), nil)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	exec(t, a, a.Init())

	press(t, a, "n")
	if gw.callCount("new") != 0 {
		t.Fatalf("default chord still live after override: %v", gw.calls)
	}
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	exec(t, a, cmd)
	if gw.callCount("new") != 1 {
		t.Fatalf("override chord did not dispatch: %v", gw.calls)
	}
}
