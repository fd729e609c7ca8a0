package jj

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir and
// returns its path. The scripts ignore the trailing output flags the
// runner always appends.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakejj")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestMutateSerializedFIFO(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "markers")
	script := writeScript(t,
		`echo "start $1" >> `+marker+`
sleep 0.05
echo "end $1" >> `+marker+"\n")

	r := NewRunner(t.TempDir(), WithBinary(script))
	defer r.Close()

	// Submit in a deterministic order, then let both run concurrently
	// from the caller's point of view.
	var wg sync.WaitGroup
	started := make(chan struct{})
	for _, tag := range []string{"first", "second"} {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			<-started
			if _, err := r.Mutate(context.Background(), []string{tag}); err != nil {
				t.Errorf("Mutate(%s): %v", tag, err)
			}
		}(tag)
		if tag == "first" {
			close(started)
			time.Sleep(20 * time.Millisecond) // ensure "first" is queued first
		}
	}
	wg.Wait()

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("reading markers: %v", err)
	}
	got := strings.Fields(strings.ReplaceAll(string(data), "\n", " "))
	want := []string{"start", "first", "end", "first", "start", "second", "end", "second"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("mutating calls interleaved:\n%s", data)
	}

	recs := r.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Args[0] != "first" || recs[1].Args[0] != "second" {
		t.Errorf("record order = %q, %q; want first, second", recs[0].Args[0], recs[1].Args[0])
	}
}

func TestFailureRecorded(t *testing.T) {
	script := writeScript(t, `echo "boom" >&2
exit 3`)
	r := NewRunner(t.TempDir(), WithBinary(script))
	defer r.Close()

	_, err := r.Mutate(context.Background(), []string{"abandon", "xyz"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "boom") {
		t.Errorf("stderr = %q, want to contain boom", exitErr.Stderr)
	}

	recs := r.Records()
	if len(recs) != 1 {
		t.Fatalf("failed call must still be logged, got %d records", len(recs))
	}
	if !recs[0].Failed() {
		t.Error("record should report failure")
	}
	if recs[0].ExitCode != 3 {
		t.Errorf("record exit code = %d, want 3", recs[0].ExitCode)
	}
}

func TestBinaryUnavailable(t *testing.T) {
	r := NewRunner(t.TempDir(), WithBinary(filepath.Join(t.TempDir(), "does-not-exist")))
	defer r.Close()

	_, err := r.ReadOnly(context.Background(), []string{"log"}, false)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	recs := r.Records()
	if len(recs) != 1 {
		t.Fatalf("launch failures must be logged, got %d records", len(recs))
	}
	if recs[0].Err == nil || !recs[0].Failed() {
		t.Errorf("record = %+v, want launch error recorded", recs[0])
	}
}

func TestCancellationRecorded(t *testing.T) {
	script := writeScript(t, `echo "partial"
sleep 5`)
	r := NewRunner(t.TempDir(), WithBinary(script))
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Mutate(ctx, []string{"git", "fetch"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not terminate the process promptly")
	}

	recs := r.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if !recs[0].Cancelled {
		t.Error("record should carry the cancellation marker")
	}
	if !strings.Contains(recs[0].Stdout, "partial") {
		t.Errorf("partially captured output lost: %q", recs[0].Stdout)
	}
}

func TestRawMutateTokenizes(t *testing.T) {
	script := writeScript(t, `echo "$1 $2 $3"`)
	r := NewRunner(t.TempDir(), WithBinary(script))
	defer r.Close()

	out, err := r.RawMutate(context.Background(), "  bookmark   set main  ")
	if err != nil {
		t.Fatalf("RawMutate: %v", err)
	}
	if !strings.HasPrefix(out, "bookmark set main") {
		t.Errorf("output = %q", out)
	}

	if _, err := r.RawMutate(context.Background(), "   "); err == nil {
		t.Error("empty command line should be rejected")
	}
}

func TestRecordsAreSnapshot(t *testing.T) {
	script := writeScript(t, `exit 0`)
	r := NewRunner(t.TempDir(), WithBinary(script))
	defer r.Close()

	if _, err := r.ReadOnly(context.Background(), []string{"status"}, false); err != nil {
		t.Fatalf("ReadOnly: %v", err)
	}
	snap := r.Records()
	if _, err := r.ReadOnly(context.Background(), []string{"status"}, false); err != nil {
		t.Fatalf("ReadOnly: %v", err)
	}
	if len(snap) != 1 {
		t.Errorf("earlier snapshot grew to %d entries", len(snap))
	}
	if len(r.Records()) != 2 {
		t.Errorf("expected 2 records, got %d", len(r.Records()))
	}
}

// newTestRepo initializes a real jj repository, skipping when the binary
// is not installed.
func newTestRepo(t *testing.T) *Runner {
	t.Helper()
	if _, err := exec.LookPath("jj"); err != nil {
		t.Skipf("jj not available: %v", err)
	}
	dir := t.TempDir()
	r := NewRunner(dir,
		WithoutColor(),
		WithConfigToml(
			`user.name="jujube"`,
			`user.email="jujube@example.com"`,
			`ui.color="never"`,
		))
	t.Cleanup(r.Close)
	if _, err := r.Mutate(context.Background(), []string{"git", "init"}); err != nil {
		t.Skipf("unable to initialize jj repo: %v", err)
	}
	return r
}

func TestLogAgainstRealRepo(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	out, err := r.Log(ctx, "")
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(out.Changes) == 0 {
		t.Fatal("expected at least the working copy change")
	}
	if out.HeadIndex() < 0 {
		t.Error("working copy change not identified")
	}

	head, err := r.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if out.Changes[out.HeadIndex()].ChangeID != head {
		t.Errorf("head mismatch: log says %s, Head says %s",
			out.Changes[out.HeadIndex()].ChangeID, head)
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	head, err := r.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if _, err := r.Describe(ctx, head, "a message with 'quotes' and $vars"); err != nil {
		t.Fatalf("Describe: %v", err)
	}
	desc, err := r.Description(ctx, head)
	if err != nil {
		t.Fatalf("Description: %v", err)
	}
	if !strings.Contains(desc, "a message with 'quotes' and $vars") {
		t.Errorf("description = %q, metacharacters must survive verbatim", desc)
	}
}

func TestInvalidRevsetFails(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Log(context.Background(), "::!!bogus((")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError for invalid revset, got %v", err)
	}
}
