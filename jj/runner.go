// Package jj is the sole path between jujube and the jj binary. Every
// invocation goes through Runner, which builds discrete argument vectors
// (never a shell line), captures output, and appends an immutable Record
// to the session command log. Mutating commands are serialized through a
// single FIFO lane so two structural changes can never race; read-only
// queries run unrestricted.
package jj

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrUnavailable indicates the jj binary could not be spawned at all.
var ErrUnavailable = errors.New("jj binary unavailable")

// ExitError is returned when jj ran but rejected the operation.
type ExitError struct {
	Args   []string
	Stderr string
	Code   int
}

func (e *ExitError) Error() string {
	msg := strings.TrimRight(e.Stderr, "\n")
	if msg == "" {
		msg = fmt.Sprintf("jj %s exited with code %d", strings.Join(e.Args, " "), e.Code)
	}
	return msg
}

// Record is one append-only command log entry. Once appended it is never
// modified, so concurrent reads against ongoing appends are safe.
type Record struct {
	Args      []string
	Start     time.Time
	Duration  time.Duration
	Stdout    string
	Stderr    string
	ExitCode  int
	Err       error // launch failure; nil when the process ran
	Cancelled bool
}

// Failed reports whether the invocation did not complete successfully.
func (r *Record) Failed() bool {
	return r.Err != nil || r.ExitCode != 0 || r.Cancelled
}

// Runner executes jj commands from a repository root.
type Runner struct {
	bin    string
	root   string
	logger *log.Logger

	mu      sync.Mutex
	records []*Record

	mutCh  chan func()
	closed sync.Once
	done   chan struct{}

	// configToml holds --config overrides, used by tests to pin
	// user.name/user.email and disable color.
	configToml   []string
	forceNoColor bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the jj executable name.
func WithBinary(bin string) Option {
	return func(r *Runner) { r.bin = bin }
}

// WithLogger sets the debug logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithConfigToml appends --config overrides to every invocation.
func WithConfigToml(cfg ...string) Option {
	return func(r *Runner) { r.configToml = append(r.configToml, cfg...) }
}

// WithoutColor forces --color never even for display output.
func WithoutColor() Option {
	return func(r *Runner) { r.forceNoColor = true }
}

// NewRunner creates a Runner rooted at the given repository path and
// starts the mutating lane worker.
func NewRunner(root string, opts ...Option) *Runner {
	r := &Runner{
		bin:    "jj",
		root:   root,
		logger: log.Default(),
		mutCh:  make(chan func(), 16),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.mutateLoop()
	return r
}

// Close stops the mutating lane worker. Queued calls still drain.
func (r *Runner) Close() {
	r.closed.Do(func() { close(r.mutCh) })
	<-r.done
}

func (r *Runner) mutateLoop() {
	defer close(r.done)
	for fn := range r.mutCh {
		fn()
	}
}

// Root returns the repository root the runner operates on.
func (r *Runner) Root() string {
	return r.root
}

// Records returns the ordered command log. The returned slice is a copy;
// the records themselves are immutable.
func (r *Runner) Records() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// ReadOnly executes a query command. Read-only calls run concurrently
// with each other and with the mutating lane.
func (r *Runner) ReadOnly(ctx context.Context, args []string, color bool) (string, error) {
	return r.run(ctx, args, color, false)
}

// Mutate executes a state-changing command through the FIFO lane: at most
// one mutating call is in flight, and calls complete in submission order.
// The call blocks until its turn has run, so a refresh issued after
// Mutate returns is guaranteed to observe the mutation's effect.
func (r *Runner) Mutate(ctx context.Context, args []string) (string, error) {
	var (
		out  string
		err  error
		done = make(chan struct{})
	)
	select {
	case r.mutCh <- func() {
		out, err = r.run(ctx, args, true, true)
		close(done)
	}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	<-done
	return out, err
}

// RawMutate tokenizes a user-entered argument line (whitespace split, no
// shell interpretation) and runs it on the mutating lane. This backs the
// in-app ":" command prompt.
func (r *Runner) RawMutate(ctx context.Context, argLine string) (string, error) {
	args := strings.Fields(argLine)
	if len(args) == 0 {
		return "", errors.New("empty command")
	}
	return r.Mutate(ctx, args)
}

func (r *Runner) run(ctx context.Context, args []string, color, quiet bool) (string, error) {
	full := make([]string, 0, len(args)+6)
	full = append(full, args...)
	full = append(full, outputArgs(color && !r.forceNoColor, quiet)...)
	for _, cfg := range r.configToml {
		full = append(full, "--config", cfg)
	}

	cmd := exec.CommandContext(ctx, r.bin, full...)
	cmd.Dir = r.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	rec := &Record{
		Args:     full,
		Start:    start,
		Duration: time.Since(start),
		Stdout:   strings.ToValidUTF8(stdout.String(), "�"),
		Stderr:   strings.ToValidUTF8(stderr.String(), "�"),
	}

	var result error
	switch {
	case ctx.Err() != nil:
		// Best-effort cancellation: record whatever was captured.
		rec.Cancelled = true
		result = ctx.Err()
	case runErr == nil:
		rec.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			rec.ExitCode = exitErr.ExitCode()
			result = &ExitError{Args: args, Stderr: rec.Stderr, Code: rec.ExitCode}
		} else {
			rec.Err = runErr
			result = fmt.Errorf("%w: %v", ErrUnavailable, runErr)
		}
	}

	r.append(rec)
	r.logger.Debug("jj", "args", strings.Join(args, " "),
		"exit", rec.ExitCode, "duration", rec.Duration, "cancelled", rec.Cancelled)

	if result != nil {
		return "", result
	}
	return rec.Stdout, nil
}

func (r *Runner) append(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// outputArgs builds the trailing flags shared by every invocation.
func outputArgs(color, quiet bool) []string {
	args := []string{"--no-pager", "--color"}
	if color {
		args = append(args, "always")
	} else {
		args = append(args, "never")
	}
	if quiet {
		args = append(args, "--quiet")
	}
	return args
}

// trimEndLine drops a single trailing newline (and CR) from jj output.
func trimEndLine(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
