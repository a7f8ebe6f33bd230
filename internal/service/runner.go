package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/knimenet/knimerun/internal/cmdline"
	"github.com/knimenet/knimerun/internal/log"
	"github.com/knimenet/knimerun/internal/platform"
)

var (
	ErrInvalidDirectory   = errors.New("invalid KNIME directory")
	ErrExecutableNotFound = errors.New("the KNIME executable could not be found")
	ErrRunInProgress      = errors.New("run in progress")
	ErrNotStarted         = errors.New("KNIME either exited too fast or could not get started at all")
	ErrSignaled           = errors.New("KNIME process was terminated by a signal")
	ErrCancelled          = errors.New("KNIME process was cancelled")
	ErrEndedPrematurely   = errors.New("KNIME process ended prematurely")

	errTimeout = errors.New("timeout elapsed")
	errAborted = errors.New("aborted")
)

const (
	maxLineSize = 1024 * 1024
	killWait    = 10 * time.Second
)

// Runner starts the KNIME launcher and supervises it until it exits, is
// aborted or times out. One Runner handles one run at a time and may be
// reused once a run has returned.
type Runner struct {
	path string

	// Timeout bounds each run, zero means no limit.
	Timeout time.Duration
	// KillOnError kills the child when a run did not complete.
	KillOnError bool
	// Options are rendered once at the start of every run and must not be
	// changed while a run is in progress.
	Options *cmdline.Options

	mx     sync.Mutex
	cancel context.CancelCauseFunc
}

// NewRunner locates the launcher in dir. If dir is empty, the launcher is
// looked up in PATH when a run starts.
func NewRunner(dir string) (*Runner, error) {
	return newRunner(dir, platform.Detect())
}

func newRunner(dir string, host platform.OS) (*Runner, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDirectory, dir)
		}
	}

	exe, err := platform.Executable(host)
	if err != nil {
		return nil, err
	}

	path := exe
	if dir != "" {
		// a relative path would be resolved against the run's work dir
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
		}
		path = filepath.Join(abs, exe)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
		}
	}

	return &Runner{
		path:    path,
		Options: cmdline.NewOptions(),
	}, nil
}

// Path returns the launcher executed by r.
func (r *Runner) Path() string {
	return r.path
}

// RunOptions configures a single run. A nil sink leaves the corresponding
// stream attached to the stream of the current process.
type RunOptions struct {
	WorkDir string
	Stdout  LineSink
	Stderr  LineSink
}

// Run starts the launcher and blocks until the run reaches a terminal state.
// Cancelling ctx has the same effect as Abort. All failures are reported in
// the returned Status.
func (r *Runner) Run(ctx context.Context, opts RunOptions) Status {
	ctx, release, err := r.begin(ctx)
	if err != nil {
		slog.WarnContext(ctx, "run refused", "error", err)
		return Status{LastErrorMessage: err.Error()}
	}
	defer r.end(release)

	ctx = log.ContextAttrs(ctx, slog.String("run_id", uuid.NewString()))
	return r.run(ctx, opts)
}

// Abort cancels the run in progress. It does nothing when no run is active.
func (r *Runner) Abort() {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cancel != nil {
		r.cancel(errAborted)
	}
}

func (r *Runner) begin(parent context.Context) (context.Context, func(), error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cancel != nil {
		return parent, nil, ErrRunInProgress
	}

	ctx, abort := context.WithCancelCause(parent)
	release := func() { abort(nil) }
	if r.Timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeoutCause(ctx, r.Timeout, errTimeout)
		release = func() {
			stop()
			abort(nil)
		}
	}
	r.cancel = abort
	return ctx, release, nil
}

func (r *Runner) end(release func()) {
	r.mx.Lock()
	r.cancel = nil
	r.mx.Unlock()
	release()
}

func (r *Runner) commandLine() string {
	if r.Options == nil {
		return ""
	}
	return r.Options.Render()
}

func (r *Runner) run(ctx context.Context, opts RunOptions) Status {
	var status Status

	cmd := exec.Command(r.path)
	setCommandLine(cmd, r.commandLine())
	cmd.Dir = opts.WorkDir
	if cmd.Dir == "" {
		cmd.Dir = platform.DefaultWorkDir()
	}

	stdout, err := newStream("stdout", opts.Stdout)
	if err != nil {
		status.LastErrorMessage = err.Error()
		return status
	}
	defer stdout.close()
	stderr, err := newStream("stderr", opts.Stderr)
	if err != nil {
		status.LastErrorMessage = err.Error()
		return status
	}
	defer stderr.close()

	cmd.Stdout = stdout.writer(os.Stdout)
	cmd.Stderr = stderr.writer(os.Stderr)

	if err := cmd.Start(); err != nil {
		slog.ErrorContext(ctx, "starting KNIME failed", "path", r.path, "error", err)
		status.LastErrorMessage = fmt.Sprintf("%s: starting %s: %v", ErrNotStarted, r.path, err)
		return status
	}
	// the child owns the write ends now
	stdout.closeWriter()
	stderr.closeWriter()

	// Wait releases the process handle, so it runs on every path
	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	// the pipes exist before Start, so output of a child that exits at once
	// is still drained
	pid := cmd.Process.Pid
	slog.InfoContext(ctx, "KNIME started", "pid", pid, "path", r.path, "work_dir", cmd.Dir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-exited:
			return exitError(waitErr)
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if stdout.sink != nil {
		g.Go(func() error { return stdout.drain(gctx) })
	}
	if stderr.sink != nil {
		g.Go(func() error { return stderr.drain(gctx) })
	}

	err = g.Wait()
	switch {
	case err == nil:
		status.ExitCode = cmd.ProcessState.ExitCode()
		// ExitCode is -1 for a signaled child, which is reserved for a kill
		if sig, ok := signaled(cmd.ProcessState); ok {
			status.ExitCode = 128 + int(sig)
			status.LastErrorMessage = fmt.Sprintf("%s: %s", ErrSignaled, sig)
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.DebugContext(ctx, "run cancelled", "cause", context.Cause(ctx))
		status.LastErrorMessage = ErrCancelled.Error()
	default:
		status.LastErrorMessage = err.Error()
	}

	if status.Failed() && r.KillOnError {
		r.kill(ctx, cmd, exited, &status)
	}

	if status.Failed() {
		slog.ErrorContext(ctx, "KNIME failed", "pid", pid, "error", status.LastErrorMessage, "killed", status.KilledProcess)
	} else {
		slog.InfoContext(ctx, "KNIME completed", "pid", pid, "exit_code", status.ExitCode)
	}
	return status
}

// kill failures never replace the primary error, they are logged only
func (r *Runner) kill(ctx context.Context, cmd *exec.Cmd, exited <-chan struct{}, status *Status) {
	select {
	case <-exited:
		slog.DebugContext(ctx, "KNIME already exited, not killed", "pid", cmd.Process.Pid)
		return
	default:
	}
	if err := cmd.Process.Kill(); err != nil {
		slog.WarnContext(ctx, "killing KNIME failed", "pid", cmd.Process.Pid, "error", err)
		return
	}
	status.KilledProcess = true
	status.ExitCode = KilledExitCode

	select {
	case <-exited:
	case <-time.After(killWait):
		slog.WarnContext(ctx, "killed KNIME did not exit", "pid", cmd.Process.Pid, "wait", killWait)
	}
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrEndedPrematurely, err)
}

// stream is one redirected output of the child. Only streams with a sink
// get a pipe.
type stream struct {
	name string
	sink LineSink
	r, w *os.File
}

func newStream(name string, sink LineSink) (*stream, error) {
	s := &stream{name: name, sink: sink}
	if sink == nil {
		return s, nil
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating %s pipe: %w", name, err)
	}
	s.r, s.w = r, w
	return s, nil
}

func (s *stream) writer(inherit *os.File) *os.File {
	if s.w == nil {
		return inherit
	}
	return s.w
}

func (s *stream) closeWriter() {
	if s.w != nil {
		_ = s.w.Close()
		s.w = nil
	}
}

func (s *stream) close() {
	s.closeWriter()
	if s.r != nil {
		_ = s.r.Close()
	}
}

// drain forwards lines until the child closes the stream. Cancelling ctx
// closes the read end, which unblocks the scanner.
func (s *stream) drain(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.r.Close()
	})
	defer stop()

	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		s.sink.WriteLine(ctx, scanner.Text())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.name, err)
	}
	return nil
}
