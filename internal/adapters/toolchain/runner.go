package toolchain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrBusy is returned by Start while a previous job is still running
var ErrBusy = errors.New("another command is still running")

// EventKind distinguishes output lines from the final exit notification
type EventKind int

const (
	EventOutput EventKind = iota
	EventExit
)

// Event is sent from the worker goroutine to whoever drains Events()
type Event struct {
	Kind     EventKind
	Job      string
	Line     string // EventOutput only
	ExitCode int    // EventExit only; -1 if the process never produced a status
	Err      error  // EventExit only; set when the process could not be waited on
}

// Job describes one external command
type Job struct {
	Name    string
	Program string
	Args    []string
	Dir     string
	Env     []string // full environment; nil inherits the current process env
}

func (j Job) String() string {
	return strings.TrimSpace(j.Program + " " + strings.Join(j.Args, " "))
}

// Runner runs at most one tracked job at a time. Output and completion are
// delivered as events on a channel instead of a shared log buffer.
type Runner struct {
	busy   atomic.Bool
	events chan Event
	logger *slog.Logger
}

// NewRunner creates a runner whose event channel holds up to buffer events
func NewRunner(buffer int, logger *slog.Logger) *Runner {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		events: make(chan Event, buffer),
		logger: logger,
	}
}

// Busy reports whether a tracked job is outstanding
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Events returns the channel on which output lines and the exit event of
// every started job are delivered. Callers must drain it.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Start launches job in the background. It never blocks on the process;
// completion is reported by an EventExit. Returns ErrBusy if a job is running.
func (r *Runner) Start(ctx context.Context, job Job) error {
	if !r.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: cannot start %s", ErrBusy, job.Name)
	}

	cmd := exec.CommandContext(ctx, job.Program, job.Args...)
	cmd.Dir = job.Dir
	cmd.Env = job.Env

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Debug("starting job", "job", job.Name, "cmd", job.String(), "dir", job.Dir)

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		r.busy.Store(false)
		return fmt.Errorf("failed to start %s: %w", job.Name, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			r.events <- Event{Kind: EventOutput, Job: job.Name, Line: scanner.Text()}
		}
		// drain anything left after an over-long line so the child never blocks
		io.Copy(io.Discard, pr)
	}()

	go func() {
		err := cmd.Wait()
		pw.Close()
		wg.Wait()

		exit := Event{Kind: EventExit, Job: job.Name, ExitCode: exitCode(cmd, err)}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			exit.Err = err
		}

		r.logger.Debug("job finished", "job", job.Name, "exit_code", exit.ExitCode)

		// clear the flag before the exit event so a receiver may start the next job
		r.busy.Store(false)
		r.events <- exit
	}()

	return nil
}

// Run starts job and blocks until it exits, passing every output line to
// onOutput. Events belonging to the job are consumed by Run.
func (r *Runner) Run(ctx context.Context, job Job, onOutput func(line string)) (int, error) {
	if err := r.Start(ctx, job); err != nil {
		return -1, err
	}

	for ev := range r.events {
		switch ev.Kind {
		case EventOutput:
			if onOutput != nil {
				onOutput(ev.Line)
			}
		case EventExit:
			if ev.Err != nil {
				return ev.ExitCode, fmt.Errorf("%s failed: %w", job.Name, ev.Err)
			}
			return ev.ExitCode, nil
		}
	}
	return -1, fmt.Errorf("%s: event channel closed", job.Name)
}

// Detach launches job without tracking it: the busy flag is untouched and
// the process outlives the caller
func (r *Runner) Detach(job Job) error {
	cmd := exec.Command(job.Program, job.Args...)
	cmd.Dir = job.Dir
	cmd.Env = job.Env

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", job.String(), err)
	}

	r.logger.Debug("detached job", "job", job.Name, "pid", cmd.Process.Pid)

	// reap the child so it does not linger as a zombie while we are alive
	go cmd.Wait()
	return nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
