package encoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"media-ingest/internal/failure"
	"media-ingest/internal/logging"

	"github.com/google/uuid"
)

var logger = logging.Component("encoder")

// maxStderr bounds the stderr kept in failure details.
const maxStderr = 4096

const waitDelay = 2 * time.Second

// FFmpeg runs an ffmpeg-compatible executable as a child process.
type FFmpeg struct {
	path     string
	timeout  time.Duration
	observer Observer

	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// NewFFmpeg creates a gateway for the executable at path. A positive timeout
// caps the wall-clock time of every invocation.
func NewFFmpeg(path string, timeout time.Duration) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{
		path:      path,
		timeout:   timeout,
		observer:  nopObserver{},
		processes: make(map[string]*exec.Cmd),
	}
}

// SetObserver sets the metrics observer. Call before the first Invoke.
func (f *FFmpeg) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	f.observer = o
}

// Path returns the configured executable.
func (f *FFmpeg) Path() string {
	return f.path
}

// Available reports whether the executable can be found.
func (f *FFmpeg) Available() error {
	_, err := exec.LookPath(f.path)
	return err
}

// Invoke runs cmd and waits for it to exit.
func (f *FFmpeg) Invoke(ctx context.Context, cmd Command) (Invocation, error) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if f.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	defer cancel()

	inv := Invocation{
		Executable: f.path,
		Args:       append([]string(nil), cmd.Args...),
	}

	c := exec.CommandContext(runCtx, f.path, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	// Bounds Wait when a killed process leaves children holding the pipes.
	c.WaitDelay = waitDelay

	logger.Debug("Running %s %s", f.path, strings.Join(cmd.Args, " "))

	f.observer.ObserveStart(cmd.Operation)
	start := time.Now()

	if err := c.Start(); err != nil {
		f.observer.ObserveFinish(cmd.Operation, "error", 0)
		logger.Error("Failed to start %s: %v", f.path, err)
		return inv, failure.Wrap(failure.KindEncodeError, err, "start %s", f.path)
	}

	id := uuid.NewString()
	f.track(id, c)
	err := c.Wait()
	f.untrack(id)

	inv.Duration = time.Since(start)
	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()
	secs := inv.Duration.Seconds()

	if err == nil {
		f.observer.ObserveFinish(cmd.Operation, "success", secs)
		return inv, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		removeOutput(cmd.Output)
		inv.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			f.observer.ObserveFinish(cmd.Operation, "timeout", secs)
			logger.Warn("%s %s timed out after %v", f.path, cmd.Operation, inv.Duration)
			return inv, failure.Wrap(failure.KindTimeout, ctxErr, "%s %s timed out after %v", f.path, cmd.Operation, inv.Duration)
		}
		f.observer.ObserveFinish(cmd.Operation, "cancelled", secs)
		logger.Info("%s %s cancelled", f.path, cmd.Operation)
		return inv, failure.Wrap(failure.KindEncodeError, ctxErr, "%s %s cancelled", f.path, cmd.Operation)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		inv.ExitCode = exitErr.ExitCode()
		removeOutput(cmd.Output)
		f.observer.ObserveFinish(cmd.Operation, "error", secs)
		logger.Debug("%s %s exited with %d: %s", f.path, cmd.Operation, inv.ExitCode, TrimStderr(inv.Stderr))
		return inv, nil
	}

	removeOutput(cmd.Output)
	f.observer.ObserveFinish(cmd.Operation, "error", secs)
	return inv, failure.Wrap(failure.KindEncodeError, err, "%s %s", f.path, cmd.Operation)
}

// Running returns the number of processes currently running.
func (f *FFmpeg) Running() int {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	return len(f.processes)
}

// Cleanup kills all running processes. Their invocations report a non-zero
// exit code.
func (f *FFmpeg) Cleanup() {
	f.processMu.Lock()
	defer f.processMu.Unlock()

	for id, c := range f.processes {
		if c.Process != nil {
			logger.Info("Killing encoder process %s (pid %d)", id, c.Process.Pid)
			if err := c.Process.Kill(); err != nil {
				logger.Warn("failed to kill encoder process %s: %v", id, err)
			}
		}
	}
}

func (f *FFmpeg) track(id string, c *exec.Cmd) {
	f.processMu.Lock()
	f.processes[id] = c
	f.processMu.Unlock()
}

func (f *FFmpeg) untrack(id string) {
	f.processMu.Lock()
	delete(f.processes, id)
	f.processMu.Unlock()
}

func removeOutput(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove partial output %s: %v", path, err)
	}
}

// TrimStderr keeps the tail of an encoder's stderr, where ffmpeg reports the
// actual failure.
func TrimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}
