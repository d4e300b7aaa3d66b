//go:build unix

package encoder

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"media-ingest/internal/failure"
)

type countingObserver struct {
	mu       sync.Mutex
	started  int
	statuses []string
}

func (o *countingObserver) ObserveStart(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) ObserveFinish(_, status string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

// shell returns a gateway that runs /bin/sh so tests can script exit codes
// and output without a real ffmpeg.
func shell(t *testing.T, timeout time.Duration) (*FFmpeg, *countingObserver) {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	f := NewFFmpeg(sh, timeout)
	obs := &countingObserver{}
	f.SetObserver(obs)
	return f, obs
}

func TestNewFFmpeg_DefaultPath(t *testing.T) {
	if got := NewFFmpeg("", 0).Path(); got != "ffmpeg" {
		t.Errorf("Path() = %q, want ffmpeg", got)
	}
}

func TestInvoke_Success(t *testing.T) {
	f, obs := shell(t, 5*time.Second)

	inv, err := f.Invoke(context.Background(), Command{
		Operation: OperationRemux,
		Args:      []string{"-c", "echo out; echo warn >&2"},
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !inv.Succeeded() {
		t.Errorf("ExitCode = %d, want 0", inv.ExitCode)
	}
	if strings.TrimSpace(inv.Stdout) != "out" {
		t.Errorf("Stdout = %q", inv.Stdout)
	}
	if strings.TrimSpace(inv.Stderr) != "warn" {
		t.Errorf("Stderr = %q", inv.Stderr)
	}
	if obs.started != 1 || len(obs.statuses) != 1 || obs.statuses[0] != "success" {
		t.Errorf("observer = %d starts, %v", obs.started, obs.statuses)
	}
}

func TestInvoke_NonZeroExitRemovesOutput(t *testing.T) {
	f, obs := shell(t, 5*time.Second)
	out := filepath.Join(t.TempDir(), "partial.mp4")

	inv, err := f.Invoke(context.Background(), Command{
		Operation: OperationRemux,
		Args:      []string{"-c", "echo data > " + out + "; echo 'Invalid data found' >&2; exit 3"},
		Output:    out,
	})
	if err != nil {
		t.Fatalf("non-zero exit should not be an error, got %v", err)
	}
	if inv.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", inv.ExitCode)
	}
	if !strings.Contains(inv.Stderr, "Invalid data found") {
		t.Errorf("Stderr = %q", inv.Stderr)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output should be removed after a failed invocation")
	}
	if obs.statuses[0] != "error" {
		t.Errorf("status = %q, want error", obs.statuses[0])
	}
}

func TestInvoke_Timeout(t *testing.T) {
	f, obs := shell(t, 100*time.Millisecond)
	out := filepath.Join(t.TempDir(), "partial.mp4")

	start := time.Now()
	_, err := f.Invoke(context.Background(), Command{
		Operation: OperationThumbnail,
		Args:      []string{"-c", "echo x > " + out + "; exec sleep 10"},
		Output:    out,
	})
	if failure.KindOf(err) != failure.KindTimeout {
		t.Fatalf("KindOf(err) = %q, want %q (err=%v)", failure.KindOf(err), failure.KindTimeout, err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not kill the process promptly")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output should be removed after a timeout")
	}
	if obs.statuses[0] != "timeout" {
		t.Errorf("status = %q, want timeout", obs.statuses[0])
	}
	if f.Running() != 0 {
		t.Errorf("Running() = %d after timeout, want 0", f.Running())
	}
}

func TestInvoke_Cancelled(t *testing.T) {
	f, obs := shell(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := f.Invoke(ctx, Command{Operation: OperationRemux, Args: []string{"-c", "exec sleep 10"}})
	if failure.KindOf(err) != failure.KindEncodeError {
		t.Fatalf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindEncodeError)
	}
	if obs.statuses[0] != "cancelled" {
		t.Errorf("status = %q, want cancelled", obs.statuses[0])
	}
}

func TestInvoke_MissingExecutable(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"), time.Second)
	obs := &countingObserver{}
	f.SetObserver(obs)

	if f.Available() == nil {
		t.Error("Available() should fail for a missing executable")
	}

	_, err := f.Invoke(context.Background(), Command{Operation: OperationRemux})
	if failure.KindOf(err) != failure.KindEncodeError {
		t.Errorf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindEncodeError)
	}
	if obs.started != 1 || len(obs.statuses) != 1 {
		t.Errorf("start failure must still finish the observation: %d starts, %v", obs.started, obs.statuses)
	}
}

func TestCleanup_KillsRunningProcesses(t *testing.T) {
	f, _ := shell(t, 0)

	done := make(chan Invocation, 1)
	go func() {
		inv, _ := f.Invoke(context.Background(), Command{Operation: OperationRemux, Args: []string{"-c", "exec sleep 10"}})
		done <- inv
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.Running() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.Running() != 1 {
		t.Fatalf("Running() = %d, want 1", f.Running())
	}

	f.Cleanup()

	select {
	case inv := <-done:
		if inv.Succeeded() {
			t.Error("killed process should not report success")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Cleanup did not stop the process")
	}
}

func TestTrimStderr(t *testing.T) {
	if got := TrimStderr("  short \n"); got != "short" {
		t.Errorf("TrimStderr = %q", got)
	}
	long := strings.Repeat("a", maxStderr) + "tail"
	got := TrimStderr(long)
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "tail") {
		t.Errorf("TrimStderr should keep the tail, got prefix %q", got[:10])
	}
	if len(got) != maxStderr+3 {
		t.Errorf("len = %d, want %d", len(got), maxStderr+3)
	}
}
