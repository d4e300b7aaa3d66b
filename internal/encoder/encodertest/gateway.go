// Package encodertest provides a scriptable encoder.Gateway for tests.
package encodertest

import (
	"context"
	"os"
	"sync"

	"media-ingest/internal/encoder"
)

// Result scripts the outcome of one invocation.
type Result struct {
	ExitCode int
	Stderr   string
	// Output is written to Command.Output when ExitCode is 0. Nil writes a
	// short placeholder.
	Output []byte
	Err    error
}

// Gateway records every command it receives. By default each invocation
// succeeds and writes a placeholder to the command's output path, like a
// real encoder would.
type Gateway struct {
	// Respond, if set, decides the result for each command.
	Respond func(cmd encoder.Command) Result

	mu    sync.Mutex
	calls []encoder.Command
}

// Invoke implements encoder.Gateway.
func (g *Gateway) Invoke(ctx context.Context, cmd encoder.Command) (encoder.Invocation, error) {
	g.mu.Lock()
	g.calls = append(g.calls, cmd)
	g.mu.Unlock()

	inv := encoder.Invocation{Executable: "ffmpeg", Args: cmd.Args}
	if err := ctx.Err(); err != nil {
		return inv, err
	}

	res := Result{}
	if g.Respond != nil {
		res = g.Respond(cmd)
	}
	if res.Err != nil {
		return inv, res.Err
	}

	inv.ExitCode = res.ExitCode
	inv.Stderr = res.Stderr
	if res.ExitCode == 0 && cmd.Output != "" {
		data := res.Output
		if data == nil {
			data = []byte("encoded")
		}
		if err := os.WriteFile(cmd.Output, data, 0o644); err != nil {
			return inv, err
		}
	}
	return inv, nil
}

// Calls returns a copy of the recorded commands.
func (g *Gateway) Calls() []encoder.Command {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]encoder.Command(nil), g.calls...)
}

// CallCount returns the number of invocations so far.
func (g *Gateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
