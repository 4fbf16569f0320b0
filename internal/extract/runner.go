package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrToolTimeout is returned when an external tool outlives its timeout.
var ErrToolTimeout = errors.New("external tool timed out")

// maxStderr bounds how much tool stderr is kept for logs and errors.
const maxStderr = 8 << 10

const waitDelay = 2 * time.Second

// Command is one external tool invocation. Stdout receives the tool's
// standard output; nil discards it.
type Command struct {
	Name   string
	Args   []string
	Stdout io.Writer
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes. A zero Timeout means no limit
// beyond ctx.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, c Command) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdout = c.Stdout
	stderr := &tailBuffer{max: maxStderr}
	cmd.Stderr = stderr
	// Grandchildren holding the pipes open must not stall Wait after a kill.
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		log.Debug().
			Str("command", c.String()).
			Dur("duration", elapsed).
			Msg("External tool finished")
		return nil
	}

	log.Error().
		Err(err).
		Str("command", c.String()).
		Str("stderr", stderr.String()).
		Dur("duration", elapsed).
		Dur("timeout", r.Timeout).
		Bool("context_cancelled", ctx.Err() != nil).
		Msg("External tool execution failed")

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %v", ErrToolTimeout, c.Name, elapsed.Round(time.Millisecond))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%s failed: %w, stderr: %s", c.Name, err, msg)
	}
	return fmt.Errorf("%s failed: %w", c.Name, err)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) > t.max {
		p = p[len(p)-t.max:]
	}
	if over := t.buf.Len() + len(p) - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }
