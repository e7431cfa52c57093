// Package command wraps the external helper tools: pkg(8) for the ABI
// token and curl for throughput probes.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ToolError reports a failed helper tool invocation. It is always fatal
// to the run.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Tool, strings.Join(e.Args, " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func newToolError(tool string, args []string, out *output) *ToolError {
	te := &ToolError{Tool: tool, Args: args, Stderr: out.stderr}
	if out.exitCode != 0 {
		te.Err = fmt.Errorf("exit status %d", out.exitCode)
	}
	return te
}

// waitDelay bounds how long a killed tool may keep its output pipes open.
const waitDelay = 2 * time.Second

// Runner invokes pkg and curl.
type Runner struct {
	pkgPath  string
	curlPath string
	logger   *slog.Logger
}

// NewRunner creates a Runner for the given tool paths. Bare names are looked
// up in PATH when first run.
func NewRunner(pkgPath, curlPath string, logger *slog.Logger) *Runner {
	return &Runner{
		pkgPath:  pkgPath,
		curlPath: curlPath,
		logger:   logger,
	}
}

// output is the captured result of one tool invocation.
type output struct {
	stdout   []byte
	stderr   string
	exitCode int
}

// run executes a tool and captures its streams. Failures to start the
// process are returned as a ToolError; a non-zero exit is reported through
// exitCode so callers can decide whether it is fatal.
func (r *Runner) run(ctx context.Context, tool string, args ...string) (*output, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &output{
		stdout: stdout.Bytes(),
		stderr: strings.TrimSpace(stderr.String()),
	}
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.exitCode = exitErr.ExitCode()
		return out, nil
	}

	r.logger.Error("tool invocation failed", "tool", tool, "error", err)
	return nil, &ToolError{Tool: tool, Args: args, Err: err}
}
