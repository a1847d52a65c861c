package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

// DefaultBinary is the executable used when none is configured.
const DefaultBinary = "git"

// Runner runs one git invocation and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecutionError reports a git process that could not run or exited non-zero.
// Its message is the captured standard error.
type ExecutionError struct {
	Args     []string
	ExitCode int // -1 when the process never started or was killed
	Stderr   string
	Err      error
}

// Error returns git's stderr, falling back to the process error when git
// wrote nothing.
func (e *ExecutionError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
}

// Unwrap returns the underlying process error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExecRunner runs the git binary in a fixed working directory.
type ExecRunner struct {
	Bin string
	Dir string
}

// NewExecRunner creates an ExecRunner. An empty bin means DefaultBinary;
// an empty dir means the process working directory.
func NewExecRunner(bin, dir string) *ExecRunner {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	return &ExecRunner{Bin: bin, Dir: dir}
}

// colorOff overrides any color.ui setting so output stays parseable.
var colorOff = []string{"-c", "color.ui=never"}

// Run spawns git with args and collects stdout and stderr separately.
// Stdout is returned as-is on exit code 0. Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Bin, append(slices.Clone(colorOff), args...)...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("git %s: %w", firstArg(args), ctxErr)
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return "", &ExecutionError{
			Args:     args,
			ExitCode: -1,
			Stderr:   r.Bin + " not found: ensure git is installed and in PATH",
			Err:      err,
		}
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return "", &ExecutionError{
		Args:     args,
		ExitCode: code,
		Stderr:   stderr.String(),
		Err:      err,
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
