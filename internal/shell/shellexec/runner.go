// Package shellexec executes backend CLI commands. This is part of the
// Imperative Shell - the single place where the tool touches the OS.
package shellexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a bounded command does not finish in time.
var ErrTimeout = errors.New("command timed out")

// Result holds the captured output of a finished command. Backend errors
// are signalled through stderr content, not through exit codes: PaaS CLIs
// routinely exit zero while reporting problems on stderr.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external commands.
type Runner interface {
	// Execute runs command and captures stdout/stderr. The command string
	// is split shell-style (quotes group arguments) but no shell runs.
	// When silent is false both streams are logged.
	Execute(ctx context.Context, command string, silent bool) (Result, error)

	// ExecuteWithTimeout is Execute bounded by timeout. Expiry returns
	// ErrTimeout.
	ExecuteWithTimeout(ctx context.Context, command string, silent bool, timeout time.Duration) (Result, error)

	// ExecuteShell runs command through the shell, for the few commands
	// needing real shell features (env expansion, redirection). Output is
	// not captured.
	ExecuteShell(ctx context.Context, command string) error
}

// LocalRunner runs commands as local subprocesses.
type LocalRunner struct {
	logger *slog.Logger
}

// NewLocalRunner creates a runner logging through logger.
func NewLocalRunner(logger *slog.Logger) *LocalRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalRunner{logger: logger}
}

// Execute implements Runner.
func (r *LocalRunner) Execute(ctx context.Context, command string, silent bool) (Result, error) {
	argv, err := Split(command)
	if err != nil {
		return Result{}, fmt.Errorf("split command: %w", err)
	}
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if !silent {
		r.logger.Info("command finished",
			"command", command,
			"stdout", res.Stdout,
			"stderr", res.Stderr,
		)
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%w: %s", ErrTimeout, command)
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// Spawn failures (command missing, permissions) are real errors.
		// Non-zero exits are reported through the captured stderr.
		return res, fmt.Errorf("execute %q: %w", argv[0], runErr)
	}
	return res, nil
}

// ExecuteWithTimeout implements Runner.
func (r *LocalRunner) ExecuteWithTimeout(ctx context.Context, command string, silent bool, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Execute(ctx, command, silent)
}

// ExecuteShell implements Runner.
func (r *LocalRunner) ExecuteShell(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("execute shell command: %w", err)
	}
	return nil
}
