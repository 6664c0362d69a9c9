// Package runner executes external tools with explicit argument vectors.
// No shell is involved anywhere, so arguments are never reinterpreted.
// The Runner interface exists so orchestration logic can be tested with a
// fake that records invocations instead of spawning processes.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/statisticsnorway/ssb-project/internal/errlog"
)

// Result captures the outcome of a completed tool invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs a command in a working directory and reports its result.
// A non-zero exit code is reported through Result, not through the error;
// the error is reserved for failures to run the command at all (missing
// binary, permission problems).
type Runner interface {
	Run(dir, name string, args ...string) (Result, error)
}

// Exec is the real Runner. It captures stdout and stderr and traces every
// invocation on the debug logger.
type Exec struct {
	Log *zap.Logger
}

// NewExec returns an Exec tracing to the given logger.
func NewExec(log *zap.Logger) *Exec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exec{Log: log}
}

// Run executes name with args in dir, blocking until completion.
func (e *Exec) Run(dir, name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("running %s: %w", name, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	e.Log.Debug("tool invocation",
		zap.String("cmd", name+" "+strings.Join(args, " ")),
		zap.String("dir", dir),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// ToolError is a fatal failure of an external tool: the tool ran but
// exited non-zero. The captured output is persisted to a diagnostic log
// whose path is included in the user-facing message.
type ToolError struct {
	Command string
	Result  Result
	LogPath string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.Result.ExitCode)
	if e.LogPath != "" {
		msg += fmt.Sprintf(" (details logged to %s)", e.LogPath)
	}
	return msg
}

// Demand runs the command and treats a non-zero exit as fatal: the
// captured output is written to an error log named after operation and a
// ToolError is returned. home locates the error-log directory.
func Demand(r Runner, home, dir, operation, name string, args ...string) (Result, error) {
	res, err := r.Run(dir, name, args...)
	if err != nil {
		return Result{}, err
	}
	if res.ExitCode != 0 {
		command := name + " " + strings.Join(args, " ")
		content := fmt.Sprintf("command: %s\nexit code: %d\n--- stdout ---\n%s\n--- stderr ---\n%s\n",
			command, res.ExitCode, res.Stdout, res.Stderr)
		logPath, logErr := errlog.Write(home, operation, content)
		if logErr != nil {
			logPath = ""
		}
		return res, &ToolError{Command: command, Result: res, LogPath: logPath}
	}
	return res, nil
}
