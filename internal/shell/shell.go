// Package shell runs external commands and captures their output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Exit codes reported when the process could not run to completion
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// Result holds the execution result
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success returns true if the process exited with status 0
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a command and captures its output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs commands with os/exec inside Dir
type Exec struct {
	Dir string
}

// NewExec creates a Runner that executes commands in dir
func NewExec(dir string) *Exec {
	return &Exec{Dir: dir}
}

// Run executes name with args. A non-zero exit status is not an error:
// it is reported in Result.ExitCode. The error is set only when the
// process could not be started or was stopped by ctx, in which case
// ExitCode is 127 (not found), 124 (deadline exceeded) or 1.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
		return res, ctx.Err()
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = ExitNotFound
		return res, err
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = 1
	return res, err
}

// Command renders name and args as a single command line
func Command(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
