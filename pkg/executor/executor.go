// Package executor runs external commands, either to completion or detached.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments and returns its stdout.
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(name, err, &stderr)
	}

	return stdout.String(), nil
}

// Start launches the command without waiting for it. The returned channel receives
// the exit result exactly once and is then closed.
func (e *implExecutor) Start(name string, args ...string) (<-chan error, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start '%s': %w", name, err)
	}
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			done <- commandError(name, err, &stderr)
			return
		}
		done <- nil
	}()
	return done, nil
}

func commandError(name string, err error, stderr *bytes.Buffer) error {
	stderrStr := strings.TrimSpace(stderr.String())
	if stderrStr != "" {
		return fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
	}
	return fmt.Errorf("command '%s' failed: %w", name, err)
}
