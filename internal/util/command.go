package util

import (
	"context"
	"os/exec"
)

// CommandRunner executes external commands. Every component that shells out
// to the system (networksetup, ifconfig, launchctl) goes through this
// interface so tests can substitute MockCommandRunner.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr.
	Run(name string, args ...string) (output []byte, err error)

	// RunQuiet executes a command, returns output only on error.
	RunQuiet(name string, args ...string) (output string, err error)

	// SudoRunQuiet runs a command with sudo, returns output only on error.
	SudoRunQuiet(name string, args ...string) (output string, err error)
}

// ContextCommandRunner implements CommandRunner with context support.
type ContextCommandRunner struct {
	ctx context.Context
}

// NewCommandRunner creates a new ContextCommandRunner with context.Background().
func NewCommandRunner() *ContextCommandRunner {
	return &ContextCommandRunner{ctx: context.Background()}
}

// WithContext returns a new ContextCommandRunner with the given context.
// Commands started after the context's deadline expires fail immediately.
func (r *ContextCommandRunner) WithContext(ctx context.Context) *ContextCommandRunner {
	return &ContextCommandRunner{ctx: ctx}
}

func (r *ContextCommandRunner) Run(name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(r.ctx, name, args...) //nolint:fslint // CommandRunner is the abstraction layer
	return cmd.CombinedOutput()
}

func (r *ContextCommandRunner) RunQuiet(name string, args ...string) (string, error) {
	cmd := exec.CommandContext(r.ctx, name, args...) //nolint:fslint // CommandRunner is the abstraction layer
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), err
	}
	return "", nil
}

func (r *ContextCommandRunner) SudoRunQuiet(name string, args ...string) (string, error) {
	return sudoRunQuietContext(r.ctx, name, args...)
}
