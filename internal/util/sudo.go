package util

import (
	"context"
	"os/exec"
	"strings"
)

// sudoRunQuietContext runs a command with sudo, suppressing output on success.
// On failure, returns the captured output along with the error.
func sudoRunQuietContext(ctx context.Context, name string, args ...string) (string, error) {
	cmd := sudoCommand(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// sudoCommand creates an exec.Cmd for running a command with sudo.
func sudoCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmdArgs := append([]string{name}, args...)
	return exec.CommandContext(ctx, "sudo", cmdArgs...) //nolint:fslint // sudo escalation lives here
}
