package util

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun_CapturesCombinedOutput(t *testing.T) {
	runner := NewCommandRunner()
	output, err := runner.Run("echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(output), "hello") {
		t.Errorf("expected output to contain 'hello', got %q", output)
	}
}

func TestRun_ErrorPropagation(t *testing.T) {
	runner := NewCommandRunner()
	_, err := runner.Run("false")
	if err == nil {
		t.Fatal("expected error from 'false' command, got nil")
	}
}

func TestRunQuiet_SilentOnSuccess(t *testing.T) {
	runner := NewCommandRunner()
	output, err := runner.RunQuiet("echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "" {
		t.Errorf("expected empty output on success, got %q", output)
	}
}

func TestRunQuiet_ReturnsOutputOnError(t *testing.T) {
	runner := NewCommandRunner()
	output, err := runner.RunQuiet("sh", "-c", "echo failure-output && exit 1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(output, "failure-output") {
		t.Errorf("expected output to contain 'failure-output', got %q", output)
	}
}

func TestWithContext_ExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	runner := NewCommandRunner().WithContext(ctx)
	if _, err := runner.Run("echo", "hello"); err == nil {
		t.Fatal("expected error from expired context, got nil")
	}
}

func TestMockCommandRunner_ExpectAndCall(t *testing.T) {
	mock := NewMockCommandRunner()
	mock.ExpectSuccess("ifconfig -l", []byte("lo0 en0 bridge100"))

	out, err := mock.Run("ifconfig", "-l")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "lo0 en0 bridge100" {
		t.Errorf("unexpected output: %q", out)
	}
	mock.AssertCalled(t, "ifconfig -l")
}

func TestMockCommandRunner_UnexpectedCommandFails(t *testing.T) {
	mock := NewMockCommandRunner()
	_, err := mock.Run("launchctl", "print", "system/foo")
	if err == nil {
		t.Fatal("expected error for unexpected command, got nil")
	}
}

func TestMockCommandRunner_AllowUnexpected(t *testing.T) {
	mock := NewMockCommandRunner().AllowUnexpected()
	if _, err := mock.Run("launchctl", "print", "system/foo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount("launchctl print system/foo") != 1 {
		t.Errorf("expected 1 recorded call, got %d", mock.CallCount("launchctl print system/foo"))
	}
}

func TestMockCommandRunner_SudoRunQuietFailure(t *testing.T) {
	wantErr := errors.New("boom")
	mock := NewMockCommandRunner()
	mock.Expect("sudo launchctl bootout system/foo", []byte("no such service"), wantErr)

	out, err := mock.SudoRunQuiet("launchctl", "bootout", "system/foo")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if out != "no such service" {
		t.Errorf("unexpected output: %q", out)
	}
}
