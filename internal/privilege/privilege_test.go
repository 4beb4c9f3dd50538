package privilege

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureMutable_WritableDir(t *testing.T) {
	dir := t.TempDir()
	gate := New(filepath.Join(dir, "com.apple.nat.plist"))

	assert.NoError(t, gate.EnsureMutable())
}

func TestEnsureMutable_ReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses the directory check")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	gate := New(filepath.Join(dir, "com.apple.nat.plist"))
	err := gate.EnsureMutable()
	require.ErrorIs(t, err, ErrPrivilege)
	assert.Contains(t, err.Error(), "sudo")
}

func TestEnsureMutable_MissingDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses the directory check")
	}

	gate := New("/nonexistent-root-dir/sub/com.apple.nat.plist")
	assert.ErrorIs(t, gate.EnsureMutable(), ErrPrivilege)
}
