// Package privilege gates mutating operations on the elevated rights they
// need: writing under /Library/Preferences/SystemConfiguration and driving
// system-domain launchd jobs both require root (or sudo-backed write access).
package privilege

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrPrivilege is returned when the process lacks the rights required for a
// mutating operation.
var ErrPrivilege = errors.New("insufficient privileges")

// Gate checks process privileges before mutating operations.
// Pure status queries never consult it.
type Gate struct {
	// StorePath is the protected configuration file whose parent
	// directory must be writable.
	StorePath string
}

// New creates a Gate protecting the given store path.
func New(storePath string) *Gate {
	return &Gate{StorePath: storePath}
}

// EnsureMutable fails fast when the process cannot modify the protected
// configuration store. Root always passes; otherwise the parent directory
// must be writable by the effective user.
func (g *Gate) EnsureMutable() error {
	if os.Geteuid() == 0 {
		return nil
	}

	dir := filepath.Dir(g.StorePath)
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s is not writable (run with sudo)", ErrPrivilege, dir)
	}
	return nil
}
