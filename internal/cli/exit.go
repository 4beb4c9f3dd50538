package cli

import (
	"context"
	"errors"

	"github.com/netbardus/macshare/internal/catalog"
	"github.com/netbardus/macshare/internal/daemon"
	"github.com/netbardus/macshare/internal/natstore"
	"github.com/netbardus/macshare/internal/privilege"
)

// Stable exit codes so scripts can distinguish failure classes.
const (
	ExitOK               = 0
	ExitGeneric          = 1
	ExitInvalidInterface = 2
	ExitPrivilege        = 3
	ExitConcurrentMod    = 4
	ExitConvergence      = 5
	ExitStore            = 6
	ExitDeadline         = 7
)

// ExitCode maps an error to its stable exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrAmbiguous):
		return ExitInvalidInterface
	case errors.Is(err, privilege.ErrPrivilege):
		return ExitPrivilege
	case errors.Is(err, natstore.ErrConcurrentModification):
		return ExitConcurrentMod
	case errors.Is(err, daemon.ErrConvergenceTimeout),
		errors.Is(err, daemon.ErrServiceStop):
		return ExitConvergence
	case errors.Is(err, natstore.ErrStoreUnavailable),
		errors.Is(err, natstore.ErrCorruptState),
		errors.Is(err, natstore.ErrInvalidRecord):
		return ExitStore
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ExitDeadline
	default:
		return ExitGeneric
	}
}
