// Package sharing orchestrates Internet Sharing state changes: it validates
// the requested interfaces, diffs against the persisted record, writes the
// new record atomically and reconciles the live daemon against it.
package sharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/netbardus/macshare/internal/catalog"
	"github.com/netbardus/macshare/internal/daemon"
	"github.com/netbardus/macshare/internal/natstore"
)

// Phase is a step in the enable/disable sequence.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseDiffing
	PhaseWriting
	PhaseReconciling
	PhaseVerified
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseDiffing:
		return "diffing"
	case PhaseWriting:
		return "writing"
	case PhaseReconciling:
		return "reconciling"
	case PhaseVerified:
		return "verified"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// writeRetries bounds the automatic re-read-and-retry after a concurrent
// modification of the store.
const writeRetries = 3

// DesiredState is the requested target state for one invocation.
// Interface fields may be device names or display names; they are resolved
// during validation.
type DesiredState struct {
	// Enable requests sharing on (with the interfaces below) or off.
	Enable bool
	// SharingInterface provides the upstream connection.
	SharingInterface string
	// SharedInterfaces receive the shared connection.
	SharedInterfaces []string
	// NetworkName optionally overrides the advertised network name.
	NetworkName string
}

// Result describes a completed operation.
type Result struct {
	// Phase is the terminal phase (PhaseVerified on success).
	Phase Phase
	// Record is the record in effect after the operation.
	Record *natstore.Record
	// Wrote reports whether the store was rewritten. False means the
	// request was an idempotent no-op.
	Wrote bool
	// Status is the final observed daemon state.
	Status *daemon.ServiceStatus
}

// InterfaceResolver resolves interface names and service bindings.
// *catalog.Catalog implements it.
type InterfaceResolver interface {
	Resolve(query string) (catalog.Interface, error)
	ServiceForDevice(device string) (catalog.Service, error)
}

// RecordStore persists the sharing record. *natstore.Store implements it.
type RecordStore interface {
	Read() (*natstore.Record, natstore.Revision, error)
	WriteAtomic(rec *natstore.Record, expected natstore.Revision) (natstore.Revision, error)
}

// ServiceController drives the live daemon. *daemon.Controller implements it.
type ServiceController interface {
	Matches(rec *natstore.Record) bool
	Converge(ctx context.Context, rec *natstore.Record) error
	Status(rec *natstore.Record) (*daemon.ServiceStatus, error)
}

// PrivilegeChecker gates mutating operations. *privilege.Gate implements it.
type PrivilegeChecker interface {
	EnsureMutable() error
}

// Machine sequences one sharing state change at a time.
type Machine struct {
	catalog InterfaceResolver
	store   RecordStore
	service ServiceController
	gate    PrivilegeChecker
	log     *log.Logger

	phase Phase
}

// New creates a Machine over the given collaborators.
func New(cat InterfaceResolver, store RecordStore, svc ServiceController, gate PrivilegeChecker, logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.Default()
	}
	return &Machine{
		catalog: cat,
		store:   store,
		service: svc,
		gate:    gate,
		log:     logger.With("component", "sharing"),
		phase:   PhaseIdle,
	}
}

// Phase returns the machine's current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// enter moves the machine to the next phase.
func (m *Machine) enter(next Phase) {
	m.log.Debug("phase transition", "from", m.phase.String(), "to", next.String())
	m.phase = next
}

// fail records the terminal failure phase and returns the error unchanged.
func (m *Machine) fail(err error) error {
	m.enter(PhaseFailed)
	return err
}

// Apply drives the store and daemon to the desired state. The caller's
// context deadline is honored in every phase; the store is never left
// partially written.
func (m *Machine) Apply(ctx context.Context, desired DesiredState) (*Result, error) {
	m.enter(PhaseValidating)

	// Any request reaching the writing phase needs elevated rights;
	// checking up front fails fast before touching anything.
	if err := m.gate.EnsureMutable(); err != nil {
		return nil, m.fail(err)
	}

	resolved, err := m.resolveDesired(desired)
	if err != nil {
		return nil, m.fail(err)
	}

	var (
		target *natstore.Record
		wrote  bool
	)
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, m.fail(err)
		}

		m.enter(PhaseDiffing)
		current, rev, err := m.store.Read()
		if err != nil {
			return nil, m.fail(err)
		}

		target = m.buildTarget(current, resolved)
		if err := target.Validate(); err != nil {
			return nil, m.fail(err)
		}

		if current.Equivalent(target) {
			if m.service.Matches(target) {
				// Persisted and live state already match: no-op.
				m.enter(PhaseVerified)
				return m.finish(target, false)
			}
			// Record is right but the daemon lags; skip the write
			// and reconcile only.
			break
		}

		m.enter(PhaseWriting)
		if _, err := m.store.WriteAtomic(target, rev); err != nil {
			if errors.Is(err, natstore.ErrConcurrentModification) && attempt < writeRetries-1 {
				m.log.Warn("store changed underneath us, re-reading", "attempt", attempt+1)
				continue
			}
			return nil, m.fail(err)
		}
		wrote = true
		break
	}

	m.enter(PhaseReconciling)
	if err := m.service.Converge(ctx, target); err != nil {
		return nil, m.fail(err)
	}

	m.enter(PhaseVerified)
	return m.finish(target, wrote)
}

// Status reports the persisted record and the observed daemon state.
// Read-only: bypasses the privilege gate.
func (m *Machine) Status(ctx context.Context) (*natstore.Record, *daemon.ServiceStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	rec, _, err := m.store.Read()
	if err != nil {
		return nil, nil, err
	}
	status, err := m.service.Status(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, status, nil
}

// resolvedState carries validated interface selections.
type resolvedState struct {
	enable      bool
	primary     catalog.Interface
	shared      []catalog.Interface
	networkName string
}

// resolveDesired resolves every named interface and checks capability
// classes. Disable requests need no interface arguments.
func (m *Machine) resolveDesired(desired DesiredState) (*resolvedState, error) {
	resolved := &resolvedState{enable: desired.Enable, networkName: desired.NetworkName}
	if !desired.Enable {
		return resolved, nil
	}

	primary, err := m.catalog.Resolve(desired.SharingInterface)
	if err != nil {
		return nil, err
	}
	if !primary.CanBeSharingSource {
		return nil, fmt.Errorf("%w: %s (%s) cannot provide a shared connection",
			natstore.ErrInvalidRecord, primary.Device, primary.Media)
	}
	resolved.primary = primary

	for _, name := range desired.SharedInterfaces {
		iface, err := m.catalog.Resolve(name)
		if err != nil {
			return nil, err
		}
		if !iface.CanBeShared {
			return nil, fmt.Errorf("%w: %s (%s) cannot receive a shared connection",
				natstore.ErrInvalidRecord, iface.Device, iface.Media)
		}
		resolved.shared = append(resolved.shared, iface)
	}
	return resolved, nil
}

// buildTarget derives the new record from the current one, mutating only
// the fields this request owns so GUI-managed fields survive.
func (m *Machine) buildTarget(current *natstore.Record, resolved *resolvedState) *natstore.Record {
	target := current.Clone()
	target.Enabled = resolved.enable
	if !resolved.enable {
		return target
	}

	target.PrimaryDevice = resolved.primary.Device
	target.SharingDevices = make([]string, len(resolved.shared))
	for i, iface := range resolved.shared {
		target.SharingDevices[i] = iface.Device
	}
	if resolved.networkName != "" {
		target.NetworkName = resolved.networkName
	}

	// The daemon keys NAT state on the SystemConfiguration service of the
	// primary device. Best effort: a record without PrimaryService still
	// names the device itself.
	if svc, err := m.catalog.ServiceForDevice(resolved.primary.Device); err == nil {
		target.PrimaryService = svc.ID
	} else {
		m.log.Warn("no network service for primary device", "device", resolved.primary.Device, "err", err)
	}
	return target
}

// finish assembles the success result with a final status observation.
func (m *Machine) finish(rec *natstore.Record, wrote bool) (*Result, error) {
	status, err := m.service.Status(rec)
	if err != nil {
		return nil, m.fail(err)
	}
	return &Result{
		Phase:  PhaseVerified,
		Record: rec,
		Wrote:  wrote,
		Status: status,
	}, nil
}
