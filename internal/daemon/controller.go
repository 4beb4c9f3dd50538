// Package daemon drives the macOS Internet Sharing launch daemon
// (com.apple.InternetSharing) through launchctl and verifies convergence by
// observing the NAT bridge interface the daemon brings up.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/netbardus/macshare/internal/natstore"
	"github.com/netbardus/macshare/internal/util"
)

// Sentinel errors for service control.
var (
	// ErrServiceStop is returned when the daemon is still running after a
	// stop and one best-effort force stop.
	ErrServiceStop = errors.New("sharing daemon did not stop")
	// ErrConvergenceTimeout is returned when the observed daemon state
	// never matches the target within the polling window.
	ErrConvergenceTimeout = errors.New("sharing daemon did not converge")
)

// launchd defaults for the Internet Sharing daemon.
const (
	DefaultLabel       = "com.apple.InternetSharing"
	DefaultDaemonPlist = "/System/Library/LaunchDaemons/com.apple.InternetSharing.plist"
	DefaultBridgeName  = "bridge100"
)

// Polling defaults: 10 attempts, exponential backoff capped at one second.
const (
	DefaultPollAttempts = 10
	defaultPollBase     = 100 * time.Millisecond
	DefaultPollMax      = time.Second
)

// ServiceStatus is a point-in-time observation of the live daemon,
// reconciled against the persisted record. Never persisted.
type ServiceStatus struct {
	Running                bool
	ActiveSharingInterface string
	ActiveSharedInterfaces []string
	// Bridge holds the NAT bridge details when sharing is up.
	Bridge *Bridge
}

// Controller makes the live daemon match a given sharing record.
type Controller struct {
	env *util.Env
	log *log.Logger

	// Label is the launchd job label in the system domain.
	Label string
	// DaemonPlist is the LaunchDaemon plist used to bootstrap the job.
	DaemonPlist string
	// BridgeName is the bridge interface the daemon creates when sharing
	// is active.
	BridgeName string

	// PollAttempts bounds the convergence poll.
	PollAttempts int
	// PollMax caps the backoff interval between polls.
	PollMax time.Duration

	pollBase time.Duration
}

// New creates a Controller with the standard macOS daemon identity.
func New(env *util.Env, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		env:          env,
		log:          logger.With("component", "daemon"),
		Label:        DefaultLabel,
		DaemonPlist:  DefaultDaemonPlist,
		BridgeName:   DefaultBridgeName,
		PollAttempts: DefaultPollAttempts,
		PollMax:      DefaultPollMax,
		pollBase:     defaultPollBase,
	}
}

// IsRunning checks whether the daemon is loaded in the system domain.
func (c *Controller) IsRunning() bool {
	_, err := c.env.Cmd.RunQuiet("launchctl", "print", "system/"+c.Label)
	return err == nil
}

// Status observes the live daemon and reconciles it against the persisted
// record. Read-only; requires no privileges.
func (c *Controller) Status(rec *natstore.Record) (*ServiceStatus, error) {
	bridge, err := c.ReadBridge()
	if err != nil {
		return nil, err
	}

	status := &ServiceStatus{
		Running: c.IsRunning() && bridge != nil,
		Bridge:  bridge,
	}
	if status.Running {
		status.ActiveSharingInterface = rec.PrimaryDevice
		status.ActiveSharedInterfaces = bridge.Members
	}
	return status, nil
}

// Converge drives the daemon through stop → reload → start until the live
// state matches the target record, polling with bounded backoff.
// The whole sequence is idempotent; retrying it is safe.
func (c *Controller) Converge(ctx context.Context, rec *natstore.Record) error {
	if c.IsRunning() && !c.Matches(rec) {
		if err := c.Stop(ctx); err != nil {
			return err
		}
	}

	if rec.Enabled {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	return c.awaitConvergence(ctx, rec)
}

// Stop unloads the daemon, force-killing it once if the bootout does not
// take effect within the polling window.
func (c *Controller) Stop(ctx context.Context) error {
	if !c.IsRunning() {
		return nil
	}

	c.log.Debug("stopping sharing daemon", "label", c.Label)
	if out, err := c.env.Cmd.SudoRunQuiet("launchctl", "bootout", "system/"+c.Label); err != nil {
		c.log.Warn("bootout failed, will force stop", "output", out, "err", err)
	}
	if stopped, err := c.pollUntil(ctx, func() bool { return !c.IsRunning() }); err != nil || stopped {
		return err
	}

	// One best-effort force stop, then fail if the daemon survives.
	c.log.Debug("force stopping sharing daemon", "label", c.Label)
	if out, err := c.env.Cmd.SudoRunQuiet("launchctl", "kill", "SIGKILL", "system/"+c.Label); err != nil {
		c.log.Warn("force stop failed", "output", out, "err", err)
	}
	stopped, err := c.pollUntil(ctx, func() bool { return !c.IsRunning() })
	if err != nil {
		return err
	}
	if !stopped {
		return fmt.Errorf("%w: %s still loaded after bootout and SIGKILL", ErrServiceStop, c.Label)
	}
	return nil
}

// Start bootstraps the daemon into the system domain and kicks it so it
// picks up the just-written configuration. Falls back to the legacy
// launchctl load for older systems.
func (c *Controller) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.log.Debug("starting sharing daemon", "label", c.Label)
	if c.IsRunning() {
		// Already loaded: a kickstart forces a config reload.
		if out, err := c.env.Cmd.SudoRunQuiet("launchctl", "kickstart", "-k", "system/"+c.Label); err != nil {
			c.log.Warn("kickstart failed", "output", out, "err", err)
		}
		return nil
	}

	if out, err := c.env.Cmd.SudoRunQuiet("launchctl", "bootstrap", "system", c.DaemonPlist); err != nil {
		c.log.Debug("bootstrap failed, trying legacy load", "output", out, "err", err)
		if out, err := c.env.Cmd.SudoRunQuiet("launchctl", "load", "-w", c.DaemonPlist); err != nil {
			return fmt.Errorf("start sharing daemon: %s: %w", out, err)
		}
	}
	return nil
}

// Matches reports whether the live state already satisfies the record:
// bridge absent for a disabled record, bridge present with all sharing
// devices as members for an enabled one.
func (c *Controller) Matches(rec *natstore.Record) bool {
	bridge, err := c.ReadBridge()
	if err != nil {
		return false
	}
	if !rec.Enabled {
		return bridge == nil
	}
	if bridge == nil {
		return false
	}
	return bridge.HasMembers(rec.SharingDevices)
}

// awaitConvergence polls until the live state matches the record or the
// attempt budget runs out.
func (c *Controller) awaitConvergence(ctx context.Context, rec *natstore.Record) error {
	interval := c.pollBase
	for attempt := 1; attempt <= c.PollAttempts; attempt++ {
		if c.Matches(rec) {
			c.log.Debug("sharing daemon converged", "attempt", attempt)
			return nil
		}
		if err := sleepContext(ctx, interval); err != nil {
			return err
		}
		interval *= 2
		if interval > c.PollMax {
			interval = c.PollMax
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrConvergenceTimeout, c.PollAttempts)
}

// pollUntil polls a condition with the controller's backoff schedule.
// Returns (true, nil) when the condition became true in time.
func (c *Controller) pollUntil(ctx context.Context, cond func() bool) (bool, error) {
	interval := c.pollBase
	for attempt := 1; attempt <= c.PollAttempts; attempt++ {
		if cond() {
			return true, nil
		}
		if err := sleepContext(ctx, interval); err != nil {
			return false, err
		}
		interval *= 2
		if interval > c.PollMax {
			interval = c.PollMax
		}
	}
	return cond(), nil
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
