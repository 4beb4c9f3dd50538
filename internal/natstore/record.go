// Package natstore reads and atomically rewrites the persisted Internet
// Sharing configuration (com.apple.nat.plist). The file is shared with the
// System Preferences GUI and the sharing daemon, so every write is
// revision-checked and unknown fields are carried through verbatim.
package natstore

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrStoreUnavailable is returned when the plist cannot be opened.
	ErrStoreUnavailable = errors.New("sharing configuration store unavailable")
	// ErrCorruptState is returned when the plist exists but cannot be
	// parsed into the expected shape.
	ErrCorruptState = errors.New("sharing configuration is corrupt")
	// ErrInvalidRecord is returned when a record fails invariant checks
	// before a write. The store is left untouched.
	ErrInvalidRecord = errors.New("invalid sharing record")
	// ErrConcurrentModification is returned when the on-disk revision no
	// longer matches the revision the caller read.
	ErrConcurrentModification = errors.New("sharing configuration modified concurrently")
)

// Revision identifies a point-in-time version of the on-disk record.
// Seq is a monotonic counter this tool maintains in the plist; ModTime
// catches external writers (the GUI) that do not know about the counter.
type Revision struct {
	Seq     int64
	ModTime time.Time
}

// Equal reports whether two revisions identify the same on-disk state.
func (r Revision) Equal(other Revision) bool {
	return r.Seq == other.Seq && r.ModTime.Equal(other.ModTime)
}

// Record is the sharing configuration. The zero value is a valid
// "sharing disabled" record.
type Record struct {
	// Enabled mirrors NAT.Enabled.
	Enabled bool
	// PrimaryDevice is the BSD device providing the shared connection
	// (NAT.PrimaryInterface.Device).
	PrimaryDevice string
	// PrimaryService is the SystemConfiguration service UUID for the
	// primary device (NAT.PrimaryService). Optional.
	PrimaryService string
	// SharingDevices are the BSD devices the connection is offered
	// through (NAT.SharingDevices).
	SharingDevices []string
	// NetworkName is the advertised network name (NAT.AirPort.NetworkName).
	NetworkName string

	// raw holds the full decoded plist root so fields this tool does not
	// model survive a rewrite.
	raw map[string]any
}

// Validate checks the record invariants enforced before every write:
// enabled implies a primary device, at least one sharing device, no device
// listed twice, and the primary not among the sharing devices.
func (r *Record) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.PrimaryDevice == "" {
		return fmt.Errorf("%w: enabled but no sharing interface set", ErrInvalidRecord)
	}
	if len(r.SharingDevices) == 0 {
		return fmt.Errorf("%w: enabled but no shared interfaces set", ErrInvalidRecord)
	}
	seen := make(map[string]bool, len(r.SharingDevices))
	for _, device := range r.SharingDevices {
		if device == "" {
			return fmt.Errorf("%w: empty shared interface name", ErrInvalidRecord)
		}
		if device == r.PrimaryDevice {
			return fmt.Errorf("%w: %q cannot be both sharing source and shared target", ErrInvalidRecord, device)
		}
		if seen[device] {
			return fmt.Errorf("%w: duplicate shared interface %q", ErrInvalidRecord, device)
		}
		seen[device] = true
	}
	return nil
}

// Equivalent reports whether two records describe the same sharing state.
// Sharing device order is not significant.
func (r *Record) Equivalent(other *Record) bool {
	if r.Enabled != other.Enabled {
		return false
	}
	if !r.Enabled && !other.Enabled {
		return true
	}
	if r.PrimaryDevice != other.PrimaryDevice {
		return false
	}
	return sameDeviceSet(r.SharingDevices, other.SharingDevices)
}

// Clone returns a copy of the record that can be mutated independently.
// The raw plist data is shared structurally until encode time, which
// deep-copies before mutation.
func (r *Record) Clone() *Record {
	dup := *r
	dup.SharingDevices = append([]string(nil), r.SharingDevices...)
	return &dup
}

func sameDeviceSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, device := range a {
		set[device] = true
	}
	for _, device := range b {
		if !set[device] {
			return false
		}
	}
	return true
}

// decodeRecord builds a Record from a decoded plist root dictionary.
func decodeRecord(root map[string]any) (*Record, error) {
	rec := &Record{raw: root}

	rawNAT, ok := root["NAT"]
	if !ok {
		return rec, nil
	}
	nat, ok := rawNAT.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: NAT entry is not a dictionary", ErrCorruptState)
	}

	rec.Enabled = plistTruthy(nat["Enabled"])

	if primary, ok := nat["PrimaryInterface"].(map[string]any); ok {
		rec.PrimaryDevice, _ = primary["Device"].(string)
	}
	rec.PrimaryService, _ = nat["PrimaryService"].(string)

	if rawDevices, ok := nat["SharingDevices"]; ok {
		devices, ok := rawDevices.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: SharingDevices is not a list", ErrCorruptState)
		}
		for _, rawDevice := range devices {
			device, ok := rawDevice.(string)
			if !ok {
				return nil, fmt.Errorf("%w: SharingDevices entry is not a string", ErrCorruptState)
			}
			rec.SharingDevices = append(rec.SharingDevices, device)
		}
	}

	if airport, ok := nat["AirPort"].(map[string]any); ok {
		rec.NetworkName, _ = airport["NetworkName"].(string)
	}

	return rec, nil
}

// encodeRoot merges the record back into its raw plist root, preserving
// unknown keys at the root and inside the NAT dictionary, and stamps the
// new revision counter.
func (r *Record) encodeRoot(seq int64) map[string]any {
	root := deepCopyDict(r.raw)
	if root == nil {
		root = make(map[string]any)
	}

	nat, ok := root["NAT"].(map[string]any)
	if !ok {
		nat = make(map[string]any)
	}

	nat["Enabled"] = boolToPlist(r.Enabled)

	primary, ok := nat["PrimaryInterface"].(map[string]any)
	if !ok {
		primary = map[string]any{"Enabled": 0, "HardwareKey": ""}
	}
	primary["Device"] = r.PrimaryDevice
	nat["PrimaryInterface"] = primary

	if r.PrimaryService != "" {
		nat["PrimaryService"] = r.PrimaryService
	}

	devices := make([]any, len(r.SharingDevices))
	for i, device := range r.SharingDevices {
		devices[i] = device
	}
	nat["SharingDevices"] = devices

	airport, ok := nat["AirPort"].(map[string]any)
	if !ok {
		airport = map[string]any{
			"40BitEncrypt":    1,
			"Channel":         0,
			"Enabled":         0,
			"NetworkPassword": []byte{},
		}
	}
	if r.NetworkName != "" {
		airport["NetworkName"] = r.NetworkName
	}
	nat["AirPort"] = airport

	if _, ok := nat["NatPortMapDisabled"]; !ok {
		nat["NatPortMapDisabled"] = false
	}

	root["NAT"] = nat
	root[revisionKey] = seq
	return root
}

// plistTruthy interprets the loosely-typed Enabled values plists carry
// (boolean in some macOS releases, integer 0/1 in others).
func plistTruthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}

func boolToPlist(v bool) int {
	if v {
		return 1
	}
	return 0
}

// plistInt64 coerces the integer types the plist decoder may produce.
func plistInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// deepCopyDict copies a plist dictionary, recursing into nested
// dictionaries and arrays so mutations never alias the source.
func deepCopyDict(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = deepCopyValue(value)
	}
	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyDict(val)
	case []any:
		dup := make([]any, len(val))
		for i, item := range val {
			dup[i] = deepCopyValue(item)
		}
		return dup
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}
