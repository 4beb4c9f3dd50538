// Package catalog enumerates macOS network interfaces and resolves
// user-supplied names to stable BSD device identifiers.
//
// Enumeration combines `networksetup -listallhardwareports` (hardware ports
// with display names) with `ifconfig -l` (every live BSD interface,
// including bridges and virtual devices the hardware port list omits).
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/netbardus/macshare/internal/util"
)

// Sentinel errors for interface resolution.
var (
	// ErrNotFound is returned when no interface matches a query.
	ErrNotFound = errors.New("interface not found")
	// ErrAmbiguous is returned when a query matches more than one interface.
	ErrAmbiguous = errors.New("interface name is ambiguous")
	// ErrPlatformQuery is returned when the underlying enumeration fails.
	ErrPlatformQuery = errors.New("platform interface query failed")
)

// Media classifies an interface by its transport type.
type Media int

const (
	MediaUnknown Media = iota
	MediaWiFi
	MediaEthernet
	MediaBridge
	MediaVirtual
)

// String returns a human-readable name for the media type.
func (m Media) String() string {
	switch m {
	case MediaWiFi:
		return "Wi-Fi"
	case MediaEthernet:
		return "Ethernet"
	case MediaBridge:
		return "Bridge"
	case MediaVirtual:
		return "Virtual"
	default:
		return "Unknown"
	}
}

// Interface is an immutable snapshot of a network interface at enumeration
// time. It is never persisted; the OS owns interface lifetimes.
type Interface struct {
	// Device is the stable BSD device name (en0, bridge100).
	Device string
	// DisplayName is the hardware port name (Wi-Fi, iPhone USB). Equals
	// Device for interfaces without a hardware port entry.
	DisplayName string
	// MAC is the ethernet address if reported.
	MAC string
	// Media is the transport classification.
	Media Media
	// CanBeSharingSource reports whether the interface can provide the
	// upstream connection for Internet Sharing.
	CanBeSharingSource bool
	// CanBeShared reports whether the shared connection can be offered
	// through this interface.
	CanBeShared bool
}

// Catalog queries the OS for network interfaces.
type Catalog struct {
	env *util.Env

	// PreferencesPath is the SystemConfiguration preferences plist used
	// for network service lookups.
	PreferencesPath string
}

// New creates a Catalog using the given environment.
func New(env *util.Env) *Catalog {
	return &Catalog{env: env, PreferencesPath: DefaultPreferencesPath}
}

// List enumerates the currently available interfaces. Each call re-queries
// the OS so hot-plugged devices show up without restarting the process.
func (c *Catalog) List() ([]Interface, error) {
	output, err := c.env.Cmd.Run("networksetup", "-listallhardwareports")
	if err != nil {
		return nil, fmt.Errorf("%w: networksetup -listallhardwareports: %v", ErrPlatformQuery, err)
	}

	byDevice := make(map[string]Interface)
	for _, port := range parseHardwarePorts(string(output)) {
		media := classifyPort(port.name, port.device)
		byDevice[port.device] = Interface{
			Device:             port.device,
			DisplayName:        port.name,
			MAC:                port.mac,
			Media:              media,
			CanBeSharingSource: media == MediaWiFi || media == MediaEthernet,
			CanBeShared:        media == MediaWiFi || media == MediaEthernet,
		}
	}

	// ifconfig -l catches live interfaces without a hardware port entry
	// (bridge100 while sharing is active, utun devices, loopback).
	liveOut, err := c.env.Cmd.Run("ifconfig", "-l")
	if err != nil {
		return nil, fmt.Errorf("%w: ifconfig -l: %v", ErrPlatformQuery, err)
	}
	for _, device := range strings.Fields(string(liveOut)) {
		if _, ok := byDevice[device]; ok {
			continue
		}
		media := classifyDevice(device)
		byDevice[device] = Interface{
			Device:      device,
			DisplayName: device,
			Media:       media,
			// Devices the hardware port list omits are bridges,
			// tunnels or loopback; none can anchor sharing.
			CanBeSharingSource: false,
			CanBeShared:        media == MediaEthernet,
		}
	}

	interfaces := make([]Interface, 0, len(byDevice))
	for _, iface := range byDevice {
		interfaces = append(interfaces, iface)
	}
	sort.Slice(interfaces, func(i, j int) bool {
		return interfaces[i].Device < interfaces[j].Device
	})
	return interfaces, nil
}

// Resolve maps an identifier to a single interface. Device names match
// exactly; display names match case-insensitively; as a last resort the
// query is looked up as a network service name (what System Preferences
// shows). Returns ErrNotFound when nothing matches and ErrAmbiguous when a
// display name matches more than one device.
func (c *Catalog) Resolve(query string) (Interface, error) {
	interfaces, err := c.List()
	if err != nil {
		return Interface{}, err
	}

	for _, iface := range interfaces {
		if iface.Device == query {
			return iface, nil
		}
	}

	var matches []Interface
	for _, iface := range interfaces {
		if strings.EqualFold(iface.DisplayName, query) {
			matches = append(matches, iface)
		}
	}
	switch len(matches) {
	case 0:
		// Best effort: the preferences plist may be unreadable without
		// privileges, which must not break device-name resolution.
		if svc, err := c.ServiceByName(query); err == nil {
			for _, iface := range interfaces {
				if iface.Device == svc.Device {
					return iface, nil
				}
			}
		}
		return Interface{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	case 1:
		return matches[0], nil
	default:
		devices := make([]string, len(matches))
		for i, m := range matches {
			devices[i] = m.Device
		}
		return Interface{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, query, strings.Join(devices, ", "))
	}
}

// hardwarePort is one block of networksetup -listallhardwareports output.
type hardwarePort struct {
	name   string
	device string
	mac    string
}

// parseHardwarePorts parses networksetup -listallhardwareports output:
//
//	Hardware Port: Wi-Fi
//	Device: en0
//	Ethernet Address: f0:18:98:aa:bb:cc
func parseHardwarePorts(output string) []hardwarePort {
	var ports []hardwarePort
	var current hardwarePort

	flush := func() {
		if current.name != "" && current.device != "" {
			ports = append(ports, current)
		}
		current = hardwarePort{}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Hardware Port: "):
			flush()
			current.name = strings.TrimPrefix(line, "Hardware Port: ")
		case strings.HasPrefix(line, "Device: "):
			current.device = strings.TrimPrefix(line, "Device: ")
		case strings.HasPrefix(line, "Ethernet Address: "):
			mac := strings.TrimPrefix(line, "Ethernet Address: ")
			if mac != "N/A" {
				current.mac = mac
			}
		}
	}
	flush()
	return ports
}

// classifyPort infers the media type from a hardware port name.
func classifyPort(name, device string) Media {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "wi-fi"), strings.Contains(lower, "airport"):
		return MediaWiFi
	case strings.Contains(lower, "bridge"):
		return MediaBridge
	case strings.Contains(lower, "ethernet"), strings.Contains(lower, "lan"),
		strings.Contains(lower, "usb"), strings.Contains(lower, "dock"):
		return MediaEthernet
	default:
		return classifyDevice(device)
	}
}

// classifyDevice infers the media type from a BSD device name alone.
func classifyDevice(device string) Media {
	switch {
	case strings.HasPrefix(device, "bridge"):
		return MediaBridge
	case strings.HasPrefix(device, "en"):
		return MediaEthernet
	case strings.HasPrefix(device, "lo"), strings.HasPrefix(device, "utun"),
		strings.HasPrefix(device, "gif"), strings.HasPrefix(device, "stf"),
		strings.HasPrefix(device, "awdl"), strings.HasPrefix(device, "llw"),
		strings.HasPrefix(device, "ap"), strings.HasPrefix(device, "anpi"):
		return MediaVirtual
	default:
		return MediaUnknown
	}
}
