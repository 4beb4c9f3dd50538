package daemon

import (
	"fmt"
	"regexp"
	"strings"
)

// Bridge describes the NAT bridge interface the sharing daemon creates
// (bridge100 by default). Its member interfaces are the devices the
// connection is currently offered through.
type Bridge struct {
	Name    string
	IPv4    string
	IPv6    string
	Members []string
}

var (
	bridgeIPv4Pattern   = regexp.MustCompile(`(?m)^\s*inet\s+(\S+)\s+netmask\s+\S+`)
	bridgeIPv6Pattern   = regexp.MustCompile(`(?m)^\s*inet6\s+(\S+)\s+prefixlen\s+\d+`)
	bridgeMemberPattern = regexp.MustCompile(`(?m)^\s*member:\s+(\S+)`)
)

// ReadBridge observes the NAT bridge. Returns (nil, nil) when the bridge
// interface does not exist, which is how an inactive daemon presents.
func (c *Controller) ReadBridge() (*Bridge, error) {
	output, err := c.env.Cmd.Run("ifconfig", c.BridgeName)
	if err != nil {
		if strings.Contains(string(output), "does not exist") {
			return nil, nil
		}
		return nil, fmt.Errorf("ifconfig %s: %s: %w", c.BridgeName, strings.TrimSpace(string(output)), err)
	}
	return parseBridge(c.BridgeName, string(output)), nil
}

// parseBridge extracts addressing and membership from ifconfig output.
func parseBridge(name, output string) *Bridge {
	bridge := &Bridge{Name: name}

	if m := bridgeIPv4Pattern.FindStringSubmatch(output); m != nil {
		bridge.IPv4 = m[1]
	}
	if m := bridgeIPv6Pattern.FindStringSubmatch(output); m != nil {
		// Strip the zone suffix (fe80::1%bridge100).
		bridge.IPv6 = strings.SplitN(m[1], "%", 2)[0]
	}
	for _, m := range bridgeMemberPattern.FindAllStringSubmatch(output, -1) {
		bridge.Members = append(bridge.Members, m[1])
	}
	return bridge
}

// HasMembers reports whether every given device is a member of the bridge.
func (b *Bridge) HasMembers(devices []string) bool {
	members := make(map[string]bool, len(b.Members))
	for _, member := range b.Members {
		members[member] = true
	}
	for _, device := range devices {
		if !members[device] {
			return false
		}
	}
	return true
}
