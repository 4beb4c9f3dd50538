package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"howett.net/plist"
)

// DefaultPreferencesPath is the SystemConfiguration preferences plist that
// holds the configured network services, keyed by service UUID.
const DefaultPreferencesPath = "/Library/Preferences/SystemConfiguration/preferences.plist"

// Service is a configured SystemConfiguration network service.
type Service struct {
	// ID is the service UUID used as PrimaryService in the NAT record.
	ID string
	// Name is the user-defined service name shown in System Preferences.
	Name string
	// Device is the BSD device name the service is bound to.
	Device string
}

// Services reads the configured network services from the preferences plist.
// Entries without a valid UUID key or device binding are skipped.
func (c *Catalog) Services() ([]Service, error) {
	data, err := afero.ReadFile(c.env.Fs, c.PreferencesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPlatformQuery, c.PreferencesPath, err)
	}

	var prefs map[string]any
	if _, err := plist.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPlatformQuery, c.PreferencesPath, err)
	}

	rawServices, _ := prefs["NetworkServices"].(map[string]any)
	services := make([]Service, 0, len(rawServices))
	for id, raw := range rawServices {
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["UserDefinedName"].(string)
		device := ""
		if ifaceEntry, ok := entry["Interface"].(map[string]any); ok {
			device, _ = ifaceEntry["DeviceName"].(string)
		}
		if device == "" {
			continue
		}
		services = append(services, Service{ID: id, Name: name, Device: device})
	}
	return services, nil
}

// ServiceForDevice returns the network service bound to the given BSD device.
// Returns ErrNotFound when no service is bound to it.
func (c *Catalog) ServiceForDevice(device string) (Service, error) {
	services, err := c.Services()
	if err != nil {
		return Service{}, err
	}
	for _, svc := range services {
		if svc.Device == device {
			return svc, nil
		}
	}
	return Service{}, fmt.Errorf("%w: no network service for device %q", ErrNotFound, device)
}

// ServiceByName returns the network service with the given user-defined name.
func (c *Catalog) ServiceByName(name string) (Service, error) {
	services, err := c.Services()
	if err != nil {
		return Service{}, err
	}
	for _, svc := range services {
		if svc.Name == name {
			return svc, nil
		}
	}
	return Service{}, fmt.Errorf("%w: no network service named %q", ErrNotFound, name)
}
