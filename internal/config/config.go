// Package config handles the optional macshare configuration file
// (~/.config/macshare/config.toml). Everything has a working default; the
// file exists for non-standard SystemConfiguration roots and tuning the
// convergence poll.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/netbardus/macshare/internal/catalog"
	"github.com/netbardus/macshare/internal/daemon"
	"github.com/netbardus/macshare/internal/natstore"
)

// ConfigDirName is the directory under the user config root.
const ConfigDirName = "macshare"

// ConfigFilename is the configuration file name.
const ConfigFilename = "config.toml"

// Converge tunes the daemon convergence poll.
type Converge struct {
	Attempts    int    `toml:"attempts,omitempty" json:"attempts,omitempty" jsonschema:"description=Maximum poll attempts before giving up"`
	MaxInterval string `toml:"max_interval,omitempty" json:"max_interval,omitempty" jsonschema:"description=Backoff cap between polls (Go duration string)"`
}

// Config is the tool configuration.
type Config struct {
	NATPlist         string   `toml:"nat_plist,omitempty" json:"nat_plist,omitempty" jsonschema:"description=Path of the Internet Sharing NAT plist"`
	PreferencesPlist string   `toml:"preferences_plist,omitempty" json:"preferences_plist,omitempty" jsonschema:"description=Path of the SystemConfiguration preferences plist"`
	DaemonLabel      string   `toml:"daemon_label,omitempty" json:"daemon_label,omitempty" jsonschema:"description=launchd label of the sharing daemon"`
	DaemonPlist      string   `toml:"daemon_plist,omitempty" json:"daemon_plist,omitempty" jsonschema:"description=LaunchDaemon plist used to bootstrap the sharing daemon"`
	BridgeName       string   `toml:"bridge_name,omitempty" json:"bridge_name,omitempty" jsonschema:"description=Bridge interface the daemon creates when sharing is active"`
	NetworkName      string   `toml:"network_name,omitempty" json:"network_name,omitempty" jsonschema:"description=Default advertised network name"`
	Converge         Converge `toml:"converge,omitempty" json:"converge,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		NATPlist:         natstore.DefaultPath,
		PreferencesPlist: catalog.DefaultPreferencesPath,
		DaemonLabel:      daemon.DefaultLabel,
		DaemonPlist:      daemon.DefaultDaemonPlist,
		BridgeName:       daemon.DefaultBridgeName,
		Converge: Converge{
			Attempts:    daemon.DefaultPollAttempts,
			MaxInterval: daemon.DefaultPollMax.String(),
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, ConfigDirName, ConfigFilename), nil
}

// Load reads and validates a config file. Fields left unset in the file
// keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional loads the config file if present, returning defaults when it
// does not exist. A present-but-broken file is still an error.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks field consistency.
func (c *Config) Validate() error {
	if c.Converge.Attempts < 1 {
		return fmt.Errorf("converge.attempts must be at least 1, got %d", c.Converge.Attempts)
	}
	if _, err := c.MaxPollInterval(); err != nil {
		return err
	}
	if !filepath.IsAbs(c.NATPlist) {
		return fmt.Errorf("nat_plist must be an absolute path: %q", c.NATPlist)
	}
	if !filepath.IsAbs(c.PreferencesPlist) {
		return fmt.Errorf("preferences_plist must be an absolute path: %q", c.PreferencesPlist)
	}
	return nil
}

// MaxPollInterval parses the convergence backoff cap.
func (c *Config) MaxPollInterval() (time.Duration, error) {
	if c.Converge.MaxInterval == "" {
		return daemon.DefaultPollMax, nil
	}
	d, err := time.ParseDuration(c.Converge.MaxInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid converge.max_interval %q: %w", c.Converge.MaxInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("converge.max_interval must be positive, got %s", d)
	}
	return d, nil
}
