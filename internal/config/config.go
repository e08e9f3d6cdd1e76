// Package config reads an optional TOML defaults file that supplies
// fallback values for root CLI flags, so a host running many agents does
// not need to repeat its rendezvous adapter settings on every invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Version is the sgmagent version string.
const Version = "0.1.0"

// Defaults holds the subset of root flags a config file may override.
// Zero values mean "no default supplied"; the CLI's own built-in
// defaults apply in that case.
type Defaults struct {
	Adapter string `toml:"adapter"`
	FilePath string `toml:"file_path"`
	DHTHost string `toml:"dht_host"`
	DHTPort int    `toml:"dht_port"`
}

// tomlConfig is the on-disk wrapper, matching the teacher's
// single-section TOML layout.
type tomlConfig struct {
	Agent Defaults `toml:"agent"`
}

// defaultSearchPaths returns the locations config.go checks, in order:
// the current directory's sgmagent.toml, then
// $XDG_CONFIG_HOME/sgmagent/config.toml (or ~/.config/sgmagent/config.toml
// when XDG_CONFIG_HOME is unset). The state file's directory is not
// searched.
func defaultSearchPaths() []string {
	paths := []string{"sgmagent.toml"}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "sgmagent", "config.toml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sgmagent", "config.toml"))
	}
	return paths
}

// Load searches defaultSearchPaths for a readable config file and decodes
// it. A missing file at every path is not an error: Load returns a zero
// Defaults, meaning "fall back to built-in CLI defaults."
func Load() (Defaults, error) {
	for _, path := range defaultSearchPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Defaults{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg, err := FromTOML(string(data))
		if err != nil {
			return Defaults{}, fmt.Errorf("config: %s: %w", path, err)
		}
		return cfg, nil
	}
	return Defaults{}, nil
}

// FromTOML parses a config document from TOML text.
func FromTOML(text string) (Defaults, error) {
	var wrapper tomlConfig
	if _, err := toml.Decode(text, &wrapper); err != nil {
		return Defaults{}, fmt.Errorf("parsing config TOML: %w", err)
	}
	return wrapper.Agent, nil
}

// ToTOML serializes d back to the on-disk format, used by the sample
// config this package's tests write.
func (d Defaults) ToTOML() string {
	return fmt.Sprintf("[agent]\nadapter = %q\nfile_path = %q\ndht_host = %q\ndht_port = %d\n",
		d.Adapter, d.FilePath, d.DHTHost, d.DHTPort)
}

// AdapterOrDefault returns the configured adapter kind, or fallback.
func (d Defaults) AdapterOrDefault(fallback string) string {
	if d.Adapter != "" {
		return d.Adapter
	}
	return fallback
}

// FilePathOrDefault returns the configured file-adapter directory, or fallback.
func (d Defaults) FilePathOrDefault(fallback string) string {
	if d.FilePath != "" {
		return d.FilePath
	}
	return fallback
}

// DHTHostOrDefault returns the configured DHT host, or fallback.
func (d Defaults) DHTHostOrDefault(fallback string) string {
	if d.DHTHost != "" {
		return d.DHTHost
	}
	return fallback
}

// DHTPortOrDefault returns the configured DHT port, or fallback.
func (d Defaults) DHTPortOrDefault(fallback uint16) uint16 {
	if d.DHTPort != 0 {
		return uint16(d.DHTPort)
	}
	return fallback
}
