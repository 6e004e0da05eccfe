// Package config loads iptsd's daemon-level operational configuration: the
// device to read from, whether to capture or serve diagnostics, and so on.
// The pipeline's own tuning constants (internal/ipts.Bias, .DiameterPalm,
// etc) are deliberately not here - they are compile-time, per spec.md
// section 6, not something an iptsd.yaml can override.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Diagnostics holds the opt-in diagnostics service's settings.
type Diagnostics struct {
	Enabled     bool   `yaml:"enabled"`
	Port        int    `yaml:"port"`
	ServiceName string `yaml:"service_name"`
}

// Config is iptsd's daemon configuration, loaded from iptsd.yaml and then
// overridden field-by-field by CLI flags.
type Config struct {
	// Device is the hidraw character device to read from. Empty means
	// auto-discover via internal/discovery.
	Device string `yaml:"device"`

	// Replay is a capture-file path to read from instead of a live
	// device. Mutually exclusive with Device - the caller decides which
	// wins; Load does not enforce this itself.
	Replay string `yaml:"replay"`

	LogLevel string `yaml:"log_level"`

	// CaptureDir, if non-empty, enables frame capture: every transport
	// buffer read from the live source is also mirrored to a dated file
	// in this directory.
	CaptureDir string `yaml:"capture_dir"`

	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Default returns the configuration used when no iptsd.yaml is found.
func Default() Config {
	return Config{
		LogLevel: "info",
		Diagnostics: Diagnostics{
			Enabled:     false,
			Port:        8273,
			ServiceName: "iptsd",
		},
	}
}

// searchLocations mirrors the teacher's tocalls.yaml search-path idiom:
// current working directory first, then a fixed list of system paths.
var searchLocations = []string{
	"iptsd.yaml",
	"/etc/iptsd/iptsd.yaml",
	"/usr/local/etc/iptsd/iptsd.yaml",
}

// Load reads the first iptsd.yaml found on searchLocations, overlaying it
// onto Default(). A missing file at every location is not an error -
// iptsd runs on defaults - but a file that exists and fails to parse is,
// since that almost always means a typo the operator should see.
func Load() (Config, error) {
	var cfg = Default()

	var data []byte
	var foundAt string

	for _, location := range searchLocations {
		var b, err = os.ReadFile(location)
		if err != nil {
			continue
		}

		data = b
		foundAt = location
		break
	}

	if data == nil {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", foundAt, err)
	}

	return cfg, nil
}
