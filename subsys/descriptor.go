package subsys

import (
	"fmt"
)

// ID is a dense, zero-based subsystem index.
type ID uint

// Descriptor describes a single logging subsystem.
//
// A descriptor's ID is its position in the table passed to New.
type Descriptor struct {
	// Name is the display name of the subsystem.
	Name string `yaml:"name"`
	// LogLevel is the default log level.
	LogLevel uint8 `yaml:"log_level"`
	// GatherLevel is the default gather level.
	GatherLevel uint8 `yaml:"gather_level"`
	// MaxDefault is the highest level call sites of this subsystem are
	// expected to use without reconfiguration.
	//
	// It is a diagnostic bound only. Zero means "derive from defaults".
	MaxDefault uint8 `yaml:"max_default"`
}

// Effective returns the effective gather level implied by the defaults.
func (m Descriptor) Effective() uint8 {
	return max(m.LogLevel, m.GatherLevel)
}

func (m Descriptor) normalize() Descriptor {
	if m.MaxDefault == 0 {
		m.MaxDefault = m.Effective()
	}
	return m
}

func validate(descs []Descriptor) error {
	if len(descs) == 0 {
		return fmt.Errorf("descriptor table is empty")
	}
	if len(descs) > MaxSubsystems {
		return fmt.Errorf("descriptor table has %d entries: must be at most %d", len(descs), MaxSubsystems)
	}

	seen := make(map[string]int, len(descs))
	for idx, d := range descs {
		if d.Name == "" {
			return fmt.Errorf("subsystem #%d has no name", idx)
		}
		if prev, ok := seen[d.Name]; ok {
			return fmt.Errorf("subsystem %q is declared twice: #%d and #%d", d.Name, prev, idx)
		}
		seen[d.Name] = idx
	}

	return nil
}
