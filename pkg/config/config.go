// Package config holds the process-wide toggles read by the contract engine.
//
// The settings are read once, at the first call to Current, and never change
// afterwards. Contracts resolve their enabled flag against them when they are
// constructed, so flipping the environment later has no effect.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Settings is the resolved configuration.
type Settings struct {
	// Enabled is the default for every contract that does not set its own flag.
	Enabled bool
	// Slow enables contracts marked as slow. It is never true when Enabled is false.
	Slow bool
	// MaxString bounds the representation of a single value in violation messages.
	MaxString int
	// MaxItems bounds the number of collection elements shown in violation messages.
	MaxItems int
	// CELCostLimit bounds the runtime cost of one expression evaluation.
	CELCostLimit uint64
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Enabled:      compiledEnabled,
		Slow:         false,
		MaxString:    256,
		MaxItems:     50,
		CELCostLimit: 1_000_000,
	}
}

// Load resolves settings from the environment.
//
//	DBC_ENABLED  overrides the compiled default ("0"/"false" disables)
//	DBC_SLOW     any non-empty value enables slow contracts
//	DBC_PROFILE  path to a YAML profile applied before the variables above
func Load(getenv func(string) string) (Settings, error) {
	s := Defaults()

	if path := getenv("DBC_PROFILE"); path != "" {
		p, err := LoadProfile(path)
		if err != nil {
			return s, err
		}
		p.Apply(&s)
	}

	if v := strings.TrimSpace(getenv("DBC_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("parse DBC_ENABLED %q: %w", v, err)
		}
		s.Enabled = enabled
	}

	if getenv("DBC_SLOW") != "" {
		s.Slow = true
	}
	s.Slow = s.Slow && s.Enabled

	return s, nil
}

var (
	once    sync.Once
	current Settings
	loadErr error
)

// Current returns the process-wide settings, loading them on first use. A
// broken environment falls back to the defaults; the error is kept for
// LoadError.
func Current() Settings {
	once.Do(func() {
		current, loadErr = Load(os.Getenv)
		if loadErr != nil {
			current = Defaults()
		}
	})
	return current
}

// LoadError returns the error, if any, encountered while loading Current.
func LoadError() error {
	Current()
	return loadErr
}
