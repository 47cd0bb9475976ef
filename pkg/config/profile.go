package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk form of the settings. Unset fields keep their
// defaults.
type Profile struct {
	Enabled *bool       `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Slow    *bool       `yaml:"slow,omitempty" json:"slow,omitempty"`
	Repr    ReprProfile `yaml:"repr" json:"repr"`
	CEL     CELProfile  `yaml:"cel" json:"cel"`
}

// ReprProfile bounds value representation in violation messages.
type ReprProfile struct {
	MaxString int `yaml:"max_string,omitempty" json:"max_string,omitempty"`
	MaxItems  int `yaml:"max_items,omitempty" json:"max_items,omitempty"`
}

// CELProfile tunes expression conditions.
type CELProfile struct {
	CostLimit uint64 `yaml:"cost_limit,omitempty" json:"cost_limit,omitempty"`
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.Repr.MaxString < 0 || p.Repr.MaxItems < 0 {
		return nil, fmt.Errorf("parse profile: repr limits must not be negative")
	}
	return &p, nil
}

// Apply overlays the profile on s.
func (p *Profile) Apply(s *Settings) {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Slow != nil {
		s.Slow = *p.Slow
	}
	if p.Repr.MaxString > 0 {
		s.MaxString = p.Repr.MaxString
	}
	if p.Repr.MaxItems > 0 {
		s.MaxItems = p.Repr.MaxItems
	}
	if p.CEL.CostLimit > 0 {
		s.CELCostLimit = p.CEL.CostLimit
	}
}
