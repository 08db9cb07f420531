package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"gopkg.in/yaml.v3"
)

// LoadLimits reads a YAML limit set. An empty path returns the built-in
// default. Example:
//
//	name: vhp
//	bounds:
//	  pol: {min: 98.9, max: 99.6}
//	  cor: {max: 1250}
//	  ri:  {max: 500, rejects: true}
func LoadLimits(path string) (core.Limits, error) {
	if path == "" {
		return core.DefaultLimits(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Limits{}, fmt.Errorf("read limits: %w", err)
	}
	return ParseLimits(data)
}

// ParseLimits decodes and validates a YAML limit set. Metric keys are
// case-insensitive; unknown keys and fields are errors.
func ParseLimits(data []byte) (core.Limits, error) {
	var raw struct {
		Name   string                `yaml:"name"`
		Bounds map[string]core.Bound `yaml:"bounds"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return core.Limits{}, fmt.Errorf("decode limits: %w", err)
	}

	limits := core.Limits{Name: raw.Name, Bounds: make(map[core.Metric]core.Bound, len(raw.Bounds))}
	for key, b := range raw.Bounds {
		m, ok := core.ParseMetric(key)
		if !ok {
			return core.Limits{}, fmt.Errorf("decode limits: unknown metric %q", key)
		}
		limits.Bounds[m] = b
	}
	if limits.Name == "" {
		limits.Name = "custom"
	}
	if err := limits.Validate(); err != nil {
		return core.Limits{}, err
	}
	return limits, nil
}
