package config

import (
	"encoding/json"
	"fmt"

	"tablesync/core/engine"
)

// Endpoint kinds a unit may bind to.
const (
	KindSheet = "sheet"
	KindGlide = "glide"
)

// Endpoint names one side of a sync unit.
type Endpoint struct {
	// Kind is "sheet" or "glide".
	Kind string `json:"kind"`
	// Table is the sheet tab or Glide table name.
	Table string `json:"table"`
}

// Unit is one validated sync unit declaration.
type Unit struct {
	Name               string
	Mode               engine.Mode
	Local              Endpoint
	Remote             Endpoint
	Mapping            engine.Mapping
	ConflictPolicy     engine.Policy
	SkipEmptyOverwrite bool
	Filter             string
}

type rawUnit struct {
	Name               string         `json:"name"`
	Mode               string         `json:"mode"`
	Local              Endpoint       `json:"local"`
	Remote             Endpoint       `json:"remote"`
	Mapping            engine.Mapping `json:"mapping"`
	ConflictPolicy     string         `json:"conflictPolicy"`
	SkipEmptyOverwrite bool           `json:"skipEmptyOverwrite"`
	Filter             string         `json:"filter"`
}

// ParseUnits decodes and validates the units JSON. Every unit must have a
// unique name, known endpoint kinds, a valid mode and a mapping that
// validates for that mode.
func ParseUnits(raw string) ([]Unit, error) {
	var decoded []rawUnit
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("sync units: invalid JSON: %w", err)
	}

	seen := make(map[string]struct{}, len(decoded))
	units := make([]Unit, 0, len(decoded))
	for i, r := range decoded {
		if r.Name == "" {
			return nil, fmt.Errorf("sync units[%d]: name is required", i)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("sync units: duplicate name %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		mode, ok := engine.ParseMode(r.Mode)
		if !ok {
			return nil, fmt.Errorf("sync unit %q: unknown mode %q", r.Name, r.Mode)
		}
		policy, ok := engine.ParsePolicy(r.ConflictPolicy)
		if !ok {
			return nil, fmt.Errorf("sync unit %q: unknown conflict policy %q", r.Name, r.ConflictPolicy)
		}
		if err := validateEndpoint(r.Local); err != nil {
			return nil, fmt.Errorf("sync unit %q: local: %w", r.Name, err)
		}
		if err := validateEndpoint(r.Remote); err != nil {
			return nil, fmt.Errorf("sync unit %q: remote: %w", r.Name, err)
		}
		if err := r.Mapping.Validate(mode); err != nil {
			return nil, fmt.Errorf("sync unit %q: %w", r.Name, err)
		}

		units = append(units, Unit{
			Name:               r.Name,
			Mode:               mode,
			Local:              r.Local,
			Remote:             r.Remote,
			Mapping:            r.Mapping,
			ConflictPolicy:     policy,
			SkipEmptyOverwrite: r.SkipEmptyOverwrite,
			Filter:             r.Filter,
		})
	}
	return units, nil
}

func validateEndpoint(ep Endpoint) error {
	switch ep.Kind {
	case KindSheet, KindGlide:
	default:
		return fmt.Errorf("unknown endpoint kind %q", ep.Kind)
	}
	if ep.Table == "" {
		return fmt.Errorf("table is required")
	}
	return nil
}
