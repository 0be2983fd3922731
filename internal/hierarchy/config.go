package hierarchy

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Defaults for Config. Chosen for graphs of a few hundred to a few thousand
// content nodes with similarity weights in the 0.5-1.0 band.
const (
	DefaultEdgeFloor         = 0.3
	DefaultMinSize           = 5
	DefaultTightThreshold    = 0.001
	DefaultCohesionThreshold = 1.2
	DefaultDeltaMin          = 0.03
	DefaultTargetLevels      = 4
	DefaultMaxComponentSize  = 500
	DefaultBridgeMargin      = 0.05
)

// Config holds the tunables of the adaptive tree builder.
// MinSize, CohesionThreshold and DeltaMin are hard gates: no split is ever
// accepted that violates them.
type Config struct {
	// EdgeFloor is the minimum weight an edge needs to participate in
	// hierarchy construction. Edges below it carry insufficient signal.
	EdgeFloor float64 `json:"edge_floor" yaml:"edge_floor"`
	// MinSize is the minimum member count to form a named group; smaller
	// groups are absorbed upward.
	MinSize int `json:"min_size" yaml:"min_size"`
	// TightThreshold: a component whose internal weight variance falls
	// below it is treated as already cohesive and skips the split search.
	// This is a fast short-circuit only; the split search is the authority
	// on whether a component divides.
	TightThreshold float64 `json:"tight_threshold" yaml:"tight_threshold"`
	// CohesionThreshold is the minimum intra/inter cohesion ratio a
	// candidate split must exceed.
	CohesionThreshold float64 `json:"cohesion_threshold" yaml:"cohesion_threshold"`
	// DeltaMin is the minimum weight gap between a parent cut and any
	// child cut, preventing near-duplicate consecutive levels.
	DeltaMin float64 `json:"delta_min" yaml:"delta_min"`
	// TargetLevels bounds recursion depth.
	TargetLevels int `json:"target_levels" yaml:"target_levels"`
	// MaxComponentSize forces subdivision of oversized groups even past
	// TargetLevels.
	MaxComponentSize int `json:"max_component_size" yaml:"max_component_size"`
	// BridgeMargin: a member whose mean edge weight into a sibling group
	// comes within this margin of its own group's cut threshold gains
	// advisory secondary membership there.
	BridgeMargin float64 `json:"bridge_margin" yaml:"bridge_margin"`
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		EdgeFloor:         DefaultEdgeFloor,
		MinSize:           DefaultMinSize,
		TightThreshold:    DefaultTightThreshold,
		CohesionThreshold: DefaultCohesionThreshold,
		DeltaMin:          DefaultDeltaMin,
		TargetLevels:      DefaultTargetLevels,
		MaxComponentSize:  DefaultMaxComponentSize,
		BridgeMargin:      DefaultBridgeMargin,
	}
}

// Validate rejects out-of-range tunables before any computation starts.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.EdgeFloor, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinSize, validation.Required, validation.Min(1)),
		validation.Field(&c.TightThreshold, validation.Min(0.0)),
		validation.Field(&c.CohesionThreshold, validation.Required, validation.Min(0.0)),
		validation.Field(&c.DeltaMin, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.TargetLevels, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxComponentSize, validation.Required, validation.Min(1)),
		validation.Field(&c.BridgeMargin, validation.Min(0.0), validation.Max(1.0)),
	)
}
