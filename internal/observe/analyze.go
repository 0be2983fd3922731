package observe

import (
	"context"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

// Composite score weights. Fixed per deployment; the breakdown makes the
// combination explainable to the user.
const (
	weightConnectivity = 0.30
	weightComponents   = 0.25
	weightStaleness    = 0.25
	weightFragility    = 0.20
)

// AnalyzerConfig holds analysis parameters.
type AnalyzerConfig struct {
	// HubThreshold is the minimum total degree for a node to count as a hub.
	HubThreshold int `json:"hub_threshold" yaml:"hub_threshold"`
	// TopN caps sample lists (orphans, hubs, stale nodes) in the report.
	TopN int `json:"top_n" yaml:"top_n"`
	// StaleDays is the age window for the staleness checks.
	StaleDays int64 `json:"stale_days" yaml:"stale_days"`
}

// DefaultAnalyzerConfig returns sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		HubThreshold: 10,
		TopN:         50,
		StaleDays:    30,
	}
}

// Validate rejects out-of-range parameters before any computation.
func (c AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HubThreshold, validation.Required, validation.Min(1)),
		validation.Field(&c.TopN, validation.Required, validation.Min(1)),
		validation.Field(&c.StaleDays, validation.Required, validation.Min(int64(1))),
	)
}

// HealthBreakdown shows the sub-scores behind the composite, each in [0,1].
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Staleness    float64 `json:"staleness"`
	Fragility    float64 `json:"fragility"`
}

// AnalysisReport is the full structural diagnosis.
type AnalysisReport struct {
	HealthScore     float64          `json:"health_score"`
	HealthBreakdown HealthBreakdown  `json:"health_breakdown"`
	Topology        *TopologyReport  `json:"topology"`
	Staleness       *StalenessReport `json:"staleness"`
	Fragility       *FragilityReport `json:"fragility"`
}

// Analyze runs all analyzers against the snapshot and combines their
// outputs into one composite health score.
//
// The three analyzers are independent pure functions, so they fan out on an
// errgroup; correctness never depends on that parallelism. Input errors
// (empty graph, single node) are reported distinctly rather than as zero
// results, and no partial report is produced.
func Analyze(ctx context.Context, snap *graph.Snapshot, cfg AnalyzerConfig) (*AnalysisReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating analyzer config: %w", err)
	}
	switch len(snap.Nodes) {
	case 0:
		return nil, graph.ErrEmptyGraph
	case 1:
		return nil, graph.ErrSingleNode
	}

	var (
		topology  *TopologyReport
		staleness *StalenessReport
		fragility *FragilityReport
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		topology = ComputeTopology(snap, cfg.HubThreshold, cfg.TopN)
		return nil
	})
	g.Go(func() error {
		staleness = ComputeStaleness(snap, cfg.StaleDays, cfg.TopN)
		return nil
	})
	g.Go(func() error {
		fragility = ComputeFragility(snap)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	breakdown := scoreBreakdown(topology, staleness, fragility)
	return &AnalysisReport{
		HealthScore: weightConnectivity*breakdown.Connectivity +
			weightComponents*breakdown.Components +
			weightStaleness*breakdown.Staleness +
			weightFragility*breakdown.Fragility,
		HealthBreakdown: breakdown,
		Topology:        topology,
		Staleness:       staleness,
		Fragility:       fragility,
	}, nil
}

// scoreBreakdown maps raw analyzer counts to [0,1] sub-scores. Each score
// is monotone in its underlying signal: one more orphan, component, stale
// node or articulation point can never raise it.
func scoreBreakdown(t *TopologyReport, s *StalenessReport, f *FragilityReport) HealthBreakdown {
	total := float64(t.TotalNodes)
	var b HealthBreakdown
	if total > 0 {
		b.Connectivity = clamp(1.0-math.Min(float64(t.OrphanCount)/total, 0.2)*5.0, 0, 1)
		b.Staleness = clamp(1.0-math.Min(float64(s.StaleNodeCount)/total, 0.1)*10.0, 0, 1)
		b.Fragility = clamp(1.0-math.Min(float64(f.APCount)/total, 0.05)*20.0, 0, 1)
	}
	if t.NumComponents > 0 {
		b.Components = clamp(1.0/float64(t.NumComponents), 0, 1)
	}
	return b
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
