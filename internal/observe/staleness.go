package observe

import (
	"sort"
	"time"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
)

const millisPerDay = 86_400_000

// StaleNode is an item that has not been revised in a while yet keeps
// attracting newer references, making it a candidate for re-summarization.
type StaleNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DaysSinceUpdate int64  `json:"days_since_update"`
	RecentRefCount  int    `json:"recent_reference_count"`
}

// StaleSummary is a summary node whose target moved on after the summary
// was written.
type StaleSummary struct {
	SummaryNodeID string `json:"summary_node_id"`
	SummaryTitle  string `json:"summary_title"`
	TargetNodeID  string `json:"target_node_id"`
	TargetTitle   string `json:"target_title"`
	DriftDays     int64  `json:"drift_days"`
}

// StalenessReport holds both staleness checks. Sample lists are capped at
// topN; counts are complete.
type StalenessReport struct {
	StaleNodes        []StaleNode    `json:"stale_nodes"`
	StaleSummaries    []StaleSummary `json:"stale_summaries"`
	StaleNodeCount    int            `json:"stale_node_count"`
	StaleSummaryCount int            `json:"stale_summary_count"`
}

// ComputeStaleness runs both staleness checks against the snapshot.
// Read-only; staleDays is the caller's window.
func ComputeStaleness(snap *graph.Snapshot, staleDays int64, topN int) *StalenessReport {
	return computeStalenessAt(snap, staleDays, topN, time.Now().UnixMilli())
}

// computeStalenessAt is the clock-injected core, shared with tests.
func computeStalenessAt(snap *graph.Snapshot, staleDays int64, topN int, nowMs int64) *StalenessReport {
	staleBefore := nowMs - staleDays*millisPerDay

	// Incoming references newer than each node's own update.
	recentRefs := make(map[string]int)
	for _, e := range snap.Edges {
		if e.Source == e.Target {
			continue
		}
		target, ok := snap.Nodes[e.Target]
		if !ok {
			continue
		}
		if e.CreatedAt > target.UpdatedAt {
			recentRefs[e.Target]++
		}
	}

	var staleNodes []StaleNode
	for _, id := range snap.NodeIDs() {
		node := snap.Nodes[id]
		if !node.IsItem || node.UpdatedAt > staleBefore {
			continue
		}
		refs := recentRefs[id]
		if refs == 0 {
			continue
		}
		staleNodes = append(staleNodes, StaleNode{
			ID:              id,
			Title:           node.Title,
			DaysSinceUpdate: (nowMs - node.UpdatedAt) / millisPerDay,
			RecentRefCount:  refs,
		})
	}
	sort.Slice(staleNodes, func(i, j int) bool {
		if staleNodes[i].DaysSinceUpdate != staleNodes[j].DaysSinceUpdate {
			return staleNodes[i].DaysSinceUpdate > staleNodes[j].DaysSinceUpdate
		}
		if staleNodes[i].RecentRefCount != staleNodes[j].RecentRefCount {
			return staleNodes[i].RecentRefCount > staleNodes[j].RecentRefCount
		}
		return staleNodes[i].ID < staleNodes[j].ID
	})

	// Summaries that desynchronized from their source: a "summarizes" edge
	// from summary to target where the target was updated afterwards.
	var staleSummaries []StaleSummary
	for _, e := range snap.Edges {
		if e.EdgeType != "summarizes" {
			continue
		}
		summary := snap.Nodes[e.Source]
		target := snap.Nodes[e.Target]
		if summary == nil || target == nil {
			continue
		}
		if target.UpdatedAt > summary.UpdatedAt {
			staleSummaries = append(staleSummaries, StaleSummary{
				SummaryNodeID: e.Source,
				SummaryTitle:  summary.Title,
				TargetNodeID:  e.Target,
				TargetTitle:   target.Title,
				DriftDays:     (target.UpdatedAt - summary.UpdatedAt) / millisPerDay,
			})
		}
	}
	sort.Slice(staleSummaries, func(i, j int) bool {
		if staleSummaries[i].DriftDays != staleSummaries[j].DriftDays {
			return staleSummaries[i].DriftDays > staleSummaries[j].DriftDays
		}
		return staleSummaries[i].SummaryNodeID < staleSummaries[j].SummaryNodeID
	})

	report := &StalenessReport{
		StaleNodeCount:    len(staleNodes),
		StaleSummaryCount: len(staleSummaries),
	}
	if len(staleNodes) > topN {
		staleNodes = staleNodes[:topN]
	}
	if len(staleSummaries) > topN {
		staleSummaries = staleSummaries[:topN]
	}
	report.StaleNodes = staleNodes
	report.StaleSummaries = staleSummaries
	return report
}
