package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
	"github.com/Ekats/Mycelica-sub001/internal/observe"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

var (
	analyzeJSON         bool
	analyzeRegion       string
	analyzeTopN         int
	analyzeStaleDays    int64
	analyzeHubThreshold int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Diagnose the structural health of the graph",
	Long:  "Analyze computes the composite health score of the graph along with\nits topology, staleness, and fragility reports.",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeRegion, "region", "", "restrict analysis to one region's subtree")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 0, "cap detail lists (hubs, stale nodes) at N entries")
	analyzeCmd.Flags().Int64Var(&analyzeStaleDays, "stale-days", 0, "age in days before a referenced node counts as stale")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", 0, "degree above which a node counts as a hub")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig()
	if err != nil {
		return err
	}

	cfg := resolved.Analyzer
	if analyzeTopN > 0 {
		cfg.TopN = analyzeTopN
	}
	if analyzeStaleDays > 0 {
		cfg.StaleDays = analyzeStaleDays
	}
	if analyzeHubThreshold > 0 {
		cfg.HubThreshold = analyzeHubThreshold
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	snap, err := store.LoadSnapshot(ctx, st)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}
	if analyzeRegion != "" {
		snap, err = snap.FilterToRegion(analyzeRegion)
		if err != nil {
			return err
		}
	}

	report, err := observe.Analyze(ctx, snap, cfg)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report, snap)
	return nil
}

func printReport(report *observe.AnalysisReport, snap *graph.Snapshot) {
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	b := report.HealthBreakdown
	fmt.Printf("  connectivity %.2f · components %.2f · staleness %.2f · fragility %.2f\n",
		b.Connectivity, b.Components, b.Staleness, b.Fragility)

	t := report.Topology
	fmt.Println("\n  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  %d nodes, %d edges, %d connected component", t.TotalNodes, t.TotalEdges, t.NumComponents)
	if t.NumComponents != 1 {
		fmt.Print("s")
	}
	fmt.Println()
	if t.NumComponents > 1 {
		fmt.Printf("  largest %d, smallest %d\n", t.LargestComponent, t.SmallestComponent)
	}
	if t.OrphanCount > 0 {
		fmt.Printf("  %d orphan nodes (no edges):\n", t.OrphanCount)
		limit := 5
		if len(t.OrphanIDs) < limit {
			limit = len(t.OrphanIDs)
		}
		for _, id := range t.OrphanIDs[:limit] {
			title := ""
			if n := snap.Nodes[id]; n != nil {
				title = n.Title
			}
			fmt.Printf("    %s  %s\n", truncID(id), truncTitle(title, 40))
		}
		if t.OrphanCount > limit {
			fmt.Printf("    ... and %d more\n", t.OrphanCount-limit)
		}
	}
	fmt.Println("  degree distribution:")
	for _, bucket := range t.DegreeHistogram {
		width := 0
		if bucket.Count > 0 {
			width = int(math.Log2(float64(bucket.Count))) + 2
		}
		fmt.Printf("    %6s %s %d\n", bucket.Label, strings.Repeat("=", width), bucket.Count)
	}
	if len(t.Hubs) > 0 {
		fmt.Printf("  top hubs (degree > threshold):\n")
		for _, h := range t.Hubs {
			fmt.Printf("    %s deg %d (in %d / out %d)  %s\n",
				truncID(h.ID), h.Degree, h.InDegree, h.OutDegree, truncTitle(h.Title, 40))
		}
	}

	s := report.Staleness
	if s.StaleNodeCount > 0 || s.StaleSummaryCount > 0 {
		fmt.Println("\n  STALENESS")
		fmt.Println("  ────────────────────────────────────────")
		if s.StaleNodeCount > 0 {
			fmt.Printf("  %d stale nodes (old but still referenced):\n", s.StaleNodeCount)
			limit := 10
			if len(s.StaleNodes) < limit {
				limit = len(s.StaleNodes)
			}
			for _, n := range s.StaleNodes[:limit] {
				fmt.Printf("    %s %dd old, %d recent refs  %s\n",
					truncID(n.ID), n.DaysSinceUpdate, n.RecentRefCount, truncTitle(n.Title, 40))
			}
		}
		if s.StaleSummaryCount > 0 {
			fmt.Printf("  %d stale summaries (target updated after summary):\n", s.StaleSummaryCount)
			limit := 10
			if len(s.StaleSummaries) < limit {
				limit = len(s.StaleSummaries)
			}
			for _, ss := range s.StaleSummaries[:limit] {
				fmt.Printf("    %s -> %s (%dd drift)\n",
					truncTitle(ss.SummaryTitle, 25), truncTitle(ss.TargetTitle, 25), ss.DriftDays)
			}
		}
	}

	f := report.Fragility
	if f.APCount > 0 || f.BridgeCount > 0 || len(f.FragileConnections) > 0 {
		fmt.Println("\n  STRUCTURAL FRAGILITY")
		fmt.Println("  ────────────────────────────────────────")
		if f.APCount > 0 {
			fmt.Printf("  %d articulation points (removal disconnects graph):\n", f.APCount)
			limit := 10
			if len(f.ArticulationPoints) < limit {
				limit = len(f.ArticulationPoints)
			}
			for _, ap := range f.ArticulationPoints[:limit] {
				fmt.Printf("    %s (splits into %d)  %s\n",
					truncID(ap.ID), ap.ComponentsIfRemoved, truncTitle(ap.Title, 40))
			}
		}
		if f.BridgeCount > 0 {
			fmt.Printf("  %d bridge edges (removal disconnects graph):\n", f.BridgeCount)
			limit := 10
			if len(f.BridgeEdges) < limit {
				limit = len(f.BridgeEdges)
			}
			for _, be := range f.BridgeEdges[:limit] {
				fmt.Printf("    %s -> %s\n", truncTitle(be.SourceTitle, 30), truncTitle(be.TargetTitle, 30))
			}
		}
		if len(f.FragileConnections) > 0 {
			fmt.Printf("  %d fragile inter-region connections (<=2 edges):\n", len(f.FragileConnections))
			limit := 10
			if len(f.FragileConnections) < limit {
				limit = len(f.FragileConnections)
			}
			for _, fc := range f.FragileConnections[:limit] {
				aTitle := regionTitle(snap, fc.RegionA)
				bTitle := regionTitle(snap, fc.RegionB)
				plural := "s"
				if fc.CrossEdges == 1 {
					plural = ""
				}
				fmt.Printf("    %s <-> %s (%d edge%s)\n",
					truncTitle(aTitle, 25), truncTitle(bTitle, 25), fc.CrossEdges, plural)
			}
		}
	}

	fmt.Println()
}

func regionTitle(snap *graph.Snapshot, id string) string {
	if n := snap.Nodes[id]; n != nil && n.Title != "" {
		return n.Title
	}
	return id
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	truncated := s[:max]
	// Back up to a UTF-8 boundary.
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
