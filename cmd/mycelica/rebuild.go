package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/rebuild"
)

var (
	rebuildDryRun      bool
	rebuildJSON        bool
	rebuildEdgeFloor   float64
	rebuildMinSize     int
	rebuildLevels      int
	rebuildMaxSize     int
	rebuildKeywordTopN int
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the region hierarchy from item similarity edges",
	Long:  "Rebuild clusters the graph's items into an adaptive region tree and\ncommits the new generation atomically. Use --dry-run to preview.",
	RunE:  runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildDryRun, "dry-run", false, "compute the hierarchy but write nothing")
	rebuildCmd.Flags().BoolVar(&rebuildJSON, "json", false, "emit the rebuild report as JSON")
	rebuildCmd.Flags().Float64Var(&rebuildEdgeFloor, "edge-floor", 0, "minimum edge weight considered for clustering")
	rebuildCmd.Flags().IntVar(&rebuildMinSize, "min-size", 0, "minimum members for a named region")
	rebuildCmd.Flags().IntVar(&rebuildLevels, "target-levels", 0, "maximum hierarchy depth")
	rebuildCmd.Flags().IntVar(&rebuildMaxSize, "max-size", 0, "force subdivision of regions above this size")
	rebuildCmd.Flags().IntVar(&rebuildKeywordTopN, "keyword-top-n", 0, "keywords per region title")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig()
	if err != nil {
		return err
	}

	cfg := rebuild.DefaultConfig()
	cfg.Tree = resolved.Tree
	cfg.DryRun = rebuildDryRun
	if cmd.Flags().Changed("edge-floor") {
		cfg.Tree.EdgeFloor = rebuildEdgeFloor
	}
	if cmd.Flags().Changed("min-size") {
		cfg.Tree.MinSize = rebuildMinSize
	}
	if cmd.Flags().Changed("target-levels") {
		cfg.Tree.TargetLevels = rebuildLevels
	}
	if cmd.Flags().Changed("max-size") {
		cfg.Tree.MaxComponentSize = rebuildMaxSize
	}
	if cmd.Flags().Changed("keyword-top-n") {
		cfg.KeywordTopN = rebuildKeywordTopN
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := rebuild.NewOrchestrator(st, newLogger()).Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if rebuildJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	verb := "Rebuilt"
	if report.DryRun {
		verb = "Would rebuild"
	}
	fmt.Printf("%s hierarchy: %d regions (depth %d) from %d items in %dms\n",
		verb, report.Regions, report.MaxDepth, report.TotalItems, report.DurationMs)
	fmt.Printf("  assigned %d, rescued by weight %d, rescued to universe %d, bridge edges %d\n",
		report.ItemsAssigned, report.RescuedByWeight, report.RescuedToUniverse, report.BridgeEdges)
	return nil
}
