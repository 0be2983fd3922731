package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/config"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration and where each value came from",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configJSON, "json", false, "emit the resolved configuration as JSON")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig()
	if err != nil {
		return err
	}

	if configJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resolved)
	}

	fmt.Printf("config file: %s\n", resolved.ConfigPath)
	printResolved("db_path", resolved.DBPath)
	printResolved("http_addr", resolved.HTTPAddr)
	fmt.Println("tree:")
	fmt.Printf("  edge_floor %.2f, min_size %d, target_levels %d, max_component_size %d\n",
		resolved.Tree.EdgeFloor, resolved.Tree.MinSize, resolved.Tree.TargetLevels, resolved.Tree.MaxComponentSize)
	fmt.Printf("  cohesion_threshold %.2f, delta_min %.3f, tight_threshold %.4f, bridge_margin %.3f\n",
		resolved.Tree.CohesionThreshold, resolved.Tree.DeltaMin, resolved.Tree.TightThreshold, resolved.Tree.BridgeMargin)
	fmt.Println("analyzer:")
	fmt.Printf("  hub_threshold %d, top_n %d, stale_days %d\n",
		resolved.Analyzer.HubThreshold, resolved.Analyzer.TopN, resolved.Analyzer.StaleDays)
	return nil
}

func printResolved(name string, v config.ResolvedValue) {
	from := ""
	if v.From != "" {
		from = fmt.Sprintf(" (%s)", v.From)
	}
	fmt.Printf("%s: %s  [%s%s]\n", name, v.Value, v.Source, from)
}
