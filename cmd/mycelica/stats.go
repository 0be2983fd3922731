package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig()
	if err != nil {
		return err
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("database: %s\n", resolved.DBPath.Value)
	fmt.Printf("  nodes:   %d\n", stats.NodeCount)
	fmt.Printf("  edges:   %d\n", stats.EdgeCount)
	fmt.Printf("  regions: %d\n", stats.RegionCount)
	fmt.Printf("  size:    %.1f KB\n", float64(stats.DBSizeBytes)/1024)
	return nil
}
