// Command mycelica maintains and inspects a knowledge graph: it rebuilds
// the adaptive region hierarchy, analyzes structural health, and serves
// both over HTTP and MCP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/config"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

const version = "0.1.0"

var (
	flagDB     string
	flagConfig string
	flagAddr   string
)

var rootCmd = &cobra.Command{
	Use:     "mycelica",
	Short:   "Knowledge graph hierarchy and health tooling",
	Long:    "Mycelica rebuilds the adaptive region hierarchy of a knowledge graph\nand diagnoses its structural health (topology, staleness, fragility).",
	Version: version,
}

func init() {
	// .env is optional; missing files are not an error.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the SQLite database (overrides config and MYCELICA_DB)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the config file (default ~/.mycelica/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "HTTP listen address for serve (overrides config and MYCELICA_HTTP_ADDR)")
}

// Execute runs the root command; errors have already been printed by
// cobra, so only the exit code is ours.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig folds defaults, the config file, the environment, and
// the CLI flags into one runtime configuration.
func resolveConfig() (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath:  flagConfig,
		CLIDBPath:   flagDB,
		CLIHTTPAddr: flagAddr,
	})
}

// openStore opens the resolved database. Callers own the Close.
func openStore(resolved config.ResolvedConfig) (store.Store, error) {
	st, err := store.NewStore(store.StoreConfig{DBPath: resolved.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", resolved.DBPath.Value, err)
	}
	return st, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
