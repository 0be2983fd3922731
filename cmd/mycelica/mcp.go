package main

import (
	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/mcp"
	"github.com/Ekats/Mycelica-sub001/internal/rebuild"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve graph tools to MCP clients over stdio",
	Long:  "Exposes graph_health, graph_analyze, hierarchy_rebuild, and list_regions\nas MCP tools on stdin/stdout for agent clients.",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	resolved, err := resolveConfig()
	if err != nil {
		return err
	}

	st, err := openStore(resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	rebuildCfg := rebuild.DefaultConfig()
	rebuildCfg.Tree = resolved.Tree

	return mcp.ServeStdio(mcp.NewServer(mcp.ServerConfig{
		Store:    st,
		Analyzer: resolved.Analyzer,
		Rebuild:  rebuildCfg,
		Version:  version,
	}))
}
