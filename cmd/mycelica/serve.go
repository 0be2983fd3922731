package main

import (
	"github.com/spf13/cobra"

	"github.com/Ekats/Mycelica-sub001/internal/rebuild"
	"github.com/Ekats/Mycelica-sub001/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health reports and rebuilds over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := server.NewServer(server.ServerConfig{
		Store:    st,
		Analyzer: resolved.Analyzer,
		Rebuild:  rebuildCfg,
		Log:      newLogger(),
	})
	return srv.ListenAndServe(resolved.HTTPAddr.Value)
}
