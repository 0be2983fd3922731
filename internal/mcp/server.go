// Package mcp provides a Model Context Protocol server for the graph.
//
// It exposes the structural health diagnosis and the hierarchy rebuild as
// MCP tools so agents can inspect and reorganize the knowledge graph over
// stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
	"github.com/Ekats/Mycelica-sub001/internal/observe"
	"github.com/Ekats/Mycelica-sub001/internal/rebuild"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store    store.Store
	Analyzer observe.AnalyzerConfig
	Rebuild  rebuild.Config
	Version  string // version string for MCP server info
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines.
// SQLite (even with WAL) supports only one writer at a time, and a rebuild
// mid-analysis would hand the analyzer a half-replaced hierarchy.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all graph tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Mycelica",
		ver,
		server.WithToolCapabilities(false),
	)

	registerHealthTool(s, cfg)
	registerAnalyzeTool(s, cfg)
	registerRebuildTool(s, cfg)
	registerListRegionsTool(s, cfg)

	return s
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// loadSnapshot takes the db lock, loads a snapshot, and applies the
// optional region filter.
func loadSnapshot(ctx context.Context, st store.Store, regionID string) (*graph.Snapshot, error) {
	snap, err := store.LoadSnapshot(ctx, st)
	if err != nil {
		return nil, err
	}
	if regionID != "" {
		return snap.FilterToRegion(regionID)
	}
	return snap, nil
}

func registerHealthTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("graph_health",
		mcp.WithDescription("Get the composite structural health score of the knowledge graph with its breakdown (connectivity, components, staleness, fragility). Scores are in [0,1]."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("region",
			mcp.Description("Optional region node ID: score only that region and its descendants"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		regionID := ""
		if v, err := req.RequireString("region"); err == nil {
			regionID = v
		}
		snap, err := loadSnapshot(ctx, cfg.Store, regionID)
		if err != nil {
			return toolError(err), nil
		}

		report, err := observe.Analyze(ctx, snap, cfg.Analyzer)
		if err != nil {
			return toolError(err), nil
		}

		summary := map[string]any{
			"health_score":     report.HealthScore,
			"health_breakdown": report.HealthBreakdown,
			"total_nodes":      report.Topology.TotalNodes,
			"num_components":   report.Topology.NumComponents,
			"orphan_count":     report.Topology.OrphanCount,
			"stale_nodes":      report.Staleness.StaleNodeCount,
			"ap_count":         report.Fragility.APCount,
		}
		data, _ := json.MarshalIndent(summary, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAnalyzeTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("graph_analyze",
		mcp.WithDescription("Run the full structural analysis: topology (components, orphans, hubs), staleness (old-but-referenced nodes, drifted summaries), and fragility (articulation points, bridge edges). Returns the complete report as JSON."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("region",
			mcp.Description("Optional region node ID to scope the analysis"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Cap on sample lists in the report (default: 50, max: 500)"),
		),
		mcp.WithNumber("stale_days",
			mcp.Description("Age window in days for staleness checks (default: 30)"),
		),
		mcp.WithNumber("hub_threshold",
			mcp.Description("Minimum degree for a node to count as a hub (default: 10)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		acfg := cfg.Analyzer
		if v, err := req.RequireFloat("top_n"); err == nil {
			acfg.TopN = boundInt(int(v), 1, 500, acfg.TopN)
		}
		if v, err := req.RequireFloat("stale_days"); err == nil {
			acfg.StaleDays = int64(boundInt(int(v), 1, 3650, int(acfg.StaleDays)))
		}
		if v, err := req.RequireFloat("hub_threshold"); err == nil {
			acfg.HubThreshold = boundInt(int(v), 1, 10_000, acfg.HubThreshold)
		}

		regionID := ""
		if v, err := req.RequireString("region"); err == nil {
			regionID = v
		}
		snap, err := loadSnapshot(ctx, cfg.Store, regionID)
		if err != nil {
			return toolError(err), nil
		}

		report, err := observe.Analyze(ctx, snap, acfg)
		if err != nil {
			return toolError(err), nil
		}
		data, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRebuildTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("hierarchy_rebuild",
		mcp.WithDescription("Rebuild the adaptive hierarchy from scratch: cluster items by edge weight, create region nodes, rescue orphans, and persist bridge edges. Use dry_run to preview without writing."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithBoolean("dry_run",
			mcp.Description("Compute everything but write nothing (default: false)"),
		),
		mcp.WithNumber("min_size",
			mcp.Description("Minimum members for a named region (default: 5)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		rcfg := cfg.Rebuild
		if v, err := req.RequireBool("dry_run"); err == nil {
			rcfg.DryRun = v
		}
		if v, err := req.RequireFloat("min_size"); err == nil {
			rcfg.Tree.MinSize = boundInt(int(v), 1, 10_000, rcfg.Tree.MinSize)
		}

		report, err := rebuild.NewOrchestrator(cfg.Store, nil).Run(ctx, rcfg)
		if err != nil {
			return toolError(err), nil
		}
		data, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerListRegionsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("list_regions",
		mcp.WithDescription("List the hierarchy's region nodes (ID, title, depth, child count, parent). Region IDs feed the region parameter of the analysis tools."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		nodes, err := cfg.Store.AllNodes(ctx)
		if err != nil {
			return toolError(err), nil
		}
		type regionEntry struct {
			ID         string  `json:"id"`
			Title      string  `json:"title"`
			Depth      int     `json:"depth"`
			ChildCount int     `json:"child_count"`
			ParentID   *string `json:"parent_id,omitempty"`
		}
		regions := []regionEntry{}
		for _, n := range nodes {
			if n.NodeType != "region" && !n.IsUniverse {
				continue
			}
			regions = append(regions, regionEntry{
				ID:         n.ID,
				Title:      n.Title,
				Depth:      n.Depth,
				ChildCount: n.ChildCount,
				ParentID:   n.ParentID,
			})
		}
		data, _ := json.MarshalIndent(regions, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, graph.ErrEmptyGraph):
		return mcp.NewToolResultError("the graph is empty; import some nodes first")
	case errors.Is(err, graph.ErrSingleNode):
		return mcp.NewToolResultError("the graph has a single node; nothing to analyze")
	case errors.Is(err, graph.ErrRegionNotFound):
		return mcp.NewToolResultError("region not found; use list_regions for valid IDs")
	default:
		return mcp.NewToolResultError(fmt.Sprintf("error: %v", err))
	}
}

func boundInt(v, min, max, def int) int {
	if v <= 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
