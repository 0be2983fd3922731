// Package server exposes the structural health reports over HTTP.
// It embeds a self-contained summary page and serves JSON from a local API;
// the analysis core stays indifferent to this surface.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Ekats/Mycelica-sub001/internal/graph"
	"github.com/Ekats/Mycelica-sub001/internal/observe"
	"github.com/Ekats/Mycelica-sub001/internal/rebuild"
	"github.com/Ekats/Mycelica-sub001/internal/store"
)

//go:embed summary.html
var summaryFS embed.FS

// Query parameter bounds. Out-of-range values clamp to the defaults rather
// than erroring; only malformed region IDs are the caller's problem.
const (
	maxTopN         = 500
	maxStaleDays    = 3650
	maxHubThreshold = 10_000
)

// ServerConfig holds settings for the report server.
type ServerConfig struct {
	Store    store.Store
	Analyzer observe.AnalyzerConfig
	Rebuild  rebuild.Config
	Log      *slog.Logger
}

// Server serves analysis reports over HTTP.
type Server struct {
	store    store.Store
	analyzer observe.AnalyzerConfig
	rebuild  rebuild.Config
	log      *slog.Logger
}

// NewServer creates a Server. A nil logger disables request logging.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:    cfg.Store,
		analyzer: cfg.Analyzer,
		rebuild:  cfg.Rebuild,
		log:      log,
	}
}

// Router mounts all routes on a chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleSummaryPage)
	r.Get("/api/report", s.handleReport)
	r.Get("/api/topology", s.handleTopology)
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/rebuild", s.handleRebuild)

	return r
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("report server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	data, err := summaryFS.ReadFile("summary.html")
	if err != nil {
		http.Error(w, "summary page not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// snapshotForRequest loads a snapshot and applies the optional ?region=
// filter. A miss on the region ID is the caller's error.
func (s *Server) snapshotForRequest(r *http.Request) (*graph.Snapshot, int, error) {
	snap, err := store.LoadSnapshot(r.Context(), s.store)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if regionID := r.URL.Query().Get("region"); regionID != "" {
		snap, err = snap.FilterToRegion(regionID)
		if errors.Is(err, graph.ErrRegionNotFound) {
			return nil, http.StatusNotFound, err
		}
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}
	return snap, http.StatusOK, nil
}

// analyzerConfigForRequest starts from the server defaults and applies
// bounded overrides from the query string.
func (s *Server) analyzerConfigForRequest(r *http.Request) observe.AnalyzerConfig {
	q := r.URL.Query()
	cfg := s.analyzer
	cfg.TopN = parseBoundedInt(q.Get("top_n"), cfg.TopN, 1, maxTopN)
	cfg.StaleDays = int64(parseBoundedInt(q.Get("stale_days"), int(cfg.StaleDays), 1, maxStaleDays))
	cfg.HubThreshold = parseBoundedInt(q.Get("hub_threshold"), cfg.HubThreshold, 1, maxHubThreshold)
	return cfg
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, code, err := s.snapshotForRequest(r)
	if err != nil {
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	report, err := observe.Analyze(r.Context(), snap, s.analyzerConfigForRequest(r))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, graph.ErrEmptyGraph) || errors.Is(err, graph.ErrSingleNode) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	snap, code, err := s.snapshotForRequest(r)
	if err != nil {
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	cfg := s.analyzerConfigForRequest(r)
	writeJSON(w, http.StatusOK, observe.ComputeTopology(snap, cfg.HubThreshold, cfg.TopN))
}

// RegionSummary is one entry in the /api/regions listing.
type RegionSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Depth      int    `json:"depth"`
	ChildCount int    `json:"child_count"`
	ParentID   string `json:"parent_id,omitempty"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.AllNodes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	regions := []RegionSummary{}
	for _, n := range nodes {
		if n.NodeType != "region" && !n.IsUniverse {
			continue
		}
		summary := RegionSummary{
			ID:         n.ID,
			Title:      n.Title,
			Depth:      n.Depth,
			ChildCount: n.ChildCount,
		}
		if n.ParentID != nil {
			summary.ParentID = *n.ParentID
		}
		regions = append(regions, summary)
	}
	writeJSON(w, http.StatusOK, regions)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	cfg := s.rebuild
	if r.URL.Query().Get("dry_run") == "1" || r.URL.Query().Get("dry_run") == "true" {
		cfg.DryRun = true
	}

	report, err := rebuild.NewOrchestrator(s.store, s.log).Run(r.Context(), cfg)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, graph.ErrEmptyGraph) || errors.Is(err, graph.ErrSingleNode) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// parseBoundedInt parses raw as an int, falling back to def and clamping
// into [min, max].
func parseBoundedInt(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
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
