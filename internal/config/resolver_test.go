package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ekats/Mycelica-sub001/internal/hierarchy"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.mycelica/from-config.db
http_addr: ":9999"
tree:
  edge_floor: 0.4
  min_size: 3
  tight_threshold: 0.001
  cohesion_threshold: 1.5
  delta_min: 0.05
  target_levels: 3
  max_component_size: 200
  bridge_margin: 0.05
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MYCELICA_DB", "~/from-env.db")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLIDBPath:  "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if !strings.HasSuffix(resolved.DBPath.Value, "from-cli.db") {
		t.Fatalf("unexpected DB path: %q", resolved.DBPath.Value)
	}
	if resolved.HTTPAddr.Source != SourceConfig || resolved.HTTPAddr.Value != ":9999" {
		t.Fatalf("http addr = %+v, want :9999 from config", resolved.HTTPAddr)
	}
	if resolved.Tree.MinSize != 3 || resolved.Tree.EdgeFloor != 0.4 {
		t.Fatalf("tree config not loaded from file: %+v", resolved.Tree)
	}
}

func TestResolveConfig_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("db_path: /from/config.db\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MYCELICA_DB", "/from/env.db")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.DBPath.Source != SourceEnv || resolved.DBPath.Value != "/from/env.db" {
		t.Fatalf("db path = %+v, want env value", resolved.DBPath)
	}
}

func TestResolveConfig_MissingFileUsesDefaults(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "does-not-exist.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.HTTPAddr.Value != DefaultHTTPAddr || resolved.HTTPAddr.Source != SourceDefault {
		t.Fatalf("http addr = %+v, want built-in default", resolved.HTTPAddr)
	}
	if resolved.Tree != hierarchy.DefaultConfig() {
		t.Fatalf("tree config = %+v, want defaults", resolved.Tree)
	}
}

func TestResolveConfig_RejectsInvalidTreeBlock(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `tree:
  edge_floor: 1.5
  min_size: 5
  cohesion_threshold: 1.2
  target_levels: 4
  max_component_size: 500
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected validation error for edge_floor=1.5")
	}
}
