// Package config resolves runtime configuration from a yaml file,
// environment variables, and CLI flags, in that precedence order.
// String settings carry value-source provenance so `mycelica config`
// can show where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Ekats/Mycelica-sub001/internal/hierarchy"
	"github.com/Ekats/Mycelica-sub001/internal/observe"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// DefaultHTTPAddr is where the report server listens when nothing else is
// configured.
const DefaultHTTPAddr = ":8787"

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-provided overrides into resolution.
type ResolveOptions struct {
	ConfigPath  string
	CLIDBPath   string
	CLIHTTPAddr string
}

// ResolvedConfig is the full resolved runtime configuration. The numeric
// tunable blocks come from the config file (or defaults); only string
// settings track provenance, matching what the surfaces display.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath   ResolvedValue `json:"db_path"`
	HTTPAddr ResolvedValue `json:"http_addr"`

	Tree     hierarchy.Config       `json:"tree"`
	Analyzer observe.AnalyzerConfig `json:"analyzer"`
}

type fileConfig struct {
	DBPath   string                  `yaml:"db_path"`
	HTTPAddr string                  `yaml:"http_addr"`
	Tree     *hierarchy.Config       `yaml:"tree"`
	Analyzer *observe.AnalyzerConfig `yaml:"analyzer"`
}

// DefaultConfigPath returns ~/.mycelica/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mycelica", "config.yaml")
}

// ResolveConfig resolves the configuration: defaults, then config file,
// then environment, then CLI flags. The numeric blocks are validated
// before being returned.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		HTTPAddr:   ResolvedValue{Value: DefaultHTTPAddr, Source: SourceDefault, From: "built-in default"},
		Tree:       hierarchy.DefaultConfig(),
		Analyzer:   observe.DefaultAnalyzerConfig(),
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.HTTPAddr, cfg.HTTPAddr, SourceConfig, path)
		if cfg.Tree != nil {
			out.Tree = *cfg.Tree
		}
		if cfg.Analyzer != nil {
			out.Analyzer = *cfg.Analyzer
		}
	}

	applyEnv(&out.DBPath, "MYCELICA_DB")
	applyEnv(&out.DBPath, "MYCELICA_DB_PATH")
	applyEnv(&out.HTTPAddr, "MYCELICA_HTTP_ADDR")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.HTTPAddr, opts.CLIHTTPAddr, SourceCLI, "--addr")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	if err := out.Tree.Validate(); err != nil {
		return out, fmt.Errorf("invalid tree config in %s: %w", path, err)
	}
	if err := out.Analyzer.Validate(); err != nil {
		return out, fmt.Errorf("invalid analyzer config in %s: %w", path, err)
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
