package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Config is the parsed classdep.toml. Zero values are filled in by
// applyDefaults before validation runs.
type Config struct {
	Version       int           `toml:"version"`
	Project       string        `toml:"project"`
	Paths         Paths         `toml:"paths"`
	Modules       []Module      `toml:"modules"`
	Filter        Filter        `toml:"filter"`
	Scan          Scan          `toml:"scan"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Neo4j         Neo4j         `toml:"neo4j"`
	Observability Observability `toml:"observability"`
	Rules         []Rule        `toml:"rules"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
}

// Module is one scanned build module: a unique name and the directory holding
// its Maven-layout subtrees (target/classes, src/main/resources,
// src/main/webapp/WEB-INF).
type Module struct {
	Name string `toml:"name"`
	Root string `toml:"root"`
}

// Filter holds dotted-name patterns for the package filter. Bare names act as
// package prefixes; wildcard patterns are glob-matched with '.' separators.
// Excludes win over includes.
type Filter struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Scan struct {
	WorkerMultiplier int   `toml:"worker_multiplier"`
	Resources        *bool `toml:"resources"`
	WebInf           *bool `toml:"web_inf"`
}

// Workers returns the scan pool size: the multiplier applied to GOMAXPROCS.
// A multiplier below one counts as one.
func (s Scan) Workers() int {
	if s.WorkerMultiplier < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return s.WorkerMultiplier * runtime.GOMAXPROCS(0)
}

// ResourcesEnabled reports whether src/main/resources subtrees are scanned.
func (s Scan) ResourcesEnabled() bool {
	if s.Resources == nil {
		return true
	}
	return *s.Resources
}

// WebInfEnabled reports whether src/main/webapp/WEB-INF subtrees are scanned.
func (s Scan) WebInfEnabled() bool {
	if s.WebInf == nil {
		return true
	}
	return *s.WebInf
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRescansPerSec float64       `toml:"max_rescans_per_sec"`
	CacheSize        int           `toml:"cache_size"`
	// MaxHeapMB caps the process heap before the decode cache is dropped.
	// Zero disables the guard.
	MaxHeapMB    int      `toml:"max_heap_mb"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

// Output names the report files written after a scan. Empty paths disable
// the corresponding renderer.
type Output struct {
	DOT     string `toml:"dot"`
	TSV     string `toml:"tsv"`
	Mermaid string `toml:"mermaid"`
}

type Database struct {
	Enabled     *bool         `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

// IsEnabled reports whether scan history is recorded; on unless switched off.
func (d Database) IsEnabled() bool {
	if d.Enabled == nil {
		return true
	}
	return *d.Enabled
}

type Neo4j struct {
	Enabled   bool   `toml:"enabled"`
	URI       string `toml:"uri"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Database  string `toml:"database"`
	BatchSize int    `toml:"batch_size"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Rule is one module boundary rule. From selects the governed modules; deny
// patterns win over allow, and an empty allow list permits everything.
type Rule struct {
	Name           string   `toml:"name"`
	From           []string `toml:"from"`
	Allow          []string `toml:"allow"`
	Deny           []string `toml:"deny"`
	MaxClasses     int      `toml:"max_classes"`
	ExcludeClasses []string `toml:"exclude_classes"`
}

// ProjectName returns the configured project label, falling back to the base
// name of the resolved project root.
func (c *Config) ProjectName(projectRoot string) string {
	if name := strings.TrimSpace(c.Project); name != "" {
		return name
	}
	base := filepath.Base(filepath.Clean(projectRoot))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "default"
	}
	return base
}
