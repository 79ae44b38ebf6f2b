package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateModules(&cfg); err != nil {
		return nil, err
	}
	if err := validateFilter(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateNeo4j(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateRules(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Scan.WorkerMultiplier <= 0 {
		cfg.Scan.WorkerMultiplier = 2
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRescansPerSec <= 0 {
		cfg.Watch.MaxRescansPerSec = 2
	}
	if cfg.Watch.CacheSize <= 0 {
		cfg.Watch.CacheSize = 1024
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Neo4j.URI) == "" {
		cfg.Neo4j.URI = "neo4j://localhost:7687"
	}
	if strings.TrimSpace(cfg.Neo4j.Username) == "" {
		cfg.Neo4j.Username = "neo4j"
	}
	if strings.TrimSpace(cfg.Neo4j.Database) == "" {
		cfg.Neo4j.Database = "neo4j"
	}
	if cfg.Neo4j.BatchSize <= 0 {
		cfg.Neo4j.BatchSize = 1000
	}

	if strings.TrimSpace(cfg.Observability.MetricsAddr) == "" {
		cfg.Observability.MetricsAddr = "127.0.0.1:9464"
	}
}

// normalize trims string fields in place. Entries left empty after trimming
// stay empty so the validators can reject them.
func normalize(cfg *Config) {
	cfg.Project = strings.TrimSpace(cfg.Project)
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	for i := range cfg.Modules {
		m := &cfg.Modules[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Root = strings.TrimSpace(m.Root)
	}
	trimAll(cfg.Filter.Include)
	trimAll(cfg.Filter.Exclude)
	trimAll(cfg.Watch.ExcludeDirs)
	trimAll(cfg.Watch.ExcludeFiles)
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		r.Name = strings.TrimSpace(r.Name)
		trimAll(r.From)
		trimAll(r.Allow)
		trimAll(r.Deny)
		trimAll(r.ExcludeClasses)
	}
}

func trimAll(values []string) {
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
}
