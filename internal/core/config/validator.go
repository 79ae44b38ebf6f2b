package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/core/config/helpers"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; this build supports version 1", cfg.Version)
	}
	return nil
}

func validateModules(cfg *Config) error {
	if len(cfg.Modules) == 0 {
		return fmt.Errorf("at least one [[modules]] entry is required")
	}

	seenNames := make(map[string]bool, len(cfg.Modules))
	roots := make(map[string]string, len(cfg.Modules))
	for i, module := range cfg.Modules {
		ref := fmt.Sprintf("modules[%d]", i)
		if module.Name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		// ':' is reserved for module-private file identities.
		if strings.Contains(module.Name, ":") {
			return fmt.Errorf("%s.name %q must not contain ':'", ref, module.Name)
		}
		if module.Root == "" {
			return fmt.Errorf("%s.root must not be empty", ref)
		}
		if seenNames[module.Name] {
			return fmt.Errorf("duplicate module name %q", module.Name)
		}
		seenNames[module.Name] = true

		root := filepath.Clean(module.Root)
		for existing, owner := range roots {
			if helpers.IsPathOverlap(existing, root) {
				return fmt.Errorf("module %q root %q overlaps with module %q root %q",
					module.Name, module.Root, owner, existing)
			}
		}
		roots[root] = module.Name
	}
	return nil
}

func validateFilter(cfg *Config) error {
	if err := validatePatternList("filter.include", cfg.Filter.Include); err != nil {
		return err
	}
	return validatePatternList("filter.exclude", cfg.Filter.Exclude)
}

func validatePatternList(ref string, patterns []string) error {
	for i, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("%s[%d] must not be empty", ref, i)
		}
		if helpers.HasWildcard(pattern) && !helpers.ValidGlob(pattern) {
			return fmt.Errorf("%s[%d]: invalid pattern %q", ref, i, pattern)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.IsEnabled() {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if cfg.DB.BusyTimeout <= 0 {
		return fmt.Errorf("db.busy_timeout must be positive")
	}
	return nil
}

func validateNeo4j(cfg *Config) error {
	if !cfg.Neo4j.Enabled {
		return nil
	}

	uri := strings.TrimSpace(cfg.Neo4j.URI)
	if uri == "" {
		return fmt.Errorf("neo4j.uri must not be empty")
	}
	schemes := []string{"neo4j://", "neo4j+s://", "neo4j+ssc://", "bolt://", "bolt+s://", "bolt+ssc://"}
	valid := false
	for _, scheme := range schemes {
		if strings.HasPrefix(uri, scheme) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("neo4j.uri %q must use a neo4j:// or bolt:// scheme", cfg.Neo4j.URI)
	}

	if strings.TrimSpace(cfg.Neo4j.Username) == "" {
		return fmt.Errorf("neo4j.username must not be empty")
	}
	if cfg.Neo4j.BatchSize <= 0 {
		return fmt.Errorf("neo4j.batch_size must be positive")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRescansPerSec <= 0 {
		return fmt.Errorf("watch.max_rescans_per_sec must be positive")
	}
	if cfg.Watch.MaxHeapMB < 0 {
		return fmt.Errorf("watch.max_heap_mb must not be negative")
	}
	if err := validatePatternList("watch.exclude_dirs", cfg.Watch.ExcludeDirs); err != nil {
		return err
	}
	return validatePatternList("watch.exclude_files", cfg.Watch.ExcludeFiles)
}

func validateOutput(cfg *Config) error {
	targets := []struct{ key, path string }{
		{"output.dot", cfg.Output.DOT},
		{"output.tsv", cfg.Output.TSV},
		{"output.mermaid", cfg.Output.Mermaid},
	}
	seen := make(map[string]string, len(targets))
	for _, target := range targets {
		path := strings.TrimSpace(target.path)
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if previous, ok := seen[clean]; ok {
			return fmt.Errorf("output conflict: %s and %s share the same path %q", previous, target.key, path)
		}
		seen[clean] = target.key
	}
	return nil
}

func validateRules(cfg *Config) error {
	moduleNames := make(map[string]bool, len(cfg.Modules))
	for _, module := range cfg.Modules {
		moduleNames[module.Name] = true
	}

	ruleNames := make(map[string]bool, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		ref := fmt.Sprintf("rules[%d]", i)
		if rule.Name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		if ruleNames[rule.Name] {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		ruleNames[rule.Name] = true

		if len(rule.From) == 0 {
			return fmt.Errorf("rule %q must select at least one module in from", rule.Name)
		}
		if rule.MaxClasses < 0 {
			return fmt.Errorf("rule %q max_classes must not be negative", rule.Name)
		}

		moduleFields := []struct {
			name     string
			patterns []string
		}{
			{"from", rule.From},
			{"allow", rule.Allow},
			{"deny", rule.Deny},
		}
		for _, field := range moduleFields {
			for j, pattern := range field.patterns {
				if pattern == "" {
					return fmt.Errorf("rule %q %s[%d] must not be empty", rule.Name, field.name, j)
				}
				if helpers.HasWildcard(pattern) {
					if !helpers.ValidGlob(pattern) {
						return fmt.Errorf("rule %q %s pattern %q is not a valid glob", rule.Name, field.name, pattern)
					}
					continue
				}
				if !moduleNames[pattern] {
					return fmt.Errorf("rule %q %s references unknown module %q", rule.Name, field.name, pattern)
				}
			}
		}

		for j, pattern := range rule.ExcludeClasses {
			if pattern == "" {
				return fmt.Errorf("rule %q exclude_classes[%d] must not be empty", rule.Name, j)
			}
			if helpers.HasWildcard(pattern) && !helpers.ValidGlob(pattern) {
				return fmt.Errorf("rule %q exclude_classes pattern %q is not a valid glob", rule.Name, pattern)
			}
		}
	}
	return nil
}
