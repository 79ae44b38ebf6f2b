package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths carries every location the tool touches, made absolute
// against the project root.
type ResolvedPaths struct {
	ProjectRoot   string
	DBPath        string
	OutputDOT     string
	OutputTSV     string
	OutputMermaid string
	ModuleRoots   map[string]string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := cfg.Paths.ProjectRoot
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		candidates := make([]string, 0, len(cfg.Modules)+1)
		for _, module := range cfg.Modules {
			candidates = append(candidates, ResolveRelative(cwd, module.Root))
		}
		candidates = append(candidates, cwd)
		root, err := DetectProjectRoot(candidates)
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		ModuleRoots: make(map[string]string, len(cfg.Modules)),
	}

	dbPath := strings.TrimSpace(cfg.DB.Path)
	if filepath.IsAbs(dbPath) {
		resolved.DBPath = filepath.Clean(dbPath)
	} else {
		resolved.DBPath = filepath.Join(resolved.ProjectRoot, dbPath)
	}

	if path := strings.TrimSpace(cfg.Output.DOT); path != "" {
		resolved.OutputDOT = ResolveRelative(resolved.ProjectRoot, path)
	}
	if path := strings.TrimSpace(cfg.Output.TSV); path != "" {
		resolved.OutputTSV = ResolveRelative(resolved.ProjectRoot, path)
	}
	if path := strings.TrimSpace(cfg.Output.Mermaid); path != "" {
		resolved.OutputMermaid = ResolveRelative(resolved.ProjectRoot, path)
	}

	for _, module := range cfg.Modules {
		resolved.ModuleRoots[module.Name] = ResolveRelative(resolved.ProjectRoot, module.Root)
	}

	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until a build or VCS marker
// is found.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"classdep.toml",
		"pom.xml",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
