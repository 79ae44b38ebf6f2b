package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Modules: []Module{{Name: "web", Root: "web"}},
		DB:      Database{Path: "history.db"},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.DBPath != filepath.Join(root, "history.db") {
		t.Fatalf("unexpected db path: %q", got.DBPath)
	}
	if got.ModuleRoots["web"] != filepath.Join(root, "web") {
		t.Fatalf("unexpected module root: %q", got.ModuleRoots["web"])
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "custom", "history.db")
	cfg := &Config{
		Paths:  Paths{ProjectRoot: root},
		DB:     Database{Path: dbPath},
		Output: Output{DOT: "out/graph.dot"},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, "/elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("unexpected project root: %q", got.ProjectRoot)
	}
	if got.DBPath != dbPath {
		t.Fatalf("unexpected db path: %q", got.DBPath)
	}
	if got.OutputDOT != filepath.Join(root, "out", "graph.dot") {
		t.Fatalf("unexpected dot path: %q", got.OutputDOT)
	}
	if got.OutputTSV != "" {
		t.Fatalf("expected empty tsv path, got %q", got.OutputTSV)
	}
}

func TestDetectProjectRoot_FallbackOrder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "services", "web")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{sub})
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("/base", "sub/dir"); got != filepath.Clean("/base/sub/dir") {
		t.Errorf("unexpected join: %q", got)
	}
	if got := ResolveRelative("/base", "/abs"); got != filepath.Clean("/abs") {
		t.Errorf("absolute value must win: %q", got)
	}
	if got := ResolveRelative("/base", "  "); got != filepath.Clean("/base") {
		t.Errorf("blank value must fall back to base: %q", got)
	}
}
