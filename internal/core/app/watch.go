package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leima-hit/dependency-analyzer/internal/core/watcher"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
	"github.com/leima-hit/dependency-analyzer/internal/shared/observability"
)

// StartWatcher begins watching the module roots and applies change batches
// incrementally. Watching the roots rather than the build subtrees keeps
// the watch alive across a clean build that deletes target/ entirely.
func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Watch.ExcludeDirs,
		a.Config.Watch.ExcludeFiles,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.activeWatcher = w
	return w.Watch(a.watchRoots())
}

func (a *App) watchRoots() []string {
	roots := make([]string, 0, len(a.Config.Modules))
	for _, module := range a.Config.Modules {
		roots = append(roots, a.Paths.ModuleRoots[module.Name])
	}
	return roots
}

// changeTarget places a changed path inside the scan layout.
type changeTarget struct {
	module  string
	root    string // subtree root the file lives under
	shared  bool
	classes bool // under target/classes
}

func (a *App) classify(path string) (changeTarget, bool) {
	subtrees := []struct {
		rel     string
		shared  bool
		classes bool
		enabled bool
	}{
		{classesSubtree, true, true, true},
		{resourcesSubtree, true, false, a.Config.Scan.ResourcesEnabled()},
		{webInfSubtree, false, false, a.Config.Scan.WebInfEnabled()},
	}

	for _, module := range a.Config.Modules {
		moduleRoot := a.Paths.ModuleRoots[module.Name]
		for _, subtree := range subtrees {
			if !subtree.enabled {
				continue
			}
			root := filepath.Join(moduleRoot, subtree.rel)
			if isUnder(root, path) {
				return changeTarget{
					module:  module.Name,
					root:    root,
					shared:  subtree.shared,
					classes: subtree.classes,
				}, true
			}
		}
	}
	return changeTarget{}, false
}

func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// HandleChanges folds one debounced batch of file events into the graph,
// then re-analyzes and republishes. The batch writer coalesces repeated
// updates to the same class before they touch the graph.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	if err := a.limiter.Wait(context.Background(), 1); err != nil {
		return
	}
	start := time.Now()

	writer := graph.NewBatchWriter(a.Graph, graph.BatchWriterConfig{})
	a.pruneCacheIfHot()
	applied := 0
	for i, path := range paths {
		if i > 0 && i%100 == 0 {
			a.pruneCacheIfHot()
		}
		target, inLayout := a.classify(path)
		rec, tracked := a.lookupPath(path)
		if !inLayout && !tracked {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			if tracked {
				writer.Submit(graph.Update{Source: rec.Source, Module: rec.Module, Removed: true})
				a.dropPath(path)
				applied++
			}
			continue
		}
		if info.IsDir() || !inLayout {
			continue
		}

		res, err := a.decodeChange(path, info, target)
		if err != nil {
			slog.Warn("failed to re-decode artifact", "path", path, "error", err)
			continue
		}
		if res.Source.IsEmpty() {
			continue
		}

		if tracked && rec.Source != res.Source {
			// A recompiled file that now holds a different class leaves
			// its old node behind otherwise.
			writer.Submit(graph.Update{Source: rec.Source, Module: rec.Module, Removed: true})
		}
		writer.Submit(graph.Update{Source: res.Source, Module: target.module, Refs: res.Refs})
		a.recordPath(path, pathRecord{Source: res.Source, Module: target.module})
		applied++
	}
	writer.Close()

	if applied == 0 {
		return
	}
	observability.RescansTotal.Inc()

	update := a.Analyze()
	if err := a.GenerateOutputs(context.Background(), update); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}
	duration := time.Since(start)
	slog.Info("rescan applied", "files", applied, "duration", duration)
	a.recordSnapshot(update, duration)
	a.emitUpdate(update)
}

// decodeChange re-decodes one changed file, reusing the cached result when
// the file state (path, mtime, size) is unchanged. Rebuild storms rewrite
// identical class files constantly; the cache turns those into cheap
// no-op graph updates.
func (a *App) decodeChange(path string, info os.FileInfo, target changeTarget) (decodeResult, error) {
	key := cacheKey(path, info)
	if res, ok := a.cachedDecode(key); ok {
		return res, nil
	}

	var res decodeResult
	var err error
	if target.classes && strings.HasSuffix(path, ".class") {
		res, err = a.decodeClass(path)
	} else {
		rel, relErr := filepath.Rel(target.root, path)
		if relErr != nil {
			return decodeResult{}, relErr
		}
		res, err = a.decodeArtifact(path, filepath.ToSlash(rel), target.module, target.shared)
	}
	if err != nil {
		return decodeResult{}, err
	}
	if !res.Source.IsEmpty() {
		a.storeDecode(key, res)
	}
	return res, nil
}
