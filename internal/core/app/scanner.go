package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/leima-hit/dependency-analyzer/internal/core/config"
	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
	"github.com/leima-hit/dependency-analyzer/internal/engine/extract"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
	"github.com/leima-hit/dependency-analyzer/internal/shared/observability"
)

// Subtrees scanned per module, relative to the module root.
const (
	classesSubtree   = "target/classes"
	resourcesSubtree = "src/main/resources"
	webInfSubtree    = "src/main/webapp/WEB-INF"
)

// scanIndex collects the path-to-source mapping produced by one scan.
type scanIndex struct {
	mu      sync.Mutex
	records map[string]pathRecord
}

func newScanIndex() *scanIndex {
	return &scanIndex{records: make(map[string]pathRecord)}
}

func (s *scanIndex) record(path string, rec pathRecord) {
	s.mu.Lock()
	s.records[path] = rec
	s.mu.Unlock()
}

// Scan decodes every module from scratch and replaces the current graph.
// The old graph stays in place when any module fails, so a half-built
// tree never shreds the last good analysis.
func (a *App) Scan(ctx context.Context) (Update, error) {
	ctx, span := observability.Tracer.Start(ctx, "scan")
	defer span.End()

	start := time.Now()
	fresh := graph.NewGraph()
	index := newScanIndex()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.Config.Scan.Workers())
	for _, module := range a.Config.Modules {
		eg.Go(func() error {
			return a.scanModule(ctx, fresh, module, index)
		})
	}
	if err := eg.Wait(); err != nil {
		observability.ScanFailures.Inc()
		return Update{}, err
	}

	a.Graph = fresh
	a.rebuildPathIndex(index.records)
	observability.ScanDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())

	update := a.Analyze()
	a.recordSnapshot(update, time.Since(start))
	a.emitUpdate(update)
	return update, nil
}

func (a *App) scanModule(ctx context.Context, g *graph.Graph, module config.Module, index *scanIndex) error {
	ctx, span := observability.Tracer.Start(ctx, "scan.module",
		trace.WithAttributes(attribute.String("module", module.Name)))
	defer span.End()

	slog.Info("scanning module", "module", module.Name)
	start := time.Now()
	root := a.Paths.ModuleRoots[module.Name]

	err := a.walkTree(ctx, filepath.Join(root, classesSubtree), func(path, rel string) error {
		if strings.HasSuffix(path, ".class") {
			return a.scanClass(g, module.Name, path, index)
		}
		return a.scanArtifact(g, module.Name, path, rel, true, index)
	})
	if err != nil {
		return fmt.Errorf("module %s: %w", module.Name, err)
	}

	if a.Config.Scan.ResourcesEnabled() {
		err := a.walkTree(ctx, filepath.Join(root, resourcesSubtree), func(path, rel string) error {
			return a.scanArtifact(g, module.Name, path, rel, true, index)
		})
		if err != nil {
			return fmt.Errorf("module %s: %w", module.Name, err)
		}
	}

	if a.Config.Scan.WebInfEnabled() {
		err := a.walkTree(ctx, filepath.Join(root, webInfSubtree), func(path, rel string) error {
			return a.scanArtifact(g, module.Name, path, rel, false, index)
		})
		if err != nil {
			return fmt.Errorf("module %s: %w", module.Name, err)
		}
	}

	observability.ScanDuration.WithLabelValues("module").Observe(time.Since(start).Seconds())
	return nil
}

// walkTree visits every regular file under root, handing the visitor the
// absolute path and the slash-separated path relative to root. A missing
// root is an empty subtree, not an error.
func (a *App) walkTree(ctx context.Context, root string, visit func(path, rel string) error) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return visit(path, filepath.ToSlash(rel))
	})
}

func (a *App) scanClass(g *graph.Graph, module, path string, index *scanIndex) error {
	res, err := a.decodeClass(path)
	if err != nil {
		return err
	}
	g.AddLocation(res.Source, module)
	g.AddDependencies(res.Source, res.Refs)
	index.record(path, pathRecord{Source: res.Source, Module: module})
	return nil
}

func (a *App) scanArtifact(g *graph.Graph, module, path, rel string, shared bool, index *scanIndex) error {
	res, err := a.decodeArtifact(path, rel, module, shared)
	if err != nil {
		return err
	}
	if res.Source.IsEmpty() {
		return nil
	}
	g.AddLocation(res.Source, module)
	g.AddDependencies(res.Source, res.Refs)
	index.record(path, pathRecord{Source: res.Source, Module: module})
	return nil
}

func (a *App) decodeClass(path string) (decodeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return decodeResult{}, errors.Wrap(err, errors.CodeIO, "unreadable class file")
	}

	start := time.Now()
	extraction, err := classfile.Extract(data, a.filter)
	if err != nil {
		werr := errors.Wrap(err, errors.CodeCorruptClass, "malformed class file")
		return decodeResult{}, errors.AddContext(werr, errors.CtxPath, path)
	}
	observability.DecodeDuration.WithLabelValues("class").Observe(time.Since(start).Seconds())
	observability.FilesScanned.WithLabelValues("class").Inc()

	return decodeResult{Source: extraction.Name, Refs: extraction.References}, nil
}

// decodeArtifact returns the zero result when path is not a recognized
// configuration file.
func (a *App) decodeArtifact(path, rel, module string, shared bool) (decodeResult, error) {
	fn := extract.ForFile(path)
	if fn == nil {
		return decodeResult{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return decodeResult{}, errors.Wrap(err, errors.CodeIO, "unreadable artifact")
	}
	defer f.Close()

	kind := extract.Kind(path)
	start := time.Now()
	refs, err := fn(f, path, a.filter)
	if err != nil {
		// Extractors attach their own code and path context.
		return decodeResult{}, err
	}
	observability.DecodeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	observability.FilesScanned.WithLabelValues(kind).Inc()

	return decodeResult{Source: fileSource(module, rel, shared), Refs: refs}, nil
}

// fileSource builds the graph identity of a configuration file. Shared
// files keep their subtree-relative path so the same artifact packaged by
// several modules collapses to one node; module-private files carry the
// module name so they never collide across modules.
func fileSource(module, rel string, shared bool) classfile.ClassName {
	if shared {
		return classfile.NameFromBinary(rel)
	}
	return classfile.NameFromBinary(module + ":" + rel)
}
