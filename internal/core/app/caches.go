package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
	"github.com/leima-hit/dependency-analyzer/internal/shared/util"
)

// pathRecord remembers which graph source a scanned file produced so a
// later delete event can retract it without re-reading the file.
type pathRecord struct {
	Source classfile.ClassName
	Module string
}

// decodeResult is one decoded artifact: the source identity it produced
// and the references that survived the filter.
type decodeResult struct {
	Source classfile.ClassName
	Refs   []classfile.ClassName
}

func (a *App) rebuildPathIndex(next map[string]pathRecord) {
	a.pathMu.Lock()
	a.pathIndex = next
	a.pathMu.Unlock()
}

func (a *App) recordPath(path string, rec pathRecord) {
	a.pathMu.Lock()
	a.pathIndex[path] = rec
	a.pathMu.Unlock()
}

func (a *App) dropPath(path string) {
	a.pathMu.Lock()
	delete(a.pathIndex, path)
	a.pathMu.Unlock()
}

func (a *App) lookupPath(path string) (pathRecord, bool) {
	a.pathMu.RLock()
	defer a.pathMu.RUnlock()
	rec, ok := a.pathIndex[path]
	return rec, ok
}

// cacheKey ties a cached decode to one concrete file state.
func cacheKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
}

func (a *App) cachedDecode(key string) (decodeResult, bool) {
	return a.decodeCache.Get(key)
}

func (a *App) storeDecode(key string, res decodeResult) {
	a.decodeCache.Add(key, res)
}

// pruneCacheIfHot drops the decode cache when the heap exceeds the
// configured cap. The cache only saves re-decodes; rebuilding it costs
// less than growing the heap further.
func (a *App) pruneCacheIfHot() {
	limit := a.Config.Watch.MaxHeapMB
	if limit <= 0 {
		return
	}
	if util.GetHeapAllocMB() <= uint64(limit) {
		return
	}
	a.decodeCache.Purge()
	slog.Info("decode cache dropped under memory pressure", "max_heap_mb", limit)
}
