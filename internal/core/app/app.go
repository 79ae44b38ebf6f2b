package app

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leima-hit/dependency-analyzer/internal/core/config"
	"github.com/leima-hit/dependency-analyzer/internal/core/watcher"
	"github.com/leima-hit/dependency-analyzer/internal/data/history"
	"github.com/leima-hit/dependency-analyzer/internal/engine/architecture"
	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
	"github.com/leima-hit/dependency-analyzer/internal/engine/filter"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
	"github.com/leima-hit/dependency-analyzer/internal/shared/util"
)

// Update is one published analysis result, in the shape the terminal UI
// and the exit-code logic consume.
type Update struct {
	Cycles      [][]string
	Violations  []architecture.Violation
	Duplicates  []graph.DuplicateClass
	ModuleCount int
	ClassCount  int
	EdgeCount   int
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Graph  *graph.Graph

	filter     classfile.Filter
	evaluator  *architecture.RuleEvaluator
	history    *history.Store
	projectKey string

	limiter     *util.Limiter
	decodeCache *lru.Cache[string, decodeResult]

	activeWatcher *watcher.Watcher

	pathMu    sync.RWMutex
	pathIndex map[string]pathRecord

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	classFilter, err := filter.New(cfg.Filter.Include, cfg.Filter.Exclude)
	if err != nil {
		return nil, fmt.Errorf("compile class filter: %w", err)
	}

	cache, err := lru.New[string, decodeResult](cfg.Watch.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create decode cache: %w", err)
	}

	a := &App{
		Config:      cfg,
		Paths:       paths,
		Graph:       graph.NewGraph(),
		filter:      classFilter,
		evaluator:   architecture.NewRuleEvaluator(rulesFromConfig(cfg.Rules)),
		projectKey:  cfg.ProjectName(paths.ProjectRoot),
		limiter:     util.NewLimiter(cfg.Watch.MaxRescansPerSec, 1),
		decodeCache: cache,
		pathIndex:   make(map[string]pathRecord),
	}

	if cfg.DB.IsEnabled() {
		store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open history store %q: %w", paths.DBPath, err)
		}
		a.history = store
	}

	return a, nil
}

func rulesFromConfig(rules []config.Rule) []architecture.RuleConfig {
	configs := make([]architecture.RuleConfig, 0, len(rules))
	for _, rule := range rules {
		configs = append(configs, architecture.RuleConfig{
			Name:           rule.Name,
			From:           rule.From,
			Allow:          rule.Allow,
			Deny:           rule.Deny,
			MaxClasses:     rule.MaxClasses,
			ExcludeClasses: rule.ExcludeClasses,
		})
	}
	return configs
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// CurrentUpdate recomputes the result set from the graph as it stands.
func (a *App) CurrentUpdate() Update {
	return a.Analyze()
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// History exposes the snapshot store, or nil when db.enabled is off.
func (a *App) History() *history.Store {
	return a.history
}

func (a *App) ProjectKey() string {
	return a.projectKey
}

func (a *App) Close() error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			return err
		}
		a.activeWatcher = nil
	}
	if a.history != nil {
		err := a.history.Close()
		a.history = nil
		return err
	}
	return nil
}
