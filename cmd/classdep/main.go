// # cmd/classdep/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leima-hit/dependency-analyzer/internal/core/app"
	"github.com/leima-hit/dependency-analyzer/internal/core/config"
	"github.com/leima-hit/dependency-analyzer/internal/data/history"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
	"github.com/leima-hit/dependency-analyzer/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./classdep.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single scan and exit")
	watch      = flag.Bool("watch", false, "Keep running and rescan on file changes")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	trend      = flag.Bool("trend", false, "Print scan history trend and exit")
	impact     = flag.String("impact", "", "Scan once and print the blast radius of a class or module")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *version {
		fmt.Printf("classdep v%s\n", VERSION)
		return 0
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	loadedPath := *configPath
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./classdep.toml" {
			cfg, err = config.Load("./classdep.example.toml")
			loadedPath = "./classdep.example.toml"
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			return 2
		}
	}
	config.ApplyEnvOverrides(cfg)

	if flag.NArg() > 0 {
		cfg.Paths.ProjectRoot = flag.Arg(0)
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return 2
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return 2
	}

	if *trend {
		return printTrend(cfg, paths)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		metrics := observability.NewServer(cfg.Observability.MetricsAddr)
		if err := metrics.Start(); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			return 2
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := metrics.Stop(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown failed", "error", err)
			}
		}()

		if endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint); endpoint != "" {
			shutdown, err := observability.SetupTracing(ctx, endpoint, VERSION)
			if err != nil {
				slog.Warn("tracing disabled", "error", err)
			} else {
				defer func() {
					flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := shutdown(flushCtx); err != nil {
						slog.Warn("trace flush failed", "error", err)
					}
				}()
			}
		}
	}

	// Initialize app
	a, err := app.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 2
	}

	// Initial scan
	start := time.Now()
	update, err := a.Scan(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		a.Close()
		return 2
	}

	if *impact != "" {
		code := printImpact(a, *impact)
		a.Close()
		return code
	}

	if err := a.GenerateOutputs(ctx, update); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}
	if !*ui {
		a.PrintSummary(update, time.Since(start))
	}

	if *once || (!*watch && !*ui) {
		a.Close()
		return exitCode(update)
	}

	return runWatch(ctx, a, cwd, loadedPath, update)
}

// runWatch keeps the process resident: file changes feed incremental
// rescans, a config change swaps in a freshly built app, and findings
// stream to the TUI or to slog lines.
func runWatch(ctx context.Context, initial *app.App, cwd, cfgPath string, firstUpdate app.Update) int {
	var (
		mu   sync.Mutex
		live = initial
	)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		if err := live.Close(); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}()

	var program *tea.Program
	var handler func(app.Update)
	if *ui {
		program = tea.NewProgram(initialModel(), tea.WithAltScreen(), tea.WithContext(ctx))
		handler = func(u app.Update) {
			program.Send(updateMsg{update: u})
		}
	} else {
		handler = logFindings
	}

	live.SetUpdateHandler(handler)
	if err := live.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 2
	}
	slog.Info("watching for changes", "modules", len(live.Config.Modules))

	reload := func(next *config.Config) {
		config.ApplyEnvOverrides(next)
		nextPaths, err := config.ResolvePaths(next, cwd)
		if err != nil {
			slog.Warn("reloaded config rejected", "error", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		replacement, err := app.New(next, nextPaths)
		if err != nil {
			slog.Warn("reloaded config rejected", "error", err)
			return
		}
		replacement.SetUpdateHandler(handler)

		update, err := replacement.Scan(ctx)
		if err != nil {
			slog.Warn("scan under reloaded config failed", "error", err)
			replacement.Close()
			return
		}
		if err := replacement.GenerateOutputs(ctx, update); err != nil {
			slog.Error("failed to generate outputs", "error", err)
		}
		if err := replacement.StartWatcher(); err != nil {
			slog.Warn("failed to restart watcher", "error", err)
			replacement.Close()
			return
		}

		old := live
		live = replacement
		if err := old.Close(); err != nil {
			slog.Warn("failed to release replaced state", "error", err)
		}
		slog.Info("configuration reloaded", "config", cfgPath)
	}

	cfgWatcher := config.NewWatcher(cfgPath, reload)
	if err := cfgWatcher.Start(ctx); err != nil {
		slog.Warn("config reload disabled", "error", err)
	} else {
		defer cfgWatcher.Stop()
	}

	if *ui {
		return runUI(ctx, program, firstUpdate)
	}

	<-ctx.Done()
	return 0
}

// logFindings is the non-UI watch handler: each rescan's findings become
// slog lines instead of a reprinted summary.
func logFindings(update app.Update) {
	if len(update.Cycles) == 0 && len(update.Violations) == 0 && len(update.Duplicates) == 0 {
		slog.Info("analysis clean",
			"classes", update.ClassCount,
			"modules", update.ModuleCount,
			"edges", update.EdgeCount)
		return
	}
	for _, c := range update.Cycles {
		slog.Warn("module cycle", "chain", strings.Join(c, " -> "))
	}
	for _, v := range update.Violations {
		slog.Warn("rule violation", "rule", v.RuleName, "message", v.Message, "module", v.Module, "target", v.Target)
	}
	for _, d := range update.Duplicates {
		slog.Warn("duplicate class", "class", d.Class.String(), "modules", strings.Join(d.Modules, ", "))
	}
}

// exitCode maps findings to the CI contract: 1 when the scan surfaced
// anything actionable, 0 when clean.
func exitCode(update app.Update) int {
	if len(update.Cycles) > 0 || len(update.Violations) > 0 || len(update.Duplicates) > 0 {
		return 1
	}
	return 0
}

// printImpact answers "what breaks if this changes": the modules and
// classes that can reach the target through the reference graph.
func printImpact(a *app.App, target string) int {
	report, err := a.Graph.AnalyzeImpact(target)
	if err != nil {
		if errors.Is(err, graph.ErrImpactTargetNotFound) {
			fmt.Fprintf(os.Stderr, "no class or module named %q in the scanned graph\n", target)
			return 2
		}
		slog.Error("impact analysis failed", "target", target, "error", err)
		return 2
	}

	fmt.Printf("Impact of %s (defined in: %s)\n", report.Target, strings.Join(report.TargetModules, ", "))
	if len(report.DirectReferrers) > 0 {
		fmt.Printf("Directly referenced by %d classes:\n", len(report.DirectReferrers))
		for _, class := range report.DirectReferrers {
			fmt.Printf("  %s\n", class)
		}
	}
	if len(report.ExternallyUsedClasses) > 0 {
		fmt.Printf("Classes other modules reach into:\n")
		for _, class := range report.ExternallyUsedClasses {
			fmt.Printf("  %s\n", class)
		}
	}
	fmt.Printf("Modules depending on it directly:  %s\n", joinOrNone(report.DirectDependents))
	fmt.Printf("Modules affected transitively:     %s\n", joinOrNone(report.TransitiveDependents))
	return 0
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func printTrend(cfg *config.Config, paths config.ResolvedPaths) int {
	if !cfg.DB.IsEnabled() {
		fmt.Fprintln(os.Stderr, "scan history is disabled (db.enabled = false)")
		return 2
	}

	store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		return 2
	}
	defer store.Close()

	projectKey := cfg.ProjectName(paths.ProjectRoot)
	snapshots, err := store.LoadSnapshots(projectKey, time.Time{})
	if err != nil {
		slog.Error("failed to load scan history", "error", err)
		return 2
	}
	if len(snapshots) == 0 {
		fmt.Printf("No scans recorded yet for %s.\n", projectKey)
		return 0
	}

	report, err := history.BuildTrendReport(snapshots, 24*time.Hour)
	if err != nil {
		slog.Error("failed to build trend report", "error", err)
		return 2
	}

	fmt.Printf("Scan history for %s: %d scans, %s to %s\n",
		projectKey, report.ScanCount,
		report.Since.Local().Format("2006-01-02 15:04"),
		report.Until.Local().Format("2006-01-02 15:04"))
	for _, p := range report.Points {
		fmt.Printf("%s  classes=%-6d (%+d)  edges=%-6d (%+d)  cycles=%d  violations=%d  duplicates=%d  %dms\n",
			p.Timestamp.Local().Format("2006-01-02 15:04:05"),
			p.ClassCount, p.DeltaClasses,
			p.EdgeCount, p.DeltaEdges,
			p.CycleCount, p.ViolationCount, p.DuplicateCount, p.DurationMS)
	}
	return 0
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "classdep", "classdep.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "classdep", "classdep.log")
	}

	return "classdep.log"
}
