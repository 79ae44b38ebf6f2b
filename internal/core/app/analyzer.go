package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leima-hit/dependency-analyzer/internal/data/history"
	"github.com/leima-hit/dependency-analyzer/internal/shared/observability"
)

// Analyze derives the publishable result set from the current graph.
func (a *App) Analyze() Update {
	cycles := a.Graph.DetectCycles()
	result := a.evaluator.Evaluate(a.Graph)
	duplicates := a.Graph.DuplicateClasses()

	observability.RuleViolations.Set(float64(len(result.Violations)))

	return Update{
		Cycles:      cycles,
		Violations:  result.Violations,
		Duplicates:  duplicates,
		ModuleCount: len(a.Graph.ModuleNames()),
		ClassCount:  a.Graph.ClassCount(),
		EdgeCount:   a.Graph.EdgeCount(),
	}
}

// recordSnapshot persists one history row. Failures degrade to a warning;
// the results are already in hand and the next scan writes again.
func (a *App) recordSnapshot(update Update, duration time.Duration) {
	if a.history == nil {
		return
	}
	snapshot := history.Snapshot{
		Timestamp:      time.Now().UTC(),
		ModuleCount:    update.ModuleCount,
		ClassCount:     update.ClassCount,
		EdgeCount:      update.EdgeCount,
		DuplicateCount: len(update.Duplicates),
		CycleCount:     len(update.Cycles),
		ViolationCount: len(update.Violations),
		DurationMS:     duration.Milliseconds(),
	}
	if err := a.history.SaveSnapshot(a.projectKey, snapshot); err != nil {
		slog.Warn("failed to record scan snapshot", "error", err)
	}
}

// PrintSummary writes the human-readable result to stdout.
func (a *App) PrintSummary(update Update, duration time.Duration) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Scan: %d classes, %d modules, %d edges in %v\n",
		update.ClassCount, update.ModuleCount, update.EdgeCount, duration.Round(time.Millisecond))

	if len(update.Cycles) > 0 {
		fmt.Printf("⚠️  FOUND %d MODULE CYCLES:\n", len(update.Cycles))
		for _, c := range update.Cycles {
			fmt.Printf("   %s\n", strings.Join(c, " -> "))
		}
	} else {
		fmt.Println("✅ No module cycles found.")
	}

	if len(update.Violations) > 0 {
		fmt.Printf("⚠️  FOUND %d RULE VIOLATIONS:\n", len(update.Violations))
		for _, v := range update.Violations {
			fmt.Printf("   [%s] %s\n", v.RuleName, v.Message)
		}
	} else {
		fmt.Println("✅ No rule violations found.")
	}

	if len(update.Duplicates) > 0 {
		fmt.Printf("⚠️  FOUND %d DUPLICATE CLASSES:\n", len(update.Duplicates))
		for _, d := range update.Duplicates {
			fmt.Printf("   %s in %s\n", d.Class, strings.Join(d.Modules, ", "))
		}
	} else {
		fmt.Println("✅ No duplicate classes found.")
	}
}
