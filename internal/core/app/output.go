package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/core/errors"
	"github.com/leima-hit/dependency-analyzer/internal/output"
	"github.com/leima-hit/dependency-analyzer/internal/shared/util"
)

// GenerateOutputs renders every configured report for the current graph.
func (a *App) GenerateOutputs(ctx context.Context, update Update) error {
	if a.Paths.OutputDOT != "" {
		gen := output.NewDOTGenerator(a.Graph)
		dot, err := gen.Generate(update.Cycles, update.Violations)
		if err != nil {
			return fmt.Errorf("generate DOT output: %w", err)
		}
		if err := util.WriteStringWithDirs(a.Paths.OutputDOT, dot, 0o644); err != nil {
			return fmt.Errorf("write DOT output %q: %w", a.Paths.OutputDOT, err)
		}
	}

	if a.Paths.OutputTSV != "" {
		gen := output.NewTSVGenerator(a.Graph)
		tsv, err := gen.Generate()
		if err != nil {
			return fmt.Errorf("generate TSV output: %w", err)
		}
		if len(update.Duplicates) > 0 {
			duplicatesTSV, err := gen.GenerateDuplicates(update.Duplicates)
			if err != nil {
				return fmt.Errorf("generate duplicate-class TSV block: %w", err)
			}
			tsv = strings.TrimRight(tsv, "\n") + "\n\n" + strings.TrimRight(duplicatesTSV, "\n") + "\n"
		}
		if err := util.WriteStringWithDirs(a.Paths.OutputTSV, tsv, 0o644); err != nil {
			return fmt.Errorf("write TSV output %q: %w", a.Paths.OutputTSV, err)
		}
	}

	if a.Paths.OutputMermaid != "" {
		gen := output.NewMermaidGenerator(a.Graph)
		gen.SetModuleMetrics(a.Graph.ComputeModuleMetrics())
		mermaid, err := gen.Generate(update.Cycles, update.Violations)
		if err != nil {
			return fmt.Errorf("generate mermaid output: %w", err)
		}
		if err := util.WriteStringWithDirs(a.Paths.OutputMermaid, mermaid, 0o644); err != nil {
			return fmt.Errorf("write mermaid output %q: %w", a.Paths.OutputMermaid, err)
		}
	}

	if a.Config.Neo4j.Enabled {
		if err := a.exportNeo4j(ctx); err != nil {
			return errors.Wrap(err, errors.CodeExportError, "export to Neo4j")
		}
	}

	return nil
}

func (a *App) exportNeo4j(ctx context.Context) error {
	exporter, err := output.NewNeo4jExporter(a.Config.Neo4j)
	if err != nil {
		return err
	}
	defer func() {
		if err := exporter.Close(ctx); err != nil {
			slog.Warn("failed to close Neo4j driver", "error", err)
		}
	}()
	return exporter.Export(ctx, a.Graph)
}
