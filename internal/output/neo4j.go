package output

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/leima-hit/dependency-analyzer/internal/core/config"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
)

// Neo4jExporter mirrors a scanned graph into Neo4j using batch UNWIND
// queries: Module and Class nodes, LOCATED_IN and REFERENCES edges.
type Neo4jExporter struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
}

func NewNeo4jExporter(cfg config.Neo4j) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	return &Neo4jExporter{driver: driver, database: cfg.Database, batchSize: batch}, nil
}

func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

func (e *Neo4jExporter) runCypher(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if e.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(e.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// Clean removes everything a previous export left behind.
func (e *Neo4jExporter) Clean(ctx context.Context) error {
	queries := []string{
		"MATCH ()-[r:REFERENCES]->() DELETE r",
		"MATCH ()-[r:LOCATED_IN]->() DELETE r",
		"MATCH (n:Class) DETACH DELETE n",
		"MATCH (n:Module) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := e.runCypher(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *Neo4jExporter) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX class_name IF NOT EXISTS FOR (n:Class) ON (n.name)",
		"CREATE INDEX module_name IF NOT EXISTS FOR (n:Module) ON (n.name)",
	}
	for _, q := range indexes {
		if err := e.runCypher(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

// Export replaces the remote graph with the given scan result.
func (e *Neo4jExporter) Export(ctx context.Context, g *graph.Graph) error {
	if err := e.Clean(ctx); err != nil {
		return fmt.Errorf("clean previous graph: %w", err)
	}
	if err := e.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	modules := moduleRows(g)
	slog.Info("exporting modules", "count", len(modules))
	if err := e.runBatched(ctx,
		`UNWIND $batch AS row
		 MERGE (n:Module {name: row.name})
		 SET n.class_count = row.classes, n.fan_in = row.fan_in,
		     n.fan_out = row.fan_out, n.depth = row.depth`,
		modules); err != nil {
		return fmt.Errorf("load modules: %w", err)
	}

	classes := classRows(g)
	slog.Info("exporting classes", "count", len(classes))
	if err := e.runBatched(ctx,
		`UNWIND $batch AS row
		 MERGE (n:Class {name: row.name})
		 SET n.package = row.package`,
		classes); err != nil {
		return fmt.Errorf("load classes: %w", err)
	}

	locations := locationRows(g)
	slog.Info("exporting location edges", "count", len(locations))
	if err := e.runBatched(ctx,
		`UNWIND $batch AS row
		 MATCH (c:Class {name: row.class})
		 MATCH (m:Module {name: row.module})
		 MERGE (c)-[:LOCATED_IN]->(m)`,
		locations); err != nil {
		return fmt.Errorf("load location edges: %w", err)
	}

	references := referenceRows(g)
	slog.Info("exporting reference edges", "count", len(references))
	if err := e.runBatched(ctx,
		`UNWIND $batch AS row
		 MERGE (from:Class {name: row.from})
		 MERGE (to:Class {name: row.to})
		 MERGE (from)-[:REFERENCES]->(to)`,
		references); err != nil {
		return fmt.Errorf("load reference edges: %w", err)
	}

	return nil
}

func (e *Neo4jExporter) runBatched(ctx context.Context, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += e.batchSize {
		end := start + e.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := e.runCypher(ctx, cypher, map[string]any{"batch": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

func moduleRows(g *graph.Graph) []map[string]any {
	metrics := g.ComputeModuleMetrics()
	names := g.ModuleNames()
	rows := make([]map[string]any, 0, len(names))
	for _, name := range names {
		metric := metrics[name]
		rows = append(rows, map[string]any{
			"name":    name,
			"classes": metric.Classes,
			"fan_in":  metric.FanIn,
			"fan_out": metric.FanOut,
			"depth":   metric.Depth,
		})
	}
	return rows
}

func classRows(g *graph.Graph) []map[string]any {
	classes := g.Classes()
	rows := make([]map[string]any, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, map[string]any{
			"name":    class.String(),
			"package": class.PackageName(),
		})
	}
	return rows
}

func locationRows(g *graph.Graph) []map[string]any {
	rows := make([]map[string]any, 0)
	for _, class := range g.Classes() {
		modules, ok := g.Locations(class)
		if !ok {
			continue
		}
		for _, module := range modules {
			rows = append(rows, map[string]any{
				"class":  class.String(),
				"module": module,
			})
		}
	}
	return rows
}

// referenceRows keeps edges to classes no module claims; they surface in
// Neo4j as Class nodes without a LOCATED_IN edge.
func referenceRows(g *graph.Graph) []map[string]any {
	rows := make([]map[string]any, 0)
	for _, source := range g.Sources() {
		refs, ok := g.Dependencies(source)
		if !ok {
			continue
		}
		for _, ref := range refs {
			rows = append(rows, map[string]any{
				"from": source.String(),
				"to":   ref.String(),
			})
		}
	}
	return rows
}
