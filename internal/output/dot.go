// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/engine/architecture"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
)

type DOTGenerator struct {
	graph *graph.Graph
}

func NewDOTGenerator(g *graph.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate(cycles [][]string, violations []architecture.Violation) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(cycles)
	cycleModules := cycleModuleSet(cycles)
	violationEdges := violationEdgeSet(violations)

	moduleNames := d.graph.ModuleNames()
	metrics := d.graph.ComputeModuleMetrics()

	buf.WriteString("  subgraph cluster_modules {\n")
	buf.WriteString("    label=\"Modules\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")

	for _, modName := range moduleNames {
		label := fmt.Sprintf("%s\\n(%d classes)", modName, metrics[modName].Classes)

		if cycleModules[modName] {
			buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", modName, label))
		} else {
			buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", color=\"darkslategrey\"];\n", modName, label))
		}
	}
	buf.WriteString("  }\n\n")

	for _, edge := range d.graph.ModuleEdges() {
		key := edge.From + "->" + edge.To
		switch {
		case cycleEdges[key]:
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", edge.From, edge.To))
		case violationEdges[key]:
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"#a64d00\", style=dashed, penwidth=2.0, label=\"VIOLATION\"];\n", edge.From, edge.To))
		default:
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\", penwidth=1.8];\n", edge.From, edge.To))
		}
	}

	// Legend
	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_module [label=\"Module\", fillcolor=\"white\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_cycle [label=\"Cycle Member\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_edge_cycle [label=\"Cycle Edge\", shape=plaintext, fontcolor=\"red\"];\n")
	buf.WriteString("    legend_edge_violation [label=\"Rule Violation Edge\", shape=plaintext, fontcolor=\"#a64d00\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")

	return buf.String(), nil
}
