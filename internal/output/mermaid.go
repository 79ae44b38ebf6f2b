package output

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/leima-hit/dependency-analyzer/internal/engine/architecture"
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
)

type MermaidGenerator struct {
	graph   *graph.Graph
	metrics map[string]graph.ModuleMetrics
}

func NewMermaidGenerator(g *graph.Graph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

func (m *MermaidGenerator) SetModuleMetrics(metrics map[string]graph.ModuleMetrics) {
	if len(metrics) == 0 {
		m.metrics = nil
		return
	}
	m.metrics = make(map[string]graph.ModuleMetrics, len(metrics))
	for mod, metric := range metrics {
		m.metrics[mod] = metric
	}
}

func (m *MermaidGenerator) Generate(cycles [][]string, violations []architecture.Violation) (string, error) {
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 80, 'rankSpacing': 110, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	moduleNames := m.graph.ModuleNames()
	ids := makeMermaidIDs(moduleNames)
	cycleEdges := cycleEdgeSet(cycles)
	violationEdges := violationEdgeSet(violations)
	cycleModules := cycleModuleSet(cycles)

	for _, modName := range moduleNames {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[modName], escapeMermaidLabel(m.moduleLabel(modName))))
	}

	b.WriteString("\n")
	if len(moduleNames) > 0 {
		b.WriteString("  classDef moduleNode fill:#f7fbff,stroke:#4d6480,stroke-width:1px;\n")
		b.WriteString("  class ")
		b.WriteString(strings.Join(toIDs(moduleNames, ids), ","))
		b.WriteString(" moduleNode;\n")
	}
	if len(cycleModules) > 0 {
		cycleNames := intersectOrdered(moduleNames, cycleModules)
		if len(cycleNames) > 0 {
			b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
			b.WriteString("  class ")
			b.WriteString(strings.Join(toIDs(cycleNames, ids), ","))
			b.WriteString(" cycleNode;\n")
		}
	}

	b.WriteString("\n")
	linkIndex := 0
	cycleLinkIndexes := make([]int, 0)
	violationLinkIndexes := make([]int, 0)
	for _, edge := range m.graph.ModuleEdges() {
		key := edge.From + "->" + edge.To
		edgeLabel := ""
		if cycleEdges[key] {
			edgeLabel = "|CYCLE|"
			cycleLinkIndexes = append(cycleLinkIndexes, linkIndex)
		} else if violationEdges[key] {
			edgeLabel = "|VIOLATION|"
			violationLinkIndexes = append(violationLinkIndexes, linkIndex)
		}
		b.WriteString(fmt.Sprintf("  %s -->%s %s\n", ids[edge.From], edgeLabel, ids[edge.To]))
		linkIndex++
	}

	if len(cycleLinkIndexes) > 0 || len(violationLinkIndexes) > 0 {
		b.WriteString("\n")
	}
	if len(cycleLinkIndexes) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinkIndexes)))
	}
	if len(violationLinkIndexes) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#a64d00,stroke-width:2px,stroke-dasharray:5 3;\n", joinInts(violationLinkIndexes)))
	}

	b.WriteString("\n")
	b.WriteString("  subgraph legend_info[\"Legend\"]\n")
	b.WriteString("    legend_metrics[\"Node line 1: module\\nline 2: classes\\n(d=depth in=fan-in out=fan-out)\"]\n")
	b.WriteString("    legend_edges[\"Edge labels: CYCLE=module cycle, VIOLATION=boundary rule violation\"]\n")
	b.WriteString("  end\n")
	b.WriteString("  classDef legendNode fill:#fff8dc,stroke:#b8a24c,stroke-width:1px;\n")
	b.WriteString("  class legend_metrics,legend_edges legendNode;\n")

	return b.String(), nil
}

func (m *MermaidGenerator) moduleLabel(module string) string {
	parts := []string{module}
	if metric, ok := m.metrics[module]; ok {
		parts = append(parts, fmt.Sprintf("(%d classes)", metric.Classes))
		parts = append(parts, fmt.Sprintf("(d=%d in=%d out=%d)", metric.Depth, metric.FanIn, metric.FanOut))
	}
	return strings.Join(parts, "\\n")
}

func sanitizeMermaidID(module string) string {
	if module == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range module {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "m"
	}
	first := rune(out[0])
	if unicode.IsDigit(first) {
		return "m_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func cycleEdgeSet(cycles [][]string) map[string]bool {
	out := make(map[string]bool)
	for _, cycle := range cycles {
		if len(cycle) < 2 {
			continue
		}
		for i := 0; i < len(cycle); i++ {
			from := cycle[i]
			to := cycle[(i+1)%len(cycle)]
			out[from+"->"+to] = true
		}
	}
	return out
}

func cycleModuleSet(cycles [][]string) map[string]bool {
	out := make(map[string]bool)
	for _, cycle := range cycles {
		for _, mod := range cycle {
			out[mod] = true
		}
	}
	return out
}

func violationEdgeSet(violations []architecture.Violation) map[string]bool {
	out := make(map[string]bool, len(violations))
	for _, v := range violations {
		if v.Target == "" {
			continue
		}
		out[v.Module+"->"+v.Target] = true
	}
	return out
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func toIDs(names []string, ids map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func intersectOrdered(ordered []string, set map[string]bool) []string {
	out := make([]string, 0)
	for _, item := range ordered {
		if set[item] {
			out = append(out, item)
		}
	}
	return out
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ",")
}
