// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

// Generate dumps every recorded class reference, one row per pair. The
// Modules column lists the claims on the source class; references to
// classes outside the scanned modules keep their row with whatever the
// graph knows about the source.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tModules\n")

	for _, source := range t.graph.Sources() {
		modules, _ := t.graph.Locations(source)
		moduleList := strings.Join(modules, ",")
		refs, ok := t.graph.Dependencies(source)
		if !ok {
			continue
		}
		for _, ref := range refs {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\n", source.String(), ref.String(), moduleList))
		}
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateDuplicates(rows []graph.DuplicateClass) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tClass\tModules\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("duplicate_class\t%s\t%s\n",
			row.Class.String(),
			strings.Join(row.Modules, ","),
		))
	}

	return buf.String(), nil
}
