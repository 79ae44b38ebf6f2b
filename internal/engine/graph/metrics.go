package graph

import (
	"sort"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

// ReferenceHotspot is a class ranked by how many distinct sources reference
// it. High counts mark the classes a refactor touches most.
type ReferenceHotspot struct {
	Class     classfile.ClassName
	Referrers int
	Modules   []string // modules claiming the class, empty when nothing does
}

func (g *Graph) TopReferenced(n int) []ReferenceHotspot {
	if n <= 0 {
		return nil
	}

	reverse := g.reverseDependencies()
	hotspots := make([]ReferenceHotspot, 0, len(reverse))
	for class, sources := range reverse {
		h := ReferenceHotspot{Class: class, Referrers: len(sources)}
		if modules, ok := g.Locations(class); ok {
			h.Modules = modules
		}
		hotspots = append(hotspots, h)
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Referrers != hotspots[j].Referrers {
			return hotspots[i].Referrers > hotspots[j].Referrers
		}
		return hotspots[i].Class.String() < hotspots[j].Class.String()
	})
	if len(hotspots) > n {
		hotspots = hotspots[:n]
	}
	return hotspots
}

// UnownedReferences returns every referenced class no module claims,
// sorted. With a filter restricted to the analyzed codebase these are
// usually classes that were deleted but are still referenced somewhere.
func (g *Graph) UnownedReferences() []classfile.ClassName {
	seen := make(map[classfile.ClassName]struct{})
	for i := range g.dependencies {
		s := &g.dependencies[i]
		s.mu.RLock()
		for _, refs := range s.m {
			for ref := range refs {
				seen[ref] = struct{}{}
			}
		}
		s.mu.RUnlock()
	}

	var out []classfile.ClassName
	for ref := range seen {
		if _, ok := g.Locations(ref); !ok {
			out = append(out, ref)
		}
	}
	sortNames(out)
	return out
}
