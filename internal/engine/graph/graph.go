// # internal/engine/graph/graph.go
package graph

import (
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
	"github.com/leima-hit/dependency-analyzer/internal/shared/observability"
	"github.com/leima-hit/dependency-analyzer/internal/shared/util"
)

// Graph is the shared result of one scan: which module defines each class,
// and which classes each source references. A source is usually a class's
// own name; framework config files contribute under a synthetic identity
// derived from their path.
//
// Both mappings only grow during a run. Workers merge per-file findings
// through AddLocation and AddDependencies, each an atomic union for its key.
// The store is sharded by key hash so unrelated keys never contend on one
// lock; a whole-graph read locks shards one at a time, which is safe because
// queries only run after the scan's workers have joined.
type Graph struct {
	locations    [shardCount]locationShard
	dependencies [shardCount]dependencyShard

	classes atomic.Int64 // distinct located classes
	sources atomic.Int64 // distinct dependency sources
	edges   atomic.Int64 // distinct (source, reference) pairs
}

const shardCount = 32 // power of two, keyed by FNV-1a of the class name

type locationShard struct {
	mu sync.RWMutex
	m  map[classfile.ClassName]map[string]struct{}
}

type dependencyShard struct {
	mu sync.RWMutex
	m  map[classfile.ClassName]map[classfile.ClassName]struct{}
}

func NewGraph() *Graph {
	g := &Graph{}
	for i := range g.locations {
		g.locations[i].m = make(map[classfile.ClassName]map[string]struct{})
	}
	for i := range g.dependencies {
		g.dependencies[i].m = make(map[classfile.ClassName]map[classfile.ClassName]struct{})
	}
	return g
}

func shardFor(name classfile.ClassName) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name.String()))
	return h.Sum32() & (shardCount - 1)
}

// AddLocation records that module defines class. Claims accumulate: a class
// built into two modules keeps both, and DuplicateClasses reports it.
func (g *Graph) AddLocation(class classfile.ClassName, module string) {
	if class.IsEmpty() || module == "" {
		return
	}
	s := &g.locations[shardFor(class)]
	s.mu.Lock()
	set, ok := s.m[class]
	if !ok {
		set = make(map[string]struct{}, 1)
		s.m[class] = set
		g.classes.Add(1)
	}
	set[module] = struct{}{}
	s.mu.Unlock()
	observability.GraphClasses.Set(float64(g.classes.Load()))
}

// AddDependencies unions refs into the set held for source. Each worker
// calls this once per decoded file with the file's whole reference set;
// repeating the same union is harmless.
func (g *Graph) AddDependencies(source classfile.ClassName, refs []classfile.ClassName) {
	if source.IsEmpty() || len(refs) == 0 {
		return
	}
	s := &g.dependencies[shardFor(source)]
	s.mu.Lock()
	g.unionLocked(s, source, refs)
	s.mu.Unlock()
	observability.GraphEdges.Set(float64(g.edges.Load()))
}

// ReplaceDependencies swaps a source's reference set after a re-decode, for
// incremental updates in watch mode. Location claims survive: a rebuilt
// class stays owned by its module.
func (g *Graph) ReplaceDependencies(source classfile.ClassName, refs []classfile.ClassName) {
	if source.IsEmpty() {
		return
	}
	s := &g.dependencies[shardFor(source)]
	s.mu.Lock()
	g.dropSourceLocked(s, source)
	if len(refs) > 0 {
		g.unionLocked(s, source, refs)
	}
	s.mu.Unlock()
	observability.GraphEdges.Set(float64(g.edges.Load()))
	observability.GraphSources.Set(float64(g.sources.Load()))
}

// RemoveSource forgets a deleted source: its reference set and, when module
// is given, its location claim.
func (g *Graph) RemoveSource(source classfile.ClassName, module string) {
	if source.IsEmpty() {
		return
	}
	d := &g.dependencies[shardFor(source)]
	d.mu.Lock()
	g.dropSourceLocked(d, source)
	d.mu.Unlock()

	if module != "" {
		l := &g.locations[shardFor(source)]
		l.mu.Lock()
		if set, ok := l.m[source]; ok {
			delete(set, module)
			if len(set) == 0 {
				delete(l.m, source)
				g.classes.Add(-1)
			}
		}
		l.mu.Unlock()
	}
	observability.GraphClasses.Set(float64(g.classes.Load()))
	observability.GraphEdges.Set(float64(g.edges.Load()))
	observability.GraphSources.Set(float64(g.sources.Load()))
}

func (g *Graph) unionLocked(s *dependencyShard, source classfile.ClassName, refs []classfile.ClassName) {
	set, ok := s.m[source]
	if !ok {
		set = make(map[classfile.ClassName]struct{}, len(refs))
		s.m[source] = set
		g.sources.Add(1)
	}
	for _, ref := range refs {
		if ref.IsEmpty() {
			continue
		}
		if _, dup := set[ref]; !dup {
			set[ref] = struct{}{}
			g.edges.Add(1)
		}
	}
}

func (g *Graph) dropSourceLocked(s *dependencyShard, source classfile.ClassName) {
	if set, ok := s.m[source]; ok {
		g.edges.Add(-int64(len(set)))
		g.sources.Add(-1)
		delete(s.m, source)
	}
}

// Locations returns the sorted module names claiming class.
func (g *Graph) Locations(class classfile.ClassName) ([]string, bool) {
	s := &g.locations[shardFor(class)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.m[class]
	if !ok {
		return nil, false
	}
	return util.SortedStringKeys(set), true
}

// Dependencies returns the sorted reference set recorded for source.
func (g *Graph) Dependencies(source classfile.ClassName) ([]classfile.ClassName, bool) {
	s := &g.dependencies[shardFor(source)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.m[source]
	if !ok {
		return nil, false
	}
	return sortedNames(set), true
}

// Classes returns every located class, sorted.
func (g *Graph) Classes() []classfile.ClassName {
	out := make([]classfile.ClassName, 0, g.classes.Load())
	for i := range g.locations {
		s := &g.locations[i]
		s.mu.RLock()
		for class := range s.m {
			out = append(out, class)
		}
		s.mu.RUnlock()
	}
	sortNames(out)
	return out
}

// Sources returns every dependency source, sorted.
func (g *Graph) Sources() []classfile.ClassName {
	out := make([]classfile.ClassName, 0, g.sources.Load())
	for i := range g.dependencies {
		s := &g.dependencies[i]
		s.mu.RLock()
		for source := range s.m {
			out = append(out, source)
		}
		s.mu.RUnlock()
	}
	sortNames(out)
	return out
}

func (g *Graph) ClassCount() int  { return int(g.classes.Load()) }
func (g *Graph) SourceCount() int { return int(g.sources.Load()) }
func (g *Graph) EdgeCount() int   { return int(g.edges.Load()) }

// DuplicateClass reports a class claimed by more than one module, usually a
// split build or a copied source tree.
type DuplicateClass struct {
	Class   classfile.ClassName
	Modules []string
}

func (g *Graph) DuplicateClasses() []DuplicateClass {
	var out []DuplicateClass
	for i := range g.locations {
		s := &g.locations[i]
		s.mu.RLock()
		for class, set := range s.m {
			if len(set) < 2 {
				continue
			}
			out = append(out, DuplicateClass{Class: class, Modules: util.SortedStringKeys(set)})
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class.String() < out[j].Class.String() })
	return out
}

// ModuleEdge aggregates class-level references into one directed
// module-to-module edge.
type ModuleEdge struct {
	From  string
	To    string
	Count int // contributing (source class, referenced class) pairs
}

// ModuleEdges projects the class graph onto modules. An edge runs from the
// module owning a source to each module owning one of its references.
// Self-edges are dropped; references to classes no module claims (outside
// the filter's world, or not yet built) contribute nothing.
func (g *Graph) ModuleEdges() []ModuleEdge {
	counts := g.moduleEdgeCounts()
	out := make([]ModuleEdge, 0, len(counts))
	for from, targets := range counts {
		for to, n := range targets {
			out = append(out, ModuleEdge{From: from, To: to, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// moduleAdjacency returns the module names and their sorted outgoing
// neighbor lists, the shape the cycle and metric walks consume.
func (g *Graph) moduleAdjacency() ([]string, map[string][]string) {
	names := g.ModuleNames()
	counts := g.moduleEdgeCounts()
	adjacency := make(map[string][]string, len(names))
	for _, name := range names {
		adjacency[name] = util.SortedStringKeys(counts[name])
	}
	return names, adjacency
}

func (g *Graph) moduleEdgeCounts() map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for i := range g.dependencies {
		s := &g.dependencies[i]
		s.mu.RLock()
		for source, refs := range s.m {
			froms, ok := g.Locations(source)
			if !ok {
				continue
			}
			for ref := range refs {
				tos, ok := g.Locations(ref)
				if !ok {
					continue
				}
				for _, from := range froms {
					for _, to := range tos {
						if from == to {
							continue
						}
						if counts[from] == nil {
							counts[from] = make(map[string]int)
						}
						counts[from][to]++
					}
				}
			}
		}
		s.mu.RUnlock()
	}
	return counts
}

// ModuleNames returns every module that claims at least one class, sorted.
func (g *Graph) ModuleNames() []string {
	seen := make(map[string]struct{})
	for i := range g.locations {
		s := &g.locations[i]
		s.mu.RLock()
		for _, set := range s.m {
			for m := range set {
				seen[m] = struct{}{}
			}
		}
		s.mu.RUnlock()
	}
	return util.SortedStringKeys(seen)
}

// ModuleMetrics describes one module's position in the module graph.
type ModuleMetrics struct {
	Depth   int // longest acyclic path to a leaf in the condensed graph
	FanIn   int
	FanOut  int
	Classes int // classes the module defines
	Score   float64
}

func (g *Graph) ComputeModuleMetrics() map[string]ModuleMetrics {
	names, adjacency := g.moduleAdjacency()

	fanIn := make(map[string]int, len(names))
	fanOut := make(map[string]int, len(names))
	for _, from := range names {
		fanOut[from] = len(adjacency[from])
		for _, to := range adjacency[from] {
			fanIn[to]++
		}
	}

	classesOwned := make(map[string]int, len(names))
	for i := range g.locations {
		s := &g.locations[i]
		s.mu.RLock()
		for _, set := range s.m {
			for m := range set {
				classesOwned[m]++
			}
		}
		s.mu.RUnlock()
	}

	componentOf, components := stronglyConnectedComponents(names, adjacency)
	componentEdges := make(map[int]map[int]bool, len(components))
	for _, from := range names {
		fromComp := componentOf[from]
		for _, to := range adjacency[from] {
			toComp := componentOf[to]
			if fromComp == toComp {
				continue
			}
			if componentEdges[fromComp] == nil {
				componentEdges[fromComp] = make(map[int]bool)
			}
			componentEdges[fromComp][toComp] = true
		}
	}

	depthByComp := make(map[int]int, len(components))
	var computeDepth func(int) int
	computeDepth = func(comp int) int {
		if depth, ok := depthByComp[comp]; ok {
			return depth
		}
		maxDepth := 0
		for next := range componentEdges[comp] {
			candidate := 1 + computeDepth(next)
			if candidate > maxDepth {
				maxDepth = candidate
			}
		}
		depthByComp[comp] = maxDepth
		return maxDepth
	}
	for comp := range components {
		computeDepth(comp)
	}

	metrics := make(map[string]ModuleMetrics, len(names))
	for _, name := range names {
		fi, fo := fanIn[name], fanOut[name]
		metrics[name] = ModuleMetrics{
			Depth:   depthByComp[componentOf[name]],
			FanIn:   fi,
			FanOut:  fo,
			Classes: classesOwned[name],
			Score:   CalculateImportanceScore(fi, fo, classesOwned[name], name),
		}
	}
	return metrics
}

func sortedNames(set map[classfile.ClassName]struct{}) []classfile.ClassName {
	out := make([]classfile.ClassName, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sortNames(out)
	return out
}

func sortNames(names []classfile.ClassName) {
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}
