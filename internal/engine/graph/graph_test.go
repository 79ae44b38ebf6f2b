// # internal/engine/graph/graph_test.go
package graph

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

func cls(s string) classfile.ClassName { return classfile.NameFromBinary(s) }

func clsNames(ss ...string) []classfile.ClassName {
	out := make([]classfile.ClassName, 0, len(ss))
	for _, s := range ss {
		out = append(out, classfile.NameFromBinary(s))
	}
	return out
}

// addClass claims class for module and records its reference set.
func addClass(g *Graph, module, class string, refs ...string) {
	g.AddLocation(cls(class), module)
	if len(refs) > 0 {
		g.AddDependencies(cls(class), clsNames(refs...))
	}
}

func TestGraph_AddAndQuery(t *testing.T) {
	g := NewGraph()

	addClass(g, "core", "com.app.core.Engine", "com.app.util.Strings", "java.util.List")

	modules, ok := g.Locations(cls("com.app.core.Engine"))
	if !ok || len(modules) != 1 || modules[0] != "core" {
		t.Fatalf("Expected location [core], got %v (ok=%v)", modules, ok)
	}

	deps, ok := g.Dependencies(cls("com.app.core.Engine"))
	if !ok {
		t.Fatal("Expected dependencies for com.app.core.Engine")
	}
	want := []string{"com.app.util.Strings", "java.util.List"}
	if len(deps) != len(want) {
		t.Fatalf("Expected %d deps, got %d: %v", len(want), len(deps), deps)
	}
	for i := range want {
		if deps[i].String() != want[i] {
			t.Fatalf("Expected deps %v, got %v", want, deps)
		}
	}

	if g.ClassCount() != 1 || g.SourceCount() != 1 || g.EdgeCount() != 2 {
		t.Errorf("Expected counts 1/1/2, got %d/%d/%d", g.ClassCount(), g.SourceCount(), g.EdgeCount())
	}

	if _, ok := g.Locations(cls("com.app.Missing")); ok {
		t.Error("Expected no location for unknown class")
	}
	if _, ok := g.Dependencies(cls("com.app.Missing")); ok {
		t.Error("Expected no dependencies for unknown source")
	}
}

func TestGraph_DependencyUnion(t *testing.T) {
	g := NewGraph()
	src := cls("com.app.A")

	g.AddDependencies(src, clsNames("com.app.B", "com.app.C"))
	g.AddDependencies(src, clsNames("com.app.C", "com.app.D"))

	deps, _ := g.Dependencies(src)
	want := []string{"com.app.B", "com.app.C", "com.app.D"}
	if len(deps) != len(want) {
		t.Fatalf("Expected union %v, got %v", want, deps)
	}
	for i := range want {
		if deps[i].String() != want[i] {
			t.Fatalf("Expected union %v, got %v", want, deps)
		}
	}
	if g.EdgeCount() != 3 || g.SourceCount() != 1 {
		t.Errorf("Expected 3 edges / 1 source, got %d/%d", g.EdgeCount(), g.SourceCount())
	}

	// Repeating the same union changes nothing.
	g.AddDependencies(src, clsNames("com.app.B", "com.app.C", "com.app.D"))
	if g.EdgeCount() != 3 {
		t.Errorf("Expected union to be idempotent, got %d edges", g.EdgeCount())
	}
}

func TestGraph_DuplicateClasses(t *testing.T) {
	g := NewGraph()

	g.AddLocation(cls("com.app.Shared"), "core")
	g.AddLocation(cls("com.app.Shared"), "legacy")
	g.AddLocation(cls("com.app.Shared"), "core") // repeat claim
	g.AddLocation(cls("com.app.Only"), "core")

	modules, _ := g.Locations(cls("com.app.Shared"))
	if len(modules) != 2 || modules[0] != "core" || modules[1] != "legacy" {
		t.Fatalf("Expected both claims retained, got %v", modules)
	}
	if g.ClassCount() != 2 {
		t.Errorf("Expected 2 classes, got %d", g.ClassCount())
	}

	dups := g.DuplicateClasses()
	if len(dups) != 1 {
		t.Fatalf("Expected 1 duplicate, got %d: %v", len(dups), dups)
	}
	if dups[0].Class.String() != "com.app.Shared" {
		t.Errorf("Unexpected duplicate class: %s", dups[0].Class)
	}
	if len(dups[0].Modules) != 2 || dups[0].Modules[0] != "core" || dups[0].Modules[1] != "legacy" {
		t.Errorf("Unexpected duplicate modules: %v", dups[0].Modules)
	}
}

func TestGraph_ModuleEdges(t *testing.T) {
	g := NewGraph()

	// core.Engine refs util.Strings (cross-module), core.Config (same
	// module, dropped) and java.util.List (unowned, dropped).
	addClass(g, "core", "com.app.core.Engine",
		"com.app.util.Strings", "com.app.core.Config", "java.util.List")
	addClass(g, "core", "com.app.core.Config")
	addClass(g, "util", "com.app.util.Strings")

	edges := g.ModuleEdges()
	if len(edges) != 1 {
		t.Fatalf("Expected 1 module edge, got %d: %v", len(edges), edges)
	}
	e := edges[0]
	if e.From != "core" || e.To != "util" || e.Count != 1 {
		t.Fatalf("Unexpected edge: %+v", e)
	}

	// A second core class referencing util raises the count.
	addClass(g, "core", "com.app.core.Worker", "com.app.util.Strings")
	edges = g.ModuleEdges()
	if len(edges) != 1 || edges[0].Count != 2 {
		t.Fatalf("Expected edge count 2, got %v", edges)
	}
}

func TestGraph_ModuleEdges_SharedOwnership(t *testing.T) {
	g := NewGraph()

	// dto.User is built into both api and model; a reference to it counts
	// toward each owner.
	g.AddLocation(cls("com.app.dto.User"), "api")
	g.AddLocation(cls("com.app.dto.User"), "model")
	addClass(g, "web", "com.app.web.Page", "com.app.dto.User")

	edges := g.ModuleEdges()
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d: %v", len(edges), edges)
	}
	if edges[0].From != "web" || edges[0].To != "api" || edges[0].Count != 1 {
		t.Errorf("Unexpected first edge: %+v", edges[0])
	}
	if edges[1].From != "web" || edges[1].To != "model" || edges[1].Count != 1 {
		t.Errorf("Unexpected second edge: %+v", edges[1])
	}
}

func TestGraph_ReplaceDependencies(t *testing.T) {
	g := NewGraph()
	src := cls("com.app.A")

	g.AddLocation(src, "core")
	g.AddDependencies(src, clsNames("com.app.B", "com.app.C"))

	g.ReplaceDependencies(src, clsNames("com.app.C", "com.app.D"))
	deps, _ := g.Dependencies(src)
	if len(deps) != 2 || deps[0].String() != "com.app.C" || deps[1].String() != "com.app.D" {
		t.Fatalf("Expected replaced set [C D], got %v", deps)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges after replace, got %d", g.EdgeCount())
	}

	// Replacing with an empty set forgets the source but not the claim.
	g.ReplaceDependencies(src, nil)
	if _, ok := g.Dependencies(src); ok {
		t.Error("Expected source gone after empty replace")
	}
	if g.SourceCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Expected 0 sources / 0 edges, got %d/%d", g.SourceCount(), g.EdgeCount())
	}
	if _, ok := g.Locations(src); !ok {
		t.Error("Expected location claim to survive dependency replacement")
	}
}

func TestGraph_RemoveSource(t *testing.T) {
	g := NewGraph()
	src := cls("com.app.Shared")

	g.AddLocation(src, "core")
	g.AddLocation(src, "legacy")
	g.AddDependencies(src, clsNames("com.app.B"))

	g.RemoveSource(src, "core")
	if _, ok := g.Dependencies(src); ok {
		t.Error("Expected dependencies removed")
	}
	modules, ok := g.Locations(src)
	if !ok || len(modules) != 1 || modules[0] != "legacy" {
		t.Fatalf("Expected remaining claim [legacy], got %v (ok=%v)", modules, ok)
	}

	g.RemoveSource(src, "legacy")
	if _, ok := g.Locations(src); ok {
		t.Error("Expected class gone after last claim removed")
	}
	if g.ClassCount() != 0 || g.SourceCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Expected empty graph, got %d/%d/%d", g.ClassCount(), g.SourceCount(), g.EdgeCount())
	}
}

func TestGraph_ClassesAndSourcesSorted(t *testing.T) {
	g := NewGraph()

	addClass(g, "m", "com.app.Zeta", "com.x.Ref")
	addClass(g, "m", "com.app.Alpha", "com.x.Ref")
	addClass(g, "m", "com.app.Mid", "com.x.Ref")

	classes := g.Classes()
	if len(classes) != 3 {
		t.Fatalf("Expected 3 classes, got %d", len(classes))
	}
	for i, want := range []string{"com.app.Alpha", "com.app.Mid", "com.app.Zeta"} {
		if classes[i].String() != want {
			t.Fatalf("Expected sorted classes, got %v", classes)
		}
	}

	sources := g.Sources()
	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(sources))
	}
	for i := 1; i < len(sources); i++ {
		if sources[i-1].String() >= sources[i].String() {
			t.Fatalf("Expected sorted sources, got %v", sources)
		}
	}
}

func TestGraph_EmptyInputsIgnored(t *testing.T) {
	g := NewGraph()

	g.AddLocation(classfile.ClassName{}, "core")
	g.AddLocation(cls("com.app.A"), "")
	g.AddDependencies(classfile.ClassName{}, clsNames("com.app.B"))
	g.AddDependencies(cls("com.app.A"), nil)
	g.RemoveSource(classfile.ClassName{}, "core")

	if g.ClassCount() != 0 || g.SourceCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Expected empty graph, got %d/%d/%d", g.ClassCount(), g.SourceCount(), g.EdgeCount())
	}

	// Empty names inside a reference set are dropped; the source itself
	// is still registered.
	g.AddDependencies(cls("com.app.B"), []classfile.ClassName{{}})
	if g.SourceCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("Expected 1 source / 0 edges, got %d/%d", g.SourceCount(), g.EdgeCount())
	}
}

func TestGraph_ComputeModuleMetrics(t *testing.T) {
	g := NewGraph()

	// A -> B -> C -> A (cycle), D -> B, E isolated
	addClass(g, "A", "com.a.One", "com.b.One")
	addClass(g, "B", "com.b.One", "com.c.One")
	addClass(g, "C", "com.c.One", "com.a.One")
	addClass(g, "D", "com.d.One", "com.b.One")
	addClass(g, "E", "com.e.One")

	metrics := g.ComputeModuleMetrics()
	if len(metrics) != 5 {
		t.Fatalf("Expected metrics for 5 modules, got %d", len(metrics))
	}

	// Cycle members collapse into one component: same depth, fan-out 1.
	depthA := metrics["A"].Depth
	if metrics["B"].Depth != depthA || metrics["C"].Depth != depthA {
		t.Fatalf("Expected equal cycle depths, got A=%d B=%d C=%d",
			metrics["A"].Depth, metrics["B"].Depth, metrics["C"].Depth)
	}
	if metrics["A"].FanOut != 1 || metrics["B"].FanOut != 1 || metrics["C"].FanOut != 1 {
		t.Fatalf("Expected fan-out 1 for cycle nodes, got A=%d B=%d C=%d",
			metrics["A"].FanOut, metrics["B"].FanOut, metrics["C"].FanOut)
	}
	if metrics["B"].FanIn != 2 {
		t.Fatalf("Expected B fan-in 2 (A and D), got %d", metrics["B"].FanIn)
	}

	// D depends on the cycle and sits one layer above it.
	if metrics["D"].Depth != depthA+1 {
		t.Fatalf("Expected D depth %d, got %d", depthA+1, metrics["D"].Depth)
	}
	if metrics["D"].FanIn != 0 || metrics["D"].FanOut != 1 {
		t.Fatalf("Expected D fan-in 0 / fan-out 1, got in=%d out=%d", metrics["D"].FanIn, metrics["D"].FanOut)
	}

	// Isolated module is a leaf.
	if metrics["E"].Depth != 0 || metrics["E"].FanIn != 0 || metrics["E"].FanOut != 0 {
		t.Fatalf("Expected E as isolated leaf, got depth=%d in=%d out=%d",
			metrics["E"].Depth, metrics["E"].FanIn, metrics["E"].FanOut)
	}

	for name, m := range metrics {
		if m.Classes != 1 {
			t.Errorf("Expected module %s to own 1 class, got %d", name, m.Classes)
		}
	}
}

func TestGraph_ConcurrentUnions(t *testing.T) {
	g := NewGraph()

	// Every worker merges the same per-file findings; the result must be
	// identical to a single sequential pass.
	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				src := cls(fmt.Sprintf("com.app.p%d.C%d", i%7, i))
				g.AddLocation(src, fmt.Sprintf("mod%d", i%3))
				g.AddDependencies(src, clsNames(
					"com.app.shared.Base",
					fmt.Sprintf("com.app.p%d.C%d", (i+1)%7, (i+1)%100),
				))
			}
		}()
	}
	wg.Wait()

	if g.ClassCount() != 100 {
		t.Errorf("Expected 100 located classes, got %d", g.ClassCount())
	}
	if g.SourceCount() != 100 {
		t.Errorf("Expected 100 sources, got %d", g.SourceCount())
	}
	if g.EdgeCount() != 200 {
		t.Errorf("Expected 200 edges, got %d", g.EdgeCount())
	}
	if dups := g.DuplicateClasses(); len(dups) != 0 {
		t.Errorf("Expected no duplicates, got %v", dups)
	}
}

func TestGraph_TopReferenced(t *testing.T) {
	g := NewGraph()

	addClass(g, "a", "com.a.One", "com.hot.Spot")
	addClass(g, "b", "com.b.One", "com.hot.Spot", "com.warm.Spot")
	addClass(g, "c", "com.c.One", "com.hot.Spot")
	g.AddLocation(cls("com.hot.Spot"), "hot")

	top := g.TopReferenced(1)
	if len(top) != 1 {
		t.Fatalf("Expected 1 hotspot, got %d", len(top))
	}
	if top[0].Class.String() != "com.hot.Spot" || top[0].Referrers != 3 {
		t.Fatalf("Unexpected hotspot: %+v", top[0])
	}
	if len(top[0].Modules) != 1 || top[0].Modules[0] != "hot" {
		t.Errorf("Expected hotspot owner [hot], got %v", top[0].Modules)
	}

	all := g.TopReferenced(10)
	if len(all) != 2 {
		t.Fatalf("Expected 2 hotspots, got %d", len(all))
	}
	if all[1].Class.String() != "com.warm.Spot" || all[1].Referrers != 1 {
		t.Errorf("Unexpected second hotspot: %+v", all[1])
	}
	if all[1].Modules != nil {
		t.Errorf("Expected no owners for unclaimed class, got %v", all[1].Modules)
	}

	if got := g.TopReferenced(0); got != nil {
		t.Errorf("Expected nil for n=0, got %v", got)
	}
}

func TestGraph_UnownedReferences(t *testing.T) {
	g := NewGraph()

	addClass(g, "core", "com.app.A", "com.app.B", "java.util.List", "java.io.File")
	addClass(g, "core", "com.app.B")

	unowned := g.UnownedReferences()
	if len(unowned) != 2 {
		t.Fatalf("Expected 2 unowned refs, got %v", unowned)
	}
	if unowned[0].String() != "java.io.File" || unowned[1].String() != "java.util.List" {
		t.Errorf("Unexpected unowned refs: %v", unowned)
	}
}

func TestGraph_AnalyzeImpact_Class(t *testing.T) {
	g := NewGraph()

	// web -> core -> util, ext -> web
	addClass(g, "core", "com.app.core.Service", "com.app.util.Text")
	addClass(g, "util", "com.app.util.Text")
	addClass(g, "web", "com.app.web.Page", "com.app.core.Service")
	addClass(g, "ext", "com.app.ext.Tool", "com.app.web.Page")

	report, err := g.AnalyzeImpact("com.app.core.Service")
	if err != nil {
		t.Fatalf("AnalyzeImpact returned error: %v", err)
	}
	if report.Target != "com.app.core.Service" {
		t.Errorf("Unexpected target: %s", report.Target)
	}
	if len(report.TargetModules) != 1 || report.TargetModules[0] != "core" {
		t.Errorf("Unexpected target modules: %v", report.TargetModules)
	}
	if len(report.DirectReferrers) != 1 || report.DirectReferrers[0] != "com.app.web.Page" {
		t.Errorf("Unexpected direct referrers: %v", report.DirectReferrers)
	}
	if len(report.DirectDependents) != 1 || report.DirectDependents[0] != "web" {
		t.Errorf("Unexpected direct dependents: %v", report.DirectDependents)
	}
	if len(report.TransitiveDependents) != 1 || report.TransitiveDependents[0] != "ext" {
		t.Errorf("Unexpected transitive dependents: %v", report.TransitiveDependents)
	}

	// A nested-class target resolves through its outermost class.
	nested, err := g.AnalyzeImpact("com.app.core.Service$Builder")
	if err != nil {
		t.Fatalf("AnalyzeImpact nested target: %v", err)
	}
	if nested.Target != "com.app.core.Service" {
		t.Errorf("Expected nested target resolved to outer class, got %s", nested.Target)
	}
}

func TestGraph_AnalyzeImpact_Module(t *testing.T) {
	g := NewGraph()

	addClass(g, "core", "com.app.core.Service", "com.app.util.Text")
	addClass(g, "util", "com.app.util.Text")
	addClass(g, "util", "com.app.util.Hidden")
	addClass(g, "web", "com.app.web.Page", "com.app.core.Service")

	report, err := g.AnalyzeImpact("util")
	if err != nil {
		t.Fatalf("AnalyzeImpact returned error: %v", err)
	}
	if report.Target != "util" || len(report.TargetModules) != 1 || report.TargetModules[0] != "util" {
		t.Errorf("Unexpected target: %s / %v", report.Target, report.TargetModules)
	}
	if len(report.DirectDependents) != 1 || report.DirectDependents[0] != "core" {
		t.Errorf("Unexpected direct dependents: %v", report.DirectDependents)
	}
	if len(report.TransitiveDependents) != 1 || report.TransitiveDependents[0] != "web" {
		t.Errorf("Unexpected transitive dependents: %v", report.TransitiveDependents)
	}
	if len(report.ExternallyUsedClasses) != 1 || report.ExternallyUsedClasses[0] != "com.app.util.Text" {
		t.Errorf("Unexpected externally used classes: %v", report.ExternallyUsedClasses)
	}
}

func TestGraph_AnalyzeImpact_TargetNotFound(t *testing.T) {
	g := NewGraph()

	_, err := g.AnalyzeImpact("com.app.Missing")
	if err == nil {
		t.Fatal("Expected error for missing impact target")
	}
	if !errors.Is(err, ErrImpactTargetNotFound) {
		t.Fatalf("Expected errors.Is(err, ErrImpactTargetNotFound), got %v", err)
	}
}
