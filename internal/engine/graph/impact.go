package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

var ErrImpactTargetNotFound = errors.New("impact target not found")

// ImpactReport lists what a change to one class or module can reach.
type ImpactReport struct {
	Target                string
	TargetModules         []string
	DirectReferrers       []string // classes referencing the target directly, class targets only
	DirectDependents      []string // modules depending on a target module
	TransitiveDependents  []string
	ExternallyUsedClasses []string // target-module classes referenced from other modules
}

type ImpactTargetError struct {
	Target string
}

func (e *ImpactTargetError) Error() string {
	return fmt.Sprintf("%v: %s", ErrImpactTargetNotFound, e.Target)
}

func (e *ImpactTargetError) Unwrap() error {
	return ErrImpactTargetNotFound
}

// AnalyzeImpact resolves target first as a class name, then as a module
// name. Class targets additionally list the classes referencing them.
func (g *Graph) AnalyzeImpact(target string) (ImpactReport, error) {
	class := classfile.NameFromBinary(target).OuterClass()
	if modules, ok := g.Locations(class); ok {
		report := g.moduleImpact(modules)
		report.Target = class.String()
		report.TargetModules = modules

		reverse := g.reverseDependencies()
		referrers := make([]string, 0, len(reverse[class]))
		for _, source := range reverse[class] {
			referrers = append(referrers, source.String())
		}
		sort.Strings(referrers)
		report.DirectReferrers = referrers
		return report, nil
	}

	for _, name := range g.ModuleNames() {
		if name == target {
			report := g.moduleImpact([]string{target})
			report.Target = target
			report.TargetModules = []string{target}
			report.ExternallyUsedClasses = g.externallyUsedClasses(target)
			return report, nil
		}
	}
	return ImpactReport{}, &ImpactTargetError{Target: target}
}

func (g *Graph) moduleImpact(targets []string) ImpactReport {
	counts := g.moduleEdgeCounts()

	directSet := make(map[string]bool)
	for from, tos := range counts {
		for _, target := range targets {
			if from == target {
				continue
			}
			if _, ok := tos[target]; ok {
				directSet[from] = true
			}
		}
	}
	direct := make([]string, 0, len(directSet))
	for m := range directSet {
		direct = append(direct, m)
	}
	sort.Strings(direct)

	allSet := make(map[string]bool)
	for _, target := range targets {
		for _, dep := range g.Dependents(target) {
			allSet[dep] = true
		}
	}
	transitive := make([]string, 0)
	for m := range allSet {
		if !directSet[m] {
			transitive = append(transitive, m)
		}
	}
	sort.Strings(transitive)

	return ImpactReport{
		DirectDependents:     direct,
		TransitiveDependents: transitive,
	}
}

// externallyUsedClasses returns the classes module defines that some other
// module's sources reference, sorted. These form the module's de facto API.
func (g *Graph) externallyUsedClasses(module string) []string {
	reverse := g.reverseDependencies()

	var owned []classfile.ClassName
	for i := range g.locations {
		s := &g.locations[i]
		s.mu.RLock()
		for class, owners := range s.m {
			if _, ok := owners[module]; ok {
				owned = append(owned, class)
			}
		}
		s.mu.RUnlock()
	}

	var out []string
	for _, class := range owned {
		external := false
		for _, source := range reverse[class] {
			sourceModules, ok := g.Locations(source)
			if !ok {
				continue
			}
			for _, m := range sourceModules {
				if m != module {
					external = true
					break
				}
			}
			if external {
				break
			}
		}
		if external {
			out = append(out, class.String())
		}
	}
	sort.Strings(out)
	return out
}

// reverseDependencies builds the referenced-by index: for each class, the
// sorted sources whose reference sets contain it. Self references are
// dropped, they never propagate impact.
func (g *Graph) reverseDependencies() map[classfile.ClassName][]classfile.ClassName {
	reverse := make(map[classfile.ClassName][]classfile.ClassName)
	for i := range g.dependencies {
		s := &g.dependencies[i]
		s.mu.RLock()
		for source, refs := range s.m {
			for ref := range refs {
				if ref == source {
					continue
				}
				reverse[ref] = append(reverse[ref], source)
			}
		}
		s.mu.RUnlock()
	}
	for _, sources := range reverse {
		sortNames(sources)
	}
	return reverse
}
