package architecture

import (
	"github.com/leima-hit/dependency-analyzer/internal/engine/graph"
)

// RuleEvaluator checks a scanned dependency graph against the configured
// module boundary rules.
type RuleEvaluator struct {
	rules RuleSet
}

// Violation is one boundary breach. Reference violations carry the class
// pair witnessing the illegal module edge.
type Violation struct {
	RuleName  string
	Module    string
	Target    string
	Type      string // "reference" or "class_count"
	Message   string
	FromClass string
	ToClass   string
	Limit     int
	Actual    int
}

type EvaluationResult struct {
	Violations       []Violation
	EvaluatedModules int
}

func NewRuleEvaluator(configs []RuleConfig) *RuleEvaluator {
	rs := NewRuleSet(configs)
	sortRules(rs.rules)
	return &RuleEvaluator{rules: rs}
}

func (e *RuleEvaluator) Evaluate(g *graph.Graph) EvaluationResult {
	if e == nil || len(e.rules.rules) == 0 || g == nil {
		return EvaluationResult{}
	}

	moduleNames := g.ModuleNames()
	owned := ownedClasses(g)
	witnesses := referenceWitnesses(g)

	violations := make([]Violation, 0)
	evaluated := 0

	for _, moduleName := range moduleNames {
		matched := false
		for _, rule := range e.rules.rules {
			if !rule.MatchesModule(moduleName) {
				continue
			}
			matched = true
			if rule.MaxClasses > 0 {
				count := countClasses(owned[moduleName], rule)
				if count > rule.MaxClasses {
					violations = append(violations, Violation{
						RuleName: rule.Name,
						Module:   moduleName,
						Type:     "class_count",
						Message:  "module exceeds class-count limit",
						Limit:    rule.MaxClasses,
						Actual:   count,
					})
				}
			}
			if len(rule.Allow) == 0 && len(rule.Deny) == 0 {
				continue
			}
			for _, edge := range witnesses[moduleName] {
				if rule.AllowsReference(edge.target) {
					continue
				}
				violations = append(violations, Violation{
					RuleName:  rule.Name,
					Module:    moduleName,
					Target:    edge.target,
					Type:      "reference",
					Message:   "module reference violates rule policy",
					FromClass: edge.fromClass,
					ToClass:   edge.toClass,
				})
			}
		}
		if matched {
			evaluated++
		}
	}

	return EvaluationResult{
		Violations:       violations,
		EvaluatedModules: evaluated,
	}
}

// referenceEdge is one cross-module class reference, the witness for a
// module-level edge.
type referenceEdge struct {
	target    string
	fromClass string
	toClass   string
}

// referenceWitnesses joins every source's reference set against the
// location store, keyed by the owning module. Sources, references and
// module claims are walked sorted, so the output order is fixed.
func referenceWitnesses(g *graph.Graph) map[string][]referenceEdge {
	out := make(map[string][]referenceEdge)
	for _, source := range g.Sources() {
		fromModules, ok := g.Locations(source)
		if !ok {
			continue
		}
		refs, _ := g.Dependencies(source)
		for _, ref := range refs {
			toModules, ok := g.Locations(ref)
			if !ok {
				continue
			}
			for _, from := range fromModules {
				for _, to := range toModules {
					if from == to {
						continue
					}
					out[from] = append(out[from], referenceEdge{
						target:    to,
						fromClass: source.String(),
						toClass:   ref.String(),
					})
				}
			}
		}
	}
	return out
}

func ownedClasses(g *graph.Graph) map[string][]string {
	out := make(map[string][]string)
	for _, class := range g.Classes() {
		modules, _ := g.Locations(class)
		for _, m := range modules {
			out[m] = append(out[m], class.String())
		}
	}
	return out
}

func countClasses(classes []string, rule Rule) int {
	count := 0
	for _, name := range classes {
		if rule.excludesClass(name) {
			continue
		}
		count++
	}
	return count
}
