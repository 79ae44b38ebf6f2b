package architecture

import (
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// RuleConfig is one boundary rule as configured: the modules it governs
// and the modules those are allowed to reference.
type RuleConfig struct {
	Name           string
	From           []string
	Allow          []string
	Deny           []string
	MaxClasses     int
	ExcludeClasses []string
}

type RuleSet struct {
	rules []Rule
}

type Rule struct {
	Name           string
	From           []compiledPattern
	Allow          []compiledPattern
	Deny           []compiledPattern
	MaxClasses     int
	ExcludeClasses []compiledPattern
}

type compiledPattern struct {
	raw        string
	isWildcard bool
	glob       glob.Glob
}

func NewRuleSet(configs []RuleConfig) RuleSet {
	out := RuleSet{rules: make([]Rule, 0, len(configs))}
	for _, cfg := range configs {
		r := Rule{
			Name:       cfg.Name,
			MaxClasses: cfg.MaxClasses,
		}
		r.From = compilePatterns(cfg.From)
		r.Allow = compilePatterns(cfg.Allow)
		r.Deny = compilePatterns(cfg.Deny)
		r.ExcludeClasses = compilePatterns(cfg.ExcludeClasses)
		out.rules = append(out.rules, r)
	}
	return out
}

func (r RuleSet) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	out = append(out, r.rules...)
	return out
}

// MatchesModule reports whether the rule governs moduleName.
func (r Rule) MatchesModule(moduleName string) bool {
	return matchPatterns(r.From, moduleName)
}

// AllowsReference decides the fate of one referenced module: deny patterns
// win, an empty allow list permits everything, otherwise the target must
// match an allow pattern.
func (r Rule) AllowsReference(target string) bool {
	if matchPatterns(r.Deny, target) {
		return false
	}
	if len(r.Allow) == 0 {
		return true
	}
	return matchPatterns(r.Allow, target)
}

func (r Rule) excludesClass(className string) bool {
	return matchPatterns(r.ExcludeClasses, className)
}

// compilePatterns turns configured names into matchers. Bare names match
// exactly; anything carrying glob metacharacters is compiled without a
// separator, so * spans the whole name.
func compilePatterns(raw []string) []compiledPattern {
	if len(raw) == 0 {
		return nil
	}
	out := make([]compiledPattern, 0, len(raw))
	for _, pattern := range raw {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		cp := compiledPattern{
			raw:        pattern,
			isWildcard: strings.ContainsAny(pattern, "*?[]{}"),
		}
		if cp.isWildcard {
			g, err := glob.Compile(pattern)
			if err != nil {
				continue
			}
			cp.glob = g
		}
		out = append(out, cp)
	}
	return out
}

func matchPatterns(patterns []compiledPattern, name string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		if p.isWildcard {
			if p.glob != nil && p.glob.Match(name) {
				return true
			}
			continue
		}
		if p.raw == name {
			return true
		}
	}
	return false
}

func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Name == rules[j].Name {
			return len(rules[i].From) < len(rules[j].From)
		}
		return rules[i].Name < rules[j].Name
	})
}
