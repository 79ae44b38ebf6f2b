// Package filter builds class-name predicates from configured patterns.
//
// A bare pattern matches a package prefix: "com.app" keeps com.app.Foo and
// com.app.sub.Bar but not com.apple.Pie. Patterns containing glob
// metacharacters are compiled with '.' as the separator, so "com.app.*"
// stays inside one package while "com.app.**" descends.
package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/leima-hit/dependency-analyzer/internal/engine/classfile"
)

type compiledPattern struct {
	raw        string
	isWildcard bool
	glob       glob.Glob
}

// New builds a predicate from include and exclude patterns. Excludes win
// over includes; an empty include list keeps everything the excludes leave.
func New(include, exclude []string) (classfile.Filter, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}
	if len(inc) == 0 && len(exc) == 0 {
		return classfile.AcceptAll, nil
	}
	return func(name classfile.ClassName) bool {
		n := name.String()
		if matchPatterns(exc, n) {
			return false
		}
		if len(inc) == 0 {
			return true
		}
		return matchPatterns(inc, n)
	}, nil
}

// Packages builds a predicate keeping only classes under the given package
// prefixes. No prefixes means keep everything.
func Packages(prefixes ...string) classfile.Filter {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, strings.TrimSuffix(p, "."))
		}
	}
	if len(kept) == 0 {
		return classfile.AcceptAll
	}
	return func(name classfile.ClassName) bool {
		n := name.String()
		for _, p := range kept {
			if n == p || strings.HasPrefix(n, p+".") {
				return true
			}
		}
		return false
	}
}

func compilePatterns(raw []string) ([]compiledPattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]compiledPattern, 0, len(raw))
	for _, pattern := range raw {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		cp := compiledPattern{
			raw:        strings.TrimSuffix(trimmed, "."),
			isWildcard: strings.ContainsAny(trimmed, "*?[]{}"),
		}
		if cp.isWildcard {
			g, err := glob.Compile(trimmed, '.')
			if err != nil {
				return nil, fmt.Errorf("invalid class pattern %q: %w", pattern, err)
			}
			cp.glob = g
		}
		out = append(out, cp)
	}
	return out, nil
}

func matchPatterns(patterns []compiledPattern, name string) bool {
	for _, p := range patterns {
		if p.isWildcard {
			if p.glob != nil && p.glob.Match(name) {
				return true
			}
			continue
		}
		if name == p.raw || strings.HasPrefix(name, p.raw+".") {
			return true
		}
	}
	return false
}
