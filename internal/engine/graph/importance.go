package graph

// internal/engine/graph/importance.go

import "strings"

// CalculateImportanceScore ranks a module's architectural significance using
// a weighted heuristic:
//
//	Score = (FanIn * 2) + (FanOut * 1) + (Classes * 0.1) + (IsAPI ? 10 : 0)
//
// Parameters:
//   - fanIn:      number of modules that depend on this module
//   - fanOut:     number of modules this module depends on
//   - classes:    number of classes the module defines
//   - moduleName: used to auto-detect "API surface" modules
func CalculateImportanceScore(fanIn, fanOut, classes int, moduleName string) float64 {
	score := float64(fanIn*2) + float64(fanOut*1) + float64(classes)*0.1
	if isAPIModule(moduleName) {
		score += 10
	}
	return score
}

// isAPIModule returns true when the module name suggests it is a public API
// surface. It matches naming conventions common in multi-module JVM builds.
func isAPIModule(name string) bool {
	lower := strings.ToLower(name)
	keywords := []string{"api", "client", "web", "service", "gateway"}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
