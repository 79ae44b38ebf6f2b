// # internal/engine/graph/detect.go
package graph

import "sort"

// DetectCycles returns every module dependency cycle found by depth-first
// walk, each as the module path that closes the loop. Traversal order is
// fixed so repeated calls over the same graph report identical cycles.
func (g *Graph) DetectCycles() [][]string {
	names, adjacency := g.moduleAdjacency()

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	for _, name := range names {
		if !visited[name] {
			findCycles(name, adjacency, visited, onStack, []string{}, &cycles)
		}
	}
	return cycles
}

func findCycles(curr string, adjacency map[string][]string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range adjacency[curr] {
		if onStack[next] {
			cycleStart := -1
			for i, mod := range path {
				if mod == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			findCycles(next, adjacency, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindDependencyChain returns a shortest module path explaining why from
// depends on to, or false when no such path exists.
func (g *Graph) FindDependencyChain(from, to string) ([]string, bool) {
	names, adjacency := g.moduleAdjacency()
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	if !known[from] || !known[to] {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p, ok := prev[node]
					if !ok {
						return nil, false
					}
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}

// Dependents returns every module that reaches target through one or more
// dependency edges, sorted. A change to target can affect exactly these.
func (g *Graph) Dependents(target string) []string {
	_, adjacency := g.moduleAdjacency()

	reverse := make(map[string][]string)
	for from, targets := range adjacency {
		for _, to := range targets {
			reverse[to] = append(reverse[to], from)
		}
	}

	seen := map[string]bool{target: true}
	queue := []string{target}
	var out []string
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, dep := range reverse[curr] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	sort.Strings(out)
	return out
}
