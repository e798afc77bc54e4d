// Package dag provides the model dependency graph: cycle detection,
// topological execution order, and upstream/downstream lineage queries.
//
// Nodes live in an arena addressed by integer index, with a name
// lookup table and adjacency lists of indices. An edge A -> B means
// "A depends on B"; execution order puts B before A.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is a directed graph of model dependencies.
type Graph struct {
	names []string
	index map[string]int
	out   [][]int // out[i] = what i depends on
	in    [][]int // in[i] = who depends on i
	edges int
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Clear removes all nodes and edges from the graph.
func (g *Graph) Clear() {
	g.names = nil
	g.index = make(map[string]int)
	g.out = nil
	g.in = nil
	g.edges = 0
}

// AddModel adds a node for the given model name, returning its index.
// Adding an existing name is a no-op that returns the existing index.
func (g *Graph) AddModel(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.names = append(g.names, name)
	g.index[name] = i
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return i
}

// AddDependency records that from depends on to. Both nodes are
// created if missing. Duplicate edges are no-ops. Self-loops are
// recorded and surface later as cycles.
func (g *Graph) AddDependency(from, to string) {
	f := g.AddModel(from)
	t := g.AddModel(to)
	for _, existing := range g.out[f] {
		if existing == t {
			return
		}
	}
	g.out[f] = append(g.out[f], t)
	g.in[t] = append(g.in[t], f)
	g.edges++
}

// ModelCount returns the number of nodes in the graph.
func (g *Graph) ModelCount() int {
	return len(g.names)
}

// DependencyCount returns the number of edges in the graph.
func (g *Graph) DependencyCount() int {
	return g.edges
}

// Models returns all model names in insertion order.
func (g *Graph) Models() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// HasModel reports whether the named model is in the graph.
func (g *Graph) HasModel(name string) bool {
	_, ok := g.index[name]
	return ok
}

// CycleError reports a dependency cycle found during ordering.
type CycleError struct {
	// Cycle is the node sequence forming the cycle, first node
	// repeated at the end.
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// HasCycles returns true if the graph contains a directed cycle,
// including one-node self-loops.
func (g *Graph) HasCycles() bool {
	return g.findCycle() != nil
}

// findCycle returns one cycle as a node index path, or nil.
func (g *Graph) findCycle() []int {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make([]int, len(g.names))
	parent := make([]int, len(g.names))

	var cycle []int
	var dfs func(i int) bool
	dfs = func(i int) bool {
		color[i] = gray
		for _, dep := range g.out[i] {
			switch color[dep] {
			case white:
				parent[dep] = i
				if dfs(dep) {
					return true
				}
			case gray:
				cycle = []int{dep}
				for cur := i; cur != dep; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				// Reverse into path order and close the loop.
				for l, r := 0, len(cycle)-1; l < r; l, r = l+1, r-1 {
					cycle[l], cycle[r] = cycle[r], cycle[l]
				}
				cycle = append(cycle, dep)
				return true
			}
		}
		color[i] = black
		return false
	}

	for i := range g.names {
		if color[i] == white && dfs(i) {
			return cycle
		}
	}
	return nil
}

// ExecutionOrder returns every model name ordered so that each model's
// dependencies come before it. The order is deterministic for a given
// insertion order. Returns a CycleError if the graph has a cycle.
func (g *Graph) ExecutionOrder() ([]string, error) {
	if cycle := g.findCycle(); cycle != nil {
		names := make([]string, len(cycle))
		for i, idx := range cycle {
			names[i] = g.names[idx]
		}
		return nil, &CycleError{Cycle: names}
	}

	// Kahn's algorithm over unresolved dependency counts, scanning
	// nodes in arena order for determinism.
	pending := make([]int, len(g.names))
	for i := range g.names {
		pending[i] = len(g.out[i])
	}

	var queue []int
	for i := range g.names {
		if pending[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]string, 0, len(g.names))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, g.names[i])
		for _, dependent := range g.in[i] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	return order, nil
}

// Dependencies returns what the named model depends on (one hop).
// Unknown names yield an empty result.
func (g *Graph) Dependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.resolve(g.out[i])
}

// Dependents returns who depends on the named model (one hop).
// Unknown names yield an empty result.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.resolve(g.in[i])
}

// Upstream returns the models the named model depends on, up to depth
// hops away. A negative depth walks the full transitive closure. The
// model itself is excluded.
func (g *Graph) Upstream(name string, depth int) []string {
	return g.walk(name, depth, g.out)
}

// Downstream returns the models that depend on the named model, up to
// depth hops away. A negative depth walks the full transitive closure.
// The model itself is excluded.
func (g *Graph) Downstream(name string, depth int) []string {
	return g.walk(name, depth, g.in)
}

// walk does a depth-limited BFS over the given adjacency lists and
// returns the reached names, sorted.
func (g *Graph) walk(name string, depth int, adj [][]int) []string {
	start, ok := g.index[name]
	if !ok || depth == 0 {
		return nil
	}

	seen := map[int]bool{start: true}
	frontier := []int{start}
	var reached []int

	for hop := 0; len(frontier) > 0 && (depth < 0 || hop < depth); hop++ {
		var next []int
		for _, i := range frontier {
			for _, j := range adj[i] {
				if !seen[j] {
					seen[j] = true
					next = append(next, j)
					reached = append(reached, j)
				}
			}
		}
		frontier = next
	}
	return g.resolve(reached)
}

// resolve maps node indices to sorted names.
func (g *Graph) resolve(indices []int) []string {
	if len(indices) == 0 {
		return nil
	}
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = g.names[idx]
	}
	sort.Strings(names)
	return names
}
