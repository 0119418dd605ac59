// Package graph maintains the in-memory directed call graph: symbol ids
// as nodes, kind-labeled multigraph edges, one-hop neighbor queries, and
// Tarjan SCC cycle detection. The graph is derived state, rebuilt
// incrementally from every indexed batch and never persisted.
package graph

import (
	"sort"
	"sync"

	"github.com/jward/symgraph/internal/store"
)

// edge is one directed, labeled edge. Edges remember the source file and
// the file's generation at insertion time so stale edges from a
// re-indexed file can be evicted without a graph rebuild.
type edge struct {
	to   string
	kind store.ReferenceKind
	file string
	gen  uint64
}

// CallGraph is safe for concurrent use. Reads (neighbor queries, cycle
// detection) share the read lock; mutations take the write lock and never
// span I/O.
type CallGraph struct {
	mu   sync.RWMutex
	out  map[string][]edge
	in   map[string][]edge
	gens map[string]uint64 // per-file generation counter

	// names maps a bare symbol name to the first symbol id registered
	// under it. Reference targets are stored by name only; this is the
	// best-effort resolution that turns them into real graph edges.
	names map[string]string
}

// New creates an empty call graph.
func New() *CallGraph {
	return &CallGraph{
		out:   make(map[string][]edge),
		in:    make(map[string][]edge),
		gens:  make(map[string]uint64),
		names: make(map[string]string),
	}
}

// AddSymbol ensures a node exists for id. Idempotent.
func (g *CallGraph) AddSymbol(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(id)
}

// RegisterName binds a bare name to a symbol id (first registration
// wins). Any existing bare-name node is merged into the id node, so
// edges recorded before the symbol was indexed land on the real node.
func (g *CallGraph) RegisterName(name, id string) {
	if name == "" || name == id {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.names[name]; ok {
		return
	}
	g.names[name] = id
	g.ensure(id)
	g.merge(name, id)
}

// merge re-points the bare node's edges onto id and removes it. Caller
// holds the write lock.
func (g *CallGraph) merge(bare, id string) {
	outEdges, hadOut := g.out[bare]
	inEdges := g.in[bare]
	if !hadOut && inEdges == nil {
		return
	}
	for _, e := range outEdges {
		for i := range g.in[e.to] {
			if g.in[e.to][i].to == bare {
				g.in[e.to][i].to = id
			}
		}
	}
	for _, e := range inEdges {
		for i := range g.out[e.to] {
			if g.out[e.to][i].to == bare {
				g.out[e.to][i].to = id
			}
		}
	}
	g.out[id] = append(g.out[id], outEdges...)
	g.in[id] = append(g.in[id], inEdges...)
	delete(g.out, bare)
	delete(g.in, bare)
}

// AddReference ensures both endpoints exist (unresolved targets become
// bare-name nodes) and adds a directed, kind-labeled edge. Multiple edges
// between the same pair are kept. A target that matches a registered
// name resolves to that symbol's node.
func (g *CallGraph) AddReference(from, to string, kind store.ReferenceKind, file string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.names[to]; ok {
		to = id
	}
	g.ensure(from)
	g.ensure(to)
	gen := g.gens[file]
	g.out[from] = append(g.out[from], edge{to: to, kind: kind, file: file, gen: gen})
	g.in[to] = append(g.in[to], edge{to: from, kind: kind, file: file, gen: gen})
}

// ensure creates a node entry. Caller holds the write lock.
func (g *CallGraph) ensure(id string) {
	if _, ok := g.out[id]; !ok {
		g.out[id] = nil
	}
	if _, ok := g.in[id]; !ok {
		g.in[id] = nil
	}
}

// BeginFile bumps the generation for a file. Edges added afterwards carry
// the new generation; EvictStale can then drop the previous batch.
func (g *CallGraph) BeginFile(file string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[file]++
}

// EvictStale removes every edge whose source file generation is older
// than the file's current generation. Nodes are kept; an orphaned node is
// harmless and may be re-referenced later.
func (g *CallGraph) EvictStale(file string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	current := g.gens[file]
	for id, edges := range g.out {
		g.out[id] = keepCurrent(edges, file, current)
	}
	for id, edges := range g.in {
		g.in[id] = keepCurrent(edges, file, current)
	}
}

func keepCurrent(edges []edge, file string, gen uint64) []edge {
	kept := edges[:0]
	for _, e := range edges {
		if e.file != file || e.gen == gen {
			kept = append(kept, e)
		}
	}
	return kept
}

// Contains reports whether id is a known node.
func (g *CallGraph) Contains(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.out[id]
	return ok
}

// CallsOf returns the distinct nodes reachable from id by one outgoing
// edge. Unknown ids yield an empty result, not an error.
func (g *CallGraph) CallsOf(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return neighbors(g.out[id])
}

// CallersOf returns the distinct nodes with an edge into id.
func (g *CallGraph) CallersOf(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return neighbors(g.in[id])
}

func neighbors(edges []edge) []string {
	seen := make(map[string]bool, len(edges))
	var ids []string
	for _, e := range edges {
		if !seen[e.to] {
			seen[e.to] = true
			ids = append(ids, e.to)
		}
	}
	return ids
}

// NodeCount returns the number of nodes.
func (g *CallGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.out)
}

// CircularDependencies computes strongly connected components over the
// whole graph with Tarjan's algorithm (O(V+E)) and reports components of
// size > 1 as circular-dependency groups. Recomputed on every call; the
// graph may have grown since the last one. Components and their members
// are sorted for deterministic output.
func (g *CallGraph) CircularDependencies() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := make(map[string]*nodeInfo, len(g.out))
	index := 0
	var stack []string
	var cycles [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, e := range g.out[v] {
			wInfo, visited := info[e.to]
			if !visited {
				strongconnect(e.to)
				wInfo = info[e.to]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack {
				if wInfo.index < ni.lowlink {
					ni.lowlink = wInfo.index
				}
			}
		}

		if ni.lowlink == ni.index {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				info[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 {
				sort.Strings(scc)
				cycles = append(cycles, scc)
			}
		}
	}

	// Deterministic visit order keeps component output stable.
	ids := make([]string, 0, len(g.out))
	for id := range g.out {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, visited := info[id]; !visited {
			strongconnect(id)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
