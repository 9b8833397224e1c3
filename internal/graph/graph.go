// Package graph implements the bidirectional #include graph between
// owner source files and the headers they include (spec.md ยง3/ยง4.6).
package graph

import "sync"

// Graph holds owner->includes and include->owners edge sets, expressed
// as maps of sets keyed by file key (the string the caller passes, used
// as given without canonicalization) so cycles are representable without ownership
// complications (spec.md ยง9).
type Graph struct {
	mu       sync.RWMutex
	outgoing map[string]map[string]struct{} // owner -> includes
	incoming map[string]map[string]struct{} // include -> owners
}

// New creates an empty include graph.
func New() *Graph {
	return &Graph{
		outgoing: make(map[string]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
	}
}

// SetEdges replaces owner's outgoing edge set with includes, atomically
// from the perspective of any reader: the old reverse edges are removed
// first, then the new forward set is installed, so a partial graph for
// this owner is never observed between the two operations under the
// write lock held throughout.
func (g *Graph) SetEdges(owner string, includes []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for old := range g.outgoing[owner] {
		if owners, ok := g.incoming[old]; ok {
			delete(owners, owner)
			if len(owners) == 0 {
				delete(g.incoming, old)
			}
		}
	}

	next := make(map[string]struct{}, len(includes))
	for _, inc := range includes {
		next[inc] = struct{}{}
		if g.incoming[inc] == nil {
			g.incoming[inc] = make(map[string]struct{})
		}
		g.incoming[inc][owner] = struct{}{}
	}
	if len(next) == 0 {
		delete(g.outgoing, owner)
	} else {
		g.outgoing[owner] = next
	}
}

// Includes returns the headers owner directly includes.
func (g *Graph) Includes(owner string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return keys(g.outgoing[owner])
}

// Owners returns the source files that directly include header.
func (g *Graph) Owners(header string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return keys(g.incoming[header])
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ScopedReachable performs a bidirectional BFS from seed up to maxDepth
// hops (traversing both owner->include and include->owner edges),
// stopping early once maxNodes have been collected. The seed itself is
// included in the result (spec.md ยง4.6).
func (g *Graph) ScopedReachable(seed string, maxDepth, maxNodes int) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]struct{}{seed: {}}
	type frontierItem struct {
		key   string
		depth int
	}
	queue := []frontierItem{{seed, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		neighbors := make([]string, 0)
		for n := range g.outgoing[cur.key] {
			neighbors = append(neighbors, n)
		}
		for n := range g.incoming[cur.key] {
			neighbors = append(neighbors, n)
		}
		for _, n := range neighbors {
			if len(visited) >= maxNodes {
				return visited
			}
			if _, ok := visited[n]; ok {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, frontierItem{n, cur.depth + 1})
		}
	}
	return visited
}
