package dag

import (
	"fmt"
	"sort"
	"sync"
)

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	// order records insertion order; it breaks ties in TopoOrder.
	order []string
}

// node is a single vertex. Callers address nodes by string ID.
type node struct {
	id         string
	index      int
	deps       map[string]*node // predecessors
	dependents map[string]*node // successors
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// AddEdge records that toID depends on fromID.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node ID in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]string(nil), g.order...)
}

// Dependencies returns the IDs id depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the IDs that depend on id, in insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// DependsOn reports whether id transitively depends on dep.
func (g *Graph) DependsOn(id, dep string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	seen := map[string]bool{}
	var walk func(n *node) bool
	walk = func(n *node) bool {
		for depID, d := range n.deps {
			if depID == dep {
				return true
			}
			if seen[depID] {
				continue
			}
			seen[depID] = true
			if walk(d) {
				return true
			}
		}
		return false
	}
	return walk(n)
}

// DetectCycles returns an error naming a node on a cycle, if any.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// permanent: fully visited, not on a cycle.
	// temporary: on the current DFS stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}
		temporary[n.id] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopoOrder returns the nodes so that every node follows its dependencies.
// Among ready nodes, insertion order wins.
func (g *Graph) TopoOrder() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	remaining := make(map[string]int, len(g.nodes))
	var ready []*node
	for _, id := range g.order {
		n := g.nodes[id]
		remaining[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	out := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].index < ready[j].index })
		n := ready[0]
		ready = ready[1:]
		out = append(out, n.id)
		for _, d := range n.dependents {
			remaining[d.id]--
			if remaining[d.id] == 0 {
				ready = append(ready, d)
			}
		}
	}
	return out, nil
}

// Subgraph returns a new graph holding the roots and everything they
// transitively depend on. Unknown roots are an error.
func (g *Graph) Subgraph(roots ...string) (*Graph, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	keep := map[string]bool{}
	var walk func(n *node)
	walk = func(n *node) {
		if keep[n.id] {
			return
		}
		keep[n.id] = true
		for _, d := range n.deps {
			walk(d)
		}
	}
	for _, r := range roots {
		n, ok := g.nodes[r]
		if !ok {
			return nil, fmt.Errorf("node not found: %s", r)
		}
		walk(n)
	}

	sub := New()
	for _, id := range g.order {
		if keep[id] {
			sub.AddNode(id)
		}
	}
	for _, id := range g.order {
		if !keep[id] {
			continue
		}
		for _, depID := range sortedIDs(g.nodes[id].deps) {
			if err := sub.AddEdge(depID, id); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

// sortedIDs returns map keys ordered by node insertion index.
func sortedIDs(m map[string]*node) []string {
	nodes := make([]*node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].index < nodes[j].index })
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
	}
	return ids
}
