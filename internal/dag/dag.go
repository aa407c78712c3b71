// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations used to batch package and class
// files that reference each other. Files that mutually require each other form a
// strongly connected component and are analyzed together.
package dag

type (
	// Graph is a directed graph keyed by string node names.
	// An edge from A to B means "A references B": B's primitives must be known
	// before A can be analyzed.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors, in insertion order.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}

	// tarjanFrame replaces one level of the recursive strongconnect call.
	tarjanFrame struct {
		node string
		// edge is the index of the next outgoing edge of node to examine.
		edge int
	}
)

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to.
// Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// HasNode reports whether name was added to the graph.
func (g *Graph) HasNode(name string) bool {
	return g.nodeSet[name]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// StronglyConnectedComponents partitions the graph with Tarjan's algorithm.
//
// Components are emitted in reverse topological order: every component is
// preceded by all components it has edges into. Within a component, nodes appear
// in the order they were popped off the Tarjan stack. Roots are visited in node
// insertion order and edges in insertion order, so the output is deterministic.
//
// The depth-first search runs on an explicit frame stack, so arbitrarily long
// reference chains cannot overflow the goroutine stack.
func (g *Graph) StronglyConnectedComponents() [][]string {
	if len(g.nodes) == 0 {
		return nil
	}

	var (
		next       int
		index      = make(map[string]int, len(g.nodes))
		lowLink    = make(map[string]int, len(g.nodes))
		onStack    = make(map[string]bool, len(g.nodes))
		stack      []string
		components [][]string
	)

	visit := func(node string) {
		index[node] = next
		lowLink[node] = next
		next++
		stack = append(stack, node)
		onStack[node] = true
	}

	for _, root := range g.nodes {
		if _, seen := index[root]; seen {
			continue
		}

		visit(root)
		calls := []tarjanFrame{{node: root}}

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			neighbors := g.adjacency[top.node]

			if top.edge < len(neighbors) {
				w := neighbors[top.edge]
				top.edge++

				if _, seen := index[w]; !seen {
					visit(w)
					calls = append(calls, tarjanFrame{node: w})
				} else if onStack[w] {
					lowLink[top.node] = min(lowLink[top.node], index[w])
				}
				continue
			}

			// Every edge of top.node has been examined: return to the caller.
			v := top.node
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				lowLink[parent] = min(lowLink[parent], lowLink[v])
			}

			if lowLink[v] != index[v] {
				continue
			}

			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	return components
}
