// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations over container units:
// topological ordering and cycle detection. inspect uses it to report
// units that sit on reference cycles, which the namespace resolves with
// partially built exports.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle contains the nodes left unordered: every node on a cycle and
		// every node reachable only through one.
		Cycle []string
	}

	// Graph is a directed graph whose nodes are identified by string keys.
	// An edge from A to B means A references B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

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

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TopologicalSort orders nodes so that every node comes after the nodes
// referencing it, using Kahn's algorithm. Returns CycleError if the graph
// contains a cycle. Nodes at the same level keep insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return result, nil
}

// Cycles returns the strongly connected components that contain a cycle:
// components of two or more nodes, and single nodes referencing
// themselves. Components are ordered by their first node's insertion
// position, and nodes within a component keep insertion order.
func (g *Graph) Cycles() [][]string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int, len(g.nodes)),
		lowlink: make(map[string]int, len(g.nodes)),
		onStack: make(map[string]bool, len(g.nodes)),
	}
	for _, node := range g.nodes {
		if _, seen := t.index[node]; !seen {
			t.connect(node)
		}
	}

	position := make(map[string]int, len(g.nodes))
	for i, node := range g.nodes {
		position[node] = i
	}

	var cycles [][]string
	for _, component := range t.components {
		if len(component) == 1 && !g.selfLoop(component[0]) {
			continue
		}
		slices.SortFunc(component, func(a, b string) int {
			return position[a] - position[b]
		})
		cycles = append(cycles, component)
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return position[a[0]] - position[b[0]]
	})
	return cycles
}

func (g *Graph) selfLoop(node string) bool {
	for _, neighbor := range g.adjacency[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

type tarjan struct {
	g          *Graph
	counter    int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	components [][]string
}

func (t *tarjan) connect(node string) {
	t.index[node] = t.counter
	t.lowlink[node] = t.counter
	t.counter++
	t.stack = append(t.stack, node)
	t.onStack[node] = true

	for _, neighbor := range t.g.adjacency[node] {
		if _, seen := t.index[neighbor]; !seen {
			t.connect(neighbor)
			t.lowlink[node] = min(t.lowlink[node], t.lowlink[neighbor])
		} else if t.onStack[neighbor] {
			t.lowlink[node] = min(t.lowlink[node], t.index[neighbor])
		}
	}

	if t.lowlink[node] != t.index[node] {
		return
	}
	var component []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		component = append(component, top)
		if top == node {
			break
		}
	}
	t.components = append(t.components, component)
}
