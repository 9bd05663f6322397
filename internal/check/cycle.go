package check

import (
	"sort"
	"strings"

	"github.com/glemin5011/typemeld/internal/ast"
	"github.com/glemin5011/typemeld/internal/diag"
)

// inheritanceGraph maps a declaration name to the declaration it extends.
// Only edges between declarations of the same kind are kept; mismatches
// are reported separately as E103/E104.
type inheritanceGraph map[string][]string

// checkCycles reports each extends cycle once, on its member that appears
// first in the source.
func (c *checker) checkCycles() {
	graph := c.buildInheritanceGraph()

	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}

		first := c.firstInSource(scc)
		path := cyclePath(first, graph)
		c.report(first, "", diag.Errorf(CodeInheritanceCycle, first.Line(),
			"inheritance cycle: %s", strings.Join(path, " -> ")))
	}
}

func (c *checker) buildInheritanceGraph() inheritanceGraph {
	graph := make(inheritanceGraph)
	for name, d := range c.decls {
		var extends string
		switch d.Kind {
		case ast.KindStruct:
			extends = d.Struct.Extends
		case ast.KindInterface:
			extends = d.Interface.Extends
		}
		graph[name] = []string{}
		if parent, ok := c.decls[extends]; ok && parent.Kind == d.Kind {
			graph[name] = append(graph[name], extends)
		}
	}
	return graph
}

func (c *checker) firstInSource(scc []string) ast.Decl {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	for _, d := range c.schema.Decls {
		if members[d.Name()] {
			return c.decls[d.Name()]
		}
	}
	return c.decls[scc[0]]
}

func hasSelfLoop(node string, graph inheritanceGraph) bool {
	for _, next := range graph[node] {
		if next == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph inheritanceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}

// cyclePath follows extends edges from start until it returns to start.
// Every node has at most one parent, so the walk is unambiguous.
func cyclePath(start ast.Decl, graph inheritanceGraph) []string {
	path := []string{start.Name()}
	seen := map[string]bool{start.Name(): true}
	for cur := start.Name(); len(graph[cur]) > 0; {
		next := graph[cur][0]
		path = append(path, next)
		if seen[next] {
			break
		}
		seen[next] = true
		cur = next
	}
	return path
}
