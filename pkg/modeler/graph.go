package modeler

import (
	"github.com/qlikfox/qlikfox/pkg/models"
)

// ModelGraph is an undirected view of the resolved relationship graph,
// used to detect disconnected models.
type ModelGraph struct {
	// Adjacency list: table -> list of tables it's connected to
	edges map[string][]string
	// All unique tables in the graph
	tables map[string]bool
}

// NewModelGraph creates an empty graph.
func NewModelGraph() *ModelGraph {
	return &ModelGraph{
		edges:  make(map[string][]string),
		tables: make(map[string]bool),
	}
}

// AddRelationship adds an undirected edge for a resolved relationship.
func (g *ModelGraph) AddRelationship(rel models.Relationship) {
	g.tables[rel.ChildTable] = true
	g.tables[rel.ParentTable] = true

	g.edges[rel.ChildTable] = append(g.edges[rel.ChildTable], rel.ParentTable)
	g.edges[rel.ParentTable] = append(g.edges[rel.ParentTable], rel.ChildTable)
}

// AddTable adds a table without any edges. Used to track tables that
// resolved no relationships.
func (g *ModelGraph) AddTable(name string) {
	g.tables[name] = true
}

// ComponentCount returns the number of connected components using DFS.
func (g *ModelGraph) ComponentCount() int {
	visited := make(map[string]bool)
	count := 0

	for table := range g.tables {
		if !visited[table] {
			g.dfs(table, visited)
			count++
		}
	}
	return count
}

// IsConnected reports whether all tables sit in a single component.
// An empty graph counts as connected.
func (g *ModelGraph) IsConnected() bool {
	if len(g.tables) == 0 {
		return true
	}
	return g.ComponentCount() == 1
}

// dfs marks every table reachable from start as visited.
func (g *ModelGraph) dfs(start string, visited map[string]bool) {
	stack := []string{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, neighbor := range g.edges[current] {
			if !visited[neighbor] {
				stack = append(stack, neighbor)
			}
		}
	}
}
