package topology

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Graph is the weighted undirected network topology. Links are stored
// symmetrically: adj[u][v] always equals adj[v][u]. A node with no links
// still owns an (empty) adjacency row, so hosts and isolated switches are
// first-class nodes.
type Graph struct {
	adj   map[string]map[string]int
	mutex sync.RWMutex
}

func NewGraph() *Graph {
	return &Graph{
		adj: make(map[string]map[string]int),
	}
}

// AddNode registers a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(node string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.addNodeLocked(node)
}

func (g *Graph) addNodeLocked(node string) {
	if _, exists := g.adj[node]; !exists {
		g.adj[node] = make(map[string]int)
	}
}

// RemoveNode deletes a node and every link referencing it. Removing an
// absent node is a no-op.
func (g *Graph) RemoveNode(node string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	links, exists := g.adj[node]
	if !exists {
		return
	}
	for neighbor := range links {
		delete(g.adj[neighbor], node)
	}
	delete(g.adj, node)
	log.Infof("RemoveNode: removed node %s and %d links", node, len(links))
}

// AddLink sets the weight of the undirected link u<->v, creating either
// endpoint if it does not exist yet. An existing weight is overwritten.
func (g *Graph) AddLink(u, v string, weight int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.addNodeLocked(u)
	g.addNodeLocked(v)
	g.adj[u][v] = weight
	g.adj[v][u] = weight
}

// RemoveLink deletes the link u<->v from both directions. Removing an
// absent link is a no-op.
func (g *Graph) RemoveLink(u, v string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if links, exists := g.adj[u]; exists {
		delete(links, v)
	}
	if links, exists := g.adj[v]; exists {
		delete(links, u)
	}
}

// Neighbors returns a copy of u's adjacency row (neighbor -> weight).
// An unknown node yields an empty map.
func (g *Graph) Neighbors(u string) map[string]int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	result := make(map[string]int)
	for neighbor, weight := range g.adj[u] {
		result[neighbor] = weight
	}
	return result
}

// Nodes returns all node identifiers in lexicographic order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	nodes := make([]string, 0, len(g.adj))
	for node := range g.adj {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// LinkWeight reports the weight of the link u<->v, if present.
func (g *Graph) LinkWeight(u, v string) (int, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if links, exists := g.adj[u]; exists {
		if weight, exists := links[v]; exists {
			return weight, true
		}
	}
	return 0, false
}

func (g *Graph) NodeCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.adj)
}

// LinkCount returns the number of undirected links.
func (g *Graph) LinkCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	count := 0
	for _, links := range g.adj {
		count += len(links)
	}
	return count / 2
}

// Snapshot returns a deep copy of the adjacency for lock-free reading by
// the path engine. Mutations to the graph after the call do not show up in
// the returned Snapshot.
func (g *Graph) Snapshot() Snapshot {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	adj := make(map[string]map[string]int, len(g.adj))
	for node, links := range g.adj {
		row := make(map[string]int, len(links))
		for neighbor, weight := range links {
			row[neighbor] = weight
		}
		adj[node] = row
	}
	return Snapshot{Adj: adj}
}

// Snapshot is an immutable view of the topology at a point in time. The
// shortest-path engine and the renderer only ever see Snapshots, never the
// live Graph.
type Snapshot struct {
	Adj map[string]map[string]int
}

// Nodes returns the snapshot's node identifiers in lexicographic order.
func (s Snapshot) Nodes() []string {
	nodes := make([]string, 0, len(s.Adj))
	for node := range s.Adj {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// Neighbors returns the adjacency row of u. Callers must not mutate it.
func (s Snapshot) Neighbors(u string) map[string]int {
	return s.Adj[u]
}

// HasLink reports whether the snapshot contains the link u<->v.
func (s Snapshot) HasLink(u, v string) bool {
	if links, exists := s.Adj[u]; exists {
		_, exists = links[v]
		return exists
	}
	return false
}
