package routing

import (
	"container/heap"

	"controller/topology"
)

// DistMap holds single-source shortest distances. A node missing from the
// map is unreachable from the source.
type DistMap map[string]int

// Dist reports the shortest distance to node and whether node is reachable.
func (d DistMap) Dist(node string) (int, bool) {
	dist, ok := d[node]
	return dist, ok
}

// PrevMap holds one predecessor per reached node on some shortest path from
// the source. The source itself has no entry. Ties between equal-cost paths
// are broken by traversal order; use EqualCostNextHops for the full set.
type PrevMap map[string]string

type queueItem struct {
	node string
	dist int
}

type distQueue []queueItem

func (q distQueue) Len() int            { return len(q) }
func (q distQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q distQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *distQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// ShortestPaths runs Dijkstra from src over the snapshot and returns the
// distance and predecessor maps. An unknown src yields empty maps.
func ShortestPaths(snap topology.Snapshot, src string) (DistMap, PrevMap) {
	dist := make(DistMap)
	prev := make(PrevMap)

	if _, exists := snap.Adj[src]; !exists {
		return dist, prev
	}

	dist[src] = 0
	pq := &distQueue{{node: src, dist: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if item.dist > dist[item.node] {
			continue // stale queue entry
		}
		for neighbor, weight := range snap.Neighbors(item.node) {
			candidate := item.dist + weight
			if known, reached := dist[neighbor]; !reached || candidate < known {
				dist[neighbor] = candidate
				prev[neighbor] = item.node
				heap.Push(pq, queueItem{node: neighbor, dist: candidate})
			}
		}
	}
	return dist, prev
}

// EqualCostNextHops returns every neighbor of sw that begins some shortest
// path from sw to dst: the neighbors through which the remaining distance
// to dst is exactly one link shorter. dist must hold distances computed
// with dst as the source; links are symmetric, so they double as distances
// to dst. The result order is unspecified; callers that need a stable order
// must sort.
func EqualCostNextHops(snap topology.Snapshot, sw, dst string, dist DistMap) []string {
	total, reachable := dist.Dist(sw)
	if !reachable {
		return nil
	}
	var hops []string
	for neighbor, weight := range snap.Neighbors(sw) {
		if remaining, reached := dist.Dist(neighbor); reached && remaining+weight == total {
			hops = append(hops, neighbor)
		}
	}
	return hops
}

// ComputePath reconstructs one shortest path from src to dst by walking the
// predecessor chain. It returns nil when dst is unreachable from src. When
// several equal-cost paths exist, exactly one of them is returned.
func ComputePath(snap topology.Snapshot, src, dst string) []string {
	dist, prev := ShortestPaths(snap, src)
	if _, reachable := dist.Dist(dst); !reachable {
		return nil
	}
	path := []string{dst}
	for current := dst; current != src; {
		current = prev[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
