package flowtable

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"

	"controller/routing"
	"controller/topology"
)

// OrderPolicy determines how the equal-cost next-hop set is ordered before the
// primary and backup hops are split off.
type OrderPolicy string

const (
	// OrderLexicographic sorts hops by node id. Deterministic: repeated
	// rebuilds over unchanged state produce identical tables.
	OrderLexicographic OrderPolicy = "lexicographic"
	// OrderShuffle randomizes the hop order on every rebuild, spreading
	// primary-hop selection across equal-cost links.
	OrderShuffle OrderPolicy = "shuffle"
)

// Synthesizer rebuilds complete flow tables from a topology snapshot and
// the current flow state. The per-switch shortest-path runs are independent
// and are fanned out on a goroutine pool when one is available.
type Synthesizer struct {
	order OrderPolicy
	pool  *ants.Pool
}

func NewSynthesizer(order OrderPolicy, pool *ants.Pool) *Synthesizer {
	if order != OrderShuffle {
		order = OrderLexicographic
	}
	return &Synthesizer{order: order, pool: pool}
}

// NewPool creates the goroutine pool used for concurrent table synthesis.
func NewPool(maxWorkers int) (*ants.Pool, error) {
	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		log.Errorf("Failed to create synthesis goroutine pool: %v", err)
		return nil, err
	}
	return pool, nil
}

// Build synthesizes the full table for every switch in the snapshot. It
// reads only its arguments and returns a fresh table; the caller decides
// when to publish it.
//
// All-pairs behavior comes from one independent single-source run per node;
// the runs read the same immutable snapshot and are fanned out on the pool.
func (s *Synthesizer) Build(snap topology.Snapshot, active []Flow, critical map[Flow]bool) Table {
	nodes := snap.Nodes()
	allDist := s.allDistances(snap, nodes)

	table := make(Table, len(nodes))
	for _, sw := range nodes {
		table[sw] = s.buildEntries(snap, sw, nodes, allDist, active, critical)
	}
	return table
}

// allDistances runs Dijkstra from every node, concurrently when a pool is
// available.
func (s *Synthesizer) allDistances(snap topology.Snapshot, nodes []string) map[string]routing.DistMap {
	dists := make([]routing.DistMap, len(nodes))

	if s.pool == nil {
		for i, node := range nodes {
			dists[i], _ = routing.ShortestPaths(snap, node)
		}
	} else {
		var wg sync.WaitGroup
		for i, node := range nodes {
			wg.Add(1)
			idx, name := i, node
			err := s.pool.Submit(func() {
				defer wg.Done()
				dists[idx], _ = routing.ShortestPaths(snap, name)
			})
			if err != nil {
				// Submit failed, compute inline so the table stays complete.
				log.Warnf("allDistances: pool submit failed for node %s: %v", name, err)
				dists[idx], _ = routing.ShortestPaths(snap, name)
				wg.Done()
			}
		}
		wg.Wait()
	}

	allDist := make(map[string]routing.DistMap, len(nodes))
	for i, node := range nodes {
		allDist[node] = dists[i]
	}
	return allDist
}

// buildEntries computes the forwarding entries of a single switch: one
// entry per reachable destination other than the switch itself.
func (s *Synthesizer) buildEntries(snap topology.Snapshot, sw string, nodes []string,
	allDist map[string]routing.DistMap, active []Flow, critical map[Flow]bool) []Entry {

	var entries []Entry
	for _, dst := range nodes {
		if dst == sw {
			continue
		}
		// Distances from dst double as distances to dst (links are
		// symmetric); they drive both reachability and the ECMP set.
		distToDst := allDist[dst]
		if _, reachable := distToDst.Dist(sw); !reachable {
			continue
		}
		hops := routing.EqualCostNextHops(snap, sw, dst, distToDst)
		s.arrange(hops)
		priority, backup := DecidePolicy(dst, active, critical, hops)
		entries = append(entries, Entry{
			MatchDst: dst,
			Action:   hops,
			Priority: priority,
			Backup:   backup,
		})
	}
	return entries
}

func (s *Synthesizer) arrange(hops []string) {
	switch s.order {
	case OrderShuffle:
		rand.Shuffle(len(hops), func(i, j int) {
			hops[i], hops[j] = hops[j], hops[i]
		})
	default:
		sort.Strings(hops)
	}
}
