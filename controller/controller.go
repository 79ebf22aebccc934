// Package controller coordinates every topology and flow-state mutation:
// each one updates the topology, rebuilds the complete flow table, and
// republishes it atomically. The table is a derived view and is never
// patched incrementally.
package controller

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"controller/flowtable"
	"controller/routing"
	"controller/topology"
)

type Controller struct {
	topo  *topology.Graph
	synth *flowtable.Synthesizer

	mu            sync.RWMutex
	activeFlows   []flowtable.Flow
	criticalFlows map[flowtable.Flow]bool
	table         flowtable.Table
}

// New builds a Controller over the given topology and installs the initial
// flow table. critical seeds the critical-flow set; the operator can extend
// it later through MarkCritical.
func New(topo *topology.Graph, synth *flowtable.Synthesizer, critical ...flowtable.Flow) *Controller {
	c := &Controller{
		topo:          topo,
		synth:         synth,
		criticalFlows: make(map[flowtable.Flow]bool),
	}
	for _, flow := range critical {
		c.criticalFlows[flow] = true
	}
	c.mu.Lock()
	c.installFlowsLocked()
	c.mu.Unlock()
	return c
}

// installFlowsLocked rebuilds the table from the current topology and flow
// state and publishes it. Callers must hold c.mu.
func (c *Controller) installFlowsLocked() {
	snap := c.topo.Snapshot()
	c.table = c.synth.Build(snap, c.activeFlows, c.criticalFlows)
	log.Infof("installFlows: rebuilt tables for %d switches (%d active flows, %d critical)",
		len(c.table), len(c.activeFlows), len(c.criticalFlows))
}

// AddNode adds a node and resynthesizes all tables.
func (c *Controller) AddNode(node string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topo.AddNode(node)
	c.installFlowsLocked()
}

// RemoveNode removes a node with all its links and resynthesizes all tables.
func (c *Controller) RemoveNode(node string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topo.RemoveNode(node)
	c.installFlowsLocked()
}

// AddLink adds or reweights the link u<->v and resynthesizes all tables.
func (c *Controller) AddLink(u, v string, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topo.AddLink(u, v, weight)
	c.installFlowsLocked()
}

// RemoveLinkAndReconfigure removes the link u<->v and resynthesizes all
// tables. This doubles as the simulated link-failure operation. Flows the
// removal disconnects simply lose their table entries at the affected
// switches; no failure is reported back.
func (c *Controller) RemoveLinkAndReconfigure(u, v string) {
	log.Infof("Removing link %s<->%s and reconfiguring", u, v)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topo.RemoveLink(u, v)
	c.installFlowsLocked()
}

// InjectFlow appends (src, dst) to the active flows and resynthesizes all
// tables. Duplicate flows are kept.
func (c *Controller) InjectFlow(src, dst string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeFlows = append(c.activeFlows, flowtable.Flow{Src: src, Dst: dst})
	c.installFlowsLocked()
}

// MarkCritical designates (src, dst) for guaranteed backup provisioning
// and resynthesizes all tables.
func (c *Controller) MarkCritical(src, dst string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criticalFlows[flowtable.Flow{Src: src, Dst: dst}] = true
	c.installFlowsLocked()
}

// ComputePath answers a path query directly from the topology, independent
// of the flow table. It returns nil when dst is unreachable from src.
func (c *Controller) ComputePath(src, dst string) []string {
	c.mu.RLock()
	snap := c.topo.Snapshot()
	c.mu.RUnlock()
	return routing.ComputePath(snap, src, dst)
}

// FlowTable returns a copy of the published table.
func (c *Controller) FlowTable() flowtable.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table := make(flowtable.Table, len(c.table))
	for sw, entries := range c.table {
		table[sw] = append([]flowtable.Entry(nil), entries...)
	}
	return table
}

// SwitchTable returns a copy of one switch's entries and whether the switch
// exists in the published table.
func (c *Controller) SwitchTable(sw string) ([]flowtable.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, exists := c.table[sw]
	if !exists {
		return nil, false
	}
	return append([]flowtable.Entry(nil), entries...), true
}

// ActiveFlows returns a copy of the active-flow list in injection order.
func (c *Controller) ActiveFlows() []flowtable.Flow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]flowtable.Flow(nil), c.activeFlows...)
}

// CriticalFlows returns a copy of the critical-flow set.
func (c *Controller) CriticalFlows() []flowtable.Flow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flows := make([]flowtable.Flow, 0, len(c.criticalFlows))
	for flow := range c.criticalFlows {
		flows = append(flows, flow)
	}
	return flows
}

// Snapshot exposes a topology snapshot for read-only collaborators such as
// the renderer and the inspection API.
func (c *Controller) Snapshot() topology.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topo.Snapshot()
}

// Nodes returns the current node set.
func (c *Controller) Nodes() []string {
	return c.topo.Nodes()
}

// Neighbors returns the (neighbor, weight) set of u.
func (c *Controller) Neighbors(u string) map[string]int {
	return c.topo.Neighbors(u)
}
