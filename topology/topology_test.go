package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLinkIsSymmetric(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 3)

	assert.Equal(t, map[string]int{"S2": 3}, g.Neighbors("S1"))
	assert.Equal(t, map[string]int{"S1": 3}, g.Neighbors("S2"))

	weight, exists := g.LinkWeight("S2", "S1")
	require.True(t, exists)
	assert.Equal(t, 3, weight)
}

func TestAddLinkOverwritesWeight(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 3)
	g.AddLink("S2", "S1", 7)

	weight, _ := g.LinkWeight("S1", "S2")
	assert.Equal(t, 7, weight)
	weight, _ = g.LinkWeight("S2", "S1")
	assert.Equal(t, 7, weight)
	assert.Equal(t, 1, g.LinkCount())
}

func TestAddNodeIdempotent(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)
	g.AddNode("S1")

	// Re-adding an endpoint must not clear its links.
	assert.Equal(t, map[string]int{"S2": 1}, g.Neighbors("S1"))
	assert.Equal(t, []string{"S1", "S2"}, g.Nodes())
}

func TestRemoveNodeCleansReverseLinks(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)
	g.AddLink("S2", "S3", 1)
	g.AddLink("S1", "S3", 1)

	g.RemoveNode("S2")

	assert.NotContains(t, g.Nodes(), "S2")
	for _, node := range g.Nodes() {
		assert.NotContains(t, g.Neighbors(node), "S2")
	}
	assert.Equal(t, 1, g.LinkCount())
}

func TestRemovalsOfAbsentAreNoops(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)

	g.RemoveNode("S9")
	g.RemoveLink("S1", "S9")
	g.RemoveLink("S8", "S9")

	assert.Equal(t, []string{"S1", "S2"}, g.Nodes())
	assert.Equal(t, 1, g.LinkCount())
}

func TestRemoveLinkKeepsNodes(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)
	g.RemoveLink("S1", "S2")

	assert.Equal(t, []string{"S1", "S2"}, g.Nodes())
	assert.Empty(t, g.Neighbors("S1"))
	assert.Empty(t, g.Neighbors("S2"))
}

func TestNeighborsOfUnknownNode(t *testing.T) {
	g := NewGraph()
	assert.Empty(t, g.Neighbors("S1"))
}

func TestSnapshotIsIsolatedFromMutations(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)
	snap := g.Snapshot()

	g.AddLink("S1", "S3", 2)
	g.RemoveLink("S1", "S2")

	assert.True(t, snap.HasLink("S1", "S2"))
	assert.False(t, snap.HasLink("S1", "S3"))
	assert.Equal(t, []string{"S1", "S2"}, snap.Nodes())
}

func TestCounts(t *testing.T) {
	g := NewGraph()
	g.AddLink("S1", "S2", 1)
	g.AddLink("S2", "S3", 1)
	g.AddNode("H1")

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 2, g.LinkCount())
}
