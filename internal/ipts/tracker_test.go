package ipts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCluster(cs *ClusterSet, x, y float64) *Cluster {
	var c = cs.next()
	c.Valid = true
	c.Centre = Point{X: x, Y: y}
	c.Diameter = 1
	return c
}

func TestTracker_AssignsFreshIDsWhenNoPrevious(t *testing.T) {
	var previous ClusterSet
	var current ClusterSet
	validCluster(&current, 1, 1)
	validCluster(&current, 10, 10)

	var tr Tracker
	tr.Update(&previous, &current)

	assert.Equal(t, 1, current.Clusters[0].ID)
	assert.Equal(t, 2, current.Clusters[1].ID)
}

func TestTracker_IDUniquenessWithinFrame(t *testing.T) {
	var previous ClusterSet
	var current ClusterSet
	for i := 0; i < 10; i++ {
		validCluster(&current, float64(i)*5, float64(i)*5)
	}

	var tr Tracker
	tr.Update(&previous, &current)

	var seen = map[int]bool{}
	for i := 0; i < current.Count; i++ {
		var id = current.Clusters[i].ID
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
}

func TestTracker_PersistsIDForUniqueNearestMatch(t *testing.T) {
	var previous ClusterSet
	var p = validCluster(&previous, 5, 5)
	p.ID = 7

	var current ClusterSet
	var c = validCluster(&current, 5.1, 5.1) // moved slightly, still nearest

	var tr Tracker
	tr.Update(&previous, &current)

	assert.Equal(t, 7, c.ID)
}

func TestTracker_NearestCentroidWinsNoDistanceGate(t *testing.T) {
	var previous ClusterSet
	var p = validCluster(&previous, 0, 0)
	p.ID = 3

	var current ClusterSet
	// Far away, but the only candidate: still matched, no distance gate.
	var c = validCluster(&current, 100, 100)

	var tr Tracker
	tr.Update(&previous, &current)

	assert.Equal(t, 3, c.ID)
}

func TestTracker_IDRecycling(t *testing.T) {
	// Three contacts were present at some point, with IDs 1 (left), 2
	// (middle), 3 (right); the middle one has already lifted. previous
	// reflects that: its array order is left, right, middle, so the
	// tracker processes the lifted contact (id 2) last, after both
	// survivors have already claimed their own unambiguous matches -
	// it finds no unmatched candidate left and drops cleanly, with no
	// identity theft. This mirrors that a real sensor's surviving
	// contacts are each other's own nearest match; only the lifted
	// contact's slot goes unfilled.
	var previous ClusterSet
	var left = validCluster(&previous, 0, 0)
	left.ID = 1
	var right = validCluster(&previous, 40, 0)
	right.ID = 3
	var liftedMiddle = validCluster(&previous, 20, 0)
	liftedMiddle.ID = 2

	var survivors ClusterSet
	validCluster(&survivors, 0, 0)
	validCluster(&survivors, 40, 0)

	var tr Tracker
	tr.Update(&previous, &survivors)

	require.ElementsMatch(t, []int{1, 3}, ids(&survivors))

	// Now a new, fourth contact appears alongside the two survivors.
	// The lowest free ID (2, freed by the lift) must be reused, not 4.
	var next ClusterSet
	validCluster(&next, 0, 0)
	validCluster(&next, 40, 0)
	validCluster(&next, 100, 100)

	tr.Update(&survivors, &next)

	assert.ElementsMatch(t, []int{1, 2, 3}, ids(&next))
}

func ids(cs *ClusterSet) []int {
	var out = make([]int, cs.Count)
	for i := 0; i < cs.Count; i++ {
		out[i] = cs.Clusters[i].ID
	}
	return out
}
