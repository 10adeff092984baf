// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func simpleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset(0)
	ds.Nodes.Add(1, 0, 0, nil)
	ds.Nodes.Add(2, 1, 0, nil)
	require.NoError(t, ds.advanceToWays())
	ds.Ways.Add(10, []int64{1, 2}, map[string]string{"highway": "residential"})
	require.NoError(t, ds.advanceToRelations())
	require.NoError(t, ds.Finish())
	ds.BuildSpatialIndexes()
	return ds
}

func TestGenerateDirectChangesCreateModifyOmit(t *testing.T) {
	base := simpleDataset(t)

	patch := NewDataset(0)
	patch.Nodes.Add(1, 0, 0, nil) // unchanged
	patch.Nodes.Add(2, 1, 0, map[string]string{"amenity": "bench"}) // modified
	patch.Nodes.Add(3, 2, 2, nil)                                   // new
	require.NoError(t, patch.advanceToWays())
	patch.Ways.Add(10, []int64{1, 2}, map[string]string{"highway": "residential"}) // unchanged
	require.NoError(t, patch.advanceToRelations())
	require.NoError(t, patch.Finish())

	cs := GenerateDirectChanges(base, patch)

	require.NotContains(t, cs.Nodes, int64(1))
	require.Contains(t, cs.Nodes, int64(2))
	require.Equal(t, ChangeModify, cs.Nodes[2].Kind)
	require.Contains(t, cs.Nodes, int64(3))
	require.Equal(t, ChangeCreate, cs.Nodes[3].Kind)
	require.NotContains(t, cs.Ways, int64(10))
}

func TestWaysShouldConnect(t *testing.T) {
	require.True(t, waysShouldConnect(map[string]string{"highway": "residential"}, map[string]string{"highway": "primary"}))
	require.True(t, waysShouldConnect(map[string]string{"highway": "residential"}, map[string]string{"highway": "footway"}))
	require.False(t, waysShouldConnect(map[string]string{"highway": "residential"}, map[string]string{"building": "yes"}))
	require.False(t, waysShouldConnect(map[string]string{"highway": "residential", "bridge": "yes"}, map[string]string{"highway": "primary"}))
	require.False(t, waysShouldConnect(
		map[string]string{"highway": "residential", "layer": "1"},
		map[string]string{"highway": "primary", "layer": "-1"},
	))
}

func TestDeduplicateNodesMergesCoincidentNode(t *testing.T) {
	base := simpleDataset(t)

	patch := NewDataset(0)
	patch.Nodes.Add(50, 0, 0, nil) // coincident with base node 1
	require.NoError(t, patch.Finish())

	cs := NewChangeset()
	stats := &MergeStats{}
	DeduplicateNodes(base, patch, cs, stats)

	require.Equal(t, 1, stats.DeduplicatedNodes)
	require.Contains(t, cs.Nodes, int64(1))
	require.Equal(t, ChangeDelete, cs.Nodes[1].Kind)
	require.Contains(t, cs.Ways, int64(10))
	require.Equal(t, []int64{50, 2}, cs.Ways[10].Way.Refs)
}

func TestApplyChangesProducesIndependentDataset(t *testing.T) {
	base := simpleDataset(t)

	cs := NewChangeset()
	cs.Nodes[3] = NodeChange{Kind: ChangeCreate, Node: Node{ID: 3, Lon: 5, Lat: 5}}
	cs.Nodes[1] = NodeChange{Kind: ChangeModify, Node: Node{ID: 1, Lon: 0, Lat: 0, Tags: map[string]string{"amenity": "cafe"}}}

	out, err := ApplyChanges(base, cs)
	require.NoError(t, err)

	require.Equal(t, 2, base.Nodes.Len()) // base untouched
	require.Equal(t, 3, out.Nodes.Len())

	i := out.Nodes.IndexOf(1)
	require.Equal(t, "cafe", out.Nodes.Get(i).Tags["amenity"])
}

func TestApplyChangesConflictingCreate(t *testing.T) {
	base := simpleDataset(t)

	cs := NewChangeset()
	cs.Nodes[1] = NodeChange{Kind: ChangeCreate, Node: Node{ID: 1, Lon: 9, Lat: 9}}

	_, err := ApplyChanges(base, cs)
	require.Error(t, err)
	var conflict *ConflictingCreateError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateIntersectionsSynthesizesCrossingNode(t *testing.T) {
	base := NewDataset(0)
	base.Nodes.Add(1, 0, 1, nil)
	base.Nodes.Add(2, 2, 1, nil)
	require.NoError(t, base.advanceToWays())
	base.Ways.Add(10, []int64{1, 2}, map[string]string{"highway": "primary"})
	require.NoError(t, base.advanceToRelations())
	require.NoError(t, base.Finish())
	base.BuildSpatialIndexes()

	patch := NewDataset(0)
	patch.Nodes.Add(100, 1, 0, nil)
	patch.Nodes.Add(101, 1, 2, nil)
	require.NoError(t, patch.advanceToWays())
	patch.Ways.Add(200, []int64{100, 101}, map[string]string{"highway": "residential"})
	require.NoError(t, patch.advanceToRelations())
	require.NoError(t, patch.Finish())

	cs := NewChangeset()
	stats := &MergeStats{}
	CreateIntersections(base, patch, cs, stats)

	require.Equal(t, 1, stats.IntersectionPointsFound)
	require.Contains(t, cs.Ways, int64(10))
	require.Contains(t, cs.Ways, int64(200))

	var crossingID int64
	for id, nc := range cs.Nodes {
		require.Equal(t, "yes", nc.Node.Tags["crossing"])
		crossingID = id
	}
	require.Contains(t, cs.Ways[10].Way.Refs, crossingID)
	require.Contains(t, cs.Ways[200].Way.Refs, crossingID)
}

func TestApplyChangesStaleModify(t *testing.T) {
	base := simpleDataset(t)

	cs := NewChangeset()
	cs.Nodes[999] = NodeChange{Kind: ChangeModify, Node: Node{ID: 999, Lon: 1, Lat: 1}}

	_, err := ApplyChanges(base, cs)
	require.Error(t, err)
	var stale *StaleChangeError
	require.ErrorAs(t, err, &stale)
}
