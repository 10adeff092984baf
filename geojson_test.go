// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestWayFeatureChoosesLineStringForOpenWay(t *testing.T) {
	st := NewStringTable()
	nodes := NewNodeIndex(st, 0)
	nodes.Add(1, 0, 0, nil)
	nodes.Add(2, 1, 0, nil)
	nodes.Add(3, 1, 1, nil)
	nodes.Finish()

	ways := NewWayIndex(st, 0)
	ways.Add(100, []int64{1, 2, 3}, map[string]string{"highway": "residential"})
	require.NoError(t, ways.Finish(nodes))

	ds := &Dataset{Strings: st, Nodes: nodes, Ways: ways, Relations: NewRelationIndex(st, 0)}

	f := WayFeature(ds, 0)
	_, isLine := f.Geometry.(orb.LineString)
	require.True(t, isLine)
	require.Equal(t, int64(100), f.Properties["id"])
	require.Equal(t, "residential", f.Properties["highway"])
}

func TestWayFeatureChoosesPolygonForClosedArea(t *testing.T) {
	st := NewStringTable()
	nodes := NewNodeIndex(st, 0)
	nodes.Add(1, 0, 0, nil)
	nodes.Add(2, 1, 0, nil)
	nodes.Add(3, 1, 1, nil)
	nodes.Add(4, 0, 0, nil)
	nodes.Finish()

	ways := NewWayIndex(st, 0)
	ways.Add(200, []int64{1, 2, 3, 1}, map[string]string{"building": "yes"})
	require.NoError(t, ways.Finish(nodes))

	ds := &Dataset{Strings: st, Nodes: nodes, Ways: ways, Relations: NewRelationIndex(st, 0)}

	f := WayFeature(ds, 0)
	_, isPoly := f.Geometry.(orb.Polygon)
	require.True(t, isPoly)
}

func TestNodeFeatureProperties(t *testing.T) {
	st := NewStringTable()
	nodes := NewNodeIndex(st, 0)
	nodes.Add(1, 7.0, 45.0, map[string]string{"amenity": "cafe"})
	nodes.Finish()

	ds := &Dataset{Strings: st, Nodes: nodes, Ways: NewWayIndex(st, 0), Relations: NewRelationIndex(st, 0)}

	f := NodeFeature(ds, 0)
	pt, ok := f.Geometry.(orb.Point)
	require.True(t, ok)
	require.InDelta(t, 7.0, pt[0], 1e-9)
	require.Equal(t, "cafe", f.Properties["amenity"])
}
