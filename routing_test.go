// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func allHighways(tags map[string]string) bool {
	_, ok := tags["highway"]
	return ok
}

func lineDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset(0)
	ds.Nodes.Add(1, 0, 0, nil)
	ds.Nodes.Add(2, 0.01, 0, nil)
	ds.Nodes.Add(3, 0.02, 0, nil)
	ds.Nodes.Add(4, 0.03, 0, nil)
	require.NoError(t, ds.advanceToWays())
	ds.Ways.Add(100, []int64{1, 2, 3, 4}, map[string]string{"highway": "residential", "name": "Main St"})
	require.NoError(t, ds.advanceToRelations())
	require.NoError(t, ds.Finish())
	ds.BuildSpatialIndexes()
	return ds
}

func TestBuildGraphBasicConnectivity(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})

	require.Equal(t, 4, g.NodeCount())
	for i := 0; i < 4; i++ {
		require.True(t, g.IsRoutable(i))
	}
	require.True(t, g.IsIntersection(1))
	require.True(t, g.IsIntersection(2))
	require.False(t, g.IsIntersection(0))
}

func TestBuildGraphOnewayOmitsReverseEdges(t *testing.T) {
	ds := NewDataset(0)
	ds.Nodes.Add(1, 0, 0, nil)
	ds.Nodes.Add(2, 0.01, 0, nil)
	require.NoError(t, ds.advanceToWays())
	ds.Ways.Add(100, []int64{1, 2}, map[string]string{"highway": "residential", "oneway": "yes"})
	require.NoError(t, ds.advanceToRelations())
	require.NoError(t, ds.Finish())

	g := BuildGraph(ds, allHighways, nil)

	from, to := g.edgeRange(0)
	require.Equal(t, 1, to-from)
	from, to = g.edgeRange(1)
	require.Equal(t, 0, to-from)
}

func TestGraphDijkstraFindsShortestPath(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})

	path, ok := g.Dijkstra(0, 3, MetricDistance)
	require.True(t, ok)
	require.Len(t, path, 4)
	require.Equal(t, 0, path[0].NodeIndex)
	require.Equal(t, 3, path[len(path)-1].NodeIndex)
	require.Greater(t, path[len(path)-1].Cost, 0.0)
}

func TestGraphAStarMatchesDijkstraCost(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})

	dPath, _ := g.Dijkstra(0, 3, MetricDistance)
	coordFn := func(ni int) orb.Point { return ds.Nodes.Coord(ni) }
	aPath, ok, err := g.AStar(0, 3, MetricDistance, coordFn)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, dPath[len(dPath)-1].Cost, aPath[len(aPath)-1].Cost, 1e-6)
}

func TestGraphAStarRequiresCoords(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, nil)

	_, _, err := g.AStar(0, 3, MetricDistance, nil)
	require.ErrorIs(t, err, ErrAStarRequiresCoords)
}

func TestGraphBidirectionalBFSFindsAPath(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, nil)

	path, ok := g.BidirectionalBFS(0, 3)
	require.True(t, ok)
	require.Equal(t, 0, path[0].NodeIndex)
	require.Equal(t, 3, path[len(path)-1].NodeIndex)
}

func TestFindNearestRoutable(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, nil)

	info, ok := FindNearestRoutable(ds, g, 0.0001, 0.0001, 5)
	require.True(t, ok)
	require.Equal(t, 0, info.NodeIndex)
}

func TestRouteStatsSumsEdges(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})

	path, ok := g.Dijkstra(0, 3, MetricDistance)
	require.True(t, ok)

	stats := RouteStats(g, path)
	require.InDelta(t, path[len(path)-1].Cost, stats.TotalDistance, 1e-6)
	require.Greater(t, stats.TotalTime, 0.0)
}

func TestRoutePathInfoMergesSameNamedSegments(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})

	path, ok := g.Dijkstra(0, 3, MetricDistance)
	require.True(t, ok)

	info := RoutePathInfo(g, path)
	require.Len(t, info.Segments, 1)
	require.Equal(t, "Main St", info.Segments[0].Name)
	require.Empty(t, info.TurnPoints)
}

func TestRouteCacheMemoizesDijkstra(t *testing.T) {
	ds := lineDataset(t)
	g := BuildGraph(ds, allHighways, map[string]float64{"residential": 30})
	rc := NewRouteCache(10)

	p1, ok := rc.Dijkstra(g, 0, 3, MetricDistance)
	require.True(t, ok)
	p2, ok := rc.Dijkstra(g, 0, 3, MetricDistance)
	require.True(t, ok)
	require.Equal(t, p1, p2)

	paths, _ := rc.Stats()
	require.Equal(t, int64(1), paths.Hits)
	require.Equal(t, int64(1), paths.Misses)
}
