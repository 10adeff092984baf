// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "github.com/paulmach/orb"

// RouteStatistics folds distance and time over every edge of a path
// (spec §4.11.5).
type RouteStatistics struct {
	TotalDistance float64 // meters
	TotalTime     float64 // seconds
}

// edgeInfo looks up the edge from u to v among u's outgoing edges.
func (g *Graph) edgeInfo(u, v int) (distance, time float64, wayIndex int, ok bool) {
	from, to := g.edgeRange(u)
	for ei := from; ei < to; ei++ {
		if int(g.edgeTargets[ei]) == v {
			return g.edgeDistances[ei], g.edgeTimes[ei], int(g.edgeWayIndexes[ei]), true
		}
	}
	return 0, 0, 0, false
}

// RouteStats folds a path's per-edge distance and time into totals.
func RouteStats(g *Graph, path []PathSegment) RouteStatistics {
	var stats RouteStatistics
	for i := 1; i < len(path); i++ {
		d, t, _, ok := g.edgeInfo(path[i].PreviousNodeIndex, path[i].NodeIndex)
		if !ok {
			continue
		}
		stats.TotalDistance += d
		stats.TotalTime += t
	}
	return stats
}

// WaySegment is one run of consecutive path edges sharing the same
// (name, highway) pair (spec §4.11.5).
type WaySegment struct {
	WayIDs   []int64
	Name     string
	Highway  string
	Distance float64
	Time     float64
}

// RoutePathInfoResult is a path merged into WaySegment runs, with turn points
// at the coordinates where consecutive segments' (name, highway) pair changes.
type RoutePathInfoResult struct {
	Segments   []WaySegment
	TurnPoints []orb.Point
}

// RoutePathInfo implements spec §4.11.5's named-segment summary.
func RoutePathInfo(g *Graph, path []PathSegment) RoutePathInfoResult {
	var out RoutePathInfoResult
	curIdx := -1

	for i := 1; i < len(path); i++ {
		d, t, wi, ok := g.edgeInfo(path[i].PreviousNodeIndex, path[i].NodeIndex)
		if !ok {
			continue
		}
		tags := g.ds.Ways.Tags(wi)
		name, highway := tags["name"], tags["highway"]
		wayID := g.ds.Ways.Get(wi).ID

		if curIdx >= 0 && out.Segments[curIdx].Name == name && out.Segments[curIdx].Highway == highway {
			seg := &out.Segments[curIdx]
			seg.Distance += d
			seg.Time += t
			if n := len(seg.WayIDs); n == 0 || seg.WayIDs[n-1] != wayID {
				seg.WayIDs = append(seg.WayIDs, wayID)
			}
			continue
		}

		if curIdx >= 0 {
			out.TurnPoints = append(out.TurnPoints, g.ds.Nodes.Coord(path[i-1].NodeIndex))
		}
		out.Segments = append(out.Segments, WaySegment{WayIDs: []int64{wayID}, Name: name, Highway: highway, Distance: d, Time: t})
		curIdx = len(out.Segments) - 1
	}
	return out
}
