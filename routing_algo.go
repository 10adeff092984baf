// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "github.com/paulmach/orb"

// Metric selects which edge weight a routing query optimizes for
// (spec §4.11.3).
type Metric uint8

const (
	MetricDistance Metric = iota
	MetricTime
)

// maxRoutingSpeedMS is the A* admissibility bound in meters/second.
const maxRoutingSpeedMS = maxRoutingSpeedKMH * 1000 / 3600

// PathSegment is one step of a returned route: the node reached, the way
// used to reach it (absent for the start segment), the previous node, and
// the cumulative cost in the query's chosen metric (spec §4.11.3).
type PathSegment struct {
	NodeIndex         int
	WayIndex          int // -1 if this is the start segment
	PreviousNodeIndex int // -1 if this is the start segment
	Cost              float64
}

// CoordFunc resolves a node local index to a coordinate, used by A*'s
// heuristic. AStar rejects a nil CoordFunc with ErrAStarRequiresCoords.
type CoordFunc func(nodeIndex int) orb.Point

func (g *Graph) weight(edgeIndex int, metric Metric) float64 {
	if metric == MetricTime {
		return g.edgeTimes[edgeIndex]
	}
	return g.edgeDistances[edgeIndex]
}

// Dijkstra finds the least-cost path from start to end under metric,
// settling each node at most once (spec §4.11.3).
func (g *Graph) Dijkstra(start, end int, metric Metric) ([]PathSegment, bool) {
	return g.search(start, end, metric, nil)
}

// AStar finds the least-cost path from start to end under metric, guided by
// the haversine-derived heuristic coordFn makes available. Returns
// ErrAStarRequiresCoords if coordFn is nil (spec §4.11.3).
func (g *Graph) AStar(start, end int, metric Metric, coordFn CoordFunc) ([]PathSegment, bool, error) {
	if coordFn == nil {
		return nil, false, ErrAStarRequiresCoords
	}
	path, ok := g.search(start, end, metric, coordFn)
	return path, ok, nil
}

// search implements both Dijkstra (coordFn==nil) and A* (coordFn!=nil)
// with a single min-heap loop, since A* is Dijkstra with a nonzero priority
// offset.
func (g *Graph) search(start, end int, metric Metric, coordFn CoordFunc) ([]PathSegment, bool) {
	dist := float64Pool.Get(g.nodeCount)
	prevNode := int32Pool.Get(g.nodeCount)
	prevEdge := int32Pool.Get(g.nodeCount)
	visited := boolPool.Get(g.nodeCount)
	defer float64Pool.Put(dist)
	defer int32Pool.Put(prevNode)
	defer int32Pool.Put(prevEdge)
	defer boolPool.Put(visited)

	for len(dist) < g.nodeCount {
		dist = append(dist, inf)
		prevNode = append(prevNode, -1)
		prevEdge = append(prevEdge, -1)
		visited = append(visited, false)
	}

	heuristic := func(n int) float64 {
		if coordFn == nil {
			return 0
		}
		h := Haversine(coordFn(n), coordFn(end))
		if metric == MetricTime {
			return h / maxRoutingSpeedMS
		}
		return h
	}

	h := newNodeHeap(64)
	dist[start] = 0
	h.push(start, heuristic(start))

	for !h.empty() {
		u, _ := h.pop()
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == end {
			break
		}

		from, to := g.edgeRange(u)
		for ei := from; ei < to; ei++ {
			v := int(g.edgeTargets[ei])
			if visited[v] {
				continue
			}
			nd := dist[u] + g.weight(ei, metric)
			if nd < dist[v] {
				dist[v] = nd
				prevNode[v] = int32(u)
				prevEdge[v] = int32(ei)
				h.push(v, nd+heuristic(v))
			}
		}
	}

	if dist[end] == inf {
		return nil, false
	}
	return g.reconstructPath(start, end, dist, prevNode, prevEdge), true
}

func (g *Graph) reconstructPath(start, end int, dist []float64, prevNode, prevEdge []int32) []PathSegment {
	var rev []PathSegment
	for n := end; ; {
		pe := -1
		if int(prevEdge[n]) >= 0 {
			pe = int(g.edgeWayIndexes[prevEdge[n]])
		}
		pn := -1
		if n != start {
			pn = int(prevNode[n])
		}
		rev = append(rev, PathSegment{NodeIndex: n, WayIndex: pe, PreviousNodeIndex: pn, Cost: dist[n]})
		if n == start {
			break
		}
		n = int(prevNode[n])
	}
	path := make([]PathSegment, len(rev))
	for i, seg := range rev {
		path[len(rev)-1-i] = seg
	}
	return path
}

const inf = 1<<63 - 1

// BidirectionalBFS alternates FIFO expansions from start and end until a
// node is reached from both sides, returning *a* path (not guaranteed
// optimal) in hop count rather than weighted cost (spec §4.11.3).
func (g *Graph) BidirectionalBFS(start, end int) ([]PathSegment, bool) {
	if start == end {
		return []PathSegment{{NodeIndex: start, WayIndex: -1, PreviousNodeIndex: -1, Cost: 0}}, true
	}

	fwdPrevNode := map[int]int{start: -1}
	fwdPrevEdge := map[int]int{start: -1}
	bwdPrevNode := map[int]int{end: -1}
	bwdPrevEdge := map[int]int{end: -1}
	fwdFrontier := []int{start}
	bwdFrontier := []int{end}

	meet := -1
	for len(fwdFrontier) > 0 && len(bwdFrontier) > 0 && meet < 0 {
		var next []int
		for _, u := range fwdFrontier {
			from, to := g.edgeRange(u)
			for ei := from; ei < to; ei++ {
				v := int(g.edgeTargets[ei])
				if _, seen := fwdPrevNode[v]; seen {
					continue
				}
				fwdPrevNode[v] = u
				fwdPrevEdge[v] = ei
				next = append(next, v)
				if _, ok := bwdPrevNode[v]; ok {
					meet = v
				}
			}
		}
		fwdFrontier = next
		if meet >= 0 {
			break
		}

		var bnext []int
		for _, u := range bwdFrontier {
			for ei := 0; ei < len(g.edgeTargets); ei++ {
				if int(g.edgeTargets[ei]) != u {
					continue
				}
				w := predecessorOf(g, ei)
				if _, seen := bwdPrevNode[w]; seen {
					continue
				}
				bwdPrevNode[w] = u
				bwdPrevEdge[w] = ei
				bnext = append(bnext, w)
				if _, ok := fwdPrevNode[w]; ok {
					meet = w
				}
			}
		}
		bwdFrontier = bnext
	}

	if meet < 0 {
		return nil, false
	}

	var fwdPath []PathSegment
	for n := meet; n != -1; {
		wi := -1
		if e, ok := fwdPrevEdge[n]; ok && e >= 0 {
			wi = int(g.edgeWayIndexes[e])
		}
		pn := fwdPrevNode[n]
		fwdPath = append([]PathSegment{{NodeIndex: n, WayIndex: wi, PreviousNodeIndex: pn}}, fwdPath...)
		n = pn
	}
	for n := meet; ; {
		pn, ok := bwdPrevNode[n]
		if !ok || pn == -1 {
			break
		}
		e := bwdPrevEdge[n]
		fwdPath = append(fwdPath, PathSegment{NodeIndex: pn, WayIndex: int(g.edgeWayIndexes[e]), PreviousNodeIndex: n})
		n = pn
	}

	cost := 0.0
	for i := range fwdPath {
		if i > 0 {
			cost++
		}
		fwdPath[i].Cost = cost
	}
	return fwdPath, true
}

// predecessorOf binary-searches edgeOffsets to find the source node of edge ei; used
// only by the backward frontier of BidirectionalBFS, which has no reverse
// adjacency index.
func predecessorOf(g *Graph, ei int) int {
	lo, hi := 0, g.nodeCount
	for lo < hi {
		mid := (lo + hi) / 2
		if int(g.edgeOffsets[mid+1]) <= ei {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
