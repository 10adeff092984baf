// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

const defaultRTreeNodeSize = 16

// rtreeNode is one entry of one level of the packed R-tree. Leaf nodes
// (level 0) carry ItemIndex, the original way's local index; internal
// nodes carry [childStart, childEnd) into the level below.
type rtreeNode struct {
	bound                orb.Bound
	itemIndex            int
	childStart, childEnd int
}

// RTree is a static, bulk-loaded, packed Hilbert-curve R-tree over way
// bounding boxes (C6, spec §3.4), modeled on Flatbush: items are sorted by
// the Hilbert value of their bbox center, then packed bottom-up into
// fixed-size node groups, each level's bounding boxes computed once. Built
// once by WayIndex.BuildSpatialIndex after Finish() and never mutated
// afterward — generalized from the
// teacher's dynamic quadratic-split RTreeSpatialIndex (spatial_index.go)
// into a static bulk build, since the spec's way index is never mutated
// after finalization.
type RTree struct {
	nodeSize int
	levels   [][]rtreeNode // levels[0] = leaves; levels[len-1] = single root
}

// BuildRTree bulk-loads an R-tree over boxes, where boxes[i] is the bbox of
// item i (the caller's way local index).
func BuildRTree(boxes []orb.Bound, nodeSize int) *RTree {
	if nodeSize <= 0 {
		nodeSize = defaultRTreeNodeSize
	}
	n := len(boxes)
	if n == 0 {
		return &RTree{nodeSize: nodeSize}
	}

	total := boxes[0]
	for _, b := range boxes[1:] {
		total = total.Union(b)
	}

	order := make([]int, n)
	hv := make([]uint32, n)
	for i, b := range boxes {
		order[i] = i
		cx := (b.Min[0] + b.Max[0]) / 2
		cy := (b.Min[1] + b.Max[1]) / 2
		hv[i] = hilbertXY(total, cx, cy)
	}
	sort.Slice(order, func(i, j int) bool { return hv[order[i]] < hv[order[j]] })

	leaves := make([]rtreeNode, n)
	for pos, orig := range order {
		leaves[pos] = rtreeNode{bound: boxes[orig], itemIndex: orig}
	}

	levels := [][]rtreeNode{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([]rtreeNode, 0, (len(cur)+nodeSize-1)/nodeSize)
		for i := 0; i < len(cur); i += nodeSize {
			end := i + nodeSize
			if end > len(cur) {
				end = len(cur)
			}
			b := cur[i].bound
			for _, c := range cur[i+1 : end] {
				b = b.Union(c.bound)
			}
			next = append(next, rtreeNode{bound: b, childStart: i, childEnd: end})
		}
		levels = append(levels, next)
		cur = next
	}
	return &RTree{nodeSize: nodeSize, levels: levels}
}

// Intersects returns the item indexes of every way whose bbox intersects q.
func (r *RTree) Intersects(q orb.Bound) []int {
	if len(r.levels) == 0 {
		return nil
	}
	var out []int
	top := len(r.levels) - 1
	var visit func(level, pos int)
	visit = func(level, pos int) {
		node := r.levels[level][pos]
		if !node.bound.Intersects(q) {
			return
		}
		if level == 0 {
			out = append(out, node.itemIndex)
			return
		}
		for c := node.childStart; c < node.childEnd; c++ {
			visit(level-1, c)
		}
	}
	for pos := range r.levels[top] {
		visit(top, pos)
	}
	return out
}

// neighborCandidate pairs an item with its bbox distance to the query
// point, used by Neighbors' final top-k selection.
type neighborCandidate struct {
	item int
	dist float64
}

// Neighbors returns up to k item indexes whose bbox lies within maxDist of
// (x, y), nearest first (spec §3.4 Ways.neighbors).
func (r *RTree) Neighbors(x, y float64, k int, maxDist float64) []int {
	if len(r.levels) == 0 || k <= 0 {
		return nil
	}
	var candidates []neighborCandidate
	top := len(r.levels) - 1
	var visit func(level, pos int)
	visit = func(level, pos int) {
		node := r.levels[level][pos]
		d := boundDistance(node.bound, x, y)
		if d > maxDist {
			return
		}
		if level == 0 {
			candidates = append(candidates, neighborCandidate{item: node.itemIndex, dist: d})
			return
		}
		for c := node.childStart; c < node.childEnd; c++ {
			visit(level-1, c)
		}
	}
	for pos := range r.levels[top] {
		visit(top, pos)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}

// boundDistance returns the planar distance from (x, y) to the nearest
// point of b, 0 if (x, y) is inside b.
func boundDistance(b orb.Bound, x, y float64) float64 {
	dx := 0.0
	if x < b.Min[0] {
		dx = b.Min[0] - x
	} else if x > b.Max[0] {
		dx = x - b.Max[0]
	}
	dy := 0.0
	if y < b.Min[1] {
		dy = b.Min[1] - y
	} else if y > b.Max[1] {
		dy = y - b.Max[1]
	}
	return math.Sqrt(dx*dx + dy*dy)
}

// hilbertXY maps (x, y) within total's extent onto a 16-bit Hilbert curve
// index, the same scheme Flatbush uses to linearize 2D boxes for packing.
func hilbertXY(total orb.Bound, x, y float64) uint32 {
	const bits = 16
	const size = (1 << bits) - 1

	width := total.Max[0] - total.Min[0]
	height := total.Max[1] - total.Min[1]

	var hx, hy uint32
	if width > 0 {
		hx = uint32(size * (x - total.Min[0]) / width)
	}
	if height > 0 {
		hy = uint32(size * (y - total.Min[1]) / height)
	}
	return hilbertD(bits, hx, hy)
}

// hilbertD converts (x, y) grid coordinates (each < 2^bits) to their
// distance along the Hilbert curve, the standard xy2d algorithm.
func hilbertD(bits int, x, y uint32) uint32 {
	var rx, ry, d uint32
	for s := uint32(1) << (uint(bits) - 1); s > 0; s >>= 1 {
		if x&s > 0 {
			rx = 1
		} else {
			rx = 0
		}
		if y&s > 0 {
			ry = 1
		} else {
			ry = 0
		}
		d += s * s * ((3 * rx) ^ ry)

		if ry == 0 {
			if rx == 1 {
				x = s - 1 - x
				y = s - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}
