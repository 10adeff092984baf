// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "sort"

// KDTree is the static 2D spatial index over node (lon, lat) coordinates
// described in spec §3.4: built once by NodeIndex.BuildSpatialIndex after
// Finish(), immutable thereafter,
// supporting bbox range queries and radius queries. Node index == the
// original node's local index; the tree stores a permutation of those
// indices, never copies of the coordinates themselves (it borrows the
// NodeIndex's own lon/lat columns).
//
// The tree is laid out as an implicit complete binary tree in a single
// array (the same trick a binary heap uses to avoid pointer-chasing
// nodes), alternating the split axis (lon, then lat, ...) by depth —
// generalized from the grid-cell partitioning in the teacher's
// spatial_index.go into a proper balanced binary spatial index.
type KDTree struct {
	order []int32 // order[pos] = node local index at array position pos
	lon   []float64
	lat   []float64
}

// BuildKDTree builds a static KD-tree over the given coordinate columns.
// lon and lat must be the same length and are borrowed, not copied; they
// must outlive the tree.
func BuildKDTree(lon, lat []float64) *KDTree {
	n := len(lon)
	idx := make([]int32, n)
	for i := range idx {
		idx[i] = int32(i)
	}
	t := &KDTree{order: make([]int32, n), lon: lon, lat: lat}
	t.build(idx, 0, 0)
	return t
}

// build recursively selects the median of idx along axis and places it at
// array position pos, then recurses into the left/right partitions at
// their own computed positions.
func (t *KDTree) build(idx []int32, pos int, axis int) {
	n := len(idx)
	if n == 0 {
		return
	}
	leftSize := completeTreeLeftSize(n)
	mid := leftSize

	if axis == 0 {
		sort.Slice(idx, func(i, j int) bool { return t.lon[idx[i]] < t.lon[idx[j]] })
	} else {
		sort.Slice(idx, func(i, j int) bool { return t.lat[idx[i]] < t.lat[idx[j]] })
	}

	t.order[pos] = idx[mid]
	t.build(idx[:mid], 2*pos+1, 1-axis)
	t.build(idx[mid+1:], 2*pos+2, 1-axis)
}

// completeTreeLeftSize returns how many of the n elements belong in the
// left subtree of a complete binary tree holding n nodes (root excluded),
// so that storing nodes via the standard heap-array indexing (children of
// pos at 2*pos+1, 2*pos+2) yields a balanced, dense array layout for any n.
func completeTreeLeftSize(n int) int {
	n--
	if n <= 0 {
		return 0
	}
	h := 0
	for (1 << (h + 1)) - 1 <= n {
		h++
	}
	// h = depth of the last level of the complete tree holding all n+1
	// nodes (root at depth 0); fullAbove counts the nodes above that level.
	fullAbove := (1 << h) - 1
	lastLevel := n + 1 - fullAbove
	maxLastLevel := 1 << h
	leftLastLevel := lastLevel
	if leftLastLevel > maxLastLevel/2 {
		leftLastLevel = maxLastLevel / 2
	}
	return (1<<(h-1) - 1) + leftLastLevel
}

// Range returns the local indexes of every node whose (lon, lat) falls
// within [minLon,maxLon] x [minLat,maxLat], inclusive.
func (t *KDTree) Range(minLon, minLat, maxLon, maxLat float64) []int {
	var out []int
	t.rangeNode(0, 0, minLon, minLat, maxLon, maxLat, &out)
	return out
}

func (t *KDTree) rangeNode(pos, axis int, minLon, minLat, maxLon, maxLat float64, out *[]int) {
	if pos >= len(t.order) {
		return
	}
	i := t.order[pos]
	lon, lat := t.lon[i], t.lat[i]
	if lon >= minLon && lon <= maxLon && lat >= minLat && lat <= maxLat {
		*out = append(*out, int(i))
	}

	left, right := 2*pos+1, 2*pos+2
	var v, lo, hi float64
	if axis == 0 {
		v, lo, hi = lon, minLon, maxLon
	} else {
		v, lo, hi = lat, minLat, maxLat
	}
	if v >= lo {
		t.rangeNode(left, 1-axis, minLon, minLat, maxLon, maxLat, out)
	}
	if v <= hi {
		t.rangeNode(right, 1-axis, minLon, minLat, maxLon, maxLat, out)
	}
}

// Within returns the local indexes of every node within planar radius r of
// (x, y) (spec §9: radius units are documented here as the same unit as the
// stored coordinates — degrees — not meters; callers wanting a metric
// radius should over-select with Within and post-filter with Haversine).
func (t *KDTree) Within(x, y, r float64) []int {
	var out []int
	r2 := r * r
	t.withinNode(0, 0, x, y, r, r2, &out)
	return out
}

func (t *KDTree) withinNode(pos, axis int, x, y, r, r2 float64, out *[]int) {
	if pos >= len(t.order) {
		return
	}
	i := t.order[pos]
	dx := t.lon[i] - x
	dy := t.lat[i] - y
	if dx*dx+dy*dy <= r2 {
		*out = append(*out, int(i))
	}

	var v, c float64
	if axis == 0 {
		v, c = t.lon[i], x
	} else {
		v, c = t.lat[i], y
	}
	left, right := 2*pos+1, 2*pos+2
	if c-r <= v {
		t.withinNode(left, 1-axis, x, y, r, r2, out)
	}
	if c+r >= v {
		t.withinNode(right, 1-axis, x, y, r, r2, out)
	}
}
