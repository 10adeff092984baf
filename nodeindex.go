// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "github.com/paulmach/orb"

// Node is the materialized view of one entity row returned by NodeIndex.Get
// and the dataset façade's tagged-union accessor (spec §4.9).
type Node struct {
	ID   int64
	Lon  float64
	Lat  float64
	Tags map[string]string
}

// NodeIndex is the node table (C5): id+tag+coord columns, plus a KD-tree
// over (lon, lat) built explicitly once the table is finalized (spec §9
// Open Question: spatial-index build is an explicit step, never an
// automatic side effect of Finish).
type NodeIndex struct {
	ids  IdIndex
	tags TagIndex
	lon  Column[float64]
	lat  Column[float64]

	frozen bool
	tree   *KDTree

	minLon, minLat, maxLon, maxLat float64
	haveBBox                       bool
}

// NewNodeIndex returns an empty node table interning tags through strings.
func NewNodeIndex(strings *StringTable, capHint int) *NodeIndex {
	return &NodeIndex{
		ids:  *NewIdIndex(capHint),
		tags: *NewTagIndex(strings, capHint),
		lon:  *NewColumn[float64](capHint),
		lat:  *NewColumn[float64](capHint),
	}
}

// Add appends a node, returning its local index. Only valid before Finish.
func (n *NodeIndex) Add(id int64, lon, lat float64, tags map[string]string) int {
	if n.frozen {
		panic(ErrFrozen)
	}
	i := n.ids.Push(id)
	n.lon.Push(lon)
	n.lat.Push(lat)
	n.tags.AddTags(tags)
	n.expandBBox(lon, lat)
	return i
}

// AddTagIDs mirrors Add but for the PBF dense-node decoder, which has
// already interned tag keys/values through the dataset's shared string
// table (spec §4.8.3).
func (n *NodeIndex) AddTagIDs(id int64, lon, lat float64, keys, vals []uint32) int {
	if n.frozen {
		panic(ErrFrozen)
	}
	i := n.ids.Push(id)
	n.lon.Push(lon)
	n.lat.Push(lat)
	n.tags.AddTagIDs(keys, vals)
	n.expandBBox(lon, lat)
	return i
}

func (n *NodeIndex) expandBBox(lon, lat float64) {
	if !n.haveBBox {
		n.minLon, n.maxLon = lon, lon
		n.minLat, n.maxLat = lat, lat
		n.haveBBox = true
		return
	}
	if lon < n.minLon {
		n.minLon = lon
	}
	if lon > n.maxLon {
		n.maxLon = lon
	}
	if lat < n.minLat {
		n.minLat = lat
	}
	if lat > n.maxLat {
		n.maxLat = lat
	}
}

// Len returns the number of nodes.
func (n *NodeIndex) Len() int { return n.ids.Len() }

// Finish freezes the table (invariant I1): builds the id index and
// compacts columns. It does not build the spatial index — call
// BuildSpatialIndex for that, per the spec's explicit-build decision.
func (n *NodeIndex) Finish() {
	if n.frozen {
		return
	}
	n.ids.Build()
	n.tags.Compact()
	n.lon.Compact()
	n.lat.Compact()
	n.frozen = true
}

// BuildSpatialIndex builds the KD-tree over (lon, lat). Must be called
// after Finish; safe to call at most once.
func (n *NodeIndex) BuildSpatialIndex() {
	if !n.frozen {
		panic(newErr("node index: build spatial index", KindFrozen, nil))
	}
	n.tree = BuildKDTree(n.lon.Raw(), n.lat.Raw())
}

// IndexOf returns the local index of id, or -1 if absent.
func (n *NodeIndex) IndexOf(id int64) int { return n.ids.IndexOf(id) }

// Get returns the node at local index i.
func (n *NodeIndex) Get(i int) Node {
	return Node{
		ID:   n.ids.At(i),
		Lon:  n.lon.At(i),
		Lat:  n.lat.At(i),
		Tags: n.tags.Tags(i),
	}
}

// Coord returns the (lon, lat) of local index i without materializing tags.
func (n *NodeIndex) Coord(i int) orb.Point { return orb.Point{n.lon.At(i), n.lat.At(i)} }

// Tags returns the tag map of local index i.
func (n *NodeIndex) Tags(i int) map[string]string { return n.tags.Tags(i) }

// BBox returns the aggregate bounding box over every node added so far
// (invariant I5).
func (n *NodeIndex) BBox() (minLon, minLat, maxLon, maxLat float64) {
	return n.minLon, n.minLat, n.maxLon, n.maxLat
}

// WithinBBox returns the local indexes of nodes inside the given bbox.
// Requires BuildSpatialIndex.
func (n *NodeIndex) WithinBBox(minLon, minLat, maxLon, maxLat float64) []int {
	return n.tree.Range(minLon, minLat, maxLon, maxLat)
}

// WithinRadius returns the local indexes of nodes within planar radius r
// (same units as the stored lon/lat, i.e. degrees — see DESIGN.md's Open
// Question resolution) of (x, y). Requires BuildSpatialIndex.
func (n *NodeIndex) WithinRadius(x, y, r float64) []int {
	return n.tree.Within(x, y, r)
}

// FindNeighborsWithin returns nodes within radius r of node local index i,
// excluding i itself (spec §4.5).
func (n *NodeIndex) FindNeighborsWithin(i int, r float64) []int {
	x, y := n.lon.At(i), n.lat.At(i)
	hits := n.tree.Within(x, y, r)
	out := hits[:0]
	for _, h := range hits {
		if h != i {
			out = append(out, h)
		}
	}
	return out
}
