// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "github.com/paulmach/orb"

// Way is the materialized view of one way entity.
type Way struct {
	ID   int64
	Refs []int64
	Tags map[string]string
}

// WayIndex is the way table (C6): id+tag+refs (CSR) columns, a per-way
// bbox column, and a packed R-tree over those bboxes built explicitly
// after Finish (spec §3.4/§9).
type WayIndex struct {
	ids      IdIndex
	tags     TagIndex
	refStart Column[uint32]
	refCount Column[uint16]
	refs     Column[int64]
	bbox     Column[float64] // 4 floats per way: minLon, minLat, maxLon, maxLat

	frozen bool
	tree   *RTree
}

// NewWayIndex returns an empty way table interning tags through strings.
func NewWayIndex(strings *StringTable, capHint int) *WayIndex {
	return &WayIndex{
		ids:      *NewIdIndex(capHint),
		tags:     *NewTagIndex(strings, capHint),
		refStart: *NewColumn[uint32](capHint),
		refCount: *NewColumn[uint16](capHint),
		refs:     *NewColumn[int64](capHint * 4),
		bbox:     *NewColumn[float64](capHint * 4),
	}
}

// Add appends a way. Bbox is computed at Finish, once node coordinates are
// resolvable (invariant I6), so it is not available until then.
func (w *WayIndex) Add(id int64, refs []int64, tags map[string]string) int {
	if w.frozen {
		panic(ErrFrozen)
	}
	if len(refs) > 2000 {
		panic(newErr("way index: add", KindOther, nil))
	}
	i := w.ids.Push(id)
	w.refStart.Push(uint32(w.refs.Len()))
	w.refCount.Push(uint16(len(refs)))
	w.refs.PushMany(refs)
	w.tags.AddTags(tags)
	return i
}

// AddTagIDs mirrors Add for the PBF decoder path (pre-interned tags).
func (w *WayIndex) AddTagIDs(id int64, refs []int64, keys, vals []uint32) int {
	if w.frozen {
		panic(ErrFrozen)
	}
	i := w.ids.Push(id)
	w.refStart.Push(uint32(w.refs.Len()))
	w.refCount.Push(uint16(len(refs)))
	w.refs.PushMany(refs)
	w.tags.AddTagIDs(keys, vals)
	return i
}

// Len returns the number of ways.
func (w *WayIndex) Len() int { return w.ids.Len() }

// Finish freezes the table: builds the id index, resolves every way's refs
// against nodes to compute its bbox (invariant I5), and compacts columns.
// nodes must already be finalized (invariant I6); a ref that does not
// resolve is a DanglingRefError.
func (w *WayIndex) Finish(nodes *NodeIndex) error {
	if w.frozen {
		return nil
	}
	w.ids.Build()

	n := w.ids.Len()
	w.bbox = *NewColumn[float64](n * 4)
	for i := 0; i < n; i++ {
		start := w.refStart.At(i)
		count := int(w.refCount.At(i))
		var minLon, minLat, maxLon, maxLat float64
		have := false
		for j := 0; j < count; j++ {
			refID := w.refs.At(int(start) + j)
			ni := nodes.IndexOf(refID)
			if ni < 0 {
				return &DanglingRefError{WayID: w.ids.At(i), MissingNode: refID}
			}
			lon, lat := nodes.lon.At(ni), nodes.lat.At(ni)
			if !have {
				minLon, maxLon = lon, lon
				minLat, maxLat = lat, lat
				have = true
				continue
			}
			if lon < minLon {
				minLon = lon
			}
			if lon > maxLon {
				maxLon = lon
			}
			if lat < minLat {
				minLat = lat
			}
			if lat > maxLat {
				maxLat = lat
			}
		}
		w.bbox.PushMany([]float64{minLon, minLat, maxLon, maxLat})
	}

	w.tags.Compact()
	w.refStart.Compact()
	w.refCount.Compact()
	w.refs.Compact()
	w.bbox.Compact()
	w.frozen = true
	return nil
}

// BuildSpatialIndex builds the R-tree over way bboxes. Must follow Finish.
func (w *WayIndex) BuildSpatialIndex() {
	if !w.frozen {
		panic(newErr("way index: build spatial index", KindFrozen, nil))
	}
	n := w.ids.Len()
	boxes := make([]orb.Bound, n)
	for i := 0; i < n; i++ {
		minLon, minLat, maxLon, maxLat := w.BBoxOf(i)
		boxes[i] = orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
	}
	w.tree = BuildRTree(boxes, 0)
}

// IndexOf returns the local index of id, or -1 if absent.
func (w *WayIndex) IndexOf(id int64) int { return w.ids.IndexOf(id) }

// Get returns the way at local index i.
func (w *WayIndex) Get(i int) Way {
	return Way{ID: w.ids.At(i), Refs: w.RefsOf(i), Tags: w.tags.Tags(i)}
}

// RefsOf returns a borrowed view of way i's node ids.
func (w *WayIndex) RefsOf(i int) []int64 {
	start := w.refStart.At(i)
	count := int(w.refCount.At(i))
	return w.refs.Slice(int(start), int(start)+count)
}

// Tags returns the tag map of way i.
func (w *WayIndex) Tags(i int) map[string]string { return w.tags.Tags(i) }

// LineOf returns the resolved (lon, lat) polyline of way i's refs, via the
// given node table.
func (w *WayIndex) LineOf(i int, nodes *NodeIndex) Line {
	refs := w.RefsOf(i)
	line := make(Line, 0, len(refs))
	for _, ref := range refs {
		ni := nodes.IndexOf(ref)
		if ni < 0 {
			continue
		}
		line = append(line, nodes.Coord(ni))
	}
	return line
}

// BBoxOf returns the bbox of way i, computed at Finish.
func (w *WayIndex) BBoxOf(i int) (minLon, minLat, maxLon, maxLat float64) {
	b := w.bbox.Slice(i*4, i*4+4)
	return b[0], b[1], b[2], b[3]
}

// Intersects returns the local indexes of ways whose bbox intersects q.
// Requires BuildSpatialIndex.
func (w *WayIndex) Intersects(q orb.Bound) []int {
	if w.tree == nil {
		return nil
	}
	return w.tree.Intersects(q)
}

// Neighbors returns up to k ways within maxDist of (x, y). Requires
// BuildSpatialIndex.
func (w *WayIndex) Neighbors(x, y float64, k int, maxDist float64) []int {
	if w.tree == nil {
		return nil
	}
	return w.tree.Neighbors(x, y, k, maxDist)
}
