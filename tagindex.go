// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

// TagIndex is the CSR storage of (key-id, value-id) pairs per entity (C4),
// shared by the node, way and relation tables. Keys/values are string-table
// ids; tag_start/tag_count index into the shared tagKeys/tagVals arrays
// (spec §3.2/§4.4, invariant I3).
type TagIndex struct {
	strings *StringTable

	tagStart Column[uint32]
	tagCount Column[uint8]
	tagKeys  Column[uint32]
	tagVals  Column[uint32]
}

// NewTagIndex returns a tag index interning through strings.
func NewTagIndex(strings *StringTable, capHint int) *TagIndex {
	return &TagIndex{
		strings:  strings,
		tagStart: *NewColumn[uint32](capHint),
		tagCount: *NewColumn[uint8](capHint),
		tagKeys:  *NewColumn[uint32](capHint * 2),
		tagVals:  *NewColumn[uint32](capHint * 2),
	}
}

// AddTags interns each key/value of tags (iterated in map order is
// unspecified by Go, but OSM tags have no semantic ordering requirement
// beyond per-entity key uniqueness) and appends a new CSR row, returning
// the entity-local tag_start/tag_count pair's index i such that
// Tags(i) recovers them. Panics if len(tags) > 255 (spec §3.1 cap).
func (t *TagIndex) AddTags(tags map[string]string) int {
	if len(tags) > 255 {
		panic(newErr("tag index: add tags", KindOther, nil))
	}
	start := uint32(t.tagKeys.Len())
	for k, v := range tags {
		t.tagKeys.Push(t.strings.Add(k))
		t.tagVals.Push(t.strings.Add(v))
	}
	i := t.tagStart.Len()
	t.tagStart.Push(start)
	t.tagCount.Push(uint8(len(tags)))
	return i
}

// AddTagIDs is like AddTags but takes already-interned (key-id, value-id)
// pairs, used by the PBF dense-node decoder which interns through the
// dataset's shared string table ahead of time via the per-block remap.
func (t *TagIndex) AddTagIDs(keys, vals []uint32) int {
	start := uint32(t.tagKeys.Len())
	t.tagKeys.PushMany(keys)
	t.tagVals.PushMany(vals)
	i := t.tagStart.Len()
	t.tagStart.Push(start)
	t.tagCount.Push(uint8(len(keys)))
	return i
}

// Tags materializes the tag map for entity-local index i.
func (t *TagIndex) Tags(i int) map[string]string {
	n := int(t.tagCount.At(i))
	if n == 0 {
		return nil
	}
	start := t.tagStart.At(i)
	m := make(map[string]string, n)
	for j := 0; j < n; j++ {
		k := t.tagKeys.At(int(start) + j)
		v := t.tagVals.At(int(start) + j)
		m[t.strings.get(k)] = t.strings.get(v)
	}
	return m
}

// TagValue returns the value for key on entity i, or "", false if absent.
func (t *TagIndex) TagValue(i int, key string) (string, bool) {
	n := int(t.tagCount.At(i))
	if n == 0 {
		return "", false
	}
	start := int(t.tagStart.At(i))
	for j := 0; j < n; j++ {
		k := t.tagKeys.At(start + j)
		if t.strings.get(k) == key {
			return t.strings.get(t.tagVals.At(start + j)), true
		}
	}
	return "", false
}

// HasTags reports whether entity i carries any tags.
func (t *TagIndex) HasTags(i int) bool { return t.tagCount.At(i) > 0 }

// tagIDPairs returns the raw (key-id, val-id) columns for entity i without
// resolving them through the string table, for the PBF writer's per-block
// string remap.
func (t *TagIndex) tagIDPairs(i int) (keys, vals []uint32) {
	n := int(t.tagCount.At(i))
	if n == 0 {
		return nil, nil
	}
	start := int(t.tagStart.At(i))
	return t.tagKeys.Slice(start, start+n), t.tagVals.Slice(start, start+n)
}

// tagIDs returns entity i's tags as [key-id, val-id] pairs, for the dense
// node writer's keys_vals stream construction.
func (t *TagIndex) tagIDs(i int) [][2]uint32 {
	keys, vals := t.tagIDPairs(i)
	out := make([][2]uint32, len(keys))
	for j := range keys {
		out[j] = [2]uint32{keys[j], vals[j]}
	}
	return out
}

// Compact compacts the CSR columns. Does not touch the shared string table;
// callers compact that once, after every table's tags have been added.
func (t *TagIndex) Compact() {
	t.tagStart.Compact()
	t.tagCount.Compact()
	t.tagKeys.Compact()
	t.tagVals.Compact()
}
