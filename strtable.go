// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"hash/fnv"
	"unsafe"
)

// bucketKey is the (hash, length) pair used to bucket candidate strings
// before falling back to a byte-for-byte comparison on collision (spec
// §3.3/§4.2).
type bucketKey struct {
	hash uint64
	length uint32
}

// StringTable is a content-addressed interner (C2): add(s) returns a stable
// id, duplicate strings return the same id, and get(id) returns the
// original UTF-8 back out. Storage is a contiguous byte buffer with
// parallel start/count columns, so lookups never allocate.
type StringTable struct {
	bytes []byte
	start Column[uint32]
	count Column[uint16]

	// builder-side only; released by Compact.
	buckets map[bucketKey][]uint32
	frozen  bool
}

// NewStringTable returns an empty table. The empty string is not special;
// callers that want "id 0 is the empty string" (as PBF string tables do)
// should call Add("") first.
func NewStringTable() *StringTable {
	return &StringTable{
		bytes:   make([]byte, 0, 4096),
		start:   *NewColumn[uint32](64),
		count:   *NewColumn[uint16](64),
		buckets: make(map[bucketKey][]uint32),
	}
}

// Add interns s and returns its id. Idempotent: Add(s) == Add(s).
func (t *StringTable) Add(s string) uint32 {
	if t.frozen {
		panic(newErr("string table: add", KindFrozen, nil))
	}
	if len(s) > 0xFFFF {
		// Values this long never occur in OSM tag/string data; guard rather
		// than silently truncate count's uint16.
		s = s[:0xFFFF]
	}
	h := fnv1a64(s)
	key := bucketKey{hash: h, length: uint32(len(s))}
	for _, id := range t.buckets[key] {
		if t.get(id) == s {
			return id
		}
	}
	id := uint32(t.start.Len())
	t.start.Push(uint32(len(t.bytes)))
	t.count.Push(uint16(len(s)))
	t.bytes = append(t.bytes, s...)
	t.buckets[key] = append(t.buckets[key], id)
	return id
}

// Get returns the string originally passed to Add(id)'s corresponding Add
// call. Panics via ErrIdOutOfRange semantics if id is out of range.
func (t *StringTable) Get(id uint32) string {
	if int(id) >= t.start.Len() {
		panic(ErrIdOutOfRange)
	}
	return t.get(id)
}

// get is the unchecked, allocation-free accessor used internally once a
// caller has already range-checked id (or trusts a column it built itself).
func (t *StringTable) get(id uint32) string {
	start := t.start.At(int(id))
	n := t.count.At(int(id))
	return bytesToString(t.bytes[start : start+uint32(n)])
}

// GetBytes returns a borrowed byte-slice view of the string, avoiding the
// string header allocation Get would otherwise skip anyway via
// bytesToString — provided for callers that want to avoid even the
// zero-copy string header construction (e.g. hashing the bytes again).
func (t *StringTable) GetBytes(id uint32) []byte {
	if int(id) >= t.start.Len() {
		panic(ErrIdOutOfRange)
	}
	start := t.start.At(int(id))
	n := t.count.At(int(id))
	return t.bytes[start : start+uint32(n)]
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int { return t.start.Len() }

// Compact frees the builder-side hash map and freezes the table: subsequent
// Add calls panic.
func (t *StringTable) Compact() {
	t.buckets = nil
	t.frozen = true
	t.start.Compact()
	t.count.Compact()
	if cap(t.bytes) != len(t.bytes) {
		exact := make([]byte, len(t.bytes))
		copy(exact, t.bytes)
		t.bytes = exact
	}
}

func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write(stringToBytes(s))
	return h.Sum64()
}

// bytesToString performs a zero-copy []byte->string conversion. The
// returned string aliases b; callers must not mutate b afterward.
func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// stringToBytes performs a zero-copy string->[]byte conversion. The
// returned slice is read-only.
func stringToBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
