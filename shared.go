// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "golang.org/x/sys/unix"

// NodeBuffers is the raw column view of a finished NodeIndex (spec §6.4).
type NodeBuffers struct {
	IDs      []int64
	Lon, Lat []float64
	TagStart []uint32
	TagCount []uint8
	TagKeys  []uint32
	TagVals  []uint32
}

// WayBuffers is the raw column view of a finished WayIndex.
type WayBuffers struct {
	IDs      []int64
	RefStart []uint32
	RefCount []uint16
	Refs     []int64
	BBox     []float64
	TagStart []uint32
	TagCount []uint8
	TagKeys  []uint32
	TagVals  []uint32
}

// RelationBuffers is the raw column view of a finished RelationIndex.
type RelationBuffers struct {
	IDs         []int64
	MemberStart []uint32
	MemberCount []uint16
	MemberRefs  []int64
	MemberTypes []uint8
	MemberRoles []uint32
	TagStart    []uint32
	TagCount    []uint8
	TagKeys     []uint32
	TagVals     []uint32
}

// StringBuffers is the raw byte/offset view of a finished StringTable.
type StringBuffers struct {
	Bytes []byte
	Start []uint32
	Count []uint16
}

// Transferables is the zero-copy, read-only cross-worker snapshot of a
// finished dataset (spec §6.4): every table's raw backing buffers, borrowed
// directly from the dataset's columns. Writers MUST NOT share a dataset
// (spec §5); Transferables is only valid to read while the source Dataset
// is alive and not being mutated.
type Transferables struct {
	Nodes     NodeBuffers
	Ways      WayBuffers
	Relations RelationBuffers
	Strings   StringBuffers
}

// Transferables returns a borrowed-buffer snapshot of ds for handing off to
// a read-only worker, e.g. over a shared-memory mapping. ds must already be
// finished; spatial index serialization is not included (those trees are
// rebuilt by the receiving worker from the coordinate/bbox buffers).
func (ds *Dataset) Transferables() Transferables {
	return Transferables{
		Nodes: NodeBuffers{
			IDs:      ds.Nodes.ids.ids.Raw(),
			Lon:      ds.Nodes.lon.Raw(),
			Lat:      ds.Nodes.lat.Raw(),
			TagStart: ds.Nodes.tags.tagStart.Raw(),
			TagCount: ds.Nodes.tags.tagCount.Raw(),
			TagKeys:  ds.Nodes.tags.tagKeys.Raw(),
			TagVals:  ds.Nodes.tags.tagVals.Raw(),
		},
		Ways: WayBuffers{
			IDs:      ds.Ways.ids.ids.Raw(),
			RefStart: ds.Ways.refStart.Raw(),
			RefCount: ds.Ways.refCount.Raw(),
			Refs:     ds.Ways.refs.Raw(),
			BBox:     ds.Ways.bbox.Raw(),
			TagStart: ds.Ways.tags.tagStart.Raw(),
			TagCount: ds.Ways.tags.tagCount.Raw(),
			TagKeys:  ds.Ways.tags.tagKeys.Raw(),
			TagVals:  ds.Ways.tags.tagVals.Raw(),
		},
		Relations: RelationBuffers{
			IDs:         ds.Relations.ids.ids.Raw(),
			MemberStart: ds.Relations.memberStart.Raw(),
			MemberCount: ds.Relations.memberCount.Raw(),
			MemberRefs:  ds.Relations.memberRefs.Raw(),
			MemberTypes: ds.Relations.memberTypes.Raw(),
			MemberRoles: ds.Relations.memberRoles.Raw(),
			TagStart:    ds.Relations.tags.tagStart.Raw(),
			TagCount:    ds.Relations.tags.tagCount.Raw(),
			TagKeys:     ds.Relations.tags.tagKeys.Raw(),
			TagVals:     ds.Relations.tags.tagVals.Raw(),
		},
		Strings: StringBuffers{
			Bytes: ds.Strings.bytes,
			Start: ds.Strings.start.Raw(),
			Count: ds.Strings.count.Raw(),
		},
	}
}

// NewSharedBytes allocates an n-byte anonymous mmap region suitable for
// sharing a read-only buffer (e.g. a copy of StringBuffers.Bytes) across
// process boundaries without a private-heap copy per worker. Falls back to
// a plain heap slice on platforms or sandboxes where mmap is unavailable,
// per spec §5's shared-buffer-snapshot fallback rule.
func NewSharedBytes(n int) []byte {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return make([]byte, n)
	}
	return b
}

// FreeSharedBytes releases a buffer returned by NewSharedBytes. Callers
// must not call this on a heap-fallback slice (i.e. when NewSharedBytes'
// mmap call failed and it returned a plain make([]byte, n) instead).
func FreeSharedBytes(b []byte) error {
	return unix.Munmap(b)
}
