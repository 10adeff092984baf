// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxEntitiesPerBlock bounds the number of entities packed into a single
// PrimitiveBlock/PrimitiveGroup (spec §4.8.4); real-world writers use 8000
// as a conservative default that keeps blocks well under the blob size
// limits once compressed.
const maxEntitiesPerBlock = 8000

// WriteOptions configures WritePBF.
type WriteOptions struct {
	// EntitiesPerBlock overrides maxEntitiesPerBlock; 0 uses the default.
	EntitiesPerBlock int
	// WritingProgram is recorded in the HeaderBlock; "" uses "osmix".
	WritingProgram string
}

// WritePBF serializes strings/nodes/ways/relations to w in OSM PBF format:
// an OSMHeader blob, then OSMData blobs each holding one homogeneous
// PrimitiveBlock (spec §4.8.4). nodes/ways/relations must already be
// finished (frozen).
func WritePBF(w io.Writer, strings *StringTable, nodes *NodeIndex, ways *WayIndex, relations *RelationIndex, opts WriteOptions) error {
	perBlock := opts.EntitiesPerBlock
	if perBlock <= 0 {
		perBlock = maxEntitiesPerBlock
	}
	program := opts.WritingProgram
	if program == "" {
		program = "osmix"
	}

	minLon, minLat, maxLon, maxLat := nodes.BBox()
	if err := writeBlob(w, "OSMHeader", encodeHeaderBlock(minLon, minLat, maxLon, maxLat, nodes.Len() > 0, program)); err != nil {
		return err
	}

	for lo := 0; lo < nodes.Len(); lo += perBlock {
		hi := lo + perBlock
		if hi > nodes.Len() {
			hi = nodes.Len()
		}
		block := encodeNodeBlock(strings, nodes, lo, hi)
		if err := writeBlob(w, "OSMData", block); err != nil {
			return err
		}
	}
	for lo := 0; lo < ways.Len(); lo += perBlock {
		hi := lo + perBlock
		if hi > ways.Len() {
			hi = ways.Len()
		}
		block := encodeWayBlock(strings, ways, lo, hi)
		if err := writeBlob(w, "OSMData", block); err != nil {
			return err
		}
	}
	for lo := 0; lo < relations.Len(); lo += perBlock {
		hi := lo + perBlock
		if hi > relations.Len() {
			hi = relations.Len()
		}
		block := encodeRelationBlock(strings, relations, lo, hi)
		if err := writeBlob(w, "OSMData", block); err != nil {
			return err
		}
	}
	return nil
}

// writeBlob compresses payload, frames it as Blob/BlobHeader, and writes the
// 4-byte big-endian header length prefix required by spec §4.8.1, enforcing
// the same size limits the reader checks on the way in.
func writeBlob(w io.Writer, kind string, payload []byte) error {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(payload); err != nil {
		return newErr("pbf: compress blob", KindOther, err)
	}
	if err := zw.Close(); err != nil {
		return newErr("pbf: compress blob", KindOther, err)
	}

	var blob []byte
	blob = appendTagVarint(blob, 1, uint64(len(payload)))
	blob = appendTagBytes(blob, 3, zbuf.Bytes())
	if len(blob) > blobMaxSize {
		return newErr("pbf: write blob", KindBlobTooLarge, nil)
	}
	if len(blob) > blobWarnSize {
		log.Warnw("pbf blob exceeds recommended size on write", "size", len(blob))
	}

	var hdr []byte
	hdr = appendTagString(hdr, 1, kind)
	hdr = appendTagVarint(hdr, 3, uint64(len(blob)))
	if len(hdr) > blobHeaderMaxSize {
		return newErr("pbf: write blob header", KindHeaderTooLarge, nil)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdr)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return newErr("pbf: write blob header length", KindOther, err)
	}
	if _, err := w.Write(hdr); err != nil {
		return newErr("pbf: write blob header", KindOther, err)
	}
	if _, err := w.Write(blob); err != nil {
		return newErr("pbf: write blob", KindOther, err)
	}
	return nil
}

func encodeHeaderBlock(minLon, minLat, maxLon, maxLat float64, haveBBox bool, program string) []byte {
	var b []byte
	if haveBBox {
		const nano = 1e9
		var bbox []byte
		bbox = appendTagVarint(bbox, 1, protowire.EncodeZigZag(int64(minLon*nano)))
		bbox = appendTagVarint(bbox, 2, protowire.EncodeZigZag(int64(maxLon*nano)))
		bbox = appendTagVarint(bbox, 3, protowire.EncodeZigZag(int64(minLat*nano)))
		bbox = appendTagVarint(bbox, 4, protowire.EncodeZigZag(int64(maxLat*nano)))
		b = appendTagBytes(b, 1, bbox)
	}
	b = appendTagString(b, 4, "OsmSchema-V0.6")
	b = appendTagString(b, 4, "DenseNodes")
	b = appendTagString(b, 16, program)
	return b
}

// blockBuilder accumulates the local string table (index 0 reserved blank,
// per convention) a block needs, remapping the dataset's global string ids
// to per-block-local ones as entities reference them.
type blockBuilder struct {
	strings *StringTable
	locals  []string
	remap   map[uint32]uint32
}

func newBlockBuilder(strings *StringTable) *blockBuilder {
	return &blockBuilder{strings: strings, locals: []string{""}, remap: make(map[uint32]uint32)}
}

func (bb *blockBuilder) localOf(global uint32) uint32 {
	if id, ok := bb.remap[global]; ok {
		return id
	}
	id := uint32(len(bb.locals))
	bb.locals = append(bb.locals, bb.strings.get(global))
	bb.remap[global] = id
	return id
}

func (bb *blockBuilder) localAll(globals []uint32) []uint32 {
	out := make([]uint32, len(globals))
	for i, g := range globals {
		out[i] = bb.localOf(g)
	}
	return out
}

func (bb *blockBuilder) encodeStringTable() []byte {
	var b []byte
	for _, s := range bb.locals {
		b = appendTagString(b, 1, s)
	}
	return b
}

func encodeNodeBlock(strings *StringTable, nodes *NodeIndex, lo, hi int) []byte {
	bb := newBlockBuilder(strings)

	const granularity = 100
	var ids, lats, lons []byte
	var kv []uint64
	var prevID, prevLat, prevLon int64
	for i := lo; i < hi; i++ {
		id := nodes.ids.At(i)
		lat := int64(nodes.lat.At(i) * 1e9 / granularity)
		lon := int64(nodes.lon.At(i) * 1e9 / granularity)
		ids = protowire.AppendVarint(ids, protowire.EncodeZigZag(id-prevID))
		lats = protowire.AppendVarint(lats, protowire.EncodeZigZag(lat-prevLat))
		lons = protowire.AppendVarint(lons, protowire.EncodeZigZag(lon-prevLon))
		prevID, prevLat, prevLon = id, lat, lon

		tags := nodes.tags.tagIDs(i)
		for _, kvPair := range tags {
			kv = append(kv, uint64(bb.localOf(kvPair[0])), uint64(bb.localOf(kvPair[1])))
		}
		kv = append(kv, 0)
	}

	var kvBytes []byte
	for _, v := range kv {
		kvBytes = protowire.AppendVarint(kvBytes, v)
	}

	var dense []byte
	dense = appendTagBytes(dense, 1, ids)
	dense = appendTagBytes(dense, 8, lats)
	dense = appendTagBytes(dense, 9, lons)
	dense = appendTagBytes(dense, 10, kvBytes)

	var group []byte
	group = appendTagBytes(group, 2, dense)

	var block []byte
	block = appendTagBytes(block, 1, bb.encodeStringTable())
	block = appendTagBytes(block, 2, group)
	block = appendTagVarint(block, 17, granularity)
	return block
}

func encodeWayBlock(strings *StringTable, ways *WayIndex, lo, hi int) []byte {
	bb := newBlockBuilder(strings)

	var group []byte
	for i := lo; i < hi; i++ {
		var w []byte
		w = appendTagVarint(w, 1, uint64(ways.ids.At(i)))

		keys, vals := ways.tags.tagIDPairs(i)
		w = appendPackedVarint(w, 2, asUint64(bb.localAll(keys)))
		w = appendPackedVarint(w, 3, asUint64(bb.localAll(vals)))

		refs := ways.RefsOf(i)
		deltas := make([]int64, len(refs))
		var prev int64
		for j, r := range refs {
			deltas[j] = r - prev
			prev = r
		}
		w = appendPackedZigzag(w, 8, deltas)

		group = appendTagBytes(group, 3, w)
	}

	var block []byte
	block = appendTagBytes(block, 1, bb.encodeStringTable())
	block = appendTagBytes(block, 2, group)
	block = appendTagVarint(block, 17, 100)
	return block
}

func encodeRelationBlock(strings *StringTable, relations *RelationIndex, lo, hi int) []byte {
	bb := newBlockBuilder(strings)

	var group []byte
	for i := lo; i < hi; i++ {
		var r []byte
		r = appendTagVarint(r, 1, uint64(relations.ids.At(i)))

		keys, vals := relations.tags.tagIDPairs(i)
		r = appendPackedVarint(r, 2, asUint64(bb.localAll(keys)))
		r = appendPackedVarint(r, 3, asUint64(bb.localAll(vals)))

		members := relations.GetMembers(i)
		roleIDs := relations.memberRoleIDs(i)
		roles := make([]uint32, len(members))
		types := make([]uint64, len(members))
		memids := make([]int64, len(members))
		var prev int64
		for j, m := range members {
			roles[j] = bb.localOf(roleIDs[j])
			types[j] = uint64(m.Type)
			memids[j] = m.Ref - prev
			prev = m.Ref
		}
		r = appendPackedVarint(r, 8, asUint64(roles))
		r = appendPackedZigzag(r, 9, memids)
		r = appendPackedVarint(r, 10, types)

		group = appendTagBytes(group, 4, r)
	}

	var block []byte
	block = appendTagBytes(block, 1, bb.encodeStringTable())
	block = appendTagBytes(block, 2, group)
	block = appendTagVarint(block, 17, 100)
	return block
}

func asUint64(vs []uint32) []uint64 {
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = uint64(v)
	}
	return out
}
