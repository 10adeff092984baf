// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// This file holds the shared low-level protobuf wire helpers the PBF
// reader/writer use to hand-decode BlobHeader/Blob/HeaderBlock/
// PrimitiveBlock without generated message types — the same technique
// protobuf-go itself uses for unknown-field handling, applied here to the
// whole OSM PBF schema (spec §4.8, §6.1).

// forEachField walks the top-level fields of a protobuf message encoded in
// b, invoking visit(fieldNumber, wireType, valueBytes) for each. valueBytes
// is the raw encoded value: for VarintType it is the varint's own bytes
// (decode with protowire.ConsumeVarint again), for BytesType it is the
// already-unwrapped payload, for Fixed32/Fixed64 it is the raw little
// endian bytes.
func forEachField(b []byte, visit func(num protowire.Number, typ protowire.Type, val []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return newErr("pbf: parse field tag", KindMalformedPBF, protowire.ParseError(n))
		}
		b = b[n:]

		var val []byte
		var size int
		switch typ {
		case protowire.VarintType:
			_, size = protowire.ConsumeVarint(b)
			if size < 0 {
				return newErr("pbf: parse varint", KindMalformedPBF, protowire.ParseError(size))
			}
			val = b[:size]
		case protowire.BytesType:
			v, n2 := protowire.ConsumeBytes(b)
			if n2 < 0 {
				return newErr("pbf: parse bytes", KindMalformedPBF, protowire.ParseError(n2))
			}
			val, size = v, n2
		case protowire.Fixed32Type:
			_, size = protowire.ConsumeFixed32(b)
			if size < 0 {
				return newErr("pbf: parse fixed32", KindMalformedPBF, protowire.ParseError(size))
			}
			val = b[:size]
		case protowire.Fixed64Type:
			_, size = protowire.ConsumeFixed64(b)
			if size < 0 {
				return newErr("pbf: parse fixed64", KindMalformedPBF, protowire.ParseError(size))
			}
			val = b[:size]
		default:
			return newErr("pbf: unsupported wire type", KindMalformedPBF, fmt.Errorf("wire type %d", typ))
		}

		if err := visit(num, typ, val); err != nil {
			return err
		}
		b = b[size:]
	}
	return nil
}

// fieldVarint decodes val (as produced by forEachField for a VarintType
// field) into a uint64.
func fieldVarint(val []byte) uint64 {
	v, _ := protowire.ConsumeVarint(val)
	return v
}

// packedVarints decodes a packed repeated varint field's payload into a
// slice of raw uint64s.
func packedVarints(val []byte) []uint64 {
	var out []uint64
	for len(val) > 0 {
		v, n := protowire.ConsumeVarint(val)
		if n < 0 {
			break
		}
		out = append(out, v)
		val = val[n:]
	}
	return out
}

// packedZigzag decodes a packed repeated sint64 field's payload, applying
// zigzag decoding to each varint.
func packedZigzag(val []byte) []int64 {
	raw := packedVarints(val)
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = protowire.DecodeZigZag(v)
	}
	return out
}

// --- encode side ---

func appendTagVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendTagBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendTagString(b []byte, num protowire.Number, v string) []byte {
	return appendTagBytes(b, num, []byte(v))
}

func appendPackedVarint(b []byte, num protowire.Number, vs []uint64) []byte {
	if len(vs) == 0 {
		return b
	}
	var payload []byte
	for _, v := range vs {
		payload = protowire.AppendVarint(payload, v)
	}
	return appendTagBytes(b, num, payload)
}

func appendPackedZigzag(b []byte, num protowire.Number, vs []int64) []byte {
	if len(vs) == 0 {
		return b
	}
	raw := make([]uint64, len(vs))
	for i, v := range vs {
		raw[i] = protowire.EncodeZigZag(v)
	}
	return appendPackedVarint(b, num, raw)
}
