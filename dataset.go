// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"context"
	"io"
)

// EntityType discriminates the three OSM entity kinds a Dataset stores.
type EntityType uint8

const (
	EntityNode EntityType = iota
	EntityWay
	EntityRelation
)

// Entity is the tagged-union view Dataset.Get returns.
type Entity struct {
	Type     EntityType
	Node     Node
	Way      Way
	Relation Relation
}

// ingestStage tracks the nodes→ways→relations progression required by
// invariant I6: ways.Finish() resolves refs through the node id index, so
// nodes must already be frozen by the time the first way arrives.
type ingestStage uint8

const (
	stageNodes ingestStage = iota
	stageWays
	stageRelations
	stageDone
)

// HeaderInfo is the subset of HeaderBlock fields the dataset retains.
type HeaderInfo struct {
	MinLon, MinLat, MaxLon, MaxLat float64
	HaveBBox                       bool
	RequiredFeatures               []string
	WritingProgram                 string
}

// Dataset (the "Osm" of spec §4.9) composes the four columnar tables behind
// a single ingest/query façade, the same role the teacher's top-level
// Reader plays over its object/xref/font tables.
type Dataset struct {
	Strings   *StringTable
	Nodes     *NodeIndex
	Ways      *WayIndex
	Relations *RelationIndex
	Header    HeaderInfo

	stage ingestStage
}

// NewDataset returns an empty dataset sized for roughly capHint entities per
// table.
func NewDataset(capHint int) *Dataset {
	strings := NewStringTable()
	return &Dataset{
		Strings:   strings,
		Nodes:     NewNodeIndex(strings, capHint),
		Ways:      NewWayIndex(strings, capHint),
		Relations: NewRelationIndex(strings, capHint),
	}
}

// ReadPBF ingests every blob from r. When opts.Workers > 1 the OSMData
// blocks are decoded on a bounded parallel pool and then applied serially in
// source order (spec §5); otherwise blocks are decoded and applied one at a
// time as they stream in.
func (ds *Dataset) ReadPBF(ctx context.Context, r io.Reader, opts ReadOptions) error {
	pr := NewPBFReader(r)

	if opts.Workers > 1 {
		return ds.readPBFParallel(ctx, pr, opts)
	}

	for {
		blob, err := pr.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		switch blob.kind {
		case "OSMHeader":
			h, err := decodeHeaderBlock(blob.data)
			if err != nil {
				return err
			}
			ds.applyHeader(h)
		case "OSMData":
			pb, err := decodePrimitiveBlock(blob.data)
			if err != nil {
				return err
			}
			if err := ds.ingestBlock(remapBlock(pb, ds.Strings)); err != nil {
				return err
			}
		}
	}
	return ds.Finish()
}

// readPBFParallel reads the first blob as the header, then fans the
// remaining OSMData blocks out to decodeBlocksParallel before applying them
// serially, preserving source order (spec §5).
func (ds *Dataset) readPBFParallel(ctx context.Context, pr *PBFReader, opts ReadOptions) error {
	firstBlob, err := pr.Next(ctx)
	if err != nil {
		return err
	}
	h, err := decodeHeaderBlock(firstBlob.data)
	if err != nil {
		return err
	}
	ds.applyHeader(h)

	blocks, err := decodeBlocksParallel(ctx, pr, opts.Workers, ds.Strings)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := ds.ingestBlock(b); err != nil {
			return err
		}
	}
	return ds.Finish()
}

func (ds *Dataset) applyHeader(h headerBlock) {
	ds.Header = HeaderInfo{
		MinLon:           h.minLon,
		MinLat:           h.minLat,
		MaxLon:           h.maxLon,
		MaxLat:           h.maxLat,
		HaveBBox:         h.haveBBox,
		RequiredFeatures: h.requiredFeatures,
		WritingProgram:   h.writingProgram,
	}
}

// ingestBlock appends one decoded block's entities, advancing the ingest
// stage the first time a way or relation is seen and rejecting entities
// that arrive after their stage has already passed (invariant I6).
func (ds *Dataset) ingestBlock(b decodedBlock) error {
	if len(b.denseNodes) > 0 {
		if ds.stage != stageNodes {
			return newErr("dataset: ingest node", KindOutOfOrderEntity, nil)
		}
		for _, g := range b.denseNodes {
			for i := range g.ids {
				keys, vals := splitKeyVals(g.keyVals[i])
				ds.Nodes.AddTagIDs(g.ids[i], g.lons[i], g.lats[i], keys, vals)
			}
		}
	}

	if len(b.ways) > 0 {
		if err := ds.advanceToWays(); err != nil {
			return err
		}
		for _, w := range b.ways {
			ds.Ways.AddTagIDs(w.id, w.refs, w.keys, w.vals)
		}
	}

	if len(b.relations) > 0 {
		if err := ds.advanceToRelations(); err != nil {
			return err
		}
		for _, r := range b.relations {
			ds.Relations.AddTagIDs(r.id, r.memids, r.types, r.rolesID, r.keys, r.vals)
		}
	}
	return nil
}

func (ds *Dataset) advanceToWays() error {
	switch ds.stage {
	case stageNodes:
		ds.Nodes.Finish()
		ds.stage = stageWays
		return nil
	case stageWays:
		return nil
	default:
		return newErr("dataset: ingest way", KindOutOfOrderEntity, nil)
	}
}

func (ds *Dataset) advanceToRelations() error {
	if ds.stage == stageNodes {
		if err := ds.advanceToWays(); err != nil {
			return err
		}
	}
	switch ds.stage {
	case stageWays:
		if err := ds.Ways.Finish(ds.Nodes); err != nil {
			return err
		}
		ds.stage = stageRelations
		return nil
	case stageRelations:
		return nil
	default:
		return newErr("dataset: ingest relation", KindOutOfOrderEntity, nil)
	}
}

// Finish freezes whichever tables are not yet frozen, in stage order, and
// compacts the shared string table. Safe to call once at EOF; ReadPBF calls
// it automatically.
func (ds *Dataset) Finish() error {
	if ds.stage == stageDone {
		return nil
	}
	if ds.stage == stageNodes {
		ds.Nodes.Finish()
		ds.stage = stageWays
	}
	if ds.stage == stageWays {
		if err := ds.Ways.Finish(ds.Nodes); err != nil {
			return err
		}
		ds.stage = stageRelations
	}
	ds.Relations.Finish()
	ds.Strings.Compact()
	ds.stage = stageDone
	return nil
}

// BuildSpatialIndexes builds the node KD-tree and way R-tree. Must follow
// Finish; the spec treats this as an explicit, separate step (§9).
func (ds *Dataset) BuildSpatialIndexes() {
	ds.Nodes.BuildSpatialIndex()
	ds.Ways.BuildSpatialIndex()
}

// Get returns the entity of the given type and id, or ok=false if absent.
func (ds *Dataset) Get(t EntityType, id int64) (Entity, bool) {
	switch t {
	case EntityNode:
		i := ds.Nodes.IndexOf(id)
		if i < 0 {
			return Entity{}, false
		}
		return Entity{Type: EntityNode, Node: ds.Nodes.Get(i)}, true
	case EntityWay:
		i := ds.Ways.IndexOf(id)
		if i < 0 {
			return Entity{}, false
		}
		return Entity{Type: EntityWay, Way: ds.Ways.Get(i)}, true
	case EntityRelation:
		i := ds.Relations.IndexOf(id)
		if i < 0 {
			return Entity{}, false
		}
		return Entity{Type: EntityRelation, Relation: ds.Relations.Get(i)}, true
	default:
		return Entity{}, false
	}
}

// WritePBF serializes the dataset in OSM PBF format. The dataset must be
// finished.
func (ds *Dataset) WritePBF(w io.Writer, opts WriteOptions) error {
	return WritePBF(w, ds.Strings, ds.Nodes, ds.Ways, ds.Relations, opts)
}

func splitKeyVals(flat []uint32) (keys, vals []uint32) {
	n := len(flat) / 2
	if n == 0 {
		return nil, nil
	}
	keys = make([]uint32, n)
	vals = make([]uint32, n)
	for i := 0; i < n; i++ {
		keys[i] = flat[i*2]
		vals[i] = flat[i*2+1]
	}
	return keys, vals
}
