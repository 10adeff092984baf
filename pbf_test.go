// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset(0)
	ds.Nodes.Add(1, 7.0, 45.0, map[string]string{"amenity": "cafe"})
	ds.Nodes.Add(2, 7.1, 45.0, nil)
	ds.Nodes.Add(3, 7.1, 45.1, nil)
	require.NoError(t, ds.advanceToWays())
	ds.Ways.Add(100, []int64{1, 2, 3}, map[string]string{"highway": "residential", "name": "Test St"})
	require.NoError(t, ds.advanceToRelations())
	ds.Relations.Add(1000, []Member{{Type: MemberWay, Ref: 100, Role: "outer"}}, map[string]string{"type": "route"})
	require.NoError(t, ds.Finish())
	return ds
}

func TestPBFWriteReadRoundTrip(t *testing.T) {
	ds := buildSampleDataset(t)

	var buf bytes.Buffer
	require.NoError(t, ds.WritePBF(&buf, WriteOptions{}))

	out := NewDataset(0)
	require.NoError(t, out.ReadPBF(context.Background(), &buf, ReadOptions{}))

	require.Equal(t, ds.Nodes.Len(), out.Nodes.Len())
	require.Equal(t, ds.Ways.Len(), out.Ways.Len())
	require.Equal(t, ds.Relations.Len(), out.Relations.Len())

	i := out.Nodes.IndexOf(1)
	require.GreaterOrEqual(t, i, 0)
	node := out.Nodes.Get(i)
	require.InDelta(t, 7.0, node.Lon, 1e-6)
	require.InDelta(t, 45.0, node.Lat, 1e-6)
	require.Equal(t, "cafe", node.Tags["amenity"])

	wi := out.Ways.IndexOf(100)
	require.GreaterOrEqual(t, wi, 0)
	way := out.Ways.Get(wi)
	require.Equal(t, []int64{1, 2, 3}, way.Refs)
	require.Equal(t, "Test St", way.Tags["name"])

	ri := out.Relations.IndexOf(1000)
	require.GreaterOrEqual(t, ri, 0)
	rel := out.Relations.Get(ri)
	require.Equal(t, []Member{{Type: MemberWay, Ref: 100, Role: "outer"}}, rel.Members)
}

func TestPBFReadParallelMatchesSerial(t *testing.T) {
	ds := buildSampleDataset(t)

	var buf bytes.Buffer
	require.NoError(t, ds.WritePBF(&buf, WriteOptions{}))
	data := buf.Bytes()

	serial := NewDataset(0)
	require.NoError(t, serial.ReadPBF(context.Background(), bytes.NewReader(data), ReadOptions{}))

	parallel := NewDataset(0)
	require.NoError(t, parallel.ReadPBF(context.Background(), bytes.NewReader(data), ReadOptions{Workers: 4}))

	require.Equal(t, serial.Nodes.Len(), parallel.Nodes.Len())
	require.Equal(t, serial.Ways.Len(), parallel.Ways.Len())
	require.Equal(t, serial.Relations.Len(), parallel.Relations.Len())
}

func TestPBFReaderRejectsMissingHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBlob(&buf, "OSMData", encodeHeaderBlock(0, 0, 0, 0, false, "x")))

	r := NewPBFReader(&buf)
	_, err := r.Next(context.Background())
	require.Error(t, err)
}

func TestPBFReaderRejectsOversizedBlobHeader(t *testing.T) {
	var lenBuf [4]byte
	lenBuf[0] = 0xFF
	lenBuf[1] = 0xFF
	lenBuf[2] = 0xFF
	lenBuf[3] = 0xFF
	buf := bytes.NewBuffer(lenBuf[:])

	r := NewPBFReader(buf)
	_, err := r.Next(context.Background())
	require.Error(t, err)
}

func TestDatasetRejectsOutOfOrderEntities(t *testing.T) {
	ds := NewDataset(0)
	ds.Nodes.Add(1, 0, 0, nil)
	require.NoError(t, ds.advanceToWays())
	ds.Ways.Add(1, []int64{1}, nil)
	require.NoError(t, ds.Finish())

	err := ds.ingestBlock(decodedBlock{
		denseNodes: []denseNodeGroup{{ids: []int64{2}, lats: []float64{0}, lons: []float64{0}, keyVals: [][]uint32{nil}}},
	})
	require.Error(t, err)
}

func TestDatasetGet(t *testing.T) {
	ds := buildSampleDataset(t)

	e, ok := ds.Get(EntityNode, 1)
	require.True(t, ok)
	require.Equal(t, EntityNode, e.Type)

	_, ok = ds.Get(EntityWay, 999)
	require.False(t, ok)
}

func TestDatasetBuildSpatialIndexesEnablesQueries(t *testing.T) {
	ds := buildSampleDataset(t)
	ds.BuildSpatialIndexes()

	hits := ds.Nodes.WithinBBox(6.9, 44.9, 7.2, 45.2)
	require.NotEmpty(t, hits)
}
