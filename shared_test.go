// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatasetTransferablesExposesRawColumns(t *testing.T) {
	ds := buildSampleDataset(t)

	tr := ds.Transferables()
	require.Equal(t, ds.Nodes.Len(), len(tr.Nodes.IDs))
	require.Equal(t, ds.Ways.Len(), len(tr.Ways.IDs))
	require.Equal(t, ds.Relations.Len(), len(tr.Relations.IDs))
	require.NotEmpty(t, tr.Strings.Bytes)

	require.Equal(t, int64(1), tr.Nodes.IDs[0])
	require.InDelta(t, 7.0, tr.Nodes.Lon[0], 1e-9)
}

func TestNewSharedBytesRoundTrip(t *testing.T) {
	b := NewSharedBytes(4096)
	require.Len(t, b, 4096)

	b[0] = 0xAB
	require.Equal(t, byte(0xAB), b[0])

	require.NoError(t, FreeSharedBytes(b))
}
