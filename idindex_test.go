// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdIndexSortedFastPath(t *testing.T) {
	idx := NewIdIndex(0)
	ids := []int64{10, 20, 30, 40, 50}
	for _, id := range ids {
		idx.Push(id)
	}
	idx.Build()

	for i, id := range ids {
		require.Equal(t, i, idx.IndexOf(id))
	}
	require.Equal(t, -1, idx.IndexOf(25))
	require.Equal(t, -1, idx.IndexOf(5))
	require.Equal(t, -1, idx.IndexOf(100))
}

func TestIdIndexUnsortedIds(t *testing.T) {
	idx := NewIdIndex(0)
	ids := []int64{50, 10, 40, 20, 30}
	for _, id := range ids {
		idx.Push(id)
	}
	idx.Build()

	for i, id := range ids {
		require.Equal(t, i, idx.IndexOf(id))
	}
	require.Equal(t, -1, idx.IndexOf(25))
}

func TestIdIndexLargeUnsortedRoundTrip(t *testing.T) {
	idx := NewIdIndex(0)
	n := 5000
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		// A reversible permutation that isn't monotonic.
		ids[i] = int64((i*7919 + 13) % 1000003)
		idx.Push(ids[i])
	}
	idx.Build()

	for i, id := range ids {
		got := idx.IndexOf(id)
		require.GreaterOrEqual(t, got, 0)
		require.Equal(t, id, idx.At(got))
		_ = i
	}
}
