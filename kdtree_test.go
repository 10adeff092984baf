// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompleteTreeLeftSize(t *testing.T) {
	require.Equal(t, 0, completeTreeLeftSize(0))
	require.Equal(t, 0, completeTreeLeftSize(1))
	require.Equal(t, 1, completeTreeLeftSize(2))
	require.Equal(t, 1, completeTreeLeftSize(3))
	require.Equal(t, 3, completeTreeLeftSize(7))
}

func TestKDTreeRange(t *testing.T) {
	lon := []float64{0, 1, 2, 10, -5}
	lat := []float64{0, 1, 2, 10, -5}
	tree := BuildKDTree(lon, lat)

	got := tree.Range(-1, -1, 2.5, 2.5)
	require.ElementsMatch(t, []int{0, 1, 2}, got)
}

func TestKDTreeWithin(t *testing.T) {
	lon := []float64{0, 0.01, 5, -5}
	lat := []float64{0, 0.01, 5, -5}
	tree := BuildKDTree(lon, lat)

	got := tree.Within(0, 0, 0.1)
	require.ElementsMatch(t, []int{0, 1}, got)
}

func TestKDTreeAllPointsFound(t *testing.T) {
	n := 37
	lon := make([]float64, n)
	lat := make([]float64, n)
	for i := 0; i < n; i++ {
		lon[i] = float64(i)
		lat[i] = float64(-i)
	}
	tree := BuildKDTree(lon, lat)
	got := tree.Range(-1000, -1000, 1000, 1000)
	require.Len(t, got, n)
}
