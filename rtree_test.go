// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func box(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

func TestRTreeIntersects(t *testing.T) {
	boxes := []orb.Bound{
		box(0, 0, 1, 1),
		box(5, 5, 6, 6),
		box(10, 10, 11, 11),
	}
	tree := BuildRTree(boxes, 2)

	got := tree.Intersects(box(-1, -1, 2, 2))
	require.Equal(t, []int{0}, got)

	got = tree.Intersects(box(4, 4, 12, 12))
	require.ElementsMatch(t, []int{1, 2}, got)
}

func TestRTreeNeighbors(t *testing.T) {
	boxes := []orb.Bound{
		box(0, 0, 0, 0),
		box(1, 1, 1, 1),
		box(100, 100, 100, 100),
	}
	tree := BuildRTree(boxes, 16)

	got := tree.Neighbors(0, 0, 2, 1000)
	require.Equal(t, []int{0, 1}, got)
}

func TestRTreeEmpty(t *testing.T) {
	tree := BuildRTree(nil, 16)
	require.Empty(t, tree.Intersects(box(0, 0, 1, 1)))
	require.Empty(t, tree.Neighbors(0, 0, 5, 10))
}

func TestHilbertDPreservesLocality(t *testing.T) {
	// Points close together should yield closer Hilbert distances than
	// points far apart, a loose sanity check on the curve ordering.
	near := hilbertD(16, 10, 10)
	near2 := hilbertD(16, 11, 11)
	far := hilbertD(16, 60000, 60000)

	diffNear := int64(near) - int64(near2)
	if diffNear < 0 {
		diffNear = -diffNear
	}
	diffFar := int64(near) - int64(far)
	if diffFar < 0 {
		diffFar = -diffFar
	}
	require.Less(t, diffNear, diffFar)
}
