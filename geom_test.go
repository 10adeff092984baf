// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly one degree of longitude at the equator is ~111.2 km.
	d := Haversine(orb.Point{0, 0}, orb.Point{1, 0})
	require.InDelta(t, 111195, d, 500)
}

func TestHaversineZeroForSamePoint(t *testing.T) {
	require.Equal(t, 0.0, Haversine(orb.Point{7, 45}, orb.Point{7, 45}))
}

func TestLineIntersectCrossing(t *testing.T) {
	a := Line{{0, 0}, {2, 2}}
	b := Line{{0, 2}, {2, 0}}
	pts := LineIntersect(a, b)
	require.Len(t, pts, 1)
	require.InDelta(t, 1, pts[0][0], 1e-9)
	require.InDelta(t, 1, pts[0][1], 1e-9)
}

func TestLineIntersectExcludesEndpointTouch(t *testing.T) {
	a := Line{{0, 0}, {1, 1}}
	b := Line{{1, 1}, {2, 0}}
	require.Empty(t, LineIntersect(a, b))
}

func TestLineIntersectParallelLinesNoCrossing(t *testing.T) {
	a := Line{{0, 0}, {1, 0}}
	b := Line{{0, 1}, {1, 1}}
	require.Empty(t, LineIntersect(a, b))
}

func TestNearestPointOnLine(t *testing.T) {
	l := Line{{0, 0}, {10, 0}}
	p, seg, dist := NearestPointOnLine(l, orb.Point{5, 3})
	require.Equal(t, 0, seg)
	require.InDelta(t, 5, p[0], 1e-9)
	require.InDelta(t, 0, p[1], 1e-9)
	require.InDelta(t, 3, dist, 1e-9)
}

func TestWayIsAreaRequiresClosedRing(t *testing.T) {
	refs := []int64{1, 2, 3}
	tags := map[string]string{"building": "yes"}
	require.False(t, WayIsArea(refs, tags)) // not closed

	closed := []int64{1, 2, 3, 1}
	require.True(t, WayIsArea(closed, tags))
}

func TestWayIsAreaExplicitOverride(t *testing.T) {
	closed := []int64{1, 2, 3, 1}
	require.False(t, WayIsArea(closed, map[string]string{"building": "yes", "area": "no"}))
	require.True(t, WayIsArea(closed, map[string]string{"area": "yes"}))
}

func TestWayIsAreaKeyValueRules(t *testing.T) {
	closed := []int64{1, 2, 3, 1}
	require.True(t, WayIsArea(closed, map[string]string{"highway": "services"}))
	require.False(t, WayIsArea(closed, map[string]string{"highway": "residential"}))
}

func TestWayIsAreaExclusionRules(t *testing.T) {
	closed := []int64{1, 2, 3, 1}
	require.False(t, WayIsArea(closed, map[string]string{"natural": "coastline"}))
	require.True(t, WayIsArea(closed, map[string]string{"natural": "water"}))
}
