// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiangBarskyClipFullyInside(t *testing.T) {
	cx0, cy0, cx1, cy1, ok := liangBarskyClip(1, 1, 5, 5, 0, 0, 10, 10)
	require.True(t, ok)
	require.Equal(t, 1.0, cx0)
	require.Equal(t, 1.0, cy0)
	require.Equal(t, 5.0, cx1)
	require.Equal(t, 5.0, cy1)
}

func TestLiangBarskyClipFullyOutside(t *testing.T) {
	_, _, _, _, ok := liangBarskyClip(20, 20, 30, 30, 0, 0, 10, 10)
	require.False(t, ok)
}

func TestLiangBarskyClipPartial(t *testing.T) {
	cx0, cy0, cx1, cy1, ok := liangBarskyClip(-5, 5, 15, 5, 0, 0, 10, 10)
	require.True(t, ok)
	require.InDelta(t, 0, cx0, 1e-9)
	require.InDelta(t, 5, cy0, 1e-9)
	require.InDelta(t, 10, cx1, 1e-9)
	require.InDelta(t, 5, cy1, 1e-9)
}

func TestBresenhamDrawsEndpoints(t *testing.T) {
	r := NewRasterizer(RasterOptions{Width: 10, Height: 10, MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10})
	col := color.RGBA{R: 255, A: 255}
	bresenham(r.Image(), 0, 0, 9, 0, col)

	require.Equal(t, col, r.Image().RGBAAt(0, 0))
	require.Equal(t, col, r.Image().RGBAAt(9, 0))
}

func TestRasterizerDrawWayEndToEnd(t *testing.T) {
	st := NewStringTable()
	nodes := NewNodeIndex(st, 0)
	nodes.Add(1, 0, 0, nil)
	nodes.Add(2, 10, 0, nil)
	nodes.Finish()

	ways := NewWayIndex(st, 0)
	ways.Add(100, []int64{1, 2}, nil)
	require.NoError(t, ways.Finish(nodes))

	ds := &Dataset{Strings: st, Nodes: nodes, Ways: ways, Relations: NewRelationIndex(st, 0)}

	r := NewRasterizer(RasterOptions{Width: 10, Height: 10, MinLon: 0, MinLat: -1, MaxLon: 10, MaxLat: 1, Background: color.RGBA{A: 255}})
	col := color.RGBA{G: 255, A: 255}
	r.DrawWay(ds, 0, col)

	require.Equal(t, col, r.Image().RGBAAt(0, 5))
}
