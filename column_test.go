// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnPushAndAt(t *testing.T) {
	c := NewColumn[int64](0)
	for i := int64(0); i < 100; i++ {
		c.Push(i * 2)
	}
	require.Equal(t, 100, c.Len())
	for i := 0; i < 100; i++ {
		require.Equal(t, int64(i*2), c.At(i))
	}
}

func TestColumnPushMany(t *testing.T) {
	c := NewColumn[uint32](4)
	c.PushMany([]uint32{1, 2, 3})
	c.PushMany([]uint32{4, 5})
	require.Equal(t, []uint32{1, 2, 3, 4, 5}, c.Raw())
}

func TestColumnCompactReleasesExtraCapacity(t *testing.T) {
	c := NewColumn[float64](256)
	c.Push(1.5)
	c.Push(2.5)
	require.Greater(t, c.Cap(), c.Len())
	c.Compact()
	require.Equal(t, c.Len(), c.Cap())
	require.Equal(t, []float64{1.5, 2.5}, c.Raw())
}

func TestColumnSetOverwrites(t *testing.T) {
	c := NewColumn[int64](0)
	c.Push(1)
	c.Push(2)
	c.Set(1, 99)
	require.Equal(t, int64(99), c.At(1))
}

func TestColumnSlice(t *testing.T) {
	c := NewColumn[int64](0)
	c.PushMany([]int64{10, 20, 30, 40})
	require.Equal(t, []int64{20, 30}, c.Slice(1, 3))
}
