// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache[string, int](0, 0)
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = c.Get("missing")
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache[string, int](0, time.Millisecond)
	c.Put("a", 1)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache[string, int](2, 0)
	c.Put("a", 1)
	time.Sleep(time.Millisecond)
	c.Put("b", 2)
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the least-recently-used entry.
	c.Get("a")
	time.Sleep(time.Millisecond)

	c.Put("c", 3)

	_, ok := c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Evictions)
}

func TestCacheClear(t *testing.T) {
	c := NewCache[string, int](0, 0)
	c.Put("a", 1)
	c.Clear()
	_, ok := c.Get("a")
	require.False(t, ok)
}
