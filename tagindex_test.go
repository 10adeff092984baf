// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagIndexAddTagsAndRead(t *testing.T) {
	st := NewStringTable()
	ti := NewTagIndex(st, 0)

	i0 := ti.AddTags(map[string]string{"highway": "residential", "name": "Main St"})
	i1 := ti.AddTags(nil)

	require.True(t, ti.HasTags(i0))
	require.False(t, ti.HasTags(i1))

	got := ti.Tags(i0)
	require.Equal(t, map[string]string{"highway": "residential", "name": "Main St"}, got)

	v, ok := ti.TagValue(i0, "highway")
	require.True(t, ok)
	require.Equal(t, "residential", v)

	_, ok = ti.TagValue(i0, "missing")
	require.False(t, ok)
}

func TestTagIndexAddTagsOverCapPanics(t *testing.T) {
	st := NewStringTable()
	ti := NewTagIndex(st, 0)
	tags := make(map[string]string, 256)
	for i := 0; i < 256; i++ {
		tags[string(rune('a'+i%26))+string(rune(i))] = "v"
	}
	require.Panics(t, func() { ti.AddTags(tags) })
}

func TestTagIndexAddTagIDsMatchesAddTags(t *testing.T) {
	st := NewStringTable()
	ti := NewTagIndex(st, 0)

	kHighway := st.Add("highway")
	vResidential := st.Add("residential")
	i := ti.AddTagIDs([]uint32{kHighway}, []uint32{vResidential})

	require.Equal(t, map[string]string{"highway": "residential"}, ti.Tags(i))
}
