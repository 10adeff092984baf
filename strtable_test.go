// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringTableAddIsIdempotent(t *testing.T) {
	st := NewStringTable()
	a := st.Add("highway")
	b := st.Add("highway")
	c := st.Add("residential")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, "highway", st.Get(a))
	require.Equal(t, "residential", st.Get(c))
}

func TestStringTableEmptyString(t *testing.T) {
	st := NewStringTable()
	id := st.Add("")
	require.Equal(t, "", st.Get(id))
	require.Equal(t, id, st.Add(""))
}

func TestStringTableGetBytesAliasesBytes(t *testing.T) {
	st := NewStringTable()
	id := st.Add("crossing")
	require.Equal(t, []byte("crossing"), st.GetBytes(id))
}

func TestStringTableCompactFreezes(t *testing.T) {
	st := NewStringTable()
	st.Add("a")
	st.Compact()
	require.Panics(t, func() { st.Add("b") })
}

func TestStringTableGetOutOfRangePanics(t *testing.T) {
	st := NewStringTable()
	st.Add("a")
	require.Panics(t, func() { st.Get(99) })
}
