// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

// Column is a resizable, contiguous, monomorphic typed array: the backing
// store for every scalar table column (C1). It grows by doubling and can be
// compacted to an exact-size buffer once the owning table is frozen.
//
// T is one of the scalar column element types osmix uses: uint8, uint16,
// uint32, uint64, int64, float32, float64.
type Column[T any] struct {
	data []T
}

// NewColumn returns an empty column with the given initial capacity hint.
func NewColumn[T any](capHint int) *Column[T] {
	if capHint < 0 {
		capHint = 0
	}
	return &Column[T]{data: make([]T, 0, capHint)}
}

// Push appends v, growing the backing array by doubling if needed.
// Amortized O(1).
func (c *Column[T]) Push(v T) {
	c.data = append(c.data, v)
}

// PushMany appends every element of vs. O(len(vs)).
func (c *Column[T]) PushMany(vs []T) {
	c.data = append(c.data, vs...)
}

// At returns the value at index i in O(1). Panics with ErrIndexOutOfRange
// if i is out of range.
func (c *Column[T]) At(i int) T {
	if i < 0 || i >= len(c.data) {
		panic(ErrIndexOutOfRange)
	}
	return c.data[i]
}

// Len returns the number of elements pushed so far.
func (c *Column[T]) Len() int { return len(c.data) }

// Cap returns the current backing capacity.
func (c *Column[T]) Cap() int { return cap(c.data) }

// Set overwrites the value at index i. Only ever called before Compact by
// internal callers that build columns out of order (e.g. the id-index
// permutation build); not part of the public per-entity API.
func (c *Column[T]) Set(i int, v T) {
	c.data[i] = v
}

// Slice returns a borrowed view over [lo:hi). The caller must not retain it
// past the column's lifetime or across a Compact.
func (c *Column[T]) Slice(lo, hi int) []T {
	return c.data[lo:hi]
}

// Raw returns a borrowed view over the entire backing array, for C6.4
// transferables snapshots and for iteration.
func (c *Column[T]) Raw() []T { return c.data }

// Compact reallocates the backing array to exactly Len() elements,
// releasing any over-allocated capacity from doubling growth. Post:
// Cap() == Len().
func (c *Column[T]) Compact() {
	if cap(c.data) == len(c.data) {
		return
	}
	exact := make([]T, len(c.data))
	copy(exact, c.data)
	c.data = exact
}
