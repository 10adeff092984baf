// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "sync"

// SlicePool recycles scratch slices of T to reduce GC pressure during
// repeated graph-algorithm passes (spec §4.11.3's
// per-query distance/visited arrays, rebuilt on every Dijkstra/A* call),
// generalized from the teacher's sync.Pool-backed textSlicePool and
// intSlicePool (memory_pools.go).
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool returns a pool whose freshly allocated slices start with
// defaultCap capacity.
func NewSlicePool[T any](defaultCap int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any {
				s := make([]T, 0, defaultCap)
				return &s
			},
		},
	}
}

// Get returns a zero-length slice with capacity at least minCap.
func (p *SlicePool[T]) Get(minCap int) []T {
	sp := p.pool.Get().(*[]T)
	s := *sp
	if cap(s) < minCap {
		return make([]T, 0, minCap)
	}
	return s[:0]
}

// Put returns s to the pool. Oversized slices are dropped rather than
// pinning large backing arrays in the pool indefinitely.
func (p *SlicePool[T]) Put(s []T) {
	if cap(s) > 1<<16 {
		return
	}
	s = s[:0]
	p.pool.Put(&s)
}

// Shared scratch pools. Routing's per-query search uses float64Pool,
// int32Pool and boolPool for distances, predecessors and visited flags;
// int64Pool has no caller in the package.
var (
	float64Pool = NewSlicePool[float64](1024)
	int32Pool   = NewSlicePool[int32](1024)
	int64Pool   = NewSlicePool[int64](1024)
	boolPool    = NewSlicePool[bool](1024)
)
