// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "container/heap"

// nodeHeap is a binary min-heap over node indexes keyed by priority,
// supporting O(log n) decrease-key via a side position map (spec §4.11.4).
// Grounded on the teacher's block-anchor binary search discipline
// (idindex.go) generalized to a heap-index side table instead of anchors.
type nodeHeap struct {
	items []heapItem
	pos   map[int]int // node index -> slot in items; no entry if not present
}

type heapItem struct {
	node int
	prio float64
}

func newNodeHeap(capHint int) *nodeHeap {
	return &nodeHeap{
		items: make([]heapItem, 0, capHint),
		pos:   make(map[int]int, capHint),
	}
}

func (h *nodeHeap) Len() int { return len(h.items) }
func (h *nodeHeap) Less(i, j int) bool { return h.items[i].prio < h.items[j].prio }
func (h *nodeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].node] = i
	h.pos[h.items[j].node] = j
}

func (h *nodeHeap) Push(x any) {
	it := x.(heapItem)
	h.pos[it.node] = len(h.items)
	h.items = append(h.items, it)
}

func (h *nodeHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	delete(h.pos, it.node)
	return it
}

// push inserts node with priority prio, or lowers its existing priority if
// prio is smaller than what's already queued; otherwise it is a no-op.
func (h *nodeHeap) push(node int, prio float64) {
	if i, ok := h.pos[node]; ok {
		if prio < h.items[i].prio {
			h.items[i].prio = prio
			heap.Fix(h, i)
		}
		return
	}
	heap.Push(h, heapItem{node: node, prio: prio})
}

// pop removes and returns the minimum-priority node and its priority.
func (h *nodeHeap) pop() (int, float64) {
	it := heap.Pop(h).(heapItem)
	return it.node, it.prio
}

func (h *nodeHeap) empty() bool { return len(h.items) == 0 }
