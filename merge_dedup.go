// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

// DeduplicateNodes implements spec §4.10.2: every patch node coincident
// with an existing base node replaces it. The base node is deleted and the
// base ways/relations that referenced it are rewritten to reference the
// patch node's id instead. Requires base's spatial indexes
// (BuildSpatialIndexes) to already be built.
func DeduplicateNodes(base, patch *Dataset, cs *Changeset, stats *MergeStats) {
	for i := 0; i < patch.Nodes.Len(); i++ {
		p := patch.Nodes.Get(i)

		hits := base.Nodes.WithinRadius(p.Lon, p.Lat, 0)
		if len(hits) == 0 {
			continue
		}
		b := base.Nodes.Get(hits[0])
		if b.ID == p.ID {
			continue
		}

		cs.Nodes[b.ID] = NodeChange{Kind: ChangeDelete, Node: b}
		stats.DeduplicatedNodes++

		for _, wi := range base.Ways.Neighbors(p.Lon, p.Lat, 10, 0.01) {
			w := base.Ways.Get(wi)
			if !containsRef(w.Refs, b.ID) {
				continue
			}
			newRefs := replaceRef(w.Refs, b.ID, p.ID)
			cs.Ways[w.ID] = WayChange{Kind: ChangeModify, Way: Way{ID: w.ID, Refs: newRefs, Tags: w.Tags}}
			stats.DeduplicatedNodesReplaced++
		}

		for ri := 0; ri < base.Relations.Len(); ri++ {
			r := base.Relations.Get(ri)
			if !base.Relations.IncludesMember(ri, b.ID, MemberNode, "") {
				continue
			}
			newMembers := make([]Member, len(r.Members))
			copy(newMembers, r.Members)
			for mi, m := range newMembers {
				if m.Type == MemberNode && m.Ref == b.ID {
					newMembers[mi].Ref = p.ID
				}
			}
			cs.Relations[r.ID] = RelationChange{Kind: ChangeModify, Relation: Relation{ID: r.ID, Members: newMembers, Tags: r.Tags}}
			stats.DeduplicatedNodesReplaced++
		}
	}
}

func containsRef(refs []int64, id int64) bool {
	for _, r := range refs {
		if r == id {
			return true
		}
	}
	return false
}

func replaceRef(refs []int64, oldID, newID int64) []int64 {
	out := make([]int64, len(refs))
	for i, r := range refs {
		if r == oldID {
			out[i] = newID
		} else {
			out[i] = r
		}
	}
	return out
}
