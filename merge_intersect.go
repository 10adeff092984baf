// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "github.com/paulmach/orb"

// CreateIntersections implements spec §4.10.3: for every patch way that
// should connect to a candidate base way (§4.10.4), synthesizes shared
// nodes at their geometric crossing points. Requires base's spatial
// indexes (BuildSpatialIndexes) to already be built.
func CreateIntersections(base, patch *Dataset, cs *Changeset, stats *MergeStats) {
	workingBaseRefs := make(map[int64][]int64)
	workingPatchRefs := make(map[int64][]int64)

	nextNodeID := maxNodeID(base)
	if m := maxNodeID(patch); m > nextNodeID {
		nextNodeID = m
	}
	nextNodeID++

	baseRefsOf := func(b Way) []int64 {
		if r, ok := workingBaseRefs[b.ID]; ok {
			return r
		}
		return b.Refs
	}
	patchRefsOf := func(w Way) []int64 {
		if r, ok := workingPatchRefs[w.ID]; ok {
			return r
		}
		return w.Refs
	}

	for wi := 0; wi < patch.Ways.Len(); wi++ {
		w := patch.Ways.Get(wi)
		minLon, minLat, maxLon, maxLat := patch.Ways.BBoxOf(wi)
		bbox := orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}

		for _, bi := range base.Ways.Intersects(bbox) {
			b := base.Ways.Get(bi)
			if b.ID == w.ID || !waysShouldConnect(w.Tags, b.Tags) {
				continue
			}

			wRefs := patchRefsOf(w)
			bRefs := baseRefsOf(b)
			wLine := lineOfRefs(wRefs, patch.Nodes, cs)
			bLine := lineOfRefs(bRefs, base.Nodes, cs)

			for _, ll := range LineIntersect(wLine, bLine) {
				stats.IntersectionPointsFound++

				bNodeID, bFound := findNodeNear(bRefs, base.Nodes, cs, ll, 1.0)
				wNodeID, wFound := findNodeNear(wRefs, patch.Nodes, cs, ll, 1.0)

				var nodeID int64
				var isNew bool
				switch {
				case bFound:
					nodeID = bNodeID
				case wFound:
					nodeID = wNodeID
				default:
					nodeID = nextNodeID
					nextNodeID++
					isNew = true
				}

				tags := cloneTags(existingNodeTags(nodeID, base, patch, cs))
				tags["crossing"] = "yes"
				kind := ChangeCreate
				if !isNew {
					if _, ok := base.Get(EntityNode, nodeID); ok {
						kind = ChangeModify
					}
				}
				cs.Nodes[nodeID] = NodeChange{Kind: kind, Node: Node{ID: nodeID, Lon: ll[0], Lat: ll[1], Tags: tags}}

				if !containsRef(bRefs, nodeID) {
					_, seg, _ := NearestPointOnLine(bLine, ll)
					bRefs = insertRef(bRefs, seg+1, nodeID)
					workingBaseRefs[b.ID] = bRefs
					bLine = lineOfRefs(bRefs, base.Nodes, cs)
					cs.Ways[b.ID] = WayChange{Kind: ChangeModify, Way: Way{ID: b.ID, Refs: bRefs, Tags: b.Tags}}
				}
				if !containsRef(wRefs, nodeID) {
					_, seg, _ := NearestPointOnLine(wLine, ll)
					wRefs = insertRef(wRefs, seg+1, nodeID)
					workingPatchRefs[w.ID] = wRefs
					wLine = lineOfRefs(wRefs, patch.Nodes, cs)
					cs.Ways[w.ID] = WayChange{Kind: ChangeModify, Way: Way{ID: w.ID, Refs: wRefs, Tags: w.Tags}}
				}
			}
		}
	}
}

func maxNodeID(ds *Dataset) int64 {
	var max int64
	for i := 0; i < ds.Nodes.Len(); i++ {
		if id := ds.Nodes.ids.At(i); id > max {
			max = id
		}
	}
	return max
}

// coordOf resolves the coordinate of node id, preferring a not-yet-applied
// changeset entry over the underlying table so refs rewritten mid-pass see
// the synthesized node's position.
func coordOf(id int64, nodes *NodeIndex, cs *Changeset) (orb.Point, bool) {
	if nc, ok := cs.Nodes[id]; ok && nc.Kind != ChangeDelete {
		return orb.Point{nc.Node.Lon, nc.Node.Lat}, true
	}
	if idx := nodes.IndexOf(id); idx >= 0 {
		return nodes.Coord(idx), true
	}
	return orb.Point{}, false
}

func lineOfRefs(refs []int64, nodes *NodeIndex, cs *Changeset) Line {
	line := make(Line, 0, len(refs))
	for _, r := range refs {
		if p, ok := coordOf(r, nodes, cs); ok {
			line = append(line, p)
		}
	}
	return line
}

// findNodeNear looks for an existing ref within meters of pt, preferring a
// not-yet-applied changeset entry over the underlying table (via coordOf) so
// a crossing node synthesized earlier in the same pass is found here too,
// rather than spawning a second near-duplicate node.
func findNodeNear(refs []int64, nodes *NodeIndex, cs *Changeset, pt orb.Point, meters float64) (int64, bool) {
	for _, r := range refs {
		if c, ok := coordOf(r, nodes, cs); ok && Haversine(c, pt) < meters {
			return r, true
		}
	}
	return 0, false
}

func insertRef(refs []int64, idx int, id int64) []int64 {
	if idx < 0 {
		idx = 0
	}
	if idx > len(refs) {
		idx = len(refs)
	}
	out := make([]int64, 0, len(refs)+1)
	out = append(out, refs[:idx]...)
	out = append(out, id)
	out = append(out, refs[idx:]...)
	return out
}

func existingNodeTags(id int64, base, patch *Dataset, cs *Changeset) map[string]string {
	if nc, ok := cs.Nodes[id]; ok {
		return nc.Node.Tags
	}
	if e, ok := base.Get(EntityNode, id); ok {
		return e.Node.Tags
	}
	if e, ok := patch.Get(EntityNode, id); ok {
		return e.Node.Tags
	}
	return nil
}

func cloneTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	return out
}
