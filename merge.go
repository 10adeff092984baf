// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "reflect"

// ChangeKind classifies one changeset entry (spec §4.10).
type ChangeKind uint8

const (
	ChangeCreate ChangeKind = iota
	ChangeModify
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeModify:
		return "modify"
	case ChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// NodeChange, WayChange and RelationChange are one changeset entry per
// entity type, keyed by OSM id in the Changeset maps below.
type NodeChange struct {
	Kind ChangeKind
	Node Node
}

type WayChange struct {
	Kind ChangeKind
	Way  Way
}

type RelationChange struct {
	Kind     ChangeKind
	Relation Relation
}

// Changeset is the three id-keyed mappings of spec §4.10.
type Changeset struct {
	Nodes     map[int64]NodeChange
	Ways      map[int64]WayChange
	Relations map[int64]RelationChange
}

// NewChangeset returns an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{
		Nodes:     make(map[int64]NodeChange),
		Ways:      make(map[int64]WayChange),
		Relations: make(map[int64]RelationChange),
	}
}

// MergeStats accumulates the counters spec §4.10.2/§4.10.3 call for.
type MergeStats struct {
	DeduplicatedNodes         int
	DeduplicatedNodesReplaced int
	IntersectionPointsFound   int
}

// GenerateDirectChanges implements spec §4.10.1: every patch entity absent
// from base becomes a create, every one present but differing becomes a
// modify, and unchanged entities are omitted.
func GenerateDirectChanges(base, patch *Dataset) *Changeset {
	cs := NewChangeset()

	for i := 0; i < patch.Nodes.Len(); i++ {
		p := patch.Nodes.Get(i)
		if b, ok := base.Get(EntityNode, p.ID); !ok {
			cs.Nodes[p.ID] = NodeChange{Kind: ChangeCreate, Node: p}
		} else if !nodesEqual(p, b.Node) {
			cs.Nodes[p.ID] = NodeChange{Kind: ChangeModify, Node: p}
		}
	}
	for i := 0; i < patch.Ways.Len(); i++ {
		p := patch.Ways.Get(i)
		if b, ok := base.Get(EntityWay, p.ID); !ok {
			cs.Ways[p.ID] = WayChange{Kind: ChangeCreate, Way: p}
		} else if !waysEqual(p, b.Way) {
			cs.Ways[p.ID] = WayChange{Kind: ChangeModify, Way: p}
		}
	}
	for i := 0; i < patch.Relations.Len(); i++ {
		p := patch.Relations.Get(i)
		if b, ok := base.Get(EntityRelation, p.ID); !ok {
			cs.Relations[p.ID] = RelationChange{Kind: ChangeCreate, Relation: p}
		} else if !relationsEqual(p, b.Relation) {
			cs.Relations[p.ID] = RelationChange{Kind: ChangeModify, Relation: p}
		}
	}
	return cs
}

func tagsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func nodesEqual(a, b Node) bool {
	return a.Lon == b.Lon && a.Lat == b.Lat && tagsEqual(a.Tags, b.Tags)
}

func waysEqual(a, b Way) bool {
	return reflect.DeepEqual(a.Refs, b.Refs) && tagsEqual(a.Tags, b.Tags)
}

func relationsEqual(a, b Relation) bool {
	return reflect.DeepEqual(a.Members, b.Members) && tagsEqual(a.Tags, b.Tags)
}

// waysShouldConnect implements the connection predicate of spec §4.10.4.
func waysShouldConnect(a, b map[string]string) bool {
	if isPolygonish(a) || isPolygonish(b) {
		return false
	}
	if isSeparated(a) || isSeparated(b) {
		return false
	}
	if layerOf(a) != layerOf(b) {
		return false
	}

	aHighway, aOK := a["highway"]
	bHighway, bOK := b["highway"]
	if aOK && bOK {
		return true
	}
	if aOK && isFootpathlike(bHighway) {
		return true
	}
	if bOK && isFootpathlike(aHighway) {
		return true
	}
	return false
}

func isPolygonish(tags map[string]string) bool {
	return tagPresent(tags, "building") || tagPresent(tags, "landuse") || tagPresent(tags, "natural")
}

func isSeparated(tags map[string]string) bool {
	return tagPresent(tags, "bridge") || tagPresent(tags, "tunnel")
}

func tagPresent(tags map[string]string, key string) bool {
	v, ok := tags[key]
	return ok && v != "no"
}

func layerOf(tags map[string]string) string {
	if v, ok := tags["layer"]; ok {
		return v
	}
	return "0"
}

var footpathlikeHighways = map[string]bool{
	"footway": true, "path": true, "cycleway": true, "bridleway": true, "steps": true,
}

func isFootpathlike(highway string) bool {
	return footpathlikeHighways[highway]
}

// ApplyChanges implements spec §4.10.5: produces a new, independently
// frozen dataset from base plus cs, leaving base untouched (invariant I7).
func ApplyChanges(base *Dataset, cs *Changeset) (*Dataset, error) {
	out := NewDataset(base.Nodes.Len() + len(cs.Nodes))

	remainingNodes := make(map[int64]NodeChange, len(cs.Nodes))
	for k, v := range cs.Nodes {
		remainingNodes[k] = v
	}
	for i := 0; i < base.Nodes.Len(); i++ {
		n := base.Nodes.Get(i)
		chg, has := remainingNodes[n.ID]
		if !has {
			out.Nodes.Add(n.ID, n.Lon, n.Lat, n.Tags)
			continue
		}
		delete(remainingNodes, n.ID)
		switch chg.Kind {
		case ChangeDelete:
		case ChangeModify:
			out.Nodes.Add(chg.Node.ID, chg.Node.Lon, chg.Node.Lat, chg.Node.Tags)
		case ChangeCreate:
			return nil, &ConflictingCreateError{Type: "node", ID: n.ID}
		}
	}
	for id, chg := range remainingNodes {
		if chg.Kind != ChangeCreate {
			return nil, &StaleChangeError{Type: "node", ID: id, Kind: chg.Kind.String()}
		}
		out.Nodes.Add(chg.Node.ID, chg.Node.Lon, chg.Node.Lat, chg.Node.Tags)
	}
	out.Nodes.Finish()
	out.stage = stageWays

	remainingWays := make(map[int64]WayChange, len(cs.Ways))
	for k, v := range cs.Ways {
		remainingWays[k] = v
	}
	for i := 0; i < base.Ways.Len(); i++ {
		w := base.Ways.Get(i)
		chg, has := remainingWays[w.ID]
		if !has {
			out.Ways.Add(w.ID, w.Refs, w.Tags)
			continue
		}
		delete(remainingWays, w.ID)
		switch chg.Kind {
		case ChangeDelete:
		case ChangeModify:
			out.Ways.Add(chg.Way.ID, chg.Way.Refs, chg.Way.Tags)
		case ChangeCreate:
			return nil, &ConflictingCreateError{Type: "way", ID: w.ID}
		}
	}
	for id, chg := range remainingWays {
		if chg.Kind != ChangeCreate {
			return nil, &StaleChangeError{Type: "way", ID: id, Kind: chg.Kind.String()}
		}
		out.Ways.Add(chg.Way.ID, chg.Way.Refs, chg.Way.Tags)
	}
	if err := out.Ways.Finish(out.Nodes); err != nil {
		return nil, err
	}
	out.stage = stageRelations

	remainingRelations := make(map[int64]RelationChange, len(cs.Relations))
	for k, v := range cs.Relations {
		remainingRelations[k] = v
	}
	for i := 0; i < base.Relations.Len(); i++ {
		r := base.Relations.Get(i)
		chg, has := remainingRelations[r.ID]
		if !has {
			out.Relations.Add(r.ID, r.Members, r.Tags)
			continue
		}
		delete(remainingRelations, r.ID)
		switch chg.Kind {
		case ChangeDelete:
		case ChangeModify:
			out.Relations.Add(chg.Relation.ID, chg.Relation.Members, chg.Relation.Tags)
		case ChangeCreate:
			return nil, &ConflictingCreateError{Type: "relation", ID: r.ID}
		}
	}
	for id, chg := range remainingRelations {
		if chg.Kind != ChangeCreate {
			return nil, &StaleChangeError{Type: "relation", ID: id, Kind: chg.Kind.String()}
		}
		out.Relations.Add(chg.Relation.ID, chg.Relation.Members, chg.Relation.Tags)
	}
	out.Relations.Finish()
	out.Strings.Compact()
	out.stage = stageDone

	return out, nil
}
