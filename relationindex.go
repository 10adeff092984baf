// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

// MemberType enumerates the kind of a relation member, matching the PBF
// wire enum (spec §3.1/§4.8.3): 0=node, 1=way, 2=relation.
type MemberType uint8

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

func (t MemberType) String() string {
	switch t {
	case MemberNode:
		return "node"
	case MemberWay:
		return "way"
	case MemberRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Member is one (type, ref, role) entry of a relation. Ref is an OSM id,
// not a local index — relations may forward-reference other relations
// during ingest, so resolution to a table-local index is left to the
// consumer (spec §9 Open Question, relation-index variant with ids).
type Member struct {
	Type MemberType
	Ref  int64
	Role string
}

// Relation is the materialized view of one relation entity.
type Relation struct {
	ID      int64
	Members []Member
	Tags    map[string]string
}

// RelationIndex is the relation table (C7): id+tag columns plus a CSR of
// (ref, type, role) member columns.
type RelationIndex struct {
	strings *StringTable

	ids  IdIndex
	tags TagIndex

	memberStart Column[uint32]
	memberCount Column[uint16]
	memberRefs  Column[int64]
	memberTypes Column[uint8]
	memberRoles Column[uint32]

	frozen bool
}

// NewRelationIndex returns an empty relation table.
func NewRelationIndex(strings *StringTable, capHint int) *RelationIndex {
	return &RelationIndex{
		strings:     strings,
		ids:         *NewIdIndex(capHint),
		tags:        *NewTagIndex(strings, capHint),
		memberStart: *NewColumn[uint32](capHint),
		memberCount: *NewColumn[uint16](capHint),
		memberRefs:  *NewColumn[int64](capHint * 4),
		memberTypes: *NewColumn[uint8](capHint * 4),
		memberRoles: *NewColumn[uint32](capHint * 4),
	}
}

// Add appends a relation. Member role strings are interned through the
// shared string table.
func (r *RelationIndex) Add(id int64, members []Member, tags map[string]string) int {
	if r.frozen {
		panic(ErrFrozen)
	}
	if len(members) > 65535 {
		panic(newErr("relation index: add", KindOther, nil))
	}
	i := r.ids.Push(id)
	r.memberStart.Push(uint32(r.memberRefs.Len()))
	r.memberCount.Push(uint16(len(members)))
	for _, m := range members {
		r.memberRefs.Push(m.Ref)
		r.memberTypes.Push(uint8(m.Type))
		r.memberRoles.Push(r.strings.Add(m.Role))
	}
	r.tags.AddTags(tags)
	return i
}

// AddTagIDs mirrors Add for the PBF decoder path (roles and tags already
// interned through the dataset's shared string table).
func (r *RelationIndex) AddTagIDs(id int64, refs []int64, types []uint8, roles []uint32, tagKeys, tagVals []uint32) int {
	if r.frozen {
		panic(ErrFrozen)
	}
	i := r.ids.Push(id)
	r.memberStart.Push(uint32(r.memberRefs.Len()))
	r.memberCount.Push(uint16(len(refs)))
	r.memberRefs.PushMany(refs)
	r.memberTypes.PushMany(types)
	r.memberRoles.PushMany(roles)
	r.tags.AddTagIDs(tagKeys, tagVals)
	return i
}

// Len returns the number of relations.
func (r *RelationIndex) Len() int { return r.ids.Len() }

// Finish freezes the table.
func (r *RelationIndex) Finish() {
	if r.frozen {
		return
	}
	r.ids.Build()
	r.tags.Compact()
	r.memberStart.Compact()
	r.memberCount.Compact()
	r.memberRefs.Compact()
	r.memberTypes.Compact()
	r.memberRoles.Compact()
	r.frozen = true
}

// IndexOf returns the local index of id, or -1 if absent.
func (r *RelationIndex) IndexOf(id int64) int { return r.ids.IndexOf(id) }

// Get returns the relation at local index i.
func (r *RelationIndex) Get(i int) Relation {
	return Relation{ID: r.ids.At(i), Members: r.GetMembers(i), Tags: r.tags.Tags(i)}
}

// GetMembers materializes the member list of relation i.
func (r *RelationIndex) GetMembers(i int) []Member {
	start := int(r.memberStart.At(i))
	count := int(r.memberCount.At(i))
	out := make([]Member, count)
	for j := 0; j < count; j++ {
		out[j] = Member{
			Type: MemberType(r.memberTypes.At(start + j)),
			Ref:  r.memberRefs.At(start + j),
			Role: r.strings.get(r.memberRoles.At(start + j)),
		}
	}
	return out
}

// memberRoleIDs returns the global string-table ids of relation i's member
// roles, in member order, without re-interning anything through strings.Add
// (the PBF writer needs these after the shared table has been frozen).
func (r *RelationIndex) memberRoleIDs(i int) []uint32 {
	start := int(r.memberStart.At(i))
	count := int(r.memberCount.At(i))
	out := make([]uint32, count)
	for j := 0; j < count; j++ {
		out[j] = r.memberRoles.At(start + j)
	}
	return out
}

// IncludesMember reports whether relation i has a member matching ref and
// typ, optionally constrained to a specific role (empty role matches any).
// Linear scan, bounded by the 65 535 member cap (spec §4.7).
func (r *RelationIndex) IncludesMember(i int, ref int64, typ MemberType, role string) bool {
	start := int(r.memberStart.At(i))
	count := int(r.memberCount.At(i))
	for j := 0; j < count; j++ {
		if r.memberRefs.At(start+j) != ref || MemberType(r.memberTypes.At(start+j)) != typ {
			continue
		}
		if role == "" || r.strings.get(r.memberRoles.At(start+j)) == role {
			return true
		}
	}
	return false
}

// Tags returns the tag map of relation i.
func (r *RelationIndex) Tags(i int) map[string]string { return r.tags.Tags(i) }
