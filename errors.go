// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import (
	"fmt"
)

// Kind classifies an Error by the taxonomy of spec §7.
type Kind int

const (
	KindOther Kind = iota
	KindMalformedPBF
	KindMissingHeader
	KindOutOfOrderEntity
	KindDanglingRef
	KindFrozen
	KindIndexOutOfRange
	KindIdOutOfRange
	KindConflictingCreate
	KindStaleChange
	KindAStarRequiresCoords
	KindBlobTooLarge
	KindHeaderTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindMalformedPBF:
		return "malformed PBF"
	case KindMissingHeader:
		return "missing header"
	case KindOutOfOrderEntity:
		return "out of order entity"
	case KindDanglingRef:
		return "dangling ref"
	case KindFrozen:
		return "frozen"
	case KindIndexOutOfRange:
		return "index out of range"
	case KindIdOutOfRange:
		return "id out of range"
	case KindConflictingCreate:
		return "conflicting create"
	case KindStaleChange:
		return "stale change"
	case KindAStarRequiresCoords:
		return "a* requires coords"
	case KindBlobTooLarge:
		return "blob too large"
	case KindHeaderTooLarge:
		return "header too large"
	default:
		return "error"
	}
}

// Error is the error type returned by every fallible osmix operation. It
// carries the operation that failed, a Kind for programmatic dispatch, and
// the wrapped underlying cause (if any).
type Error struct {
	Op   string // operation that failed, e.g. "way index: finish"
	Kind Kind
	Err error // underlying error, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("osmix: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("osmix: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &Error{Kind: KindFrozen}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Sentinel errors for programmer-error conditions that never carry useful
// extra context beyond the Kind itself.
var (
	ErrFrozen              = &Error{Op: "mutate", Kind: KindFrozen}
	ErrIndexOutOfRange     = &Error{Op: "at", Kind: KindIndexOutOfRange}
	ErrIdOutOfRange        = &Error{Op: "get", Kind: KindIdOutOfRange}
	ErrAStarRequiresCoords = &Error{Op: "astar", Kind: KindAStarRequiresCoords}
)

// DanglingRefError reports an unresolvable way ref or relation member ref.
type DanglingRefError struct {
	WayID       int64
	MissingNode int64
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("osmix: dangling ref: way %d references missing node %d", e.WayID, e.MissingNode)
}

// ConflictingCreateError reports a changeset create record whose id already
// exists in the base dataset.
type ConflictingCreateError struct {
	Type string
	ID   int64
}

func (e *ConflictingCreateError) Error() string {
	return fmt.Sprintf("osmix: conflicting create: %s %d already exists", e.Type, e.ID)
}

// StaleChangeError reports a changeset modify/delete record that matched no
// entity in the base dataset.
type StaleChangeError struct {
	Type string
	ID   int64
	Kind string // "modify" or "delete"
}

func (e *StaleChangeError) Error() string {
	return fmt.Sprintf("osmix: stale change: %s %s %d has no base entity", e.Kind, e.Type, e.ID)
}
