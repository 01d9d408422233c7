// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import (
	"fmt"

	"github.com/baswi/dash/pattern"
	"github.com/baswi/dash/ref"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// NoUnit is the unit of a process that holds no part of an array.
// Such a process reaches every element remotely and cannot localize
// views.
const NoUnit = -1

// A Transport binds accessors to elements held by other units. It is
// the communication substrate of an array; see package segment for
// implementations.
type Transport[T any] interface {
	// Accessor returns an accessor for the element at the provided
	// offset of unit's local segment.
	Accessor(unit, offset int) ref.Accessor[T]
}

// Array is the origin of a distributed array as seen by one unit: it
// owns the unit's local segment, holds the pattern that distributes
// the array's elements across the team, and reaches elements owned
// by other units through a transport. Every view of the array is
// derived from the origin view returned by View.
type Array[T any] struct {
	pattern   pattern.Pattern
	unit      int
	local     []T
	transport Transport[T]
	view      *View[T]
}

// NewArray returns the origin of an array distributed by pattern p,
// as seen by the provided unit. The local segment must hold exactly
// the elements that p assigns to unit; a process that is not a member
// of the team passes NoUnit and a nil segment. The transport may be
// nil only if p spans a single unit.
func NewArray[T any](p pattern.Pattern, unit int, local []T, transport Transport[T]) (*Array[T], error) {
	switch {
	case unit == NoUnit:
		if len(local) != 0 {
			return nil, errors.E(errors.Invalid, "dash.NewArray: non-member process has a local segment")
		}
	case unit < 0 || unit >= p.NumUnits():
		return nil, errors.E(errors.Invalid, fmt.Sprintf("dash.NewArray: unit %d out of range [0, %d)", unit, p.NumUnits()))
	case len(local) != p.LocalSize(unit):
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("dash.NewArray: unit %d: local segment has %d elements, pattern assigns %d", unit, len(local), p.LocalSize(unit)))
	}
	if transport == nil && (unit == NoUnit || p.NumUnits() > 1) {
		return nil, errors.E(errors.Invalid, "dash.NewArray: no transport to remote units")
	}
	a := &Array[T]{
		pattern:   p,
		unit:      unit,
		local:     local,
		transport: transport,
	}
	v := &View[T]{
		origin:  a,
		offsets: make([]int, p.Rank()),
		extents: p.Extents(),
	}
	v.domain = v
	v.index = newIdentity(v, p)
	a.view = v
	return a, nil
}

// Pattern returns the array's distribution pattern.
func (a *Array[T]) Pattern() pattern.Pattern { return a.pattern }

// Unit returns the unit the array is seen from.
func (a *Array[T]) Unit() int { return a.unit }

// Size returns the total number of elements in the array.
func (a *Array[T]) Size() int { return a.pattern.Size() }

// Extents returns the global extents of the array.
func (a *Array[T]) Extents() []int { return a.pattern.Extents() }

// Local returns the unit's local segment.
func (a *Array[T]) Local() []T { return a.local }

// View returns the origin view of the array, whose index set is an
// Identity.
func (a *Array[T]) View() *View[T] { return a.view }

// IsLocal tells whether global index g is owned by the array's unit.
func (a *Array[T]) IsLocal(g int) bool {
	return a.unit != NoUnit && a.pattern.Unit(g) == a.unit
}

// Ref returns a reference to the element at global index g. Elements
// owned by the array's unit are accessed in place; others through an
// accessor obtained from the transport.
func (a *Array[T]) Ref(g int) ref.Ref[T] {
	unit, off := a.pattern.Unit(g), a.pattern.At(g)
	if unit != a.unit {
		return ref.New(a.transport.Accessor(unit, off))
	}
	if off >= len(a.local) {
		log.Panicf("dash: pattern places global index %d at offset %d of unit %d, which holds %d elements",
			g, off, unit, len(a.local))
	}
	return ref.New[T](ref.Local(&a.local[off]))
}
