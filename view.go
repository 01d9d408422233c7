// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import (
	"context"
	"fmt"

	"github.com/baswi/dash/ref"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
)

// View is a lightweight handle on a subset of the elements of an
// array. A view consists of its origin, its domain (the view it was
// derived from), and an index set mapping the view's image positions
// to global indices of the origin. A view also carries its global
// rectangle: the offsets and extents, in global coordinates, of the
// elements it spans.
//
// Views are immutable and cheap to create: deriving a view never
// copies or fetches elements.
type View[T any] struct {
	origin  *Array[T]
	domain  *View[T]
	index   IndexSet
	offsets []int
	extents []int
}

// Index returns the view's index set.
func (v *View[T]) Index() IndexSet { return v.index }

// Domain returns the view v was derived from. The domain of an
// origin view is the view itself.
func (v *View[T]) Domain() *View[T] { return v.domain }

// Origin returns the array underlying v.
func (v *View[T]) Origin() *Array[T] { return v.origin }

// Rank returns the number of dimensions of v.
func (v *View[T]) Rank() int { return len(v.extents) }

// Extents returns the extents of v.
func (v *View[T]) Extents() []int { return v.extents }

// Extent returns the extent of v along the provided axis.
func (v *View[T]) Extent(axis int) int { return v.extents[axis] }

// Offsets returns the global coordinates of v's first element.
func (v *View[T]) Offsets() []int { return v.offsets }

// Size returns the number of elements in v.
func (v *View[T]) Size() int { return v.index.Size() }

// IsLocal tells whether v is a local projection.
func (v *View[T]) IsLocal() bool {
	_, ok := v.index.(*LocalSet)
	return ok
}

func (v *View[T]) String() string {
	return fmt.Sprintf("view(offsets=%v extents=%v size=%d)", v.offsets, v.extents, v.Size())
}

// Sub returns the view of the elements of v in [begin, end) along the
// provided axis. Sub panics if the axis or the range is out of
// bounds.
func (v *View[T]) Sub(axis, begin, end int) *View[T] {
	w := &View[T]{origin: v.origin, domain: v}
	w.index = newRange(w, v.index, axis, begin, end)
	w.extents = w.index.Extents()
	w.offsets = append([]int(nil), v.offsets...)
	w.offsets[axis] += begin
	return w
}

// Local returns the local projection of v: the view of the elements
// of v that are owned by the origin's unit. The local projection of a
// local view is the view itself. Local panics if the origin is not
// resident on a unit.
func (v *View[T]) Local() *View[T] {
	if v.IsLocal() {
		return v
	}
	a := v.origin
	must.Truef(a.unit != NoUnit, "dash.Local: array is not resident on any unit")
	boff, bext := a.pattern.LocalOffsets(a.unit), a.pattern.LocalExtents(a.unit)
	rank := len(v.extents)
	var (
		offsets = make([]int, rank)
		extents = make([]int, rank)
		start   = make([]int, rank)
	)
	for axis := 0; axis < rank; axis++ {
		lo := max(v.offsets[axis], boff[axis])
		hi := min(v.offsets[axis]+v.extents[axis], boff[axis]+bext[axis])
		if hi < lo {
			hi = lo
		}
		offsets[axis], extents[axis], start[axis] = lo, hi-lo, lo-v.offsets[axis]
	}
	w := &View[T]{origin: a, domain: v, offsets: offsets, extents: extents}
	w.index = newLocalSet(w, v.index, a.unit, start, extents)
	log.Debug.Printf("dash.Local: unit %d: %v -> %v", a.unit, v, w)
	return w
}

func (v *View[T]) localIndex() IndexSet { return v.Local().index }

// Blocks splits v along the first axis over which its origin is
// distributed, returning one sub-view per unit that owns part of v,
// in order of increasing global coordinate. If the origin is not
// distributed, Blocks returns a single block spanning v. The blocks
// tile v and their sizes sum to the size of v. Concatenating the
// blocks' elements reproduces v's row-major order only if the split
// axis is axis 0 or v is one-dimensional; blocks of a
// column-distributed matrix interleave.
func (v *View[T]) Blocks() []*View[T] {
	axis, spans := v.blockSpans()
	blocks := make([]*View[T], len(spans))
	for i, span := range spans {
		blocks[i] = v.Sub(axis, span[0], span[1])
	}
	return blocks
}

// blockSpans returns the axis along which v is split into blocks and
// the image ranges of the blocks along it.
func (v *View[T]) blockSpans() (axis int, spans [][2]int) {
	if v.Size() == 0 {
		return 0, nil
	}
	p := v.origin.pattern
	team := p.TeamExtents()
	axis = -1
	for a := range team {
		if team[a] > 1 {
			axis = a
			break
		}
	}
	if axis < 0 {
		return 0, [][2]int{{0, v.extents[0]}}
	}
	var (
		bs     = p.BlockSize(axis)
		lo, hi = v.offsets[axis], v.offsets[axis] + v.extents[axis]
	)
	for b := lo; b < hi; {
		e := min((b/bs+1)*bs, hi)
		spans = append(spans, [2]int{b - lo, e - lo})
		b = e
	}
	return axis, spans
}

// Ref returns a reference to the element at image position i of v.
func (v *View[T]) Ref(i int) ref.Ref[T] {
	return v.origin.Ref(v.index.At(i))
}

// Get reads the element at image position i of v.
func (v *View[T]) Get(ctx context.Context, i int) (T, error) {
	return v.Ref(i).Get(ctx)
}

// Set writes the element at image position i of v.
func (v *View[T]) Set(ctx context.Context, i int, x T) error {
	return v.Ref(i).Set(ctx, x)
}

// Indices returns an iterator over v's image positions.
func (v *View[T]) Indices() *IndexIterator { return Indices(v.index) }

// Scan returns a scanner that reads the elements of v in order.
func (v *View[T]) Scan() *Scanner[T] { return &Scanner[T]{view: v} }
