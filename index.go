// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import (
	"github.com/baswi/dash/pattern"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
)

// An IndexSet maps the image positions of a view, [0, Size()), to
// global indices of the view's origin. Index sets are composed by
// reference: each one resolves an image position through its domain,
// so resolving a position through k nested index sets costs O(k),
// independent of the size of the domain. Index sets never
// materialize their mappings.
type IndexSet interface {
	// Size returns the number of image positions.
	Size() int
	// At returns the global index of the provided image position,
	// which must be in [0, Size()).
	At(image int) int
	// Extents returns the shape of the image space. Image positions
	// are row-major linearizations of coordinates within it.
	Extents() []int
	// Domain returns the index set this one is derived from. The
	// domain of an Identity is the Identity itself.
	Domain() IndexSet
	// Pattern returns the distribution pattern of the origin.
	Pattern() pattern.Pattern
	// Local returns the index set of the local projection of the
	// view that this index set belongs to.
	Local() IndexSet
}

// A localizer computes the local projection of a view. It is
// implemented by View; index sets observe their view through it.
type localizer interface {
	localIndex() IndexSet
}

// indexBase implements the parts of IndexSet shared by every
// variant.
type indexBase struct {
	view    localizer
	domain  IndexSet
	pattern pattern.Pattern
}

func (s *indexBase) Domain() IndexSet         { return s.domain }
func (s *indexBase) Pattern() pattern.Pattern { return s.pattern }

// Local returns the index set of the local projection of s's view.
// Localization is defined by views alone, so that every index set
// variant derives its local projection the same way.
func (s *indexBase) Local() IndexSet { return s.view.localIndex() }

// Identity is the index set of an origin: image position i is global
// index i.
type Identity struct {
	indexBase
	extents []int
	size    int
}

func newIdentity(view localizer, p pattern.Pattern) *Identity {
	s := &Identity{
		indexBase: indexBase{view: view, pattern: p},
		extents:   p.Extents(),
		size:      p.Size(),
	}
	s.domain = s
	return s
}

// Size implements IndexSet.
func (s *Identity) Size() int { return s.size }

// Extents implements IndexSet.
func (s *Identity) Extents() []int { return s.extents }

// At implements IndexSet.
func (s *Identity) At(i int) int {
	checkImage(i, s.size)
	return i
}

// Range is the index set of a contiguous range [begin, end) of its
// domain along one axis. The other axes are passed through.
type Range struct {
	indexBase
	axis, begin, end int
	extents          []int
	size             int
}

func newRange(view localizer, domain IndexSet, axis, begin, end int) *Range {
	dext := domain.Extents()
	must.Truef(axis >= 0 && axis < len(dext), "dash.Sub: axis %d out of range for rank %d", axis, len(dext))
	must.Truef(0 <= begin && begin <= end && end <= dext[axis],
		"dash.Sub: range [%d, %d) out of bounds [0, %d) on axis %d", begin, end, dext[axis], axis)
	extents := append([]int(nil), dext...)
	extents[axis] = end - begin
	return &Range{
		indexBase: indexBase{view: view, domain: domain, pattern: domain.Pattern()},
		axis:      axis,
		begin:     begin,
		end:       end,
		extents:   extents,
		size:      pattern.Size(extents),
	}
}

// Size implements IndexSet.
func (s *Range) Size() int { return s.size }

// Extents implements IndexSet.
func (s *Range) Extents() []int { return s.extents }

// Bounds returns the axis and the range [begin, end) selected by s.
func (s *Range) Bounds() (axis, begin, end int) {
	return s.axis, s.begin, s.end
}

// At implements IndexSet.
func (s *Range) At(i int) int {
	checkImage(i, s.size)
	if len(s.extents) == 1 {
		return s.domain.At(s.begin + i)
	}
	c := pattern.Coords(i, s.extents, nil)
	c[s.axis] += s.begin
	return s.domain.At(pattern.Index(c, s.domain.Extents()))
}

// LocalSet is the index set of the elements of its domain that are
// owned by a unit. The elements are resolved directly through the
// pattern: the local offset of the first owned element of the domain
// is found once, and image positions are offsets from it within the
// unit's block.
type LocalSet struct {
	indexBase
	unit    int
	extents []int
	size    int
	// first is the local offset of the first owned element; corner
	// holds its coordinates within the unit's block, whose extents
	// are block.
	first  int
	corner []int
	block  []int
}

// newLocalSet returns the local index set of unit over domain. The
// owned elements form the rectangle with the provided extents whose
// first element is at image coordinates start in domain.
func newLocalSet(view localizer, domain IndexSet, unit int, start, extents []int) *LocalSet {
	s := &LocalSet{
		indexBase: indexBase{view: view, domain: domain, pattern: domain.Pattern()},
		unit:      unit,
		extents:   extents,
		size:      pattern.Size(extents),
	}
	if s.size == 0 {
		return s
	}
	g := domain.At(pattern.Index(start, domain.Extents()))
	if owner := s.pattern.Unit(g); owner != unit {
		log.Panicf("dash.Local: pattern assigns global index %d to unit %d, expected unit %d", g, owner, unit)
	}
	s.first = s.pattern.At(g)
	s.block = s.pattern.LocalExtents(unit)
	s.corner = pattern.Coords(s.first, s.block, nil)
	return s
}

// Size implements IndexSet.
func (s *LocalSet) Size() int { return s.size }

// Extents implements IndexSet.
func (s *LocalSet) Extents() []int { return s.extents }

// Unit returns the unit whose elements are in s.
func (s *LocalSet) Unit() int { return s.unit }

// At implements IndexSet.
func (s *LocalSet) At(i int) int {
	checkImage(i, s.size)
	if len(s.extents) == 1 {
		return s.pattern.Global(s.unit, s.first+i)
	}
	c := pattern.Coords(i, s.extents, nil)
	for axis := range c {
		c[axis] += s.corner[axis]
	}
	return s.pattern.Global(s.unit, pattern.Index(c, s.block))
}

// Local returns s: localization is idempotent.
func (s *LocalSet) Local() IndexSet { return s }

func checkImage(i, n int) {
	if i < 0 || i >= n {
		log.Panicf("dash: image index %d out of range [0, %d)", i, n)
	}
}

// IndexIterator iterates over the image positions of an index set
// and the global indices they resolve to. It supports random access
// through Seek and may be restarted with Reset.
type IndexIterator struct {
	set IndexSet
	pos int
}

// Indices returns an iterator over the image positions of s. The
// iterator is positioned before the first position.
func Indices(s IndexSet) *IndexIterator {
	return &IndexIterator{set: s, pos: -1}
}

// Next advances the iterator, returning false once it is exhausted.
func (it *IndexIterator) Next() bool {
	if n := it.set.Size(); it.pos < n {
		it.pos++
	}
	return it.pos < it.set.Size()
}

// Pos returns the current image position.
func (it *IndexIterator) Pos() int { return it.pos }

// Index returns the global index at the current image position.
func (it *IndexIterator) Index() int { return it.set.At(it.pos) }

// Seek moves the iterator to image position pos, which must be in
// [0, Size()]. Seek returns false if pos is the end position.
func (it *IndexIterator) Seek(pos int) bool {
	n := it.set.Size()
	must.Truef(pos >= 0 && pos <= n, "dash.Seek: position %d out of range [0, %d]", pos, n)
	it.pos = pos
	return pos < n
}

// Reset restarts the iteration.
func (it *IndexIterator) Reset() { it.pos = -1 }
