// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package pattern defines the distribution oracle consulted by dash
// views: the function that maps a global element index to the unit
// that owns it and to its offset within that unit's local segment,
// and back.
//
// Patterns are immutable once constructed and are shared by reference
// among every view derived from an array; they must be identical on
// every participating unit.
package pattern

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Pattern is the distribution oracle for an n-dimensional index
// space. Global indices are row-major linearizations of global
// coordinates; local offsets are row-major linearizations of
// coordinates within a unit's local block.
type Pattern interface {
	// Rank returns the number of dimensions.
	Rank() int
	// Extents returns the global extent of each dimension.
	Extents() []int
	// Size returns the total number of elements.
	Size() int
	// NumUnits returns the number of units over which elements are
	// distributed.
	NumUnits() int
	// TeamExtents returns the number of units along each dimension.
	TeamExtents() []int
	// BlockSize returns the size of a distribution block along the
	// provided axis.
	BlockSize(axis int) int

	// Unit returns the unit that owns global index g.
	Unit(g int) int
	// At returns the offset of global index g within the local
	// segment of its owning unit.
	At(g int) int
	// Global returns the global index of the element stored at local
	// offset l of the provided unit.
	Global(unit, l int) int

	// LocalSize returns the number of elements owned by unit.
	LocalSize(unit int) int
	// LocalExtents returns the extents of the block owned by unit.
	LocalExtents(unit int) []int
	// LocalOffsets returns the global coordinates of the first element
	// of the block owned by unit.
	LocalOffsets(unit int) []int
}

type kind int

const (
	none kind = iota
	blocked
	tile
)

// A Distribution describes how a single axis is divided among the
// units along it.
type Distribution struct {
	kind kind
	size int
}

// None leaves an axis undistributed: a single unit spans it.
var None = Distribution{kind: none}

// Blocked divides an axis into one contiguous block per unit, the
// last of which may be short.
var Blocked = Distribution{kind: blocked}

// Tile divides an axis into blocks of n elements. Every unit along the
// axis may own at most one tile.
func Tile(n int) Distribution {
	return Distribution{kind: tile, size: n}
}

func (d Distribution) String() string {
	switch d.kind {
	case none:
		return "NONE"
	case blocked:
		return "BLOCKED"
	case tile:
		return fmt.Sprintf("TILE(%d)", d.size)
	default:
		panic(d.kind)
	}
}

// BlockPattern is a Pattern in which every unit owns a single
// rectangular block of the global index space. Units are arranged in
// a team grid and numbered in row-major order over it.
type BlockPattern struct {
	extents []int
	team    []int
	block   []int
	size    int
	nunits  int
}

// New returns a BlockPattern over a space with the provided extents,
// distributing each axis according to dists across a team grid with
// the provided extents. New returns an error with kind errors.Invalid
// if the arguments are inconsistent, or if a distribution would place
// more than one block of an axis on the same unit.
func New(extents []int, dists []Distribution, team []int) (*BlockPattern, error) {
	if len(extents) == 0 {
		return nil, errors.E(errors.Invalid, "pattern: rank 0")
	}
	if len(dists) != len(extents) || len(team) != len(extents) {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("pattern: rank mismatch: %d extents, %d distributions, %d team extents",
				len(extents), len(dists), len(team)))
	}
	p := &BlockPattern{
		extents: append([]int(nil), extents...),
		team:    append([]int(nil), team...),
		block:   make([]int, len(extents)),
		size:    1,
		nunits:  1,
	}
	for axis, n := range extents {
		if n < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pattern: negative extent %d on axis %d", n, axis))
		}
		units := team[axis]
		if units < 1 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pattern: %d units on axis %d", units, axis))
		}
		var bs int
		switch d := dists[axis]; d.kind {
		case none:
			if units != 1 {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("pattern: axis %d is not distributed but spans %d units", axis, units))
			}
			bs = n
		case blocked:
			bs = (n + units - 1) / units
		case tile:
			if d.size < 1 {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("pattern: %v on axis %d", d, axis))
			}
			if nblocks := (n + d.size - 1) / d.size; nblocks > units {
				return nil, errors.E(errors.Invalid,
					fmt.Sprintf("pattern: %v on axis %d yields %d blocks for %d units; block-cyclic distributions are not supported",
						d, axis, nblocks, units))
			}
			bs = d.size
		}
		if bs == 0 {
			bs = 1
		}
		p.block[axis] = bs
		p.size *= n
		p.nunits *= units
	}
	return p, nil
}

// Rank implements Pattern.
func (p *BlockPattern) Rank() int { return len(p.extents) }

// Extents implements Pattern.
func (p *BlockPattern) Extents() []int { return p.extents }

// Size implements Pattern.
func (p *BlockPattern) Size() int { return p.size }

// NumUnits implements Pattern.
func (p *BlockPattern) NumUnits() int { return p.nunits }

// TeamExtents implements Pattern.
func (p *BlockPattern) TeamExtents() []int { return p.team }

// BlockSize implements Pattern.
func (p *BlockPattern) BlockSize(axis int) int { return p.block[axis] }

// Unit implements Pattern.
func (p *BlockPattern) Unit(g int) int {
	p.checkGlobal(g)
	c := Coords(g, p.extents, nil)
	for axis := range c {
		c[axis] /= p.block[axis]
	}
	return Index(c, p.team)
}

// At implements Pattern.
func (p *BlockPattern) At(g int) int {
	p.checkGlobal(g)
	c := Coords(g, p.extents, nil)
	tc := make([]int, len(c))
	for axis := range c {
		tc[axis] = c[axis] / p.block[axis]
		c[axis] -= tc[axis] * p.block[axis]
	}
	return Index(c, p.LocalExtents(Index(tc, p.team)))
}

// Global implements Pattern.
func (p *BlockPattern) Global(unit, l int) int {
	lext := p.LocalExtents(unit)
	if n := Size(lext); l < 0 || l >= n {
		log.Panicf("pattern: local offset %d out of range [0, %d) on unit %d", l, n, unit)
	}
	c := Coords(l, lext, nil)
	for axis, off := range p.LocalOffsets(unit) {
		c[axis] += off
	}
	return Index(c, p.extents)
}

// LocalSize implements Pattern.
func (p *BlockPattern) LocalSize(unit int) int {
	return Size(p.LocalExtents(unit))
}

// LocalExtents implements Pattern.
func (p *BlockPattern) LocalExtents(unit int) []int {
	tc := p.unitCoords(unit)
	for axis := range tc {
		begin, end := p.span(axis, tc[axis])
		tc[axis] = end - begin
	}
	return tc
}

// LocalOffsets implements Pattern.
func (p *BlockPattern) LocalOffsets(unit int) []int {
	tc := p.unitCoords(unit)
	for axis := range tc {
		tc[axis], _ = p.span(axis, tc[axis])
	}
	return tc
}

func (p *BlockPattern) String() string {
	return fmt.Sprintf("pattern%v/team%v/block%v", p.extents, p.team, p.block)
}

// span returns the global range [begin, end) along the provided axis
// of the block at team coordinate k.
func (p *BlockPattern) span(axis, k int) (begin, end int) {
	n := p.extents[axis]
	begin = k * p.block[axis]
	end = begin + p.block[axis]
	if begin > n {
		begin = n
	}
	if end > n {
		end = n
	}
	return
}

func (p *BlockPattern) unitCoords(unit int) []int {
	if unit < 0 || unit >= p.nunits {
		log.Panicf("pattern: unit %d out of range [0, %d)", unit, p.nunits)
	}
	return Coords(unit, p.team, nil)
}

func (p *BlockPattern) checkGlobal(g int) {
	if g < 0 || g >= p.size {
		log.Panicf("pattern: global index %d out of range [0, %d)", g, p.size)
	}
}
