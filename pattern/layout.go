// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package pattern

// Index and Coords implement the one layout used throughout dash:
// row-major, with the last axis varying fastest. Patterns store local
// elements in this order and views flatten their image spaces the same
// way; there is no other layout.

// Index returns the row-major linear index of coords within a space
// with the given extents.
func Index(coords, extents []int) int {
	var i int
	for axis := range extents {
		i = i*extents[axis] + coords[axis]
	}
	return i
}

// Coords returns the row-major coordinates of linear index i within a
// space with the given extents. The coordinates are stored in coords
// if it is large enough; otherwise a new slice is allocated.
func Coords(i int, extents []int, coords []int) []int {
	if len(coords) < len(extents) {
		coords = make([]int, len(extents))
	}
	coords = coords[:len(extents)]
	for axis := len(extents) - 1; axis >= 0; axis-- {
		n := extents[axis]
		if n == 0 {
			coords[axis] = 0
			continue
		}
		coords[axis] = i % n
		i /= n
	}
	return coords
}

// Size returns the number of elements in a space with the given
// extents.
func Size(extents []int) int {
	n := 1
	for _, e := range extents {
		n *= e
	}
	return n
}
