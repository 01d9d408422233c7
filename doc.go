// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package dash implements views over partitioned global address space
	(PGAS) arrays. An array's elements are distributed across a team of
	units by a pattern (see package pattern): each element has a global
	index, and the pattern maps it to the unit that owns it and the
	element's offset within that unit's local segment.

	Arrays are accessed through views. The origin view of an array
	spans all of its elements; every other view is derived from an
	existing one by Sub, which selects a contiguous range along one
	axis, or by Local, which selects the elements owned by the calling
	unit. A view never holds elements. Instead it composes an index set
	that maps the view's image positions to global indices by
	resolving them through the chain of views it was derived from:

		a, err := dash.NewArray[float64](p, unit, local, transport)
		rows := a.View().Sub(0, 1, 3)   // rows [1, 3)
		mine := rows.Local()            // the elements of rows owned by unit

	Elements are read and written through references (see package ref).
	A reference performs exactly one fetch per read and one store per
	write; elements owned by other units are reached through the
	array's transport. Package segment provides an in-process
	transport for testing and a bigmachine-backed transport that
	distributes segments across machines.

	Blocks splits a view into the per-unit blocks along the axis over
	which the origin is distributed. Fill, Copy and Gather operate on
	whole views, processing blocks in parallel.
*/
package dash
