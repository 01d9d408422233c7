// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/limiter"
	"golang.org/x/sync/errgroup"
)

// Fill stores x into every element of v. The blocks of v are filled
// concurrently, at most parallelism at a time.
func Fill[T any](ctx context.Context, v *View[T], x T, parallelism int) error {
	axis, spans := v.blockSpans()
	return eachSpan(ctx, spans, parallelism, func(ctx context.Context, span [2]int) error {
		b := v.Sub(axis, span[0], span[1])
		for i := 0; i < b.Size(); i++ {
			if err := b.Set(ctx, i, x); err != nil {
				return err
			}
		}
		return nil
	})
}

// Copy assigns each element of src to the element at the same image
// position of dst, which must have the same extents. Each element is
// fetched once and stored once. Copy proceeds by the blocks of dst,
// at most parallelism at a time.
//
// If dst and src are overlapping views of the same array, Copy runs
// sequentially, visiting elements in the order that reads every
// source element before it is overwritten, as memmove does. Overlap
// between distinct arrays that share storage is not detected.
func Copy[T any](ctx context.Context, dst, src *View[T], parallelism int) error {
	if !equal(dst.extents, src.extents) {
		return errors.E(errors.Invalid,
			fmt.Sprintf("dash.Copy: extents %v do not match extents %v", dst.extents, src.extents))
	}
	if dst.origin == src.origin && overlaps(dst, src) {
		return copyOverlapping(ctx, dst, src)
	}
	axis, spans := dst.blockSpans()
	return eachSpan(ctx, spans, parallelism, func(ctx context.Context, span [2]int) error {
		d, s := dst.Sub(axis, span[0], span[1]), src.Sub(axis, span[0], span[1])
		for i := 0; i < d.Size(); i++ {
			if err := d.Ref(i).Assign(ctx, s.Ref(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// copyOverlapping copies src into dst one element at a time. Both
// views are rectangles of the same origin with row-major image order,
// so dst is src translated by the difference of their offsets. When
// that translation is lexicographically positive, a store at image
// position i clobbers a source element at a later position; the copy
// then runs backwards.
func copyOverlapping[T any](ctx context.Context, dst, src *View[T]) error {
	backward := false
	for axis := range dst.offsets {
		if d := dst.offsets[axis] - src.offsets[axis]; d != 0 {
			backward = d > 0
			break
		}
	}
	n := dst.Size()
	for k := 0; k < n; k++ {
		i := k
		if backward {
			i = n - 1 - k
		}
		if err := dst.Ref(i).Assign(ctx, src.Ref(i)); err != nil {
			return err
		}
	}
	return nil
}

// overlaps tells whether the global rectangles of v and w intersect.
func overlaps[T any](v, w *View[T]) bool {
	if v.Size() == 0 || w.Size() == 0 {
		return false
	}
	for axis := range v.offsets {
		if v.offsets[axis] >= w.offsets[axis]+w.extents[axis] || w.offsets[axis] >= v.offsets[axis]+v.extents[axis] {
			return false
		}
	}
	return true
}

// Gather reads the elements of v, in image order.
func Gather[T any](ctx context.Context, v *View[T]) ([]T, error) {
	var (
		out  = make([]T, 0, v.Size())
		scan = v.Scan()
		x    T
	)
	for scan.Scan(ctx, &x) {
		out = append(out, x)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func eachSpan(ctx context.Context, spans [][2]int, parallelism int, fn func(context.Context, [2]int) error) error {
	if parallelism < 1 {
		parallelism = 1
	}
	lim := limiter.New()
	lim.Release(parallelism)
	g, gctx := errgroup.WithContext(ctx)
	var err error
	for _, span := range spans {
		if err = lim.Acquire(gctx, 1); err != nil {
			break
		}
		span := span
		g.Go(func() error {
			defer lim.Release(1)
			return fn(gctx, span)
		})
	}
	if gerr := g.Wait(); gerr != nil {
		return gerr
	}
	return err
}

func equal(x, y []int) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
