// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import (
	"context"
	"reflect"
	"testing"

	"github.com/baswi/dash/segment"
	"github.com/baswi/dash/stats"
	"github.com/grailbio/base/errors"
)

func TestFill(t *testing.T) {
	a, m := newMatrix(t, 0)
	ctx := context.Background()
	v := a.View().Sub(0, 2, 4).Sub(1, 1, 7)
	if err := Fill(ctx, v, -1, 2); err != nil {
		t.Fatal(err)
	}
	p := a.Pattern()
	inside := make(map[int]bool)
	for _, g := range indices(v.Index()) {
		inside[g] = true
	}
	for g := 0; g < p.Size(); g++ {
		want := g
		if inside[g] {
			want = -1
		}
		if got := m.Segment(p.Unit(g))[p.At(g)]; got != want {
			t.Errorf("element %d: got %v, want %v", g, got, want)
		}
	}
	// Unit 0 owns the 2 elements of column 1; the others are remote.
	if got, want := m.Stats().Total(stats.Store), int64(v.Size()-2); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := m.Stats().Total(stats.Fetch), int64(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFillError(t *testing.T) {
	a, m := newVector(t, 0)
	m.Disconnect(3)
	if err := Fill(context.Background(), a.View(), 0, 4); !errors.Is(errors.Net, err) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGather(t *testing.T) {
	a, _ := newMatrix(t, NoUnit)
	vals, err := Gather(context.Background(), a.View().Sub(1, 3, 5).Sub(0, 4, 6))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := vals, []int{35, 36, 43, 44}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCopy(t *testing.T) {
	var (
		src, srcMem = newMatrix(t, 0)
		dst, dstMem = newMatrix(t, 2)
		ctx         = context.Background()
	)
	if err := Fill(ctx, dst.View(), 0, 4); err != nil {
		t.Fatal(err)
	}
	dstMem.Stats().Reset()
	if err := Copy(ctx, dst.View().Sub(0, 1, 3), src.View().Sub(0, 2, 4), 4); err != nil {
		t.Fatal(err)
	}
	vals, err := Gather(ctx, dst.View().Sub(0, 0, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := make([]int, 32)
	for i := 8; i < 24; i++ {
		want[i] = i + 8
	}
	if got := vals; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	// Each element is fetched once and stored once; the 4 elements of
	// each side owned by the array's own unit are accessed in place.
	if got, want := srcMem.Stats().Total(stats.Fetch), int64(12); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := dstMem.Stats().Total(stats.Store), int64(12); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCopyMismatch(t *testing.T) {
	var (
		src, _ = newMatrix(t, 0)
		dst, _ = newMatrix(t, 0)
	)
	err := Copy(context.Background(), dst.View().Sub(0, 1, 3), src.View().Sub(0, 1, 4), 1)
	if !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCopyOverlapping(t *testing.T) {
	ctx := context.Background()
	for _, c := range []struct {
		name     string
		newArray func(*testing.T, int) (*Array[int], *segment.Memory[int])
		unit     int
		dst, src func(*View[int]) *View[int]
	}{
		{"vector right", newVector, 0,
			func(v *View[int]) *View[int] { return v.Sub(0, 1, 10) },
			func(v *View[int]) *View[int] { return v.Sub(0, 0, 9) }},
		{"vector left", newVector, 0,
			func(v *View[int]) *View[int] { return v.Sub(0, 0, 9) },
			func(v *View[int]) *View[int] { return v.Sub(0, 1, 10) }},
		{"matrix down right", newMatrix, 1,
			func(v *View[int]) *View[int] { return v.Sub(0, 1, 4).Sub(1, 1, 5) },
			func(v *View[int]) *View[int] { return v.Sub(0, 0, 3).Sub(1, 0, 4) }},
		{"matrix down left", newMatrix, 1,
			func(v *View[int]) *View[int] { return v.Sub(0, 1, 4).Sub(1, 0, 4) },
			func(v *View[int]) *View[int] { return v.Sub(0, 0, 3).Sub(1, 1, 5) }},
		{"matrix up right", newMatrix, 2,
			func(v *View[int]) *View[int] { return v.Sub(0, 0, 3).Sub(1, 3, 8) },
			func(v *View[int]) *View[int] { return v.Sub(0, 2, 5).Sub(1, 2, 7) }},
	} {
		a, _ := c.newArray(t, c.unit)
		dst, src := c.dst(a.View()), c.src(a.View())
		// Element g holds g, so the source values are its indices.
		want := make([]int, a.Size())
		for g := range want {
			want[g] = g
		}
		srcIndices := indices(src.Index())
		for i, g := range indices(dst.Index()) {
			want[g] = srcIndices[i]
		}
		if err := Copy(ctx, dst, src, 4); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		got, err := Gather(ctx, a.View())
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %v, want %v", c.name, got, want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	a, _ := newMatrix(t, 0)
	v := a.View()
	if !overlaps(v.Sub(0, 0, 3), v.Sub(0, 2, 4)) {
		t.Error("expected overlap")
	}
	if overlaps(v.Sub(0, 0, 2), v.Sub(0, 2, 4)) {
		t.Error("adjacent row ranges overlap")
	}
	if overlaps(v.Sub(1, 0, 4).Sub(0, 0, 3), v.Sub(1, 4, 8).Sub(0, 0, 3)) {
		t.Error("disjoint column ranges overlap")
	}
	if overlaps(v.Sub(0, 2, 2), v) {
		t.Error("empty view overlaps")
	}
}
