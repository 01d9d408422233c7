// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"
	"testing"

	"github.com/baswi/dash/stats"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/bigmachine"
	"github.com/grailbio/bigmachine/testsystem"
	"github.com/grailbio/testutil"
)

func startTestCluster(t *testing.T, units int) (*Cluster, func()) {
	t.Helper()
	b := bigmachine.Start(testsystem.New())
	c, err := StartCluster(context.Background(), b, units, nil)
	if err != nil {
		b.Shutdown()
		t.Fatal(err)
	}
	return c, c.Shutdown
}

func TestRemote(t *testing.T) {
	c, shutdown := startTestCluster(t, 4)
	defer shutdown()
	ctx := context.Background()
	p := testPattern(t)
	r, err := NewRemote[int](ctx, c, "test", p, GobCodec[int]{})
	if err != nil {
		t.Fatal(err)
	}
	// Elements that were never stored read as zero.
	v, err := r.Accessor(1, 2).Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := v, 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for g := 0; g < p.Size(); g++ {
		if err := r.Accessor(p.Unit(g), p.At(g)).Store(ctx, g*g); err != nil {
			t.Fatal(err)
		}
	}
	for g := 0; g < p.Size(); g++ {
		v, err := r.Accessor(p.Unit(g), p.At(g)).Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := v, g*g; got != want {
			t.Errorf("element %d: got %v, want %v", g, got, want)
		}
	}
	if got, want := r.Stats().Total(stats.Fetch), int64(p.Size()+1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := r.Stats().Total(stats.Store), int64(p.Size()); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := r.Accessor(3, 5).Fetch(ctx); err == nil {
		t.Error("expected error fetching out-of-range offset")
	}
	if _, err := r.Accessor(7, 0).Fetch(ctx); !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
	if _, err := NewRemote[int](ctx, c, "test", p, GobCodec[int]{}); err == nil {
		t.Error("expected error reallocating segment")
	}
	if err := r.Free(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Accessor(0, 0).Fetch(ctx); err == nil {
		t.Error("expected error fetching from freed segment")
	}
}

func TestRemoteCheckpoint(t *testing.T) {
	c, shutdown := startTestCluster(t, 4)
	defer shutdown()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	p := testPattern(t)
	r, err := NewRemote[string](ctx, c, "ckpt", p, GobCodec[string]{})
	if err != nil {
		t.Fatal(err)
	}
	acc := r.Accessor(p.Unit(9), p.At(9))
	if err := acc.Store(ctx, "before"); err != nil {
		t.Fatal(err)
	}
	if err := r.Save(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if err := acc.Store(ctx, "after"); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(ctx, dir); err != nil {
		t.Fatal(err)
	}
	v, err := acc.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := v, "before"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRemotePatternMismatch(t *testing.T) {
	c, shutdown := startTestCluster(t, 2)
	defer shutdown()
	_, err := NewRemote[int](context.Background(), c, "mismatch", testPattern(t), GobCodec[int]{})
	if !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
}
