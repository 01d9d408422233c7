// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ref

import (
	"context"
	"reflect"
	"testing"

	"github.com/grailbio/base/errors"
)

// recordingAccessor is an Accessor that records every operation
// issued against it.
type recordingAccessor struct {
	name  string
	value int
	err   error
	ops   *[]string
}

func (a *recordingAccessor) Fetch(context.Context) (int, error) {
	*a.ops = append(*a.ops, a.name+".fetch")
	return a.value, a.err
}

func (a *recordingAccessor) Store(_ context.Context, v int) error {
	*a.ops = append(*a.ops, a.name+".store")
	if a.err != nil {
		return a.err
	}
	a.value = v
	return nil
}

func TestReadCount(t *testing.T) {
	var ops []string
	acc := &recordingAccessor{name: "a", value: 7, ops: &ops}
	r := New[int](acc)
	ctx := context.Background()
	const N = 13
	for i := 0; i < N; i++ {
		v, err := r.Get(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := v, 7; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if got, want := len(ops), N; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReadUncached(t *testing.T) {
	var ops []string
	acc := &recordingAccessor{name: "a", value: 1, ops: &ops}
	r := New[int](acc)
	ctx := context.Background()
	if v, _ := r.Get(ctx); v != 1 {
		t.Errorf("got %v, want 1", v)
	}
	// Another unit updates the element behind our back.
	acc.value = 2
	if v, _ := r.Get(ctx); v != 2 {
		t.Errorf("got %v, want 2", v)
	}
}

func TestWrite(t *testing.T) {
	var ops []string
	acc := &recordingAccessor{name: "a", ops: &ops}
	r := New[int](acc)
	ctx := context.Background()
	if err := r.Set(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := r.Set(ctx, 6); err != nil {
		t.Fatal(err)
	}
	if got, want := ops, []string{"a.store", "a.store"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := acc.value, 6; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAssign(t *testing.T) {
	var ops []string
	src := &recordingAccessor{name: "src", value: 42, ops: &ops}
	dst := &recordingAccessor{name: "dst", ops: &ops}
	if err := New[int](dst).Assign(context.Background(), New[int](src)); err != nil {
		t.Fatal(err)
	}
	if got, want := ops, []string{"src.fetch", "dst.store"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := dst.value, 42; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestErrorsPropagate(t *testing.T) {
	var ops []string
	failure := errors.E(errors.Net, "unit 3 unreachable")
	src := &recordingAccessor{name: "src", err: failure, ops: &ops}
	dst := &recordingAccessor{name: "dst", ops: &ops}
	ctx := context.Background()
	if _, err := New[int](src).Get(ctx); err != failure {
		t.Errorf("got %v, want %v", err, failure)
	}
	if err := New[int](src).Set(ctx, 1); err != failure {
		t.Errorf("got %v, want %v", err, failure)
	}
	ops = ops[:0]
	if err := New[int](dst).Assign(ctx, New[int](src)); !errors.Is(errors.Net, err) {
		t.Errorf("unexpected error %v", err)
	}
	// The failed fetch must not be followed by a store.
	if got, want := ops, []string{"src.fetch"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPointer(t *testing.T) {
	x := 3
	r := New[int](Local(&x))
	ctx := context.Background()
	if err := r.Set(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if got, want := x, 9; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	v, err := r.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := v, 9; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
