// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package ref provides element references into distributed arrays.
// An Accessor is bound to a single element address; a Ref wraps an
// Accessor so that the element can be read and written like an
// ordinary value. Every read or write through a Ref is exactly one
// operation on its Accessor: nothing is cached, buffered, or merged.
package ref

import "context"

// An Accessor fetches and stores the single element it is bound to.
// Both operations block until they complete. An Accessor is bound
// once and never rebound; it is safe to copy.
//
// There is no ordering between a Store issued by one unit and a Fetch
// issued by another unless the two are separated by an external
// synchronization point.
type Accessor[T any] interface {
	// Fetch returns the value currently stored at the bound address.
	Fetch(ctx context.Context) (T, error)
	// Store writes v to the bound address.
	Store(ctx context.Context, v T) error
}

// A Ref is a transient reference to one element. It should be used
// within the expression that obtained it and not stored.
type Ref[T any] struct {
	acc Accessor[T]
}

// New returns a Ref that reads and writes through acc.
func New[T any](acc Accessor[T]) Ref[T] {
	return Ref[T]{acc}
}

// Get fetches the current value of the referenced element. Each call
// issues a new fetch.
func (r Ref[T]) Get(ctx context.Context) (T, error) {
	return r.acc.Fetch(ctx)
}

// Set stores v into the referenced element.
func (r Ref[T]) Set(ctx context.Context, v T) error {
	return r.acc.Store(ctx, v)
}

// Assign copies the value referenced by src into r: it fetches from
// src and then stores into r. The pair is not atomic; if the fetch
// fails, no store is issued.
func (r Ref[T]) Assign(ctx context.Context, src Ref[T]) error {
	v, err := src.Get(ctx)
	if err != nil {
		return err
	}
	return r.Set(ctx, v)
}

// Accessor returns the accessor underlying r.
func (r Ref[T]) Accessor() Accessor[T] {
	return r.acc
}

// Pointer is an Accessor for an element resident in the calling
// process's memory.
type Pointer[T any] struct {
	p *T
}

// Local returns an accessor for the element at p.
func Local[T any](p *T) Pointer[T] {
	return Pointer[T]{p}
}

// Fetch implements Accessor.
func (p Pointer[T]) Fetch(context.Context) (T, error) {
	return *p.p, nil
}

// Store implements Accessor.
func (p Pointer[T]) Store(_ context.Context, v T) error {
	*p.p = v
	return nil
}
