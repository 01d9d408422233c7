// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"
	"fmt"
	"time"

	"github.com/baswi/dash/pattern"
	"github.com/baswi/dash/ref"
	"github.com/baswi/dash/stats"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/retry"
	"github.com/grailbio/bigmachine"
)

// checkpointPolicy governs retries of checkpoint calls that fail with
// network errors. Checkpoint calls are idempotent; element operations
// are never retried.
var checkpointPolicy = retry.MaxTries(retry.Backoff(time.Second, 5*time.Second, 1.5), 3)

// Remote is a distributed segment hosted by a Cluster: every unit
// holds the elements that a pattern assigns to it. Each accessor
// operation is a single call to the owning unit's segment service;
// failures are returned to the caller as-is, without retry.
type Remote[T any] struct {
	cluster *Cluster
	name    string
	codec   Codec[T]
	stats   *stats.Counters
}

// NewRemote allocates the segment name on every unit of cluster, with
// as many elements as pattern p assigns to that unit. The pattern
// must span exactly the cluster's units.
func NewRemote[T any](ctx context.Context, cluster *Cluster, name string, p pattern.Pattern, codec Codec[T]) (*Remote[T], error) {
	if p.NumUnits() != cluster.NumUnits() {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("segment %s: pattern spans %d units, cluster has %d", name, p.NumUnits(), cluster.NumUnits()))
	}
	err := cluster.each(ctx, func(ctx context.Context, unit int, m *bigmachine.Machine) error {
		return m.Call(ctx, "Segment.Alloc", AllocRequest{Segment: name, Len: p.LocalSize(unit)}, nil)
	})
	if err != nil {
		return nil, err
	}
	return &Remote[T]{
		cluster: cluster,
		name:    name,
		codec:   codec,
		stats:   stats.New(cluster.NumUnits()),
	}, nil
}

// Accessor returns an accessor for the element at offset within
// unit's part of the segment.
func (r *Remote[T]) Accessor(unit, offset int) ref.Accessor[T] {
	return remoteAccessor[T]{r, unit, Addr{Segment: r.name, Offset: offset}}
}

// Stats returns the counters of fetches and stores issued through
// r's accessors.
func (r *Remote[T]) Stats() *stats.Counters {
	return r.stats
}

// Save checkpoints every unit's part of the segment under prefix. Each
// unit writes its own checkpoint.
func (r *Remote[T]) Save(ctx context.Context, prefix string) error {
	return r.cluster.each(ctx, func(ctx context.Context, unit int, m *bigmachine.Machine) error {
		req := CheckpointRequest{Segment: r.name, Path: checkpointPath(prefix, unit)}
		return callRetry(ctx, m, "Segment.Save", req)
	})
}

// Load restores every unit's part of the segment from the checkpoints
// under prefix.
func (r *Remote[T]) Load(ctx context.Context, prefix string) error {
	return r.cluster.each(ctx, func(ctx context.Context, unit int, m *bigmachine.Machine) error {
		req := CheckpointRequest{Segment: r.name, Path: checkpointPath(prefix, unit)}
		return callRetry(ctx, m, "Segment.Load", req)
	})
}

// Free releases the segment on every unit.
func (r *Remote[T]) Free(ctx context.Context) error {
	return r.cluster.each(ctx, func(ctx context.Context, unit int, m *bigmachine.Machine) error {
		return m.Call(ctx, "Segment.Free", r.name, nil)
	})
}

func callRetry(ctx context.Context, m *bigmachine.Machine, method string, arg interface{}) error {
	for retries := 0; ; retries++ {
		err := m.Call(ctx, method, arg, nil)
		if err == nil || !errors.Is(errors.Net, err) {
			return err
		}
		if retry.Wait(ctx, checkpointPolicy, retries) != nil {
			return err
		}
		log.Printf("%s %s: retrying after error: %v", m.Addr, method, err)
	}
}

type remoteAccessor[T any] struct {
	r    *Remote[T]
	unit int
	addr Addr
}

func (a remoteAccessor[T]) Fetch(ctx context.Context) (T, error) {
	var (
		v T
		p []byte
	)
	m, err := a.machine()
	if err != nil {
		return v, err
	}
	a.r.stats.Incr(a.unit, stats.Fetch)
	if err := m.Call(ctx, "Segment.Fetch", a.addr, &p); err != nil {
		return v, errors.E(fmt.Sprintf("fetch unit %d %v", a.unit, a.addr), err)
	}
	return a.r.codec.Decode(p)
}

func (a remoteAccessor[T]) Store(ctx context.Context, v T) error {
	p, err := a.r.codec.Encode(v)
	if err != nil {
		return errors.E(errors.Invalid, fmt.Sprintf("store unit %d %v", a.unit, a.addr), err)
	}
	m, err := a.machine()
	if err != nil {
		return err
	}
	a.r.stats.Incr(a.unit, stats.Store)
	if err := m.Call(ctx, "Segment.Store", StoreRequest{Addr: a.addr, Value: p}, nil); err != nil {
		return errors.E(fmt.Sprintf("store unit %d %v", a.unit, a.addr), err)
	}
	return nil
}

func (a remoteAccessor[T]) machine() (*bigmachine.Machine, error) {
	if n := a.r.cluster.NumUnits(); a.unit < 0 || a.unit >= n {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unit %d out of range [0, %d)", a.unit, n))
	}
	return a.r.cluster.Machine(a.unit), nil
}
