// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/baswi/dash/pattern"
	"github.com/baswi/dash/ref"
	"github.com/baswi/dash/stats"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
)

// Memory is a team of units whose segments all live in the memory of
// the current process. Each unit's segment holds the elements that
// the team's pattern assigns to it. Memory is used to run several
// units in one process, typically in tests: each unit constructs its
// array over Segment(unit) and reaches the others through Accessor.
//
// Accessors synchronize among themselves; direct access to a segment
// returned by Segment does not.
type Memory[T any] struct {
	mu       sync.Mutex
	segments [][]T
	down     []bool
	stats    *stats.Counters
}

// NewMemory allocates one zeroed segment per unit of pattern p.
func NewMemory[T any](p pattern.Pattern) *Memory[T] {
	n := p.NumUnits()
	m := &Memory[T]{
		segments: make([][]T, n),
		down:     make([]bool, n),
		stats:    stats.New(n),
	}
	for unit := range m.segments {
		m.segments[unit] = make([]T, p.LocalSize(unit))
	}
	return m
}

// NumUnits returns the number of units in the team.
func (m *Memory[T]) NumUnits() int { return len(m.segments) }

// Segment returns the local segment of the provided unit.
func (m *Memory[T]) Segment(unit int) []T {
	return m.segments[unit]
}

// Stats returns the counters of fetches and stores issued through
// m's accessors.
func (m *Memory[T]) Stats() *stats.Counters {
	return m.stats
}

// Disconnect makes unit unreachable: subsequent operations against
// it fail with errors.Net until Reconnect is called.
func (m *Memory[T]) Disconnect(unit int) {
	m.mu.Lock()
	m.down[unit] = true
	m.mu.Unlock()
}

// Reconnect makes unit reachable again.
func (m *Memory[T]) Reconnect(unit int) {
	m.mu.Lock()
	m.down[unit] = false
	m.mu.Unlock()
}

// Accessor returns an accessor for the element at the provided offset
// of unit's segment. The address is checked when the accessor is
// used.
func (m *Memory[T]) Accessor(unit, offset int) ref.Accessor[T] {
	return memoryAccessor[T]{m, unit, offset}
}

func (m *Memory[T]) check(unit, offset int) error {
	if unit < 0 || unit >= len(m.segments) {
		return errors.E(errors.Invalid, fmt.Sprintf("unit %d out of range [0, %d)", unit, len(m.segments)))
	}
	if m.down[unit] {
		return errors.E(errors.Net, fmt.Sprintf("unit %d unreachable", unit))
	}
	if n := len(m.segments[unit]); offset < 0 || offset >= n {
		return errors.E(errors.Invalid, fmt.Sprintf("unit %d: offset %d out of range [0, %d)", unit, offset, n))
	}
	return nil
}

func (m *Memory[T]) fetch(unit, offset int) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var v T
	if err := m.check(unit, offset); err != nil {
		return v, err
	}
	m.stats.Incr(unit, stats.Fetch)
	return m.segments[unit][offset], nil
}

func (m *Memory[T]) store(unit, offset int, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(unit, offset); err != nil {
		return err
	}
	m.stats.Incr(unit, stats.Store)
	m.segments[unit][offset] = v
	return nil
}

// Save checkpoints every unit's segment under prefix, one file per
// unit. The checkpoints are written concurrently.
func (m *Memory[T]) Save(ctx context.Context, prefix string) error {
	return traverse.Each(len(m.segments), func(unit int) error {
		var b bytes.Buffer
		m.mu.Lock()
		err := gob.NewEncoder(&b).Encode(m.segments[unit])
		m.mu.Unlock()
		if err != nil {
			return errors.E(fmt.Sprintf("encode unit %d", unit), err)
		}
		return writeCheckpoint(ctx, checkpointPath(prefix, unit), b.Bytes())
	})
}

// Restore reads the checkpoints written by Save under prefix back into
// the existing segments. The segments retain their identity, so
// arrays constructed over them observe the restored values.
func (m *Memory[T]) Restore(ctx context.Context, prefix string) error {
	return traverse.Each(len(m.segments), func(unit int) error {
		p, err := readCheckpoint(ctx, checkpointPath(prefix, unit))
		if err != nil {
			return err
		}
		var seg []T
		if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&seg); err != nil {
			return errors.E(errors.Integrity, fmt.Sprintf("decode unit %d", unit), err)
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if len(seg) != len(m.segments[unit]) {
			return errors.E(errors.Invalid,
				fmt.Sprintf("unit %d: checkpoint holds %d elements, segment holds %d", unit, len(seg), len(m.segments[unit])))
		}
		copy(m.segments[unit], seg)
		return nil
	})
}

type memoryAccessor[T any] struct {
	m            *Memory[T]
	unit, offset int
}

func (a memoryAccessor[T]) Fetch(context.Context) (T, error) {
	return a.m.fetch(a.unit, a.offset)
}

func (a memoryAccessor[T]) Store(_ context.Context, v T) error {
	return a.m.store(a.unit, a.offset, v)
}
