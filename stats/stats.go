// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package stats counts the one-sided operations issued against the
// segments of a team of units. Counters are kept per unit and per
// operation; snapshots may be taken at any time.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Op is a kind of one-sided operation.
type Op int

const (
	// Fetch counts element reads.
	Fetch Op = iota
	// Store counts element writes.
	Store

	numOps
)

func (op Op) String() string {
	switch op {
	case Fetch:
		return "fetch"
	case Store:
		return "store"
	default:
		return fmt.Sprintf("op%d", int(op))
	}
}

// Values is a snapshot of a set of counters, keyed by
// "u{unit}.{op}".
type Values map[string]int64

// String returns an abbreviated string with the values in this
// snapshot sorted by key.
func (v Values) String() string {
	var keys []string
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		keys[i] = fmt.Sprintf("%s:%d", key, v[key])
	}
	return strings.Join(keys, " ")
}

// Counters holds operation counts for a fixed number of units. A nil
// *Counters is valid and counts nothing.
type Counters struct {
	counts [][numOps]int64
}

// New returns counters for n units.
func New(n int) *Counters {
	return &Counters{counts: make([][numOps]int64, n)}
}

// Incr records one operation of the given kind against unit.
func (c *Counters) Incr(unit int, op Op) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.counts[unit][op], 1)
}

// Count returns the number of operations of the given kind issued
// against unit.
func (c *Counters) Count(unit int, op Op) int64 {
	if c == nil {
		return 0
	}
	return atomic.LoadInt64(&c.counts[unit][op])
}

// Total returns the number of operations of the given kind issued
// against all units.
func (c *Counters) Total(op Op) int64 {
	if c == nil {
		return 0
	}
	var n int64
	for unit := range c.counts {
		n += atomic.LoadInt64(&c.counts[unit][op])
	}
	return n
}

// Snapshot returns the current nonzero counts.
func (c *Counters) Snapshot() Values {
	v := make(Values)
	if c == nil {
		return v
	}
	for unit := range c.counts {
		for op := Op(0); op < numOps; op++ {
			if n := atomic.LoadInt64(&c.counts[unit][op]); n != 0 {
				v[fmt.Sprintf("u%d.%s", unit, op)] = n
			}
		}
	}
	return v
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	if c == nil {
		return
	}
	for unit := range c.counts {
		for op := Op(0); op < numOps; op++ {
			atomic.StoreInt64(&c.counts[unit][op], 0)
		}
	}
}
