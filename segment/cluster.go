// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/status"
	"github.com/grailbio/bigmachine"
	"golang.org/x/sync/errgroup"
)

// Cluster is a team of units, each of which is a bigmachine machine
// running the segment Service. Unit i is the i'th machine.
type Cluster struct {
	b        *bigmachine.B
	machines []*bigmachine.Machine
}

// StartCluster starts one machine per unit on b, installing the
// segment service on each of them. StartCluster returns when all of
// the machines are running; if any machine fails to start, all of
// them are cancelled and an error is returned. Boot progress is
// reported to group, which may be nil.
func StartCluster(ctx context.Context, b *bigmachine.B, units int, group *status.Group, params ...bigmachine.Param) (*Cluster, error) {
	if units < 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("cluster: %d units", units))
	}
	params = append([]bigmachine.Param{bigmachine.Services{"Segment": &Service{}}}, params...)
	machines, err := b.Start(ctx, units, params...)
	if err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := range machines {
		unit, m := i, machines[i]
		task := group.Start()
		task.Print("waiting for machine to boot")
		g.Go(func() error {
			defer task.Done()
			select {
			case <-m.Wait(bigmachine.Running):
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := m.Err(); err != nil {
				task.Printf("failed to start: %v", err)
				return errors.E(fmt.Sprintf("unit %d: machine %s failed to start", unit, m.Addr), err)
			}
			task.Title(fmt.Sprintf("unit %d", unit))
			task.Print(m.Addr)
			log.Printf("unit %d: machine %s is ready", unit, m.Addr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, m := range machines {
			m.Cancel()
		}
		return nil, err
	}
	return &Cluster{b: b, machines: machines}, nil
}

// NumUnits returns the number of units in the cluster.
func (c *Cluster) NumUnits() int { return len(c.machines) }

// Machine returns the machine hosting unit.
func (c *Cluster) Machine(unit int) *bigmachine.Machine {
	return c.machines[unit]
}

// Shutdown shuts down the cluster's machines.
func (c *Cluster) Shutdown() {
	c.b.Shutdown()
}

// each calls fn concurrently for every unit in the cluster, returning
// the first error.
func (c *Cluster) each(ctx context.Context, fn func(ctx context.Context, unit int, m *bigmachine.Machine) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range c.machines {
		unit, m := i, c.machines[i]
		g.Go(func() error { return fn(ctx, unit, m) })
	}
	return g.Wait()
}
