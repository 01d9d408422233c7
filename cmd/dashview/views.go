// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/baswi/dash"
	"github.com/baswi/dash/pattern"
	"github.com/baswi/dash/segment"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

func matrix(cluster *segment.Cluster, args []string) error {
	var (
		flags = flag.NewFlagSet("matrix", flag.ExitOnError)
		rows  = flags.Int("rows", 6, "number of rows")
		cols  = flags.Int("cols", 8, "number of columns")
		tile  = flags.Int("tile", 2, "number of columns per tile")
	)
	flags.Parse(args)
	ctx := context.Background()
	p, err := pattern.New(
		[]int{*rows, *cols},
		[]pattern.Distribution{pattern.None, pattern.Tile(*tile)},
		[]int{1, cluster.NumUnits()})
	if err != nil {
		return err
	}
	a, r, err := remoteArray(ctx, cluster, "matrix", p)
	if err != nil {
		return err
	}
	defer r.Free(ctx)
	for g := 0; g < p.Size(); g++ {
		if err := a.Ref(g).Set(ctx, g); err != nil {
			return err
		}
	}
	r.Stats().Reset()

	sub := a.View().Sub(0, 1, min(3, *rows))
	if err := printView(ctx, "rows [1, 3)", sub); err != nil {
		return err
	}
	for i, b := range sub.Blocks() {
		if err := printView(ctx, fmt.Sprintf("block %d", i), b); err != nil {
			return err
		}
	}
	log.Printf("remote operations: %v", r.Stats().Snapshot())
	return nil
}

func vector(cluster *segment.Cluster, args []string) error {
	var (
		flags = flag.NewFlagSet("vector", flag.ExitOnError)
		n     = flags.Int("n", 10, "number of elements")
	)
	flags.Parse(args)
	if *n < 8 {
		return errors.E(errors.Invalid, "vector: need at least 8 elements")
	}
	ctx := context.Background()
	p, err := pattern.New([]int{*n}, []pattern.Distribution{pattern.Blocked}, []int{cluster.NumUnits()})
	if err != nil {
		return err
	}
	a, r, err := remoteArray(ctx, cluster, "vector", p)
	if err != nil {
		return err
	}
	defer r.Free(ctx)
	if err := dash.Fill(ctx, a.View(), 1, cluster.NumUnits()); err != nil {
		return err
	}
	outer := a.View().Sub(0, 2, 8)
	inner := outer.Sub(0, 1, 4)
	for _, v := range []struct {
		name string
		view *dash.View[int]
	}{
		{"sub [2, 8)", outer},
		{"sub [1, 4) of sub [2, 8)", inner},
	} {
		if err := printView(ctx, v.name, v.view); err != nil {
			return err
		}
	}
	log.Printf("remote operations: %v", r.Stats().Snapshot())
	return nil
}

func checkpoint(cluster *segment.Cluster, args []string) error {
	if len(args) != 1 {
		return errors.E(errors.Invalid, "checkpoint: expected prefix")
	}
	prefix := args[0]
	ctx := context.Background()
	p, err := pattern.New([]int{16}, []pattern.Distribution{pattern.Blocked}, []int{cluster.NumUnits()})
	if err != nil {
		return err
	}
	a, r, err := remoteArray(ctx, cluster, "checkpoint", p)
	if err != nil {
		return err
	}
	defer r.Free(ctx)
	if err := dash.Fill(ctx, a.View(), 42, cluster.NumUnits()); err != nil {
		return err
	}
	if err := r.Save(ctx, prefix); err != nil {
		return err
	}
	if err := dash.Fill(ctx, a.View(), 0, cluster.NumUnits()); err != nil {
		return err
	}
	if err := r.Load(ctx, prefix); err != nil {
		return err
	}
	return printView(ctx, "restored", a.View())
}

// remoteArray allocates a segment on each unit of the cluster and
// returns an array, accessed from outside the team, over it.
func remoteArray(ctx context.Context, cluster *segment.Cluster, name string, p pattern.Pattern) (*dash.Array[int], *segment.Remote[int], error) {
	r, err := segment.NewRemote[int](ctx, cluster, name, p, segment.GobCodec[int]{})
	if err != nil {
		return nil, nil, err
	}
	a, err := dash.NewArray[int](p, dash.NoUnit, nil, r)
	if err != nil {
		r.Free(ctx)
		return nil, nil, err
	}
	return a, r, nil
}

func printView(ctx context.Context, name string, v *dash.View[int]) error {
	vals, err := dash.Gather(ctx, v)
	if err != nil {
		return err
	}
	var (
		tw   = tabwriter.NewWriter(os.Stdout, 4, 4, 1, ' ', 0)
		it   = v.Indices()
		cols = v.Extent(v.Rank() - 1)
	)
	fmt.Fprintf(tw, "%s: offsets %v extents %v\n", name, v.Offsets(), v.Extents())
	for it.Next() {
		fmt.Fprintf(tw, "\t%d=%d", it.Index(), vals[it.Pos()])
		if (it.Pos()+1)%cols == 0 {
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}
