// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Dashview is a binary used to exercise views over arrays distributed
// across a team of units.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/baswi/dash/dashconfig"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: dashview [-wait] command args...

Command dashview starts a team of units as configured by the dash
profile, allocates arrays across them, and prints the contents of
views derived from them.

Available commands are:

	matrix [-rows n] [-cols n] [-tile n]
		Distribute a matrix by column tiles and print a row range
		and its per-unit blocks.
	vector [-n n]
		Distribute a vector in blocks and print chained sub-ranges.
	checkpoint prefix
		Fill a vector, checkpoint it to prefix, and restore it.
`)
		flag.PrintDefaults()
		os.Exit(2)
	}

	wait := flag.Bool("wait", false, "don't exit after completion")
	cluster, shutdown := dashconfig.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", cmd)
		flag.Usage()
	case "matrix":
		err = matrix(cluster, args)
	case "vector":
		err = vector(cluster, args)
	case "checkpoint":
		err = checkpoint(cluster, args)
	}
	shutdown()
	if *wait {
		if err != nil {
			log.Printf("finished with error %v: waiting", err)
		} else {
			log.Print("done: waiting")
		}
		<-make(chan struct{})
	}
	must.Nil(err, cmd)
}
