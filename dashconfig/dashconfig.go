// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dashconfig provides a mechanism to start a team of units
// from a shared configuration. Dashconfig uses the configuration
// mechanism in package github.com/grailbio/base/config, and reads a
// default profile from $HOME/.dash/config.
//
// Importing dashconfig also registers the "s3" file implementation, so
// that segment checkpoints may be written to S3 URLs.
package dashconfig

import (
	"flag"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/baswi/dash/segment"
	"github.com/grailbio/base/config"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/must"

	// Used to provide ec2system.System bigmachines.
	_ "github.com/grailbio/bigmachine/ec2system"
)

func init() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

// Path determines the location of the dash profile read by Parse.
var Path = os.ExpandEnv("$HOME/.dash/config")

// Parse registers configuration flags and calls flag.Parse. It reads
// the dash configuration from Path defined in this package. Parse
// returns the cluster of units as configured by the configuration and
// any flags provided, together with a function that shuts it down.
// Parse panics if the cluster cannot be started.
func Parse() (cluster *segment.Cluster, shutdown func()) {
	config.RegisterFlags("", Path)
	flag.Parse()
	must.Nil(config.ProcessFlags())
	config.Must("dash", &cluster)
	return cluster, cluster.Shutdown
}
