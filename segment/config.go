// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"

	"github.com/grailbio/base/config"
	"github.com/grailbio/bigmachine"
)

func init() {
	config.Register("dash", func(inst *config.Constructor) {
		var (
			system bigmachine.System
			units  int
		)
		inst.IntVar(&units, "units", 4, "number of units in the team")
		inst.InstanceVar(&system, "system", "", "the bigmachine system hosting the units")
		inst.Doc = "dash configures the team of units hosting distributed segments"
		inst.New = func() (interface{}, error) {
			if system == nil {
				system = bigmachine.Local
			}
			return StartCluster(context.Background(), bigmachine.Start(system), units, nil)
		}
	})
}
