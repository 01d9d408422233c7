// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/grailbio/base/errors"
)

func TestBadArguments(t *testing.T) {
	// Argument errors are reported before the cluster is used.
	if err := checkpoint(nil, nil); !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
	if err := vector(nil, []string{"-n", "4"}); !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
}
