// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/baswi/dash/pattern"
	"github.com/baswi/dash/stats"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
)

func testPattern(t *testing.T) pattern.Pattern {
	t.Helper()
	p, err := pattern.New([]int{10}, []pattern.Distribution{pattern.Blocked}, []int{4})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMemoryAccessor(t *testing.T) {
	m := NewMemory[int](testPattern(t))
	ctx := context.Background()
	if got, want := len(m.Segment(3)), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	acc := m.Accessor(2, 1)
	if err := acc.Store(ctx, 77); err != nil {
		t.Fatal(err)
	}
	if got, want := m.Segment(2)[1], 77; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for i := 0; i < 3; i++ {
		v, err := acc.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := v, 77; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if got, want := m.Stats().Count(2, stats.Fetch), int64(3); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := m.Stats().Count(2, stats.Store), int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMemoryErrors(t *testing.T) {
	m := NewMemory[int](testPattern(t))
	ctx := context.Background()
	if _, err := m.Accessor(3, 1).Fetch(ctx); !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
	if _, err := m.Accessor(4, 0).Fetch(ctx); !errors.Is(errors.Invalid, err) {
		t.Errorf("unexpected error %v", err)
	}
	m.Disconnect(1)
	if _, err := m.Accessor(1, 0).Fetch(ctx); !errors.Is(errors.Net, err) {
		t.Errorf("unexpected error %v", err)
	}
	if err := m.Accessor(1, 0).Store(ctx, 1); !errors.Is(errors.Net, err) {
		t.Errorf("unexpected error %v", err)
	}
	m.Reconnect(1)
	if _, err := m.Accessor(1, 0).Fetch(ctx); err != nil {
		t.Error(err)
	}
}

func TestMemoryCheckpoint(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	p := testPattern(t)
	m := NewMemory[int](p)
	for unit := 0; unit < m.NumUnits(); unit++ {
		for i := range m.Segment(unit) {
			m.Segment(unit)[i] = unit*100 + i
		}
	}
	assert.NoError(t, m.Save(ctx, dir))

	// Restore preserves the identity of existing segments.
	seg := m.Segment(1)
	seg[0] = -1
	assert.NoError(t, m.Restore(ctx, dir))
	assert.EQ(t, seg[0], 100)

	other := NewMemory[int](p)
	assert.NoError(t, other.Restore(ctx, dir))
	assert.EQ(t, other.Segment(3)[0], 300)
}

func TestCheckpointIntegrity(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(dir, "ckpt")
	assert.NoError(t, writeCheckpoint(ctx, path, []byte("hello, world")))
	p, err := readCheckpoint(ctx, path)
	assert.NoError(t, err)
	assert.EQ(t, string(p), "hello, world")

	raw, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	raw[0] ^= 0xff
	assert.NoError(t, ioutil.WriteFile(path, raw, 0644))
	if _, err := readCheckpoint(ctx, path); !errors.Is(errors.Integrity, err) {
		t.Errorf("unexpected error %v", err)
	}
	assert.NoError(t, ioutil.WriteFile(path, raw[:4], 0644))
	if _, err := readCheckpoint(ctx, path); !errors.Is(errors.Integrity, err) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGobCodec(t *testing.T) {
	var codec GobCodec[float64]
	v, err := codec.Decode(nil)
	assert.NoError(t, err)
	assert.EQ(t, v, 0.0)
	p, err := codec.Encode(1.5)
	assert.NoError(t, err)
	v, err = codec.Decode(p)
	assert.NoError(t, err)
	assert.EQ(t, v, 1.5)
}
