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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bigmachine"
)

func init() {
	gob.Register(&Service{})
}

// Service is the bigmachine service, registered under the name
// "Segment", through which a unit exposes its segments for one-sided
// access. A segment is a named vector of codec-encoded elements; an
// element that has never been stored is empty.
type Service struct {
	// Exported just satisfies gob's persnickety nature: we need at least
	// one exported field.
	Exported struct{}

	mu       sync.Mutex
	segments map[string][][]byte
}

// Addr is the address of a single element within a unit.
type Addr struct {
	Segment string
	Offset  int
}

func (a Addr) String() string {
	return fmt.Sprintf("%s[%d]", a.Segment, a.Offset)
}

// AllocRequest requests the allocation of a segment with Len
// elements.
type AllocRequest struct {
	Segment string
	Len     int
}

// StoreRequest requests that an encoded Value be stored at Addr.
type StoreRequest struct {
	Addr  Addr
	Value []byte
}

// CheckpointRequest names a segment and the path of its checkpoint.
type CheckpointRequest struct {
	Segment string
	Path    string
}

// Init implements bigmachine's service initialization.
func (s *Service) Init(b *bigmachine.B) error {
	s.segments = make(map[string][][]byte)
	return nil
}

// Alloc allocates a new segment. It is an error to allocate a segment
// that already exists.
func (s *Service) Alloc(ctx context.Context, req AllocRequest, _ *struct{}) error {
	if req.Len < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("alloc %s: negative length %d", req.Segment, req.Len))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.segments[req.Segment]; ok {
		return errors.E(errors.Exists, fmt.Sprintf("alloc %s", req.Segment))
	}
	s.segments[req.Segment] = make([][]byte, req.Len)
	return nil
}

// Free releases a segment.
func (s *Service) Free(ctx context.Context, name string, _ *struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.segments[name]; !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("free %s", name))
	}
	delete(s.segments, name)
	return nil
}

// Fetch returns the encoded element at addr.
func (s *Service) Fetch(ctx context.Context, addr Addr, reply *[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, err := s.lookup(addr)
	if err != nil {
		log.Error.Printf("Segment.Fetch: %v", err)
		return err
	}
	*reply = append([]byte(nil), seg[addr.Offset]...)
	return nil
}

// Store replaces the encoded element at req.Addr.
func (s *Service) Store(ctx context.Context, req StoreRequest, _ *struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, err := s.lookup(req.Addr)
	if err != nil {
		log.Error.Printf("Segment.Store: %v", err)
		return err
	}
	seg[req.Addr.Offset] = req.Value
	return nil
}

// Save writes a checkpoint of the named segment to req.Path.
func (s *Service) Save(ctx context.Context, req CheckpointRequest, _ *struct{}) error {
	s.mu.Lock()
	seg, ok := s.segments[req.Segment]
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(seg)
	s.mu.Unlock()
	if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("save %s", req.Segment))
	}
	if err != nil {
		return errors.E(fmt.Sprintf("save %s", req.Segment), err)
	}
	return writeCheckpoint(ctx, req.Path, b.Bytes())
}

// Load replaces the named segment with the checkpoint at req.Path.
// The segment must exist and have the same length as the checkpoint.
func (s *Service) Load(ctx context.Context, req CheckpointRequest, _ *struct{}) error {
	p, err := readCheckpoint(ctx, req.Path)
	if err != nil {
		return err
	}
	var seg [][]byte
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&seg); err != nil {
		return errors.E(errors.Integrity, fmt.Sprintf("load %s", req.Segment), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.segments[req.Segment]
	if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("load %s", req.Segment))
	}
	if len(cur) != len(seg) {
		return errors.E(errors.Invalid,
			fmt.Sprintf("load %s: checkpoint holds %d elements, segment holds %d", req.Segment, len(seg), len(cur)))
	}
	s.segments[req.Segment] = seg
	return nil
}

// lookup returns the segment addressed by addr, checking the offset.
// s.mu must be held.
func (s *Service) lookup(addr Addr) ([][]byte, error) {
	seg, ok := s.segments[addr.Segment]
	if !ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("segment %s", addr.Segment))
	}
	if addr.Offset < 0 || addr.Offset >= len(seg) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("%v: offset out of range [0, %d)", addr, len(seg)))
	}
	return seg, nil
}
