// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"context"
	"encoding/binary"
	"fmt"
	"io/ioutil"

	"github.com/grailbio/base/data"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/spaolacci/murmur3"
)

// A checkpoint file holds an encoded segment followed by the 8-byte,
// little-endian murmur3 hash of the encoding. Checkpoints may be
// stored at any path supported by package
// github.com/grailbio/base/file.

// checkpointPath returns the path of the checkpoint for unit under
// prefix.
func checkpointPath(prefix string, unit int) string {
	return file.Join(prefix, fmt.Sprintf("unit%03d", unit))
}

func writeCheckpoint(ctx context.Context, path string, payload []byte) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(ctx); err == nil {
			err = cerr
		}
	}()
	w := f.Writer(ctx)
	if _, err = w.Write(payload); err != nil {
		return err
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], murmur3.Sum64(payload))
	if _, err = w.Write(b[:]); err != nil {
		return err
	}
	log.Debug.Printf("checkpoint %s: wrote %s", path, data.Size(len(payload)+len(b)))
	return nil
}

func readCheckpoint(ctx context.Context, path string) ([]byte, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	p, err := ioutil.ReadAll(f.Reader(ctx))
	if cerr := f.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if len(p) < 8 {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("checkpoint %s: truncated at %d bytes", path, len(p)))
	}
	payload, sum := p[:len(p)-8], binary.LittleEndian.Uint64(p[len(p)-8:])
	if murmur3.Sum64(payload) != sum {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("checkpoint %s: checksum mismatch", path))
	}
	return payload, nil
}
