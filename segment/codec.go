// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package segment

import (
	"bytes"
	"encoding/gob"
)

// A Codec encodes single elements for storage in a remote segment.
// Decoding an empty buffer must yield the zero value: this is what is
// read from an element that has never been stored.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(p []byte) (T, error)
}

// GobCodec encodes elements with encoding/gob.
type GobCodec[T any] struct{}

// Encode implements Codec.
func (GobCodec[T]) Encode(v T) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode implements Codec.
func (GobCodec[T]) Decode(p []byte) (T, error) {
	var v T
	if len(p) == 0 {
		return v, nil
	}
	err := gob.NewDecoder(bytes.NewReader(p)).Decode(&v)
	return v, err
}
