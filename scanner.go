// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dash

import "context"

// Scanner reads the elements of a view in image order. Each element
// is fetched when it is scanned; nothing is read ahead or cached.
//
//	scan := view.Scan()
//	var x T
//	for scan.Scan(ctx, &x) {
//		// process x
//	}
//	if err := scan.Err(); err != nil {
//		// handle error
//	}
type Scanner[T any] struct {
	view *View[T]
	pos  int
	err  error
}

// Scan reads the next element into out. It returns false when the
// view is exhausted or an error occurred; Err then returns the error,
// if any.
func (s *Scanner[T]) Scan(ctx context.Context, out *T) bool {
	if s.err != nil || s.pos >= s.view.Size() {
		return false
	}
	x, err := s.view.Get(ctx, s.pos)
	if err != nil {
		s.err = err
		return false
	}
	*out = x
	s.pos++
	return true
}

// Err returns the error, if any, that stopped the scan.
func (s *Scanner[T]) Err() error { return s.err }
