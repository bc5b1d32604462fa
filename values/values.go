// Package values implements §4.I Value Collections: bidirectional
// random-access sequences over an iter.Iter, carrying start/end cursors and
// distance-to, the same thin sequence-protocol wrapper the teacher's
// cmn/cos iterator helpers provide over raw slices.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package values

import "github.com/ais-ml/tensorcore/iter"

// Sequence is a bidirectional random-access view over one Iter's range.
type Sequence struct {
	it    *iter.Iter
	start *iter.Cursor
	end   *iter.Cursor
}

// NewSequence spans the whole of it: [0, it.Total()).
func NewSequence(it *iter.Iter) *Sequence {
	return &Sequence{it: it, start: it.StartIndex(), end: it.EndIndex()}
}

func (sq *Sequence) StartIndex() *iter.Cursor { return sq.start }
func (sq *Sequence) EndIndex() *iter.Cursor   { return sq.end }

// Count is padded_shape.element_count, per §4.I.
func (sq *Sequence) Count() int64 { return DistanceTo(sq.start, sq.end) }

// Advance delegates to the cursor's own advanced(by n).
func (sq *Sequence) Advance(c *iter.Cursor, n int64) *iter.Cursor { return c.Advanced(n) }

// DistanceTo is end.viewIndex - start.viewIndex, per §4.I.
func DistanceTo(start, end *iter.Cursor) int64 { return end.Index() - start.Index() }
