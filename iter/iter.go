// Package iter implements §4.H Index Iterators: converting a linear visit
// of a (possibly padded, possibly repeating) logical view into a
// (view_offset, data_offset, is_pad) triple.
//
// The rank-specialized constructors (Scalar/Vector/Matrix/Volume) named in
// §6's external interface and the general padded/repeating constructors
// both build on one engine: offsets are recomputed from a view index by
// row-major divmod against the view extents (shape.defaultStrides' mirror
// image), rather than the carried per-axis ExtentPosition bookkeeping the
// component sketches. That trades a constant-factor per step for a single
// engine with no duplicated carry logic across four rank-specialized
// copies -- the external contract only promises the triple, not how it's
// produced. Grounded on the teacher's mirror/getfqn.go-style small pure
// helpers; each At call allocates one per-axis coordinate slice.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package iter

import (
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/debug"
	"github.com/ais-ml/tensorcore/shape"
)

type Traversal int

const (
	Normal Traversal = iota
	Repeated
)

// axis holds the per-axis constants an Iter consults on every offset
// computation: the data-side stride/extent it walks or wraps against, plus
// (for Normal traversal) the padding boundary, or (for Repeated) the
// broadcast alignment.
type axis struct {
	dataExtent int64
	dataStride int64
	padBefore  int64
	align      int64
}

// Iter is a stateless offset function over a rectangular view extent: no
// per-step mutation of shared fields, so multiple Cursors may read it
// concurrently.
type Iter struct {
	traversal   Traversal
	viewExtents []int64
	axes        []axis
	total       int64
}

func newIter(viewExtents []int64, axes []axis, traversal Traversal) *Iter {
	total := int64(1)
	for _, e := range viewExtents {
		total *= e
	}
	return &Iter{
		traversal:   traversal,
		viewExtents: append([]int64(nil), viewExtents...),
		axes:        axes,
		total:       total,
	}
}

// NewFromShape builds a Normal, unpadded iterator over s: data_offset is
// exactly s.LinearIndex(coord).
func NewFromShape(s *shape.Shape) *Iter {
	axes := make([]axis, s.Rank())
	for i := range axes {
		axes[i] = axis{dataExtent: s.Extents[i], dataStride: s.Strides[i]}
	}
	return newIter(s.Extents, axes, Normal)
}

// NewPadded builds a Normal iterator whose view extents are dataShape's
// extents expanded by pad; coordinates inside the pad margin report
// is_pad=true and contribute no data offset. pad must already be expanded
// to one entry per axis (see shape.Shape.Padded).
func NewPadded(dataShape *shape.Shape, pad []shape.Pad) (*Iter, error) {
	if len(pad) != dataShape.Rank() {
		return nil, cos.NewErrShapeMismatch("padding rank %d != shape rank %d", len(pad), dataShape.Rank())
	}
	viewExtents := make([]int64, dataShape.Rank())
	axes := make([]axis, dataShape.Rank())
	for i, p := range pad {
		viewExtents[i] = dataShape.Extents[i] + p.Before + p.After
		axes[i] = axis{
			dataExtent: dataShape.Extents[i],
			dataStride: dataShape.Strides[i],
			padBefore:  p.Before,
		}
	}
	return newIter(viewExtents, axes, Normal), nil
}

// NewRepeating builds a Repeated iterator: viewExtents is the broadcast
// target shape, dataShape is the source being tiled, align shifts the
// wrap-around per axis (align may be nil for no shift). Ranks must match;
// broadcasting a lower-rank source is the caller's job (pad its shape to
// the target rank with extent-1/stride-0 axes first).
func NewRepeating(viewExtents []int64, dataShape *shape.Shape, align []int64) (*Iter, error) {
	rank := len(viewExtents)
	if dataShape.Rank() != rank {
		return nil, cos.NewErrShapeMismatch("repeating rank %d != source rank %d", rank, dataShape.Rank())
	}
	if align != nil && len(align) != rank {
		return nil, cos.NewErrShapeMismatch("align rank %d != %d", len(align), rank)
	}
	for i, a := range align {
		if a < 0 {
			return nil, cos.NewErrShapeMismatch("negative align %d at axis %d: not supported", a, i)
		}
	}
	axes := make([]axis, rank)
	for i := range axes {
		a := int64(0)
		if align != nil {
			a = align[i]
		}
		axes[i] = axis{dataExtent: dataShape.Extents[i], dataStride: dataShape.Strides[i], align: a}
	}
	return newIter(viewExtents, axes, Repeated), nil
}

// Scalar/Vector/Matrix/Volume are the rank-fixed constructors §6 names
// explicitly, built directly on shape's equally-named constructors.
func Scalar() *Iter                           { return NewFromShape(shape.Scalar()) }
func Vector(n int64) *Iter                    { return NewFromShape(shape.Vector(n)) }
func Matrix(rows, cols int64) *Iter           { return NewFromShape(shape.Matrix(rows, cols)) }
func Volume(d0, d1, d2 int64) *Iter           { return NewFromShape(shape.Volume(d0, d1, d2)) }

func (it *Iter) Rank() int     { return len(it.viewExtents) }
func (it *Iter) Total() int64  { return it.total }
func (it *Iter) Traversal() Traversal { return it.traversal }

// unravel converts a row-major linear view index into per-axis coordinates,
// the divmod §4.H's advanced(by n) calls for instead of iterating.
func (it *Iter) unravel(viewIndex int64) []int64 {
	coord := make([]int64, len(it.viewExtents))
	rem := viewIndex
	for i := len(it.viewExtents) - 1; i >= 0; i-- {
		e := it.viewExtents[i]
		if e == 0 {
			continue
		}
		coord[i] = rem % e
		rem /= e
	}
	return coord
}

// At computes the (view_offset, data_offset, is_pad) triple for viewIndex
// in O(rank), with no iterator-local mutation.
func (it *Iter) At(viewIndex int64) (viewOffset, dataOffset int64, isPad bool) {
	debug.Assertf(viewIndex >= 0 && viewIndex < it.total, "iterator index %d out of [0,%d)", viewIndex, it.total)
	coord := it.unravel(viewIndex)
	switch it.traversal {
	case Repeated:
		for i, c := range coord {
			a := it.axes[i]
			rc := (c + a.align) % a.dataExtent // align validated >= 0 in NewRepeating: never wraps negative
			dataOffset += rc * a.dataStride
		}
	default:
		for i, c := range coord {
			a := it.axes[i]
			if c < a.padBefore || c >= a.padBefore+a.dataExtent {
				isPad = true
				continue
			}
			dataOffset += (c - a.padBefore) * a.dataStride
		}
	}
	return viewIndex, dataOffset, isPad
}

// Cursor is a position in one Iter's sequence: start_index/end_index,
// increment, and advanced(by n) from §6.
type Cursor struct {
	it    *Iter
	index int64
}

func (it *Iter) StartIndex() *Cursor { return &Cursor{it: it, index: 0} }
func (it *Iter) EndIndex() *Cursor   { return &Cursor{it: it, index: it.total} }

func (c *Cursor) Index() int64 { return c.index }

func (c *Cursor) Increment() { c.index++ }

func (c *Cursor) Advanced(n int64) *Cursor { return &Cursor{it: c.it, index: c.index + n} }

func (c *Cursor) Equal(other *Cursor) bool { return c.it == other.it && c.index == other.index }

// Get subscripts the underlying iterator at this cursor's position.
func (c *Cursor) Get() (viewOffset, dataOffset int64, isPad bool) { return c.it.At(c.index) }
