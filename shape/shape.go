// Package shape implements the extent/stride/padding algebra that every
// tensor view is built on: physical-offset computation and the handful of
// shape-to-shape transforms (transpose, flatten, column-major, padding)
// views and iterators lean on.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package shape

import (
	"fmt"

	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/debug"
)

// Shape pairs per-axis extents with per-axis strides (element units, not
// bytes). Rank is len(Extents).
type Shape struct {
	Extents []int64
	Strides []int64
}

// Pad is a non-negative (before, after) pair applied to one axis.
type Pad struct {
	Before, After int64
}

// New builds a row-major Shape: Strides[i] = product of Extents[i+1:].
func New(extents ...int64) *Shape {
	s := &Shape{Extents: append([]int64(nil), extents...)}
	s.Strides = defaultStrides(s.Extents)
	return s
}

// NewColumnMajor builds a Shape whose elements, laid out in the given
// extents with the inner two axes swapped, iterate row-major in the
// caller's original axis order. See S6 (column-major import) in the spec:
// swap the two inner extents, compute default row-major strides for that
// swapped shape, then swap the strides back.
func NewColumnMajor(extents ...int64) *Shape {
	ext := append([]int64(nil), extents...)
	swapInnerTwo(ext)
	strides := defaultStrides(ext)
	swapInnerTwo(ext)
	swapInnerTwo(strides)
	return &Shape{Extents: ext, Strides: strides}
}

// NewWithStrides builds a Shape from explicit extents/strides, e.g. for a
// sub-view that borrows its parent's strides.
func NewWithStrides(extents, strides []int64) *Shape {
	debug.Assert(len(extents) == len(strides), "extents/strides rank mismatch")
	return &Shape{
		Extents: append([]int64(nil), extents...),
		Strides: append([]int64(nil), strides...),
	}
}

func defaultStrides(extents []int64) []int64 {
	n := len(extents)
	strides := make([]int64, n)
	acc := int64(1)
	for i := n - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= extents[i]
	}
	return strides
}

func swapInnerTwo(v []int64) {
	n := len(v)
	if n < 2 {
		return
	}
	v[n-2], v[n-1] = v[n-1], v[n-2]
}

func (s *Shape) Rank() int { return len(s.Extents) }

func (s *Shape) Clone() *Shape {
	return &Shape{
		Extents: append([]int64(nil), s.Extents...),
		Strides: append([]int64(nil), s.Strides...),
	}
}

// ElementCount is the logical element count: product of extents.
func (s *Shape) ElementCount() int64 {
	n := int64(1)
	for _, e := range s.Extents {
		n *= e
	}
	return n
}

// SpanCount is the physical range touched: 1 + sum((extent[i]-1)*stride[i]).
// Equals ElementCount() iff the shape is contiguous.
func (s *Shape) SpanCount() int64 {
	span := int64(1)
	for i := range s.Extents {
		if s.Extents[i] == 0 {
			return 0
		}
		span += (s.Extents[i] - 1) * s.Strides[i]
	}
	return span
}

func (s *Shape) IsContiguous() bool { return s.ElementCount() == s.SpanCount() }

func (s *Shape) HasPadding(pad []Pad) bool {
	for _, p := range pad {
		if p.Before > 0 || p.After > 0 {
			return true
		}
	}
	return false
}

// LinearIndex returns sum(coord[i]*Strides[i]); undefined (panics in debug
// builds) when coord is out of extents.
func (s *Shape) LinearIndex(coord []int64) int64 {
	debug.Assert(len(coord) == len(s.Extents), "coord/shape rank mismatch")
	var off int64
	for i, c := range coord {
		debug.Assertf(c >= 0 && c < s.Extents[i], "coord[%d]=%d out of extent %d", i, c, s.Extents[i])
		off += c * s.Strides[i]
	}
	return off
}

// Padded expands each extent by before+after; strides are unchanged since
// they still describe the offset of the inner (un-padded) data region.
// `pad` is either length 1 (applied to every axis) or length Rank().
func (s *Shape) Padded(pad []Pad) (*Shape, []Pad, error) {
	expanded, err := expandPad(pad, s.Rank())
	if err != nil {
		return nil, nil, err
	}
	out := s.Clone()
	for i, p := range expanded {
		if p.Before < 0 || p.After < 0 {
			return nil, nil, cos.NewErrShapeMismatch("negative padding at axis %d", i)
		}
		out.Extents[i] += p.Before + p.After
	}
	return out, expanded, nil
}

func expandPad(pad []Pad, rank int) ([]Pad, error) {
	switch len(pad) {
	case 0:
		return make([]Pad, rank), nil
	case 1:
		out := make([]Pad, rank)
		for i := range out {
			out[i] = pad[0]
		}
		return out, nil
	case rank:
		return append([]Pad(nil), pad...), nil
	default:
		return nil, cos.NewErrShapeMismatch("padding has %d entries, want 1 or %d", len(pad), rank)
	}
}

// Transposed swaps extents and strides of the two inner axes.
func (s *Shape) Transposed() *Shape {
	out := s.Clone()
	swapInnerTwo(out.Extents)
	swapInnerTwo(out.Strides)
	return out
}

// Flattened collapses axes strictly above `axis` into `axis`, multiplying
// its extent by their product. Legal only when that tail region is
// contiguous (each axis's stride equals extent*stride of the next axis).
func (s *Shape) Flattened(axis int) (*Shape, error) {
	n := s.Rank()
	if axis < 0 || axis >= n {
		return nil, cos.NewErrShapeMismatch("flatten axis %d out of range [0,%d)", axis, n)
	}
	for i := n - 1; i > axis; i-- {
		if s.Strides[i-1] != s.Extents[i]*s.Strides[i] {
			return nil, cos.NewErrShapeMismatch("flatten axis %d: tail not contiguous", axis)
		}
	}
	out := &Shape{
		Extents: append([]int64(nil), s.Extents[:axis+1]...),
		Strides: append([]int64(nil), s.Strides[:axis+1]...),
	}
	prod := int64(1)
	for i := axis + 1; i < n; i++ {
		prod *= s.Extents[i]
	}
	out.Extents[axis] *= prod
	if axis+1 < n {
		out.Strides[axis] = s.Strides[n-1]
	}
	return out, nil
}

func (s *Shape) String() string {
	return fmt.Sprintf("shape%v/strides%v", s.Extents, s.Strides)
}
