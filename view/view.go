// Package view implements §4.G Tensor View: the shared-ownership,
// copy-on-write window onto one Storage that kernels and users actually
// index into. Grounded on the teacher's core/lom.go (cheap-to-copy handle
// that bumps a shared refcount rather than cloning bytes) and
// mirror/put_copies.go's copy-before-mutate discipline, generalized from
// "object replica" to "tensor view."
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package view

import (
	"github.com/ais-ml/tensorcore/cmn/config"
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/iter"
	"github.com/ais-ml/tensorcore/shape"
	"github.com/ais-ml/tensorcore/storage"
	"github.com/ais-ml/tensorcore/xstream"
)

// View is a cheap-to-copy handle: view_shape/data_shape/padding/traversal
// describe how to read the bytes, storage owns the bytes themselves.
type View struct {
	storage     *storage.Storage
	elementKind ElementKind
	elementSize int64

	viewShape *shape.Shape
	dataShape *shape.Shape
	pad       []shape.Pad
	padValue  float64
	align     []int64
	traversal iter.Traversal

	offset   int64 // element units, into storage's byte buffer
	isShared bool
}

func buildBytesFromValues(kind ElementKind, size int64, s *shape.Shape, values []float64) ([]byte, error) {
	total := s.ElementCount()
	if int64(len(values)) != total {
		return nil, cos.NewErrShapeMismatch("collection has %d values, shape wants %d", len(values), total)
	}
	buf := make([]byte, s.SpanCount()*size)
	it := iter.NewFromShape(s)
	for i := int64(0); i < total; i++ {
		_, dataOffset, _ := it.At(i)
		writeElement(kind, buf[dataOffset*size:], values[i])
	}
	return buf, nil
}

func newView(st *storage.Storage, kind ElementKind, size int64, s *shape.Shape) *View {
	st.AddRef()
	return &View{
		storage:     st,
		elementKind: kind,
		elementSize: size,
		viewShape:   s,
		dataShape:   s,
		traversal:   iter.Normal,
	}
}

// FromValue builds a scalar view over a single element.
func FromValue(kind ElementKind, value float64) (*View, error) {
	size, err := ElementSize(kind)
	if err != nil {
		return nil, err
	}
	s := shape.Scalar()
	data, err := buildBytesFromValues(kind, size, s, []float64{value})
	if err != nil {
		return nil, err
	}
	st := storage.NewFromHost(string(kind), size, data, false)
	return newView(st, kind, size, s), nil
}

// FromCollection builds a view over s, laid out with the row-major
// ordering of values.
func FromCollection(kind ElementKind, s *shape.Shape, values []float64) (*View, error) {
	size, err := ElementSize(kind)
	if err != nil {
		return nil, err
	}
	data, err := buildBytesFromValues(kind, size, s, values)
	if err != nil {
		return nil, err
	}
	st := storage.NewFromHost(string(kind), size, data, false)
	return newView(st, kind, size, s), nil
}

func fromExternal(kind ElementKind, s *shape.Shape, data []byte, readOnly bool) (*View, error) {
	size, err := ElementSize(kind)
	if err != nil {
		return nil, err
	}
	want := s.SpanCount() * size
	if int64(len(data)) != want {
		return nil, cos.NewErrShapeMismatch("external buffer has %d bytes, shape wants %d", len(data), want)
	}
	st := storage.NewFromHost(string(kind), size, data, readOnly)
	return newView(st, kind, size, s), nil
}

// FromExternalReadOnly wraps a caller-owned byte slice with no copy; writes
// through ReadWrite/MutableValues fail with *read-only violation*.
func FromExternalReadOnly(kind ElementKind, s *shape.Shape, data []byte) (*View, error) {
	return fromExternal(kind, s, data, true)
}

// FromExternalReadWrite wraps a caller-owned byte slice with no copy,
// mutable in place.
func FromExternalReadWrite(kind ElementKind, s *shape.Shape, data []byte) (*View, error) {
	return fromExternal(kind, s, data, false)
}

// NewFromHostColumnMajor wraps a caller-owned byte slice laid out in
// column-major order (S6) with no copy: shape.NewColumnMajor gives the
// view row-major-default logical iteration over physically column-major
// bytes.
func NewFromHostColumnMajor(kind ElementKind, extents []int64, data []byte, readOnly bool) (*View, error) {
	return fromExternal(kind, shape.NewColumnMajor(extents...), data, readOnly)
}

func (v *View) Rank() int                { return v.viewShape.Rank() }
func (v *View) Shape() *shape.Shape      { return v.viewShape }
func (v *View) ElementKind() ElementKind { return v.elementKind }
func (v *View) IsShared() bool           { return v.isShared }

// LastAccessMutatedView reports whether the most recent MutableValues call
// on this view's storage triggered a copy-on-write clone, per §4.F's
// testability flag.
func (v *View) LastAccessMutatedView() bool { return v.storage.LastAccessMutatedView() }

func (v *View) clone() *View {
	nv := *v
	v.storage.AddRef()
	return &nv
}

// Close releases this view's reference to its storage.
func (v *View) Close() { v.storage.Release() }

// SubView carves out [offset, offset+extents) of the view in each axis.
// Only defined over an unpadded, non-repeating view: sub-viewing into a
// padding margin or a broadcast-repeat region isn't given a meaning here.
func (v *View) SubView(offset, extents []int64, isReference bool) (*View, error) {
	if v.pad != nil || v.traversal == iter.Repeated {
		return nil, cos.NewErrShapeMismatch("sub_view undefined over a padded or repeating view")
	}
	rank := v.viewShape.Rank()
	if len(offset) != rank || len(extents) != rank {
		return nil, cos.NewErrShapeMismatch("sub_view rank mismatch")
	}
	for i := 0; i < rank; i++ {
		if offset[i] < 0 || extents[i] < 0 || offset[i]+extents[i] > v.viewShape.Extents[i] {
			return nil, cos.NewErrShapeMismatch("sub_view axis %d out of bounds", i)
		}
	}
	lin := v.viewShape.LinearIndex(offset)
	ns := shape.NewWithStrides(extents, v.viewShape.Strides)
	nv := v.clone()
	nv.viewShape, nv.dataShape = ns, ns
	nv.offset = v.offset + lin
	nv.isShared = isReference
	return nv, nil
}

// Repeating tiles the receiver (the "source") across targetExtents, with
// no data copy; align shifts the wrap-around per axis (nil for none).
func (v *View) Repeating(targetExtents, align []int64) (*View, error) {
	if len(targetExtents) != v.viewShape.Rank() {
		return nil, cos.NewErrShapeMismatch("repeating rank %d != source rank %d", len(targetExtents), v.viewShape.Rank())
	}
	for i, a := range align {
		if a < 0 {
			return nil, cos.NewErrShapeMismatch("negative align %d at axis %d: not supported", a, i)
		}
	}
	nv := v.clone()
	nv.dataShape = v.viewShape
	nv.viewShape = shape.New(targetExtents...)
	nv.pad = nil
	nv.align = append([]int64(nil), align...)
	nv.traversal = iter.Repeated
	return nv, nil
}

// Padded wraps the receiver in a padding margin: reads outside the inner
// region synthesize padValue; writes there are silently dropped.
func (v *View) Padded(pad []shape.Pad, padValue float64) (*View, error) {
	if v.traversal == iter.Repeated {
		return nil, cos.NewErrShapeMismatch("cannot pad a repeating view")
	}
	padded, expanded, err := v.viewShape.Padded(pad)
	if err != nil {
		return nil, err
	}
	nv := v.clone()
	nv.dataShape = v.viewShape
	nv.viewShape = padded
	nv.pad = expanded
	nv.padValue = padValue
	return nv, nil
}

// PaddedDefault pads the receiver with pad_value taken from the process-wide
// config (cmn/config's PadValue knob) rather than an explicit argument.
func (v *View) PaddedDefault(pad []shape.Pad) (*View, error) {
	return v.Padded(pad, config.GCO.Get().PadValue)
}

// Flattened collapses axes strictly above axis, as in §4.A; undefined over
// a padded or repeating view.
func (v *View) Flattened(axis int) (*View, error) {
	if v.pad != nil {
		return nil, cos.NewErrShapeMismatch("flatten undefined over a padded view")
	}
	if v.traversal == iter.Repeated {
		return nil, cos.NewErrShapeMismatch("flatten undefined over a repeating view")
	}
	ns, err := v.viewShape.Flattened(axis)
	if err != nil {
		return nil, err
	}
	nv := v.clone()
	nv.viewShape, nv.dataShape = ns, ns
	return nv, nil
}

func swapInnerTwoPad(pad []shape.Pad) []shape.Pad {
	if len(pad) < 2 {
		return pad
	}
	out := append([]shape.Pad(nil), pad...)
	n := len(out)
	out[n-2], out[n-1] = out[n-1], out[n-2]
	return out
}

// Transposed swaps strides and the two inner extents.
func (v *View) Transposed() (*View, error) {
	if v.traversal == iter.Repeated {
		return nil, cos.NewErrShapeMismatch("transpose undefined over a repeating view")
	}
	nv := v.clone()
	nv.viewShape = v.viewShape.Transposed()
	if v.pad != nil {
		nv.dataShape = v.dataShape.Transposed()
		nv.pad = swapInnerTwoPad(v.pad)
	} else {
		nv.dataShape = nv.viewShape
	}
	return nv, nil
}

// Reference returns a view aliasing the same storage with is_shared=true,
// forcing the storage unique up front so concurrent writes through
// multiple aliases skip copy-on-write safely.
func (v *View) Reference(stream *xstream.Stream) (*View, error) {
	if !v.storage.IsUniquelyOwned() {
		ns, err := storage.CopyFrom(v.storage, stream)
		if err != nil {
			return nil, err
		}
		v.storage.Release()
		v.storage = ns
		v.storage.AddRef()
	}
	nv := v.clone()
	nv.isShared = true
	return nv, nil
}
