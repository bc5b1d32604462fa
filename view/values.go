// values.go: view's accessors into storage (read_only/read_write) and the
// typed value sequence built from an iter.Iter + values.Sequence over the
// resolved bytes -- §4.G's `values(stream)`/`mutable_values(stream)` and
// §4.H/§4.I's "value at (is_pad ? pad_value : buffer[data_offset])"
// contract.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package view

import (
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/iter"
	"github.com/ais-ml/tensorcore/storage"
	"github.com/ais-ml/tensorcore/values"
	"github.com/ais-ml/tensorcore/xstream"
)

func (v *View) buildIter() (*iter.Iter, error) {
	switch {
	case v.traversal == iter.Repeated:
		return iter.NewRepeating(v.viewShape.Extents, v.dataShape, v.align)
	case v.pad != nil:
		return iter.NewPadded(v.dataShape, v.pad)
	default:
		return iter.NewFromShape(v.viewShape), nil
	}
}

// ValueSequence is a read-only typed value.s() result: Get(i) yields
// pad_value at padded coordinates, else the decoded element.
type ValueSequence struct {
	seq    *values.Sequence
	bytes  []byte
	kind   ElementKind
	size   int64
	offset int64
	pad    float64
}

func (vs *ValueSequence) Len() int64 { return vs.seq.Count() }

func (vs *ValueSequence) Get(i int64) float64 {
	_, dataOffset, isPad := vs.seq.StartIndex().Advanced(i).Get()
	if isPad {
		return vs.pad
	}
	byteOff := (vs.offset + dataOffset) * vs.size
	return readElement(vs.kind, vs.bytes[byteOff:byteOff+vs.size])
}

// MutableValueSequence is mutable_values()'s result: Set on a padded
// coordinate is silently dropped, per §4.H.
type MutableValueSequence struct {
	ValueSequence
}

func (vs *MutableValueSequence) Set(i int64, value float64) {
	_, dataOffset, isPad := vs.seq.StartIndex().Advanced(i).Get()
	if isPad {
		return
	}
	byteOff := (vs.offset + dataOffset) * vs.size
	writeElement(vs.kind, vs.bytes[byteOff:byteOff+vs.size], value)
}

// Values resolves this view's storage for reading on stream and returns a
// read-only typed sequence over it. §4.F steps 1-4: no master promotion.
func (v *View) Values(stream *xstream.Stream) (*ValueSequence, error) {
	it, err := v.buildIter()
	if err != nil {
		return nil, err
	}
	bv, err := v.storage.ReadOnly(stream)
	if err != nil {
		return nil, err
	}
	return &ValueSequence{
		seq:    values.NewSequence(it),
		bytes:  bv.Bytes,
		kind:   v.elementKind,
		size:   v.elementSize,
		offset: v.offset,
		pad:    v.padValue,
	}, nil
}

// MutableValues resolves this view's storage for writing on stream
// (promoting it to master, bumping master_version), applying copy-on-write
// first unless this view is shared/referenced (§6.3 copy-on-write
// uniqueness).
func (v *View) MutableValues(stream *xstream.Stream) (*MutableValueSequence, error) {
	if err := v.ensureUniqueForWrite(stream); err != nil {
		return nil, err
	}
	it, err := v.buildIter()
	if err != nil {
		return nil, err
	}
	mv, err := v.storage.ReadWrite(stream)
	if err != nil {
		return nil, err
	}
	return &MutableValueSequence{ValueSequence{
		seq:    values.NewSequence(it),
		bytes:  mv.Bytes,
		kind:   v.elementKind,
		size:   v.elementSize,
		offset: v.offset,
		pad:    v.padValue,
	}}, nil
}

// ensureUniqueForWrite is the copy-on-write gate: a non-shared view whose
// storage has other owners clones the storage before mutating it, so the
// other owners keep observing the pre-mutation bytes. last_access_mutated_view
// is set true only when that clone actually happens, false otherwise, per
// §4.F's "set for testability" contract.
func (v *View) ensureUniqueForWrite(stream *xstream.Stream) error {
	if v.storage.IsReadOnly() {
		return cos.NewErrReadOnly(cos.JoinWords(stream.Device.String(), v.storage.Uname()))
	}
	if v.isShared || v.storage.IsUniquelyOwned() {
		v.storage.SetLastAccessMutatedView(false)
		return nil
	}
	ns, err := storage.CopyFrom(v.storage, stream)
	if err != nil {
		return err
	}
	v.storage.Release()
	v.storage = ns
	v.storage.AddRef()
	v.storage.SetLastAccessMutatedView(true)
	return nil
}
