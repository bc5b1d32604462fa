// Package codec implements §6's persisted-state layout: a tensor encodes
// as {name, data: contiguous sequence of elements}; decoding builds new
// storage initialized from the decoded sequence. Grounded on the teacher's
// pervasive jsoniter.ConfigCompatibleWithStandardLibrary usage (e.g.
// cmn/cos and ais' xaction state snapshots), not encoding/json.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package codec

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/ais-ml/tensorcore/shape"
	"github.com/ais-ml/tensorcore/view"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the wire shape of a persisted tensor: name plus a flat,
// row-major sequence of decoded element values. Kind/Extents round-trip
// enough shape information to reconstruct a view with New(extents...).
type Record struct {
	Name    string      `json:"name"`
	Kind    view.ElementKind `json:"kind"`
	Extents []int64     `json:"extents"`
	Data    []float64   `json:"data"`
}

// EncodeValues serializes an already-resolved sequence: the caller has
// already migrated storage to host via view.Values(stream) (or an
// equivalent synchronous host stream), since encoding has no stream of its
// own to enqueue on.
func EncodeValues(name string, kind view.ElementKind, s *shape.Shape, seq *view.ValueSequence) ([]byte, error) {
	n := seq.Len()
	data := make([]float64, n)
	for i := int64(0); i < n; i++ {
		data[i] = seq.Get(i)
	}
	rec := Record{Name: name, Kind: kind, Extents: append([]int64(nil), s.Extents...), Data: data}
	b, err := jsonAPI.Marshal(&rec)
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal")
	}
	return b, nil
}

// Decode constructs a new view (and its backing storage) from a persisted
// record, per §6: "decoding constructs new storage initialized from the
// decoded sequence."
func Decode(b []byte) (name string, v *view.View, err error) {
	var rec Record
	if err := jsonAPI.Unmarshal(b, &rec); err != nil {
		return "", nil, errors.Wrap(err, "codec: unmarshal")
	}
	s := shape.New(rec.Extents...)
	v, err = view.FromCollection(rec.Kind, s, rec.Data)
	if err != nil {
		return "", nil, errors.Wrap(err, "codec: rebuild view")
	}
	return rec.Name, v, nil
}
