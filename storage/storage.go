// Package storage implements the tensor runtime's heart: §4.F Tensor
// Storage. One logical tensor's bytes, replicated lazily across devices,
// kept consistent through a monotonic master_version, migrated between
// replicas under a small case table, and guarded by a short
// access-mutex critical section with no async work inside it.
//
// Grounded on the teacher's core/lom.go (lmeta: versioned, lazily-loaded,
// mutex-guarded on-disk-backed metadata with an explicit Init/Load
// lifecycle) and mirror/put_mirror.go + mirror/put_copies.go (the
// replicate-to-another-location case analysis that this package's
// migration policy generalizes from "mountpath" to "device").
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package storage

import (
	"sync"

	"github.com/ais-ml/tensorcore/cmn/atomic"
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/debug"
	"github.com/ais-ml/tensorcore/cmn/nlog"
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/xstream"
)

// Storage is the logical backing of a tensor: a master-version counter and
// a replica dictionary keyed by device.
type Storage struct {
	mu sync.Mutex

	elementType string
	elementSize int64
	count       int64
	isReadOnly  bool
	uname       string

	hasMaster     bool
	masterKey     memsys.Key
	masterVersion int64
	replicas      map[memsys.Key]*memsys.DeviceBuffer

	writeCompletion       *xstream.Event
	writeCompletionStream *xstream.Stream

	viewRefs              atomic.Int32
	lastAccessMutatedView atomic.Bool
}

// New creates empty storage: never written, no replicas yet.
func New(elementType string, elementSize, count int64) *Storage {
	debug.Assert(elementSize > 0 && count >= 0, "invalid element size/count")
	return &Storage{
		elementType: elementType,
		elementSize: elementSize,
		count:       count,
		uname:       cos.GenID(),
		replicas:    make(map[memsys.Key]*memsys.DeviceBuffer),
	}
}

// NewFromHost creates storage whose master replica is the given host byte
// slice (no copy): readOnly=true for an external read-only buffer
// reference, false for an external read-write buffer reference.
func NewFromHost(elementType string, elementSize int64, data []byte, readOnly bool) *Storage {
	count := int64(len(data)) / elementSize
	st := New(elementType, elementSize, count)
	st.isReadOnly = readOnly
	buf := &memsys.DeviceBuffer{
		Device:     memsys.HostKey,
		Bytes:      data,
		Version:    1,
		Addressing: memsys.Unified,
	}
	st.replicas[memsys.HostKey] = buf
	st.hasMaster = true
	st.masterKey = memsys.HostKey
	st.masterVersion = 1
	return st
}

// CopyFrom allocates new storage shaped like src and schedules an async
// copy of src's current master contents into a replica on stream's device,
// the same shape as view.go's copy-on-write clone path and §4.F's
// "created ... by copy-from-other" lifecycle entry.
func CopyFrom(src *Storage, stream *xstream.Stream) (*Storage, error) {
	src.mu.Lock()
	elementType, elementSize, count := src.elementType, src.elementSize, src.count
	masterKey, hasMaster := src.masterKey, src.hasMaster
	var masterBuf *memsys.DeviceBuffer
	if hasMaster {
		masterBuf = src.replicas[masterKey]
	}
	src.mu.Unlock()

	dst := New(elementType, elementSize, count)
	dst.mu.Lock()
	defer dst.mu.Unlock()
	target := dst.resolveReplicaLocked(stream.Device, stream.Addressing)
	if hasMaster {
		var err error
		if masterBuf.Addressing == memsys.Unified && target.Addressing == memsys.Unified {
			// migrate would alias the master's bytes here; a clone needs its own copy
			err = target.CopyAsync(masterBuf, stream)
		} else {
			_, err = migrate(masterBuf, target, stream)
		}
		if err != nil {
			return nil, err
		}
		target.Version = 1
	} else {
		target.Version = 1
	}
	dst.hasMaster = true
	dst.masterKey = target.Device
	dst.masterVersion = 1

	ev := stream.CreateEvent()
	if _, err := stream.Record(ev); err != nil {
		return nil, err
	}
	dst.writeCompletion = ev
	dst.writeCompletionStream = stream
	return dst, nil
}

func (st *Storage) ElementType() string { return st.elementType }
func (st *Storage) ElementSize() int64  { return st.elementSize }
func (st *Storage) Count() int64        { return st.count }
func (st *Storage) IsReadOnly() bool    { return st.isReadOnly }
func (st *Storage) Uname() string       { return st.uname }

func (st *Storage) MasterVersion() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.masterVersion
}

// AddRef/Release track the number of views sharing this storage, the basis
// for view.go's copy-on-write uniqueness check. Release closes the storage
// once the last view drops its reference, per §3's destructor ordering.
func (st *Storage) AddRef() { st.viewRefs.Add(1) }
func (st *Storage) Release() {
	if st.viewRefs.Add(-1) == 0 {
		if err := st.Close(); err != nil {
			nlog.Errorf("%s: close on last view release: %v", st.uname, err)
		}
	}
}
func (st *Storage) IsUniquelyOwned() bool { return st.viewRefs.Load() <= 1 }
func (st *Storage) RefCount() int32       { return st.viewRefs.Load() }

func (st *Storage) LastAccessMutatedView() bool    { return st.lastAccessMutatedView.Load() }
func (st *Storage) SetLastAccessMutatedView(v bool) { st.lastAccessMutatedView.Store(v) }

// Close waits for any in-flight write to finish before the last view
// drops storage, per the destructor ordering in §3 Tensor Storage
// lifecycle.
func (st *Storage) Close() error {
	st.mu.Lock()
	ev, s := st.writeCompletion, st.writeCompletionStream
	st.mu.Unlock()
	if ev == nil || s == nil {
		return nil
	}
	return ev.Wait(0)
}
