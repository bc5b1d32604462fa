// Package memsys owns device-resident byte storage: contiguous buffers and
// the async copy primitives used to move bytes between them. It is the
// teacher's `memsys` package (SGL/MMSA-style buffer ownership) repurposed
// from host-memory slab pooling to per-device replica buffers. There is no
// pool, free list or size class here: each buffer is one plain Go allocation
// ("one buffer per device") reclaimed by the garbage collector, rather than a
// slice of a shared page-slab arena.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"github.com/ais-ml/tensorcore/cmn/debug"
)

// Addressing describes whether a device shares the host's address space
// (unified, e.g. CPU or an integrated/zero-copy accelerator) or requires
// explicit transfers to/from host memory (discrete, e.g. a discrete GPU).
type Addressing int

const (
	Unified Addressing = iota
	Discrete
)

// Key identifies a device within a service, the same granularity storage's
// replica dictionary is keyed by.
type Key struct {
	ServiceID string
	DeviceID  string
}

func (k Key) String() string { return k.ServiceID + "/" + k.DeviceID }

// HostKey is the well-known key of the host CPU device, used by storage's
// cross-service staging path (discrete -> host -> discrete) to name the
// staging replica without importing the device package.
var HostKey = Key{ServiceID: "cpu", DeviceID: "0"}

// Stream is the minimal surface Device Buffer needs from a device stream to
// enqueue async work and to drain synchronously. xstream.Stream satisfies
// this interface structurally -- memsys never imports xstream, keeping the
// dependency edge one-directional (device -> xstream -> memsys).
type Stream interface {
	Enqueue(fn func() error) error
	BlockUntilIdle() error
}

// DeviceBuffer is a contiguous byte region on one device, versioned against
// the storage master_version it last satisfied.
type DeviceBuffer struct {
	Device     Key
	Bytes      []byte
	Version    int64 // -1: never written
	Addressing Addressing
}

// NewDeviceBuffer allocates nbytes on the given device, uninitialized
// (version -1).
func NewDeviceBuffer(dev Key, nbytes int64, addr Addressing) *DeviceBuffer {
	debug.Assert(nbytes >= 0, "negative buffer size")
	return &DeviceBuffer{
		Device:     dev,
		Bytes:      make([]byte, nbytes),
		Version:    -1,
		Addressing: addr,
	}
}

// Zero enqueues an async clear of the buffer on the given stream. Does not
// touch Version; storage alone controls versioning.
func (b *DeviceBuffer) Zero(s Stream) error {
	return s.Enqueue(func() error {
		clear(b.Bytes)
		return nil
	})
}

// CopyAsync schedules an async copy from another buffer on the same
// service (peer copy) or the same addressing domain. Valid only when both
// buffers can be reached from the same stream; callers (storage's
// migration policy) are responsible for picking the right stream.
func (b *DeviceBuffer) CopyAsync(from *DeviceBuffer, s Stream) error {
	debug.Assert(len(from.Bytes) == len(b.Bytes), "buffer size mismatch in copy")
	return s.Enqueue(func() error {
		copy(b.Bytes, from.Bytes)
		return nil
	})
}

// CopyAsyncFromHost schedules an async host -> device copy.
func (b *DeviceBuffer) CopyAsyncFromHost(host []byte, s Stream) error {
	debug.Assert(len(host) == len(b.Bytes), "buffer size mismatch in host copy")
	return s.Enqueue(func() error {
		copy(b.Bytes, host)
		return nil
	})
}

// CopyToHost is a synchronous drain: enqueues a device -> host copy and
// blocks until the stream has executed it.
func (b *DeviceBuffer) CopyToHost(host []byte, s Stream) error {
	debug.Assert(len(host) == len(b.Bytes), "buffer size mismatch in host copy")
	if err := s.Enqueue(func() error {
		copy(host, b.Bytes)
		return nil
	}); err != nil {
		return err
	}
	return s.BlockUntilIdle()
}
