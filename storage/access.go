package storage

import (
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/xstream"
)

// ByteView is a read-only window onto one replica's bytes, returned by
// ReadOnly. Copied reports whether resolving it required a migration
// (S2's copy=true/false signal).
type ByteView struct {
	Bytes  []byte
	Copied bool
}

// MutByteView is a read-write window onto the master replica's bytes,
// returned by ReadWrite.
type MutByteView struct {
	Bytes  []byte
	Copied bool
}

func (st *Storage) resolveReplicaLocked(key memsys.Key, addr memsys.Addressing) *memsys.DeviceBuffer {
	if buf, ok := st.replicas[key]; ok {
		return buf
	}
	buf := memsys.NewDeviceBuffer(key, st.count*st.elementSize, addr)
	st.replicas[key] = buf
	return buf
}

// ReadOnly resolves a byte view of this storage on stream's device,
// migrating the master's contents in if the local replica is stale. See
// §4.F steps 1-4 (no master promotion, no new write-completion).
func (st *Storage) ReadOnly(stream *xstream.Stream) (*ByteView, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.writeCompletion != nil && st.writeCompletionStream != stream {
		_ = stream.SyncWith(st.writeCompletionStream, st.writeCompletion)
	}

	replica := st.resolveReplicaLocked(stream.Device, stream.Addressing)
	copied, err := st.maybeMigrate(replica, stream)
	if err != nil {
		return nil, err
	}
	return &ByteView{Bytes: replica.Bytes, Copied: copied}, nil
}

// ReadWrite resolves a mutable view, promoting stream's device replica to
// master and recording a fresh write-completion event. Fails with
// *read-only violation* if this storage was constructed from a read-only
// host reference.
func (st *Storage) ReadWrite(stream *xstream.Stream) (*MutByteView, error) {
	if st.isReadOnly {
		return nil, cos.NewErrReadOnly(st.uname)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.writeCompletion != nil && st.writeCompletionStream != stream {
		_ = stream.SyncWith(st.writeCompletionStream, st.writeCompletion)
	}

	replica := st.resolveReplicaLocked(stream.Device, stream.Addressing)
	copied, err := st.maybeMigrate(replica, stream)
	if err != nil {
		return nil, err
	}

	st.hasMaster = true
	st.masterKey = replica.Device
	st.masterVersion++
	replica.Version = st.masterVersion

	ev := stream.CreateEvent()
	if _, err := stream.Record(ev); err != nil {
		return nil, err
	}
	st.writeCompletion = ev
	st.writeCompletionStream = stream

	return &MutByteView{Bytes: replica.Bytes, Copied: copied}, nil
}

// maybeMigrate schedules a migration into replica if it does not already
// carry the master's version. Called with st.mu held (§4.F: "short
// critical section; no async work inside" -- scheduling an async copy is
// O(1) enqueue, not the copy itself).
func (st *Storage) maybeMigrate(replica *memsys.DeviceBuffer, stream *xstream.Stream) (bool, error) {
	if !st.hasMaster || replica.Version == st.masterVersion {
		return false, nil
	}
	master := st.replicas[st.masterKey]
	copied, err := migrate(master, replica, stream)
	if err != nil {
		return false, err
	}
	replica.Version = st.masterVersion
	return copied, nil
}
