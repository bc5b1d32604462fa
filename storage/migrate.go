package storage

import (
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/xstream"
)

// migrate moves bytes from the master replica into target per §4.F's
// case table, keyed by addressing domain and same-service-ness. Returns
// whether a physical copy actually happened (unified<->unified is a
// zero-copy alias), mirroring mirror/put_mirror.go's copy/no-copy
// bookkeeping generalized from mountpaths to devices.
func migrate(master, target *memsys.DeviceBuffer, stream *xstream.Stream) (copied bool, err error) {
	sameService := master.Device.ServiceID == target.Device.ServiceID

	switch {
	case master.Addressing == memsys.Unified && target.Addressing == memsys.Unified:
		target.Bytes = master.Bytes
		return false, nil

	case master.Addressing == memsys.Unified && target.Addressing == memsys.Discrete:
		observeMigration("unified->discrete")
		return true, target.CopyAsyncFromHost(master.Bytes, stream)

	case master.Addressing == memsys.Discrete && target.Addressing == memsys.Unified:
		observeMigration("discrete->unified")
		return true, target.CopyAsync(master, stream)

	case master.Addressing == memsys.Discrete && target.Addressing == memsys.Discrete && sameService:
		observeMigration("discrete->discrete/peer")
		return true, target.CopyAsync(master, stream) // peer copy

	default: // discrete -> discrete, different service: stage through host
		observeMigration("discrete->discrete/stage")
		staging := &memsys.DeviceBuffer{
			Device:     memsys.HostKey,
			Bytes:      make([]byte, len(master.Bytes)),
			Version:    -1,
			Addressing: memsys.Unified,
		}
		if err := staging.CopyAsync(master, stream); err != nil { // M -> host
			return true, err
		}
		if err := target.CopyAsyncFromHost(staging.Bytes, stream); err != nil { // host -> T
			return true, err
		}
		return true, nil
	}
}

func observeMigration(direction string) {
	if Metrics != nil {
		Metrics.ObserveMigration(direction)
	}
}
