package memsys_test

import (
	"testing"

	"github.com/ais-ml/tensorcore/memsys"
)

// fifoStream is the minimal memsys.Stream fake: runs closures synchronously,
// enough to exercise DeviceBuffer's async-copy plumbing without xstream
// (which itself depends on memsys -- see memsys.Stream's doc comment on the
// one-directional dependency edge).
type fifoStream struct{ lastErr error }

func (f *fifoStream) Enqueue(fn func() error) error {
	if f.lastErr != nil {
		return f.lastErr
	}
	if err := fn(); err != nil {
		f.lastErr = err
	}
	return nil
}
func (f *fifoStream) BlockUntilIdle() error { return f.lastErr }

func TestCopyAsyncFromHost(t *testing.T) {
	dst := memsys.NewDeviceBuffer(memsys.Key{ServiceID: "gpu", DeviceID: "0"}, 4, memsys.Discrete)
	s := &fifoStream{}
	host := []byte{1, 2, 3, 4}
	if err := dst.CopyAsyncFromHost(host, s); err != nil {
		t.Fatal(err)
	}
	if err := s.BlockUntilIdle(); err != nil {
		t.Fatal(err)
	}
	for i, b := range host {
		if dst.Bytes[i] != b {
			t.Fatalf("byte %d = %d, want %d", i, dst.Bytes[i], b)
		}
	}
}

func TestCopyToHostDrainsSynchronously(t *testing.T) {
	src := memsys.NewDeviceBuffer(memsys.HostKey, 4, memsys.Unified)
	copy(src.Bytes, []byte{9, 8, 7, 6})
	s := &fifoStream{}
	host := make([]byte, 4)
	if err := src.CopyToHost(host, s); err != nil {
		t.Fatal(err)
	}
	if host[0] != 9 || host[3] != 6 {
		t.Fatalf("host = %v", host)
	}
}
