package storage_test

import (
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/storage"
	"github.com/ais-ml/tensorcore/xstream"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var (
	cpu0 = memsys.Key{ServiceID: "cpu", DeviceID: "0"}
	gpu0 = memsys.Key{ServiceID: "gpu", DeviceID: "0"}
	gpu1 = memsys.Key{ServiceID: "gpu", DeviceID: "1"}
	npu0 = memsys.Key{ServiceID: "npu", DeviceID: "0"}
)

var _ = Describe("Storage", func() {
	It("exposes the host reference as its master, version 1, no copy", func() {
		data := []byte{1, 2, 3, 4}
		st := storage.NewFromHost("u8", 1, data, false)
		Expect(st.MasterVersion()).To(Equal(int64(1)))

		s := xstream.NewWithAddressing(cpu0, memsys.Unified)
		view, err := st.ReadOnly(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Copied).To(BeFalse())
		Expect(view.Bytes).To(Equal(data))
	})

	It("bumps master_version by exactly one per successful ReadWrite", func() {
		st := storage.New("f32", 4, 4)
		s := xstream.NewWithAddressing(cpu0, memsys.Unified)

		for i := int64(1); i <= 3; i++ {
			_, err := st.ReadWrite(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.MasterVersion()).To(Equal(i))
		}
	})

	It("rejects ReadWrite on a read-only host reference", func() {
		st := storage.NewFromHost("u8", 1, []byte{0}, true)
		s := xstream.NewWithAddressing(cpu0, memsys.Unified)
		_, err := st.ReadWrite(s)
		Expect(err).To(HaveOccurred())
	})

	It("migrates unified->discrete with a copy, and unified->unified with none", func() {
		st := storage.New("f32", 4, 2)
		cpuStream := xstream.NewWithAddressing(cpu0, memsys.Unified)
		gpuStream := xstream.NewWithAddressing(gpu0, memsys.Discrete)

		mv, err := st.ReadWrite(cpuStream)
		Expect(err).NotTo(HaveOccurred())
		Expect(mv.Copied).To(BeFalse()) // first-ever resolution, nothing to migrate from

		rv, err := st.ReadOnly(gpuStream)
		Expect(err).NotTo(HaveOccurred())
		Expect(rv.Copied).To(BeTrue()) // unified master -> discrete replica

		rv2, err := st.ReadOnly(cpuStream)
		Expect(err).NotTo(HaveOccurred())
		Expect(rv2.Copied).To(BeFalse()) // already current
	})

	It("peer-copies discrete->discrete replicas on the same service", func() {
		st := storage.New("f32", 4, 2)
		gpuStream := xstream.NewWithAddressing(gpu0, memsys.Discrete)
		peerStream := xstream.NewWithAddressing(gpu1, memsys.Discrete)

		_, err := st.ReadWrite(gpuStream)
		Expect(err).NotTo(HaveOccurred())

		rv, err := st.ReadOnly(peerStream)
		Expect(err).NotTo(HaveOccurred())
		Expect(rv.Copied).To(BeTrue())
	})

	It("stages a discrete->discrete, different-service migration through host", func() {
		st := storage.New("f32", 4, 2)
		gpuStream := xstream.NewWithAddressing(gpu0, memsys.Discrete)
		otherStream := xstream.NewWithAddressing(npu0, memsys.Discrete)

		_, err := st.ReadWrite(gpuStream)
		Expect(err).NotTo(HaveOccurred())

		rv, err := st.ReadOnly(otherStream)
		Expect(err).NotTo(HaveOccurred())
		Expect(rv.Copied).To(BeTrue())
	})

	It("never lets two replicas both claim the master version (single-master)", func() {
		st := storage.New("f32", 4, 1)
		a := xstream.NewWithAddressing(cpu0, memsys.Unified)
		b := xstream.NewWithAddressing(gpu0, memsys.Discrete)

		_, err := st.ReadWrite(a)
		Expect(err).NotTo(HaveOccurred())
		_, err = st.ReadWrite(b)
		Expect(err).NotTo(HaveOccurred())

		// after b becomes master, a's replica is stale and must re-migrate
		// on next access rather than being considered current.
		rv, err := st.ReadOnly(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(rv.Copied).To(BeTrue())
	})

	It("CopyFrom clones a new storage seeded from the source's current master", func() {
		src := storage.New("f32", 4, 2)
		s := xstream.NewWithAddressing(cpu0, memsys.Unified)
		_, err := src.ReadWrite(s)
		Expect(err).NotTo(HaveOccurred())

		dst, err := storage.CopyFrom(src, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(dst.MasterVersion()).To(Equal(int64(1)))
		Expect(dst.Uname()).NotTo(Equal(src.Uname()))
	})

	It("exposes last_access_mutated_view as a plain get/set flag", func() {
		st := storage.New("f32", 4, 2)
		Expect(st.LastAccessMutatedView()).To(BeFalse())
		st.SetLastAccessMutatedView(true)
		Expect(st.LastAccessMutatedView()).To(BeTrue())
		st.SetLastAccessMutatedView(false)
		Expect(st.LastAccessMutatedView()).To(BeFalse())
	})

	It("Close waits on any in-flight write completion", func() {
		st := storage.New("u8", 1, 1)
		s := xstream.NewWithAddressing(cpu0, memsys.Unified)
		_, err := st.ReadWrite(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Close()).To(Succeed())
	})
})
