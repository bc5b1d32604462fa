package xstream_test

import (
	"sync"

	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/xstream"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Stream", func() {
	var dev memsys.Key

	BeforeEach(func() {
		dev = memsys.Key{ServiceID: "cpu", DeviceID: "0"}
	})

	It("runs enqueued closures in FIFO order", func() {
		s := xstream.New(dev)
		var (
			mu   sync.Mutex
			seen []int
		)
		for i := 0; i < 20; i++ {
			i := i
			Expect(s.Enqueue(func() error {
				mu.Lock()
				seen = append(seen, i)
				mu.Unlock()
				return nil
			})).To(Succeed())
		}
		Expect(s.BlockUntilIdle()).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(seen).To(HaveLen(20))
		for i, v := range seen {
			Expect(v).To(Equal(i))
		}
	})

	It("poisons the stream on the first failing closure and surfaces it at the next join", func() {
		s := xstream.New(dev)
		Expect(s.ThrowTestError()).To(Succeed()) // enqueue succeeds; failure surfaces async

		err := s.BlockUntilIdle()
		Expect(err).To(HaveOccurred())

		// once poisoned, further enqueues become no-ops returning the sticky error
		err2 := s.Enqueue(func() error { return nil })
		Expect(err2).To(HaveOccurred())
		Expect(s.LastError()).To(HaveOccurred())
	})

	It("establishes happens-before across streams via SyncWith", func() {
		producer := xstream.New(dev)
		consumer := xstream.New(memsys.Key{ServiceID: "cpu", DeviceID: "1"})

		var (
			mu      sync.Mutex
			written bool
		)
		Expect(producer.Enqueue(func() error {
			mu.Lock()
			written = true
			mu.Unlock()
			return nil
		})).To(Succeed())

		ev := producer.CreateEvent()
		_, err := producer.Record(ev)
		Expect(err).NotTo(HaveOccurred())

		Expect(consumer.SyncWith(producer, ev)).To(Succeed())
		Expect(consumer.BlockUntilIdle()).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(written).To(BeTrue())
	})

	It("times out a wait that exceeds the event's deadline", func() {
		ev := xstream.NewEvent()
		err := ev.Wait(1)
		Expect(err).To(HaveOccurred())
	})

	It("signals an already-poisoned record immediately", func() {
		s := xstream.New(dev)
		Expect(s.ThrowTestError()).To(Succeed())
		Expect(s.BlockUntilIdle()).To(HaveOccurred())

		ev := s.CreateEvent()
		_, err := s.Record(ev)
		Expect(err).To(HaveOccurred())
		Expect(ev.IsSignaled()).To(BeTrue())
	})
})

var _ = Describe("Event", func() {
	It("is idempotent once signaled", func() {
		ev := xstream.NewEvent()
		Expect(ev.IsSignaled()).To(BeFalse())

		s := xstream.New(memsys.Key{ServiceID: "cpu", DeviceID: "0"})
		_, err := s.Record(ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Wait(0)).To(Succeed())
		Expect(ev.Wait(0)).To(Succeed())
		Expect(ev.IsSignaled()).To(BeTrue())
	})

	It("fails a wait on a never-recorded event with a timed-out error", func() {
		ev := xstream.NewEvent()
		Expect(ev.Wait(1)).To(MatchError("event.wait: timed out after 1ns"))
	})
})
