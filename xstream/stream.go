package xstream

import (
	"sync"
	"time"

	"github.com/ais-ml/tensorcore/cmn/config"
	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/debug"
	"github.com/ais-ml/tensorcore/cmn/mono"
	"github.com/ais-ml/tensorcore/cmn/nlog"
	"github.com/ais-ml/tensorcore/memsys"
)

// Stream is a single-producer FIFO of closures executed on one worker
// goroutine, the Go stand-in for a device command queue. Only the
// goroutine that created it may Enqueue; a violation is a programming
// error, asserted in debug builds (see debug.GoroutineID).
type Stream struct {
	Device     memsys.Key
	Addressing memsys.Addressing
	ID         string
	creatorGID int64
	timeout    time.Duration
	idle       time.Duration

	mu      sync.Mutex
	fifo    chan func() error
	lastErr error
	running bool
	wg      sync.WaitGroup
}

// interface guard: xstream.Stream must satisfy what memsys.DeviceBuffer
// needs from a stream.
var _ memsys.Stream = (*Stream)(nil)

// New creates a device stream. The calling goroutine becomes its sole
// permitted submitter.
func New(dev memsys.Key) *Stream { return NewWithAddressing(dev, memsys.Unified) }

// NewWithAddressing creates a device stream that remembers its device's
// addressing domain, so storage's migration policy can consult it without
// importing the device package (see memsys.Stream).
func NewWithAddressing(dev memsys.Key, addr memsys.Addressing) *Stream {
	cfg := config.GCO.Get()
	s := &Stream{
		Device:     dev,
		Addressing: addr,
		ID:         cos.GenID(),
		creatorGID: debug.GoroutineID(),
		timeout:    cfg.StreamTimeout,
		idle:       cfg.IdleTeardown,
		fifo:       make(chan func() error, cfg.StreamBurst),
	}
	s.ensureWorker()
	return s
}

func (s *Stream) String() string { return s.Device.String() + "/" + s.ID }

// Enqueue appends a closure to the FIFO. O(1): no-op (returns the sticky
// poison error immediately) once the stream has failed.
func (s *Stream) Enqueue(fn func() error) error {
	debug.AssertFunc(func() bool { return s.creatorGID == debug.GoroutineID() },
		"stream enqueued from non-creator goroutine", s.String())

	s.mu.Lock()
	if s.lastErr != nil {
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	s.ensureWorkerLocked()
	s.mu.Unlock()

	s.fifo <- fn
	return nil
}

func (s *Stream) ensureWorker() {
	s.mu.Lock()
	s.ensureWorkerLocked()
	s.mu.Unlock()
}

func (s *Stream) ensureWorkerLocked() {
	if s.running {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
}

// run is the worker: closures execute to completion, strictly in
// submission order, with no preemption inside the stream. The first
// failing closure poisons the stream; subsequent closures already queued
// are drained without execution so Enqueue callers observe a bounded FIFO.
func (s *Stream) run() {
	defer s.wg.Done()
	for {
		var (
			fn func() error
			ok bool
		)
		if s.idle > 0 {
			select {
			case fn, ok = <-s.fifo:
			case <-time.After(s.idle):
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
		} else {
			fn, ok = <-s.fifo
		}
		if !ok {
			return
		}
		s.mu.Lock()
		poisoned := s.lastErr != nil
		s.mu.Unlock()
		if poisoned {
			continue
		}
		if err := fn(); err != nil {
			s.mu.Lock()
			firstPoison := s.lastErr == nil
			if firstPoison {
				s.lastErr = cos.NewErrStream(err)
				nlog.Errorf("%s: poisoned: %v", s, err)
			}
			s.mu.Unlock()
			if firstPoison && Metrics != nil {
				Metrics.ObservePoisoned(s.Device.String())
			}
		}
	}
}

// LastError returns the error that poisoned this stream, if any.
func (s *Stream) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Stream) CreateEvent() *Event { return NewEvent() }

// Record appends a signal closure for ev on this stream. If the stream is
// already poisoned, ev is signaled immediately carrying that failure so no
// waiter blocks on a barrier that will never be serviced.
func (s *Stream) Record(ev *Event) (*Event, error) {
	ev.reset()
	if err := s.Enqueue(func() error {
		ev.signal(nil)
		return nil
	}); err != nil {
		ev.signal(err)
		return ev, err
	}
	return ev, nil
}

// WaitFor appends a closure that blocks this stream's worker until ev
// signals. This is one of the two suspension points inside the core (the
// other is the synchronous host-stream drain for cross-service staging).
func (s *Stream) WaitFor(ev *Event) error {
	return s.Enqueue(func() error {
		start := mono.NanoTime()
		err := ev.Wait(s.timeout)
		if Metrics != nil {
			elapsed := time.Duration(mono.NanoTime() - start)
			Metrics.ObserveEventWait(s.Device.String(), elapsed.Seconds())
		}
		return err
	})
}

// SyncWith records ev on other, then appends a wait-for-event closure to
// self, establishing happens-before from ev's signal on other to every
// closure self enqueues after this call -- without blocking the submitter.
func (s *Stream) SyncWith(other *Stream, ev *Event) error {
	_, _ = other.Record(ev) // if other is poisoned, ev already carries the failure
	return s.WaitFor(ev)
}

// BlockUntilIdle blocks the calling (application) goroutine until the FIFO
// tail has drained: record + wait on a fresh event, synchronously.
func (s *Stream) BlockUntilIdle() error {
	ev := NewEvent()
	_, _ = s.Record(ev)
	return ev.Wait(s.timeout)
}

// ThrowTestError injects a failure into the FIFO, for exercising fault
// paths (stream poisoning, surfaced-at-join semantics).
func (s *Stream) ThrowTestError() error {
	return s.Enqueue(func() error { return errTest })
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "injected test error" }
