// Package xstream implements the single-producer device command queue
// (Stream) and the one-shot cross-stream barrier (Event) it synchronizes
// through. Grounded on the teacher's channel-based async send pipeline in
// transport/api.go and transport/sendmsg.go (workCh/cmplCh, sendLoop,
// per-stream goroutine, ObjSentCB-style completion), generalized from
// "send one object" to "run one closure."
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package xstream

import (
	"sync"
	"time"

	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/mono"
)

// Event is a one-shot signal used as a cross-stream barrier: pending ->
// signaled, idempotent once signaled.
type Event struct {
	mu           sync.Mutex
	ch           chan struct{}
	signaled     bool
	recordedTime int64
	failErr      error
	id           string
}

func NewEvent() *Event {
	return &Event{ch: make(chan struct{}), id: cos.GenID()}
}

func (e *Event) ID() string { return e.id }

// reset arms the event for a fresh recording: if it was already signaled,
// it is legal to record it again, which resets it to pending first.
func (e *Event) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		e.ch = make(chan struct{})
		e.signaled = false
		e.failErr = nil
	}
}

// signal flips the event to signaled, carrying an optional failure (used
// when the owning stream was already poisoned at record time so waiters
// don't block forever on a barrier that will never be serviced).
func (e *Event) signal(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		return
	}
	e.signaled = true
	e.recordedTime = mono.NanoTime()
	e.failErr = err
	close(e.ch)
}

// Wait blocks until the event is signaled, failing with *timed-out* on
// deadline. timeout<=0 waits forever. Idempotent: waiting on an
// already-signaled event returns immediately.
func (e *Event) Wait(timeout time.Duration) error {
	e.mu.Lock()
	ch, signaled, err := e.ch, e.signaled, e.failErr
	e.mu.Unlock()
	if signaled {
		return err
	}
	if timeout <= 0 {
		<-ch
	} else {
		select {
		case <-ch:
		case <-time.After(timeout):
			return cos.NewErrTimedOut("event.wait", timeout)
		}
	}
	e.mu.Lock()
	err = e.failErr
	e.mu.Unlock()
	return err
}

func (e *Event) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}

// ElapsedSince returns the interval between two already-signaled events'
// recorded times. Undefined (zero) if either has not signaled yet.
func (e *Event) ElapsedSince(other *Event) time.Duration {
	e.mu.Lock()
	t1, ok1 := e.recordedTime, e.signaled
	e.mu.Unlock()
	other.mu.Lock()
	t0, ok0 := other.recordedTime, other.signaled
	other.mu.Unlock()
	if !ok0 || !ok1 {
		return 0
	}
	return time.Duration(t1 - t0)
}
