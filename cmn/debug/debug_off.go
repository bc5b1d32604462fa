//go:build !debug

// Package debug provides zero-cost (in release builds) runtime assertions.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import "sync"

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
func AssertFunc(_ func() bool, _ ...any) {}

func AssertMutexLocked(_ *sync.Mutex)     {}
func AssertRWMutexLocked(_ *sync.RWMutex) {}

func Func(_ func()) {}

// GoroutineID is only meaningful in debug builds; release builds never call
// into the creator-goroutine check that needs it.
func GoroutineID() int64 { return 0 }
