// Package mono provides a monotonic clock abstraction used for stream-event
// timestamps and idle/backoff timers.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var epoch = time.Now()

// NanoTime returns nanoseconds elapsed since process start, monotonic by
// construction (it never observes wall-clock adjustments because it is
// derived from a single time.Since call against a fixed epoch).
func NanoTime() int64 { return int64(time.Since(epoch)) }

func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }
