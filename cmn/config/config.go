// Package config holds process-wide, read-mostly runtime defaults, read by
// streams at creation and by views for the default pad value, the way the
// teacher threads
// `cmn.GCO.Get()` through `transport` and `core` (see core/linit.go,
// transport/api.go's `extra.Config`).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import "time"

type Config struct {
	// StreamTimeout bounds every blocking Event.Wait/Stream.BlockUntilIdle
	// call unless overridden per-call; zero means wait forever.
	StreamTimeout time.Duration
	// StreamBurst is the depth of a device stream's closure FIFO before
	// Enqueue blocks the submitter.
	StreamBurst int
	// IdleTeardown tears the stream worker down after this much inactivity;
	// zero disables idle teardown.
	IdleTeardown time.Duration
	// PadValue is the default pad_value used when a padded view does not
	// specify one explicitly.
	PadValue float64
}

func defaultConfig() *Config {
	return &Config{
		StreamTimeout: 30 * time.Second,
		StreamBurst:   256,
		IdleTeardown:  0,
		PadValue:      0,
	}
}

// owner mirrors the teacher's "global config owner" (`cmn.GCO`): a single
// swappable pointer, read via Get(), written via Put() at init/teardown
// boundaries only.
type owner struct {
	cur *Config
}

var GCO = &owner{cur: defaultConfig()}

func (o *owner) Get() *Config { return o.cur }
func (o *owner) Put(c *Config) {
	if c == nil {
		c = defaultConfig()
	}
	o.cur = c
}
