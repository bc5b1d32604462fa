// Package atomic provides typed wrappers over sync/atomic, the same thin
// convenience layer the teacher's `cmn/atomic` package is referenced as
// using throughout core/lom.go, transport/api.go (atomic.Int64, atomic.Bool).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package atomic

import "sync/atomic"

type Bool struct{ v atomic.Bool }

func (b *Bool) Load() bool      { return b.v.Load() }
func (b *Bool) Store(val bool)  { b.v.Store(val) }
func (b *Bool) CAS(old, new_ bool) bool { return b.v.CompareAndSwap(old, new_) }

type Int64 struct{ v atomic.Int64 }

func (i *Int64) Load() int64         { return i.v.Load() }
func (i *Int64) Store(val int64)     { i.v.Store(val) }
func (i *Int64) Add(delta int64) int64 { return i.v.Add(delta) }
func (i *Int64) CAS(old, new_ int64) bool { return i.v.CompareAndSwap(old, new_) }

type Int32 struct{ v atomic.Int32 }

func (i *Int32) Load() int32           { return i.v.Load() }
func (i *Int32) Store(val int32)       { i.v.Store(val) }
func (i *Int32) Add(delta int32) int32 { return i.v.Add(delta) }

type Uint32 struct{ v atomic.Uint32 }

func (u *Uint32) Load() uint32          { return u.v.Load() }
func (u *Uint32) Store(val uint32)      { u.v.Store(val) }
func (u *Uint32) Add(delta uint32) uint32 { return u.v.Add(delta) }

type Value struct{ v atomic.Value }

func (p *Value) Load() any      { return p.v.Load() }
func (p *Value) Store(val any) { p.v.Store(val) }
