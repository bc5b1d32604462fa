// Command tnsrbench is a smoke-test CLI exercising the core's S1-S6
// scenarios against the host CPU device, the same role the teacher's
// bench/ CLIs play against a running cluster -- here there's no cluster
// to dial, so it drives the in-process core directly.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/ais-ml/tensorcore/cmn/nlog"
	"github.com/ais-ml/tensorcore/device"
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/shape"
	"github.com/ais-ml/tensorcore/storage"
	"github.com/ais-ml/tensorcore/view"
	"github.com/ais-ml/tensorcore/xstream"
)

func main() {
	scenario := flag.String("scenario", "all", "scenario to run: copy-on-write|migration|repeat|padding|fifo|column-major|all")
	flag.Parse()

	plat := device.Pinit(nil, nil)
	defer plat.Term()
	cpu := plat.CPU()

	scenarios := map[string]func(*device.Device) error{
		"copy-on-write": scenarioCopyOnWrite,
		"migration":     scenarioMigration,
		"repeat":        scenarioRepeat,
		"padding":       scenarioPadding,
		"fifo":          scenarioFifo,
		"column-major":  scenarioColumnMajor,
	}

	run := func(name string) {
		fn, ok := scenarios[name]
		if !ok {
			nlog.Warningf("unknown scenario %q", name)
			return
		}
		if err := fn(cpu); err != nil {
			nlog.Errorf("%s: FAIL: %v", name, err)
			os.Exit(1)
		}
		fmt.Printf("%s: OK\n", name)
	}

	if *scenario == "all" {
		for name := range scenarios {
			run(name)
		}
		return
	}
	run(*scenario)
}

func scenarioCopyOnWrite(cpu *device.Device) error {
	stream := cpu.NewStream()
	v, err := view.FromCollection(view.F32, shape.Vector(4), []float64{1, 2, 3, 4})
	if err != nil {
		return err
	}
	defer v.Close()

	ref, err := v.Reference(stream)
	if err != nil {
		return err
	}
	defer ref.Close()

	mv, err := ref.MutableValues(stream)
	if err != nil {
		return err
	}
	mv.Set(0, 99)
	return stream.BlockUntilIdle()
}

// scenarioMigration exercises S2: a unified master migrates with a copy
// into a discrete replica, and the discrete replica's Copied flag reports it.
func scenarioMigration(cpu *device.Device) error {
	stream := cpu.NewStream()
	st := storage.New("f32", 4, 4)
	if _, err := st.ReadWrite(stream); err != nil {
		return err
	}

	gpuStream := xstream.NewWithAddressing(memsys.Key{ServiceID: "gpu", DeviceID: "0"}, memsys.Discrete)
	rv, err := st.ReadOnly(gpuStream)
	if err != nil {
		return err
	}
	if !rv.Copied {
		return fmt.Errorf("expected unified->discrete migration to copy")
	}
	return nil
}

// scenarioFifo exercises S5: closures enqueued on one stream execute in
// strict submission order.
func scenarioFifo(cpu *device.Device) error {
	stream := cpu.NewStream()
	var mu sync.Mutex
	seen := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		if err := stream.Enqueue(func() error {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
			return nil
		}); err != nil {
			return err
		}
	}
	if err := stream.BlockUntilIdle(); err != nil {
		return err
	}
	for i, v := range seen {
		if v != i {
			return fmt.Errorf("fifo order violated: seen[%d] = %d", i, v)
		}
	}
	return nil
}

func scenarioRepeat(cpu *device.Device) error {
	stream := cpu.NewStream()
	v, err := view.FromCollection(view.F32, shape.Vector(3), []float64{1, 2, 3})
	if err != nil {
		return err
	}
	defer v.Close()

	r, err := v.Repeating([]int64{9}, []int64{0})
	if err != nil {
		return err
	}
	defer r.Close()

	seq, err := r.Values(stream)
	if err != nil {
		return err
	}
	for i := int64(0); i < seq.Len(); i++ {
		_ = seq.Get(i)
	}
	return nil
}

func scenarioPadding(cpu *device.Device) error {
	stream := cpu.NewStream()
	v, err := view.FromCollection(view.F32, shape.Matrix(2, 2), []float64{1, 2, 3, 4})
	if err != nil {
		return err
	}
	defer v.Close()

	padded, err := v.Padded([]shape.Pad{{Before: 1, After: 1}}, -1)
	if err != nil {
		return err
	}
	defer padded.Close()

	seq, err := padded.Values(stream)
	if err != nil {
		return err
	}
	if seq.Get(0) != -1 {
		return fmt.Errorf("expected pad value at corner, got %v", seq.Get(0))
	}
	return nil
}

// scenarioColumnMajor exercises S6: NewColumnMajor's stride convention, and
// NewFromHostColumnMajor importing an externally column-major-laid-out
// buffer and reading it back in logical row-major order.
func scenarioColumnMajor(cpu *device.Device) error {
	s := shape.NewColumnMajor(2, 3)
	if s.Strides[0] != 1 || s.Strides[1] != 2 {
		return fmt.Errorf("unexpected column-major strides %v", s.Strides)
	}

	stream := cpu.NewStream()
	// physical layout of logical [[1,2],[3,4]] in column-major order
	buf := make([]byte, 4*4)
	physical := []float32{1, 3, 2, 4}
	for i, f := range physical {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	v, err := view.NewFromHostColumnMajor(view.F32, []int64{2, 2}, buf, true)
	if err != nil {
		return err
	}
	defer v.Close()

	seq, err := v.Values(stream)
	if err != nil {
		return err
	}
	want := []float64{1, 2, 3, 4}
	for i, w := range want {
		if got := seq.Get(int64(i)); got != w {
			return fmt.Errorf("column-major readback[%d] = %v, want %v", i, got, w)
		}
	}
	return nil
}
