// Package device implements the process-wide platform/service/device
// enumeration: §4.E. Grounded on the teacher's sys/cpu.go (host capability
// probing, process-wide init) and volume/vinit.go (enumerate-then-own
// pattern for devices discovered at startup), with Design Notes' "global
// singletons ... pass a handle in explicitly" honored via Pinit/Term rather
// than package-level init().
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package device

import (
	"strconv"
	"sync"

	"github.com/ais-ml/tensorcore/cmn/cos"
	"github.com/ais-ml/tensorcore/cmn/nlog"
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/xstream"
	"golang.org/x/sync/errgroup"
)

const CPUServiceID = "cpu"

// Device can create device buffers and device streams, and knows its own
// addressing domain.
type Device struct {
	Key        memsys.Key
	Addressing memsys.Addressing
}

func (d *Device) NewBuffer(nbytes int64) *memsys.DeviceBuffer {
	return memsys.NewDeviceBuffer(d.Key, nbytes, d.Addressing)
}

func (d *Device) NewStream() *xstream.Stream { return xstream.NewWithAddressing(d.Key, d.Addressing) }

func (d *Device) String() string { return d.Key.String() }

// Service owns zero or more devices (e.g. "cpu" owns exactly one; a GPU
// service may own several).
type Service struct {
	ID      string
	Devices []*Device
}

func (s *Service) Device(id string) (*Device, bool) {
	for _, d := range s.Devices {
		if d.Key.DeviceID == id {
			return d, true
		}
	}
	return nil, false
}

// ServiceProbe discovers a non-CPU service (an accelerator backend); a
// failing probe is logged and skipped -- only the CPU service is
// guaranteed to exist.
type ServiceProbe func() (*Service, error)

// Platform is the process-wide service/device enumeration singleton,
// explicitly constructed at Pinit and torn down at Term -- no package-level
// init(), per spec Design Notes on global singletons.
type Platform struct {
	mu               sync.RWMutex
	services         map[string]*Service
	servicePriority  []string
	deviceIDPriority []string
}

func cpuService() *Service {
	return &Service{
		ID: CPUServiceID,
		Devices: []*Device{{
			Key:        memsys.HostKey,
			Addressing: memsys.Unified,
		}},
	}
}

// Pinit builds the platform: the host CPU service first (always present),
// then every ServiceProbe concurrently, mirroring ext/dsort/dsort.go's
// errgroup.WithContext fan-out. servicePriority/deviceIDPriority drive
// Default(); an empty servicePriority defaults to ["cpu"].
func Pinit(servicePriority, deviceIDPriority []string, probes ...ServiceProbe) *Platform {
	p := &Platform{
		services:         map[string]*Service{CPUServiceID: cpuService()},
		servicePriority:  servicePriority,
		deviceIDPriority: deviceIDPriority,
	}
	if len(p.servicePriority) == 0 {
		p.servicePriority = []string{CPUServiceID}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		svcs []*Service
	)
	for _, probe := range probes {
		probe := probe
		g.Go(func() error {
			svc, err := probe()
			if err != nil {
				nlog.Warningf("device: service probe failed, skipping: %v", err)
				return nil
			}
			mu.Lock()
			svcs = append(svcs, svc)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probes never fail the platform; only CPU is guaranteed

	p.mu.Lock()
	for _, svc := range svcs {
		p.services[svc.ID] = svc
	}
	p.mu.Unlock()
	return p
}

func (p *Platform) Term() {
	p.mu.Lock()
	p.services = nil
	p.mu.Unlock()
}

func (p *Platform) Service(id string) (*Service, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	svc, ok := p.services[id]
	return svc, ok
}

func (p *Platform) CPU() *Device {
	svc, _ := p.Service(CPUServiceID)
	return svc.Devices[0]
}

// Default walks servicePriority in order; for each present service,
// returns the device at deviceIDPriority[0] if it exists, else the device
// at index deviceIDPriority[0] mod device_count; falls back to the host
// CPU device, which is guaranteed to exist.
func (p *Platform) Default() (*Device, error) {
	for _, sid := range p.servicePriority {
		svc, ok := p.Service(sid)
		if !ok || len(svc.Devices) == 0 {
			continue
		}
		if len(p.deviceIDPriority) > 0 {
			if d, ok := svc.Device(p.deviceIDPriority[0]); ok {
				return d, nil
			}
			idx, err := indexMod(p.deviceIDPriority[0], len(svc.Devices))
			if err == nil {
				return svc.Devices[idx], nil
			}
		}
		return svc.Devices[0], nil
	}
	return p.CPU(), nil
}

func indexMod(idPriority string, n int) (int, error) {
	id, err := strconv.Atoi(idPriority)
	if err != nil {
		return 0, err
	}
	return ((id % n) + n) % n, nil
}

// RemoteSpec names a remote platform endpoint by URL; remote-open is
// specified but not implemented in the core (§4.E).
type RemoteSpec struct {
	URL string
}

// OpenRemote always fails: remote platforms are an external-interface stub.
func OpenRemote(spec RemoteSpec) (*Platform, error) {
	return nil, cos.NewErrDeviceUnavailable(spec.URL)
}
