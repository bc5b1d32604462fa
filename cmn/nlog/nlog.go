// Package nlog is the runtime's logger: severity-tagged, timestamped,
// mutex-guarded writes, errors to stderr and everything else to stdout. No
// severity is filtered out.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ais-ml/tensorcore/cmn/mono"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevTag = [...]string{"I", "W", "E"}

type logger struct {
	mu      sync.Mutex
	w       *os.File
	started int64
}

var (
	out  = logger{w: os.Stdout, started: mono.NanoTime()}
	eout = logger{w: os.Stderr, started: mono.NanoTime()}
)

func dst(sev severity) *logger {
	if sev == sevErr {
		return &eout
	}
	return &out
}

func log(sev severity, format string, args ...any) {
	l := dst(sev)
	msg := format
	if format == "" {
		msg = fmt.Sprintln(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	fmt.Fprintf(l.w, "%s %s %s\n", sevTag[sev], time.Now().Format("15:04:05.000000"), msg)
	l.mu.Unlock()
}

func Infoln(args ...any)                  { log(sevInfo, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Warningln(args ...any)               { log(sevWarn, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Errorln(args ...any)                 { log(sevErr, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }

// Flush is a no-op placeholder kept for parity with the teacher's
// buffered/rotating logger API; this core logs unbuffered.
func Flush(...bool) {}
