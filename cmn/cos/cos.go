// Package cos provides common low-level types and utilities shared by the
// tensor runtime core: ids, digests, byte/string helpers.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"sync"
	"unsafe"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

const (
	// alphabet for generated ids, same shape as the teacher's shortid alphabet
	idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	// MLCG32 seeds xxhash.Checksum64S the way fs/hrw.go does for consistent digests
	MLCG32 uint32 = 2654435761
)

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func shortIDGen() *shortid.Shortid {
	sidOnce.Do(func() {
		sid = shortid.MustNew(1 /*worker*/, idABC, 1)
	})
	return sid
}

// GenID generates a short, human-typeable id used for streams, events, and
// devices.
func GenID() string { return shortIDGen().MustGenerate() }

// Digest hashes name-like strings (tensor uname, device key) into a stable
// 64-bit value.
func Digest(s string) uint64 { return xxhash.Checksum64S(UnsafeB(s), MLCG32) }

// UnsafeB converts a string to a byte slice without copying. Never mutate
// the result.
func UnsafeB(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// JoinWords concatenates path-like words with '/', skipping empties. Used to
// build the cname form "<device-key>/<tensor-uname>" in logs and errors.
func JoinWords(words ...string) string {
	out := make([]byte, 0, 32)
	for _, w := range words {
		if w == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, '/')
		}
		out = append(out, w...)
	}
	return string(out)
}
