// codec.go: the narrow byte<->float64 codec view's typed value
// sequences use to read/write one element at a time, for the closed set of
// scalar kinds §6 names. Composite types (RGB/RGBA/Stereo) never reach this
// file: shape.Reinterpret turns a composite-typed shape into a
// scalar-component shape first, so only scalar codecs are ever needed here.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package view

import (
	"encoding/binary"
	"math"

	"github.com/ais-ml/tensorcore/cmn/cos"
)

// ElementKind names one of the closed set of numeric scalar kinds from §6.
type ElementKind string

const (
	U8   ElementKind = "u8"
	U16  ElementKind = "u16"
	I16  ElementKind = "i16"
	I32  ElementKind = "i32"
	I64  ElementKind = "i64"
	U64  ElementKind = "u64"
	F16  ElementKind = "f16"
	F32  ElementKind = "f32"
	F64  ElementKind = "f64"
	Bool ElementKind = "bool"
)

// ElementSize returns the canonical fixed size, in bytes, for kind.
func ElementSize(kind ElementKind) (int64, error) {
	switch kind {
	case U8, Bool:
		return 1, nil
	case U16, I16, F16:
		return 2, nil
	case I32, F32:
		return 4, nil
	case I64, U64, F64:
		return 8, nil
	default:
		return 0, cos.NewErrShapeMismatch("unknown element kind %q", kind)
	}
}

func readElement(kind ElementKind, b []byte) float64 {
	switch kind {
	case U8:
		return float64(b[0])
	case Bool:
		if b[0] != 0 {
			return 1
		}
		return 0
	case U16:
		return float64(binary.LittleEndian.Uint16(b))
	case I16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case F16:
		return float64(f16ToFloat32(binary.LittleEndian.Uint16(b)))
	case I32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case F32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case I64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case U64:
		return float64(binary.LittleEndian.Uint64(b))
	case F64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

func writeElement(kind ElementKind, b []byte, v float64) {
	switch kind {
	case U8:
		b[0] = byte(uint8(v))
	case Bool:
		if v != 0 {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case U16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case I16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case F16:
		binary.LittleEndian.PutUint16(b, float32ToF16(float32(v)))
	case I32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case F32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case I64:
		binary.LittleEndian.PutUint64(b, uint64(int64(v)))
	case U64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	case F64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// f16ToFloat32/float32ToF16 implement IEEE 754 binary16 <-> binary32,
// handling normals, zero, infinity and NaN both ways and subnormals on
// widening. Narrowing truncates the mantissa (no ties-to-even rounding) and
// flushes values below the smallest binary16 normal to signed zero, adequate for a
// runtime core where f16 storage round-trips through f32 compute.
func f16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	mant := uint32(h & 0x03ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &^= 0x0400
	case 0x1f:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7f800000 | (mant << 13))
	}
	exp32 := exp - 15 + 127
	bits := sign | (exp32 << 23) | (mant << 13)
	return math.Float32frombits(bits)
}

func float32ToF16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		if (bits&0x7fffffff) > 0x7f800000 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // overflow -> inf
	default:
		return sign | uint16(exp<<10) | uint16(mant>>13)
	}
}
