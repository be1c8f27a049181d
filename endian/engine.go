// Package endian provides the byte order used by ftc bitstreams.
//
// The sequence header records the byte order in its flag word; every
// multi-byte field that follows (header fields, float32 scale/bias values,
// payload checksums) is written with the same engine:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, header.QP)
//	buf = endian.AppendFloat32(engine, buf, scale)
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine (the bitstream default).
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsBigEndian reports whether engine is the big-endian engine.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}

// AppendFloat32 appends the IEEE 754 bits of v using engine.
func AppendFloat32(engine EndianEngine, buf []byte, v float32) []byte {
	return engine.AppendUint32(buf, math.Float32bits(v))
}

// Float32 decodes an IEEE 754 float32 from the first four bytes of b.
func Float32(engine EndianEngine, b []byte) float32 {
	return math.Float32frombits(engine.Uint32(b))
}
