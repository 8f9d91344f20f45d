package db

import (
	"encoding/binary"
	"math"
)

// EncodeVector serializes a []float32 into the binary blob format expected
// by FT vector fields (little-endian FLOAT32).
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector deserializes a binary blob back to []float32.
// Returns nil if the blob length is not a multiple of 4.
func DecodeVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
