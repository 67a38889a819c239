package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bytes encodes data little-endian into dst, growing it if needed.
func Bytes(data []float32, dst []byte) []byte {
	n := len(data) * floatSize
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, v := range data {
		binary.LittleEndian.PutUint32(dst[i*floatSize:], math.Float32bits(v))
	}
	return dst
}

// Floats decodes a little-endian float32 buffer.
func Floats(b []byte) []float32 {
	out := make([]float32, len(b)/floatSize)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*floatSize:]))
	}
	return out
}

func putFloat(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func putVec4(buf []byte, offset int, v mgl32.Vec4) {
	for i, f := range v {
		putFloat(buf, offset+i*floatSize, f)
	}
}

func putMat4(buf []byte, offset int, m mgl32.Mat4) {
	for i, f := range m {
		putFloat(buf, offset+i*floatSize, f)
	}
}
