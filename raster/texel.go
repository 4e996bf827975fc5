package raster

import "math"

// FixedRange bounds the field magnitude a texel can hold. Values outside
// ±FixedRange saturate.
const FixedRange = 32.0

const fixedSteps = 1<<24 - 1

// packTexel stores v as 24-bit fixed point in the RGB bytes of dst[0:4].
// The shader's encode function performs the same mapping on the device.
func packTexel(dst []byte, v float32) {
	t := (float64(v) + FixedRange) / (2 * FixedRange)
	if math.IsNaN(t) || t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	q := uint32(math.Floor(t*fixedSteps + 0.5))
	dst[0] = byte(q >> 16)
	dst[1] = byte(q >> 8)
	dst[2] = byte(q)
	dst[3] = 0xff
}

// unpackTexel inverts packTexel.
func unpackTexel(src []byte) float32 {
	q := uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
	return float32(float64(q)/fixedSteps*2*FixedRange - FixedRange)
}

// packChannel encodes a whole channel into RGBA pixels.
func packChannel(pix []byte, values []float32) {
	for i, v := range values {
		packTexel(pix[i*4:i*4+4], v)
	}
}

// unpackChannel decodes RGBA pixels into values.
func unpackChannel(values []float32, pix []byte) {
	for i := range values {
		values[i] = unpackTexel(pix[i*4 : i*4+4])
	}
}
