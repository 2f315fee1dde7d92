// Package pcm converts between fixed-point PCM samples and the normalised
// floating-point range used by the level meter.
package pcm

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// MaxBitDepth is the widest resolution carried in a 16-bit container.
const MaxBitDepth = 16

// FullScale returns 2^(bits-1), the magnitude that maps to 1.0.
func FullScale(bits int) float64 {
	return math.Ldexp(1, bits-1)
}

// ToFloat converts src into dst as src[i] / 2^(bits-1).
// dst must be at least len(src) long; the converted slice is returned.
func ToFloat(dst []float32, src []int16, bits int) []float32 {
	dst = dst[:len(src)]
	scale := 1.0 / FullScale(bits)
	for i, s := range src {
		dst[i] = float32(float64(s) * scale)
	}
	return dst
}

// ToFixed converts normalised samples back to fixed point. Each value is
// multiplied by 2^(bits-1), truncated toward zero and hard-clipped to
// [-2^(bits-1), 2^(bits-1)-1]. It returns the converted slice and the
// number of samples that had to be clipped.
func ToFixed(dst []int16, src []float32, bits int) ([]int16, int) {
	dst = dst[:len(src)]
	scale := FullScale(bits)
	hi := scale - 1
	lo := -scale

	clipped := 0
	for i, x := range src {
		v := math.Trunc(float64(x) * scale)
		switch {
		case v > hi:
			v = hi
			clipped++
		case v < lo:
			v = lo
			clipped++
		}
		dst[i] = int16(v)
	}
	return dst, clipped
}

// Clips reports whether ToFixed would clip the normalised value x.
func Clips(x float64, bits int) bool {
	scale := FullScale(bits)
	v := math.Trunc(x * scale)
	return v > scale-1 || v < -scale
}

// Scale multiplies a block of normalised samples by gain in place.
func Scale(block []float32, gain float64) {
	if gain == 1 || len(block) == 0 {
		return
	}
	vek32.MulNumber_Inplace(block, float32(gain))
}
