package pcm

import (
	"math"
	"testing"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   int16
		bits int
		want float32
	}{
		{"zero", 0, 16, 0},
		{"positive_half", 16384, 16, 0.5},
		{"negative_full", -32768, 16, -1},
		{"max_positive", 32767, 16, 32767.0 / 32768.0},
		{"twelve_bit", 1024, 12, 0.5},
		{"eight_bit", -128, 8, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(make([]float32, 1), []int16{tt.in}, tt.bits)
			if got[0] != tt.want {
				t.Errorf("ToFloat(%d, %d) = %v, want %v", tt.in, tt.bits, got[0], tt.want)
			}
		})
	}
}

func TestToFixedTruncatesAndClips(t *testing.T) {
	tests := []struct {
		name        string
		in          float32
		bits        int
		want        int16
		wantClipped int
	}{
		{"truncate_positive", 0.99999 / 32768 * 3, 16, 2, 0},
		{"truncate_negative", -2.7 / 32768, 16, -2, 0},
		{"full_positive_clips", 1.0, 16, 32767, 1},
		{"over_range_clips", 1.5, 16, 32767, 1},
		{"full_negative_fits", -1.0, 16, -32768, 0},
		{"under_range_clips", -1.25, 16, -32768, 1},
		{"twelve_bit_clip", 1.0, 12, 2047, 1},
		{"twelve_bit_negative", -1.0, 12, -2048, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clipped := ToFixed(make([]int16, 1), []float32{tt.in}, tt.bits)
			if got[0] != tt.want {
				t.Errorf("ToFixed(%v, %d) = %d, want %d", tt.in, tt.bits, got[0], tt.want)
			}
			if clipped != tt.wantClipped {
				t.Errorf("clipped = %d, want %d", clipped, tt.wantClipped)
			}
		})
	}
}

func TestClips(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		bits int
		want bool
	}{
		{"zero", 0, 16, false},
		{"largest_positive", 32767.0 / 32768, 16, false},
		{"truncates_below_limit", 32767.9 / 32768, 16, false},
		{"positive_full_scale", 1, 16, true},
		{"negative_full_scale", -1, 16, false},
		{"negative_truncates_to_limit", -32768.9 / 32768, 16, false},
		{"negative_beyond_limit", -32769.0 / 32768, 16, true},
		{"twelve_bit_positive", 1, 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clips(tt.x, tt.bits); got != tt.want {
				t.Errorf("Clips(%v, %d) = %v, want %v", tt.x, tt.bits, got, tt.want)
			}
			_, clipped := ToFixed(make([]int16, 1), []float32{float32(tt.x)}, tt.bits)
			if (clipped > 0) != tt.want {
				t.Errorf("ToFixed clipped %d, Clips says %v", clipped, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, bits := range []int{8, 12, 16} {
		lo := -int(FullScale(bits))
		hi := int(FullScale(bits)) - 1

		src := make([]int16, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			src = append(src, int16(v))
		}

		floats := ToFloat(make([]float32, len(src)), src, bits)
		got, clipped := ToFixed(make([]int16, len(src)), floats, bits)
		if clipped != 0 {
			t.Errorf("bits=%d: clipped %d samples on unity round trip", bits, clipped)
		}
		for i := range src {
			if got[i] != src[i] {
				t.Fatalf("bits=%d: sample %d round-tripped to %d", bits, src[i], got[i])
			}
		}
	}
}

func TestScale(t *testing.T) {
	block := []float32{0.5, -0.25, 0, 0.125}
	Scale(block, 2)

	want := []float32{1, -0.5, 0, 0.25}
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("block[%d] = %v, want %v", i, block[i], want[i])
		}
	}

	unity := []float32{0.3}
	Scale(unity, 1)
	if unity[0] != 0.3 {
		t.Errorf("unity gain changed sample to %v", unity[0])
	}
}

func TestFullScale(t *testing.T) {
	if got := FullScale(16); got != 32768 {
		t.Errorf("FullScale(16) = %v, want 32768", got)
	}
	if got := FullScale(1); got != 1 {
		t.Errorf("FullScale(1) = %v, want 1", got)
	}
	if math.IsInf(FullScale(MaxBitDepth), 0) {
		t.Error("FullScale overflowed")
	}
}
