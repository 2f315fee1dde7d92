// Package soxr changes the sample rate of 16-bit PCM with libsoxr.
package soxr

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/zaf/resample"
)

// chunkSamples is how many input samples are fed to the resampler between
// context checks.
const chunkSamples = 4096

// Quality presets, from fastest to most accurate.
const (
	Quick    = resample.Quick
	Low      = resample.LowQ
	Medium   = resample.MediumQ
	High     = resample.HighQ
	VeryHigh = resample.VeryHighQ
)

// Converter resamples mono 16-bit samples. The zero value uses Quick; use
// New for the default High quality.
type Converter struct {
	Quality int
}

// New returns a Converter at High quality.
func New() Converter {
	return Converter{Quality: High}
}

// Convert resamples samples from fromRate to toRate Hz. The input is
// flushed through the filter, so the result covers the whole signal.
func (c Converter) Convert(ctx context.Context, samples []int16, fromRate, toRate int) ([]int16, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(int(int64(len(samples))*int64(toRate)/int64(fromRate))*2 + 64)

	r, err := resample.New(&out, float64(fromRate), float64(toRate), 1, resample.I16, c.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]byte, 2*chunkSamples)
	for off := 0; off < len(samples); off += chunkSamples {
		if err := ctx.Err(); err != nil {
			r.Close()
			return nil, err
		}
		chunk := samples[off:min(off+chunkSamples, len(samples))]
		buf := in[:2*len(chunk)]
		for i, s := range chunk {
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
		}
		if _, err := r.Write(buf); err != nil {
			r.Close()
			return nil, fmt.Errorf("resampling failed: %w", err)
		}
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush resampler: %w", err)
	}

	b := out.Bytes()
	res := make([]int16, len(b)/2)
	for i := range res {
		res[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return res, nil
}
