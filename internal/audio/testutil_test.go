package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// wavSpec overrides fields of the canonical mono 16-bit PCM header.
type wavSpec struct {
	SampleRate int
	Channels   int
	Bits       int
	FormatTag  int
	DataBytes  int    // declared data chunk size, 0 = actual size
	Trailer    []byte // bytes appended after the data chunk
}

// writeTestWAV writes samples into dir/name with a RIFF/WAVE header and
// returns the path.
func writeTestWAV(t *testing.T, dir, name string, samples []int16, spec wavSpec) string {
	t.Helper()

	if spec.SampleRate == 0 {
		spec.SampleRate = 16000
	}
	if spec.Channels == 0 {
		spec.Channels = 1
	}
	if spec.Bits == 0 {
		spec.Bits = 16
	}
	if spec.FormatTag == 0 {
		spec.FormatTag = 1
	}

	dataSize := len(samples) * 2
	declared := dataSize
	if spec.DataBytes != 0 {
		declared = spec.DataBytes
	}
	blockAlign := spec.Channels * spec.Bits / 8

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataSize+len(spec.Trailer)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(spec.FormatTag))
	binary.Write(&b, binary.LittleEndian, uint16(spec.Channels))
	binary.Write(&b, binary.LittleEndian, uint32(spec.SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(spec.SampleRate*blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(spec.Bits))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(declared))
	binary.Write(&b, binary.LittleEndian, samples)
	b.Write(spec.Trailer)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// writeTestRaw writes headerless little-endian samples.
func writeTestRaw(t *testing.T, dir, name string, samples []int16) string {
	t.Helper()
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, samples)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ramp returns n samples counting up from start.
func ramp(n int, start int16) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = start + int16(i)
	}
	return s
}

// tone returns a sine of the given amplitude (0..1) as 16-bit samples.
func tone(n, rate int, freq, amplitude float64) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return s
}
