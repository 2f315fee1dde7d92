// Package audio reads and writes mono 16-bit PCM files, either headerless
// (.pcm/.raw) or wrapped in a RIFF/WAVE container.
package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// Format identifies the container holding the PCM payload.
type Format int

const (
	FormatRaw Format = iota
	FormatWAV
)

func (f Format) String() string {
	if f == FormatWAV {
		return "wav"
	}
	return "raw"
}

// wavePCM is the WAVE_FORMAT_PCM format tag.
const wavePCM = 1

// Info describes the PCM payload of an opened file.
type Info struct {
	Format     Format
	SampleRate int
	BitDepth   int // significant bits per sample; the container is always 16-bit
	Channels   int
	Samples    int64
	DataOffset int64 // byte offset of the first sample
	FileSize   int64
}

// PayloadEnd is the byte offset just past the last sample.
func (i Info) PayloadEnd() int64 {
	return i.DataOffset + 2*i.Samples
}

// Duration returns the payload length in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return float64(i.Samples) / float64(i.SampleRate)
}

// Options supplies the parameters a headerless file cannot carry. BitDepth
// also sets the resolution used for WAV input.
type Options struct {
	SampleRate int
	BitDepth   int
}

// Reader reads the PCM payload of a file block by block.
type Reader struct {
	path string
	f    *os.File
	br   *bufio.Reader
	info Info
	pos  int64 // next sample index
	buf  []byte
}

// Open opens path and locates its PCM payload. Files with a .wav extension,
// or starting with a RIFF/WAVE signature, are parsed as WAV; anything else
// is treated as headerless 16-bit little-endian samples.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewError(KindInputOpen, path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, NewError(KindInputOpen, path, err)
	}

	r := &Reader{path: path, f: f}
	r.info.FileSize = st.Size()
	r.info.BitDepth = opts.BitDepth
	if r.info.BitDepth == 0 {
		r.info.BitDepth = 16
	}

	isWAV, err := sniffRIFF(f)
	if err != nil {
		f.Close()
		return nil, NewError(KindShortRead, path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") && !isWAV {
		f.Close()
		return nil, NewError(KindUnsupportedContainer, path, errors.New("missing RIFF/WAVE signature"))
	}

	if isWAV {
		err = r.parseWAV()
	} else {
		r.info.Format = FormatRaw
		r.info.SampleRate = opts.SampleRate
		r.info.Channels = 1
		r.info.Samples = r.info.FileSize / 2
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := r.SeekSample(0); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func sniffRIFF(f *os.File) (bool, error) {
	var hdr [12]byte
	n, err := f.ReadAt(hdr[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if n < len(hdr) {
		return false, nil
	}
	return bytes.Equal(hdr[0:4], []byte("RIFF")) && bytes.Equal(hdr[8:12], []byte("WAVE")), nil
}

func (r *Reader) parseWAV() error {
	if _, err := r.f.Seek(0, io.SeekStart); err != nil {
		return NewError(KindSeek, r.path, err)
	}

	d := wav.NewDecoder(r.f)
	if !d.IsValidFile() {
		return NewError(KindUnsupportedContainer, r.path, errors.New("invalid WAVE header"))
	}
	if d.WavAudioFormat != wavePCM {
		return NewError(KindUnsupportedContainer, r.path, fmt.Errorf("format tag %d is not PCM", d.WavAudioFormat))
	}
	if d.NumChans != 1 {
		return NewError(KindUnsupportedContainer, r.path, fmt.Errorf("%d channels, only mono is supported", d.NumChans))
	}
	if d.BitDepth != 16 {
		return NewError(KindUnsupportedContainer, r.path, fmt.Errorf("%d-bit samples, only 16-bit is supported", d.BitDepth))
	}
	if err := d.FwdToPCM(); err != nil {
		return NewError(KindUnsupportedContainer, r.path, err)
	}

	// The decoder leaves the file positioned at the first PCM byte.
	offset, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return NewError(KindSeek, r.path, err)
	}

	r.info.Format = FormatWAV
	r.info.SampleRate = int(d.SampleRate)
	r.info.Channels = int(d.NumChans)
	r.info.DataOffset = offset
	r.info.Samples = int64(d.PCMSize) / 2
	return nil
}

// Info returns the payload description.
func (r *Reader) Info() Info {
	return r.info
}

// Path returns the file name the reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// SeekSample positions the reader at sample index i of the payload.
func (r *Reader) SeekSample(i int64) error {
	if i < 0 || i > r.info.Samples {
		return NewError(KindSeek, r.path, fmt.Errorf("sample %d outside payload of %d samples", i, r.info.Samples))
	}
	if _, err := r.f.Seek(r.info.DataOffset+2*i, io.SeekStart); err != nil {
		return NewError(KindSeek, r.path, err)
	}
	if r.br == nil {
		r.br = bufio.NewReaderSize(r.f, 64*1024)
	} else {
		r.br.Reset(r.f)
	}
	r.pos = i
	return nil
}

// Rewind returns to the first sample of the payload.
func (r *Reader) Rewind() error {
	return r.SeekSample(0)
}

// ReadBlock fills dst with the next samples of the payload. It returns fewer
// than len(dst) samples only when the payload ends, and io.EOF once nothing
// is left. A file that ends before its declared payload yields an error of
// KindShortRead.
func (r *Reader) ReadBlock(dst []int16) (int, error) {
	remaining := r.info.Samples - r.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := len(dst)
	if int64(n) > remaining {
		n = int(remaining)
	}

	need := 2 * n
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:need]
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return 0, NewError(KindShortRead, r.path, fmt.Errorf("sample %d: %w", r.pos, err))
	}

	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	r.pos += int64(n)
	return n, nil
}

// CopyHeader writes the bytes preceding the payload to w unchanged.
func (r *Reader) CopyHeader(w io.Writer) error {
	return r.copyRange(w, 0, r.info.DataOffset)
}

// CopyTrailer writes the bytes following the payload to w unchanged.
func (r *Reader) CopyTrailer(w io.Writer) error {
	return r.copyRange(w, r.info.PayloadEnd(), r.info.FileSize-r.info.PayloadEnd())
}

func (r *Reader) copyRange(w io.Writer, off, n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.Copy(w, io.NewSectionReader(r.f, off, n))
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return err
		}
		return NewError(KindShortRead, r.path, err)
	}
	if copied != n {
		return NewError(KindShortRead, r.path, fmt.Errorf("copied %d of %d bytes at offset %d", copied, n, off))
	}
	return nil
}

// Close releases the file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}
