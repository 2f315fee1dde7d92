package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RateConverter changes the sample rate of a whole mono 16-bit payload.
type RateConverter interface {
	Convert(ctx context.Context, samples []int16, fromRate, toRate int) ([]int16, error)
}

// Resample converts the mono 16-bit WAV file at inPath to rate Hz with conv
// and writes the result to outPath as a new WAV file. It returns the
// description of the written payload. A file already at rate is copied
// sample for sample.
func Resample(ctx context.Context, conv RateConverter, inPath, outPath string, rate int) (Info, error) {
	if rate <= 0 {
		return Info{}, fmt.Errorf("invalid sample rate %d", rate)
	}

	in, inRate, err := decodeWAV(inPath)
	if err != nil {
		return Info{}, err
	}

	out := in
	if inRate != rate {
		out, err = conv.Convert(ctx, in, inRate, rate)
		if err != nil {
			return Info{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	w, err := Create(outPath)
	if err != nil {
		return Info{}, err
	}

	data := make([]int, len(out))
	for i, v := range out {
		data[i] = int(v)
	}
	enc := wav.NewEncoder(w.tmp, rate, 16, 1, wavePCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		w.Abort()
		return Info{}, NewError(KindShortWrite, outPath, err)
	}
	if err := enc.Close(); err != nil {
		w.Abort()
		return Info{}, NewError(KindShortWrite, outPath, err)
	}
	if err := w.Commit(); err != nil {
		return Info{}, err
	}

	return Info{
		Format:     FormatWAV,
		SampleRate: rate,
		BitDepth:   16,
		Channels:   1,
		Samples:    int64(len(out)),
	}, nil
}

// decodeWAV loads the whole payload of a mono 16-bit WAV file.
func decodeWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, NewError(KindInputOpen, path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, NewError(KindUnsupportedContainer, path, errors.New("invalid WAVE header"))
	}
	if d.WavAudioFormat != wavePCM || d.NumChans != 1 || d.BitDepth != 16 {
		return nil, 0, NewError(KindUnsupportedContainer, path,
			fmt.Errorf("format %d, %d channels, %d bits: only mono 16-bit PCM is supported",
				d.WavAudioFormat, d.NumChans, d.BitDepth))
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, NewError(KindShortRead, path, err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, int(d.SampleRate), nil
}
