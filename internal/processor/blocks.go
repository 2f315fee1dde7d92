package processor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/linuxmatters/actlevel/internal/audio"
)

// Blocks splits total samples into full blocks of size and a remainder.
func Blocks(total int64, size int) (full int64, remainder int) {
	return total / int64(size), int(total % int64(size))
}

// BlockCount returns the number of blocks, including a final partial one,
// needed to cover total samples.
func BlockCount(total int64, size int) int64 {
	full, rem := Blocks(total, size)
	if rem > 0 {
		full++
	}
	return full
}

// window is a contiguous run of blocks, zero-based.
type window struct {
	first int64
	count int64
}

func (w window) contains(i int64) bool {
	return i >= w.first && i < w.first+w.count
}

// samples returns how many samples of a payload of total samples fall
// inside the window.
func (w window) samples(total int64, size int) int64 {
	start := w.first * int64(size)
	end := min((w.first+w.count)*int64(size), total)
	if end <= start {
		return 0
	}
	return end - start
}

// window resolves StartBlock/BlockCount against a payload of total samples.
func (c *Config) window(total int64) (window, error) {
	n := BlockCount(total, c.BlockSize)
	first := c.StartBlock - 1
	if n == 0 {
		return window{}, nil
	}
	if first >= n {
		return window{}, fmt.Errorf("start block %d beyond the %d blocks in the file", c.StartBlock, n)
	}
	count := n - first
	if c.BlockCount > 0 && c.BlockCount < count {
		count = c.BlockCount
	}
	return window{first: first, count: count}, nil
}

// forEachBlock reads the blocks of w in order and hands each one to fn. The
// final block of the payload is shorter than size when the sample count is
// not a multiple of it. The context is checked before every block.
func forEachBlock(ctx context.Context, r *audio.Reader, size int, w window, fn func(i int64, block []int16) error) error {
	if w.count == 0 {
		return nil
	}

	total := r.Info().Samples
	full, rem := Blocks(total, size)

	if err := r.SeekSample(w.first * int64(size)); err != nil {
		return err
	}

	buf := make([]int16, size)
	for i := w.first; i < w.first+w.count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		length := size
		if i == full {
			length = rem
		}

		n, err := r.ReadBlock(buf[:length])
		if errors.Is(err, io.EOF) || (err == nil && n != length) {
			return audio.NewError(audio.KindShortRead, r.Path(), fmt.Errorf("block %d: got %d of %d samples", i+1, n, length))
		}
		if err != nil {
			return err
		}

		if err := fn(i, buf[:length]); err != nil {
			return err
		}
	}
	return nil
}
