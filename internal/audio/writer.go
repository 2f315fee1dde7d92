package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
)

// Writer produces an output file atomically. Everything is written to a
// temporary file in the destination directory; Commit renames it into
// place and Abort removes it, so a failed job never leaves a partial file
// under the requested name.
type Writer struct {
	path string
	tmp  *os.File
	bw   *bufio.Writer
	buf  []byte
	done bool
}

// Create starts a new output file that will appear at path on Commit.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, NewError(KindOutputCreate, path, err)
	}
	return &Writer{
		path: path,
		tmp:  tmp,
		bw:   bufio.NewWriterSize(tmp, 64*1024),
	}, nil
}

// Path returns the final output path.
func (w *Writer) Path() string {
	return w.path
}

// Write implements io.Writer. Failures are reported as KindShortWrite.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.bw.Write(p)
	if err != nil {
		return n, NewError(KindShortWrite, w.path, err)
	}
	return n, nil
}

// WriteSamples appends samples as 16-bit little-endian PCM.
func (w *Writer) WriteSamples(samples []int16) error {
	need := 2 * len(samples)
	if cap(w.buf) < need {
		w.buf = make([]byte, need)
	}
	buf := w.buf[:need]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}

// Commit flushes the data and moves the file to its final path.
func (w *Writer) Commit() error {
	if w.done {
		return errors.New("output already finished")
	}
	if err := w.bw.Flush(); err != nil {
		w.Abort()
		return NewError(KindShortWrite, w.path, err)
	}
	if err := w.tmp.Close(); err != nil {
		w.done = true
		os.Remove(w.tmp.Name())
		return NewError(KindShortWrite, w.path, err)
	}
	w.done = true
	if err := os.Chmod(w.tmp.Name(), 0o644); err != nil {
		os.Remove(w.tmp.Name())
		return NewError(KindOutputCreate, w.path, err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		os.Remove(w.tmp.Name())
		return NewError(KindOutputCreate, w.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}
