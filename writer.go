// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

var (
	// defaultWriterPool reuses default-sized bufio writers between write passes.
	defaultWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
	// copyBufferPool reuses payload copy buffers between write passes.
	copyBufferPool = sync.Pool{
		New: func() any {
			return new([copyBufferSize]byte)
		},
	}
)

const (
	// copyBufferSize is per-pass temporary buffer used by streaming payload copy.
	copyBufferSize = 64 * 1024
)

// WritePayload seeks out to base and streams every generator payload through a buffered writer.
// It returns the number of payload bytes written.
func WritePayload[E Entry](ctx context.Context, out io.WriteSeeker, base int64, gen *FileGenerator[E]) (int64, error) {
	if out == nil {
		return 0, ErrNilWriter
	}

	if _, err := out.Seek(base, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to payload base %d: %w", base, err)
	}

	w, releaseWriter := acquireWriter(out)
	defer releaseWriter()

	written, err := gen.WriteAll(ctx, w)
	if err != nil {
		return written, err
	}

	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flush payloads: %w", err)
	}

	return written, nil
}

// WriteHeader seeks out to zero and writes reserved header region through serialize.
func WriteHeader(out io.WriteSeeker, serialize func(w io.Writer) error) error {
	if out == nil {
		return ErrNilWriter
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}

	w, releaseWriter := acquireWriter(out)
	defer releaseWriter()

	if err := serialize(w); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}

	return nil
}

// EncodeImport opens item import source and encodes it into memory with encode.
// Entry size fields are final when it returns.
func EncodeImport[E Entry](item FileItem[E], encode func(dst io.Writer, src io.Reader, e E) error) (io.ReadCloser, error) {
	if item.Import == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, item.Name)
	}

	rc, err := item.Import()
	if err != nil {
		return nil, fmt.Errorf("open import %s: %w", item.Name, err)
	}

	var buf bytes.Buffer
	encodeErr := encode(&buf, rc, item.Entry)
	closeErr := rc.Close()
	if encodeErr != nil {
		return nil, fmt.Errorf("encode %s: %w", item.Name, encodeErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close import %s: %w", item.Name, closeErr)
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// OpenStoredItem opens stored bytes of item.
func OpenStoredItem[E Entry](item FileItem[E]) (io.ReadCloser, error) {
	if item.Stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, item.Name)
	}

	rc, err := item.Stored()
	if err != nil {
		return nil, fmt.Errorf("open stored %s: %w", item.Name, err)
	}

	return rc, nil
}

// StoredItems builds write items that keep current stored bytes for every entry of dirs.
// Payload ranges are captured here, so a write pass may rewrite entry offsets freely.
func StoredItems[A any, E Entry](format Format[A, E], dirs []Directory[E], content io.ReaderAt) []FileItem[E] {
	total := 0
	for _, dir := range dirs {
		total += len(dir.Files)
	}

	items := make([]FileItem[E], 0, total)
	for _, dir := range dirs {
		for _, entry := range dir.Files {
			section := format.OpenStored(content, entry)
			items = append(items, FileItem[E]{
				Entry:     entry,
				Directory: dir.Path,
				Name:      entry.FileName(),
				Stored: func() (io.ReadCloser, error) {
					return io.NopCloser(io.NewSectionReader(section, 0, section.Size())), nil
				},
			})
		}
	}

	return items
}

// acquireWriter returns a pooled buffered writer and release callback.
func acquireWriter(out io.Writer) (*bufio.Writer, func()) {
	w := defaultWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
	w.Reset(out)

	return w, func() {
		w.Reset(io.Discard)
		defaultWriterPool.Put(w)
	}
}

// acquireCopyBuffer returns reusable payload copy buffer and release callback.
func acquireCopyBuffer() ([]byte, func()) {
	arr := copyBufferPool.Get().(*[copyBufferSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers
	buf := arr[:]

	return buf, func() {
		copyBufferPool.Put(arr)
	}
}

// copyPayloadBounded streams payload from src to dst and enforces strict size limit.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit int64, buf []byte) (int64, error) {
	if dst == nil {
		return 0, ErrNilWriter
	}
	if src == nil {
		return 0, ErrNilReader
	}
	if limit < 0 {
		return 0, ErrSizeOverflow
	}
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}

	var written int64
	emptyReads := 0
	for written < limit {
		chunkSize := len(buf)
		remaining := limit - written
		if int64(chunkSize) > remaining {
			chunkSize = int(remaining)
		}

		n, readErr := src.Read(buf[:chunkSize])
		if n > 0 {
			emptyReads = 0
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}
		if n == 0 && readErr == nil {
			emptyReads++
			if emptyReads > 100 {
				return written, io.ErrNoProgress
			}

			continue
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}

			return written, readErr
		}
	}

	// If we consumed exactly the limit, probe one extra byte to ensure source is not longer.
	if written == limit {
		var probe [1]byte
		n, err := src.Read(probe[:])
		if n > 0 {
			return written, ErrSizeOverflow
		}
		if err != nil && err != io.EOF {
			return written, err
		}
	}

	return written, nil
}

// CheckedUint32 validates v for a 32-bit table field.
func CheckedUint32(name string, v int64) (uint32, error) {
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: %s value %d is out of uint32 range", ErrSizeOverflow, name, v)
	}

	return uint32(v), nil
}
