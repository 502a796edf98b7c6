// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	Register("zlib", func() Encoder { return Zlib{} })
}

// Zlib compresses with RFC 1950 zlib streams.
type Zlib struct {
	// Level is compression level; zero selects zlib.DefaultCompression.
	Level int
}

// Decode implements Encoder.
func (z Zlib) Decode(dst io.Writer, src io.Reader) (int64, error) {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("%w: zlib header: %w", ErrDecompressFailed, err)
	}
	defer func() { _ = zr.Close() }()

	n, err := io.Copy(dst, zr)
	if err != nil {
		return n, fmt.Errorf("%w: zlib: %w", ErrDecompressFailed, err)
	}

	return n, nil
}

// Encode implements Encoder.
func (z Zlib) Encode(dst io.Writer, src io.Reader) (int64, error) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}

	cw := &countingWriter{w: dst}
	zw, err := zlib.NewWriterLevel(cw, level)
	if err != nil {
		return 0, fmt.Errorf("zlib writer: %w", err)
	}

	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		return cw.n, fmt.Errorf("zlib compress: %w", err)
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("zlib flush: %w", err)
	}

	return cw.n, nil
}
