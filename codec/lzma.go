// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package codec

import (
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

func init() {
	Register("lzma", func() Encoder { return LZMA{} })
}

// LZMA compresses with classic .lzma streams (13-byte header, end marker).
type LZMA struct{}

// Decode implements Encoder.
func (LZMA) Decode(dst io.Writer, src io.Reader) (int64, error) {
	lr, err := lzma.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("%w: lzma header: %w", ErrDecompressFailed, err)
	}

	n, err := io.Copy(dst, lr)
	if err != nil {
		return n, fmt.Errorf("%w: lzma: %w", ErrDecompressFailed, err)
	}

	return n, nil
}

// Encode implements Encoder.
func (LZMA) Encode(dst io.Writer, src io.Reader) (int64, error) {
	cw := &countingWriter{w: dst}
	lw, err := lzma.NewWriter(cw)
	if err != nil {
		return 0, fmt.Errorf("lzma writer: %w", err)
	}

	if _, err := io.Copy(lw, src); err != nil {
		_ = lw.Close()
		return cw.n, fmt.Errorf("lzma compress: %w", err)
	}

	if err := lw.Close(); err != nil {
		return cw.n, fmt.Errorf("lzma flush: %w", err)
	}

	return cw.n, nil
}
