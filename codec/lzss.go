// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/woozymasta/lzss"
)

func init() {
	Register("lzss", func() Encoder { return LZSS{} })
}

// lzssFrameHeaderSize is the little-endian uint32 decoded length prefix.
const lzssFrameHeaderSize = 4

// LZSS compresses save data into a length-prefixed LZSS frame:
// uint32 little-endian decoded size followed by the LZSS stream.
// Empty input is a bare zero length prefix.
type LZSS struct{}

// Decode implements Encoder.
func (LZSS) Decode(dst io.Writer, src io.Reader) (int64, error) {
	var header [lzssFrameHeaderSize]byte
	if _, err := io.ReadFull(src, header[:]); err != nil {
		return 0, fmt.Errorf("%w: lzss frame header: %w", ErrDecompressFailed, err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if uint64(size) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: lzss frame size %d", ErrDecompressFailed, size)
	}

	cw := &countingWriter{w: dst}
	if size == 0 {
		return 0, nil
	}
	if _, err := lzss.DecompressToWriter(cw, src, int(size), nil); err != nil {
		return cw.n, fmt.Errorf("%w: lzss: %w", ErrDecompressFailed, err)
	}
	if cw.n != int64(size) {
		return cw.n, fmt.Errorf("%w: lzss: short output (%d/%d)", ErrDecompressFailed, cw.n, size)
	}

	return cw.n, nil
}

// Encode implements Encoder.
func (LZSS) Encode(dst io.Writer, src io.Reader) (int64, error) {
	data, err := io.ReadAll(io.LimitReader(src, math.MaxUint32+1))
	if err != nil {
		return 0, fmt.Errorf("read lzss input: %w", err)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return 0, fmt.Errorf("lzss input exceeds 4 GiB")
	}

	var compressed []byte
	if len(data) > 0 {
		compressed, err = lzss.Compress(data, lzss.DefaultCompressOptions())
		if err != nil {
			return 0, fmt.Errorf("lzss compress: %w", err)
		}
	}

	var header [lzssFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data))) //nolint:gosec // bounded above

	cw := &countingWriter{w: dst}
	if _, err := cw.Write(header[:]); err != nil {
		return cw.n, fmt.Errorf("write lzss frame header: %w", err)
	}
	if _, err := cw.Write(compressed); err != nil {
		return cw.n, fmt.Errorf("write lzss frame: %w", err)
	}

	return cw.n, nil
}
