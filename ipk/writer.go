// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package ipk

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// HeaderSize returns byte length of header and file table of a. It depends on version,
// entry count, offset slot counts and path lengths only.
func HeaderSize(a *Archive) int64 {
	extended := a.Version >= VersionExtendedHeader

	size := int64(baseHeaderSize)
	if extended {
		size += 4
	}

	for _, e := range a.Files {
		size += entryFixedSize + int64(offsetSlots(e))*offsetSize + int64(len(e.Name)) + int64(len(e.Directory))
		if extended {
			size += 4
		}
	}

	return size
}

// offsetSlots returns the number of Offsets slots written for e; at least one.
func offsetSlots(e *FileEntry) int {
	return max(1, len(e.Offsets))
}

// Serialize writes header and file table of a to w exactly as HeaderSize accounts for them.
func Serialize(w io.Writer, a *Archive) error {
	if uint64(len(a.Files)) > math.MaxUint32 {
		return fmt.Errorf("file table too large: %d entries", len(a.Files))
	}

	extended := a.Version >= VersionExtendedHeader
	bw := &beWriter{w: w}

	bw.putUint32(Magic)
	bw.putUint32(a.Version)
	bw.putUint32(a.Platform)
	bw.putUint32(a.BaseOffset)
	bw.putUint32(uint32(len(a.Files))) //nolint:gosec // bounded above
	for _, v := range a.Unknown {
		bw.putUint32(v)
	}
	if extended {
		bw.putUint32(a.EngineVersion)
	}
	if bw.err != nil {
		return fmt.Errorf("write header: %w", bw.err)
	}

	for i, e := range a.Files {
		slots := offsetSlots(e)
		bw.putUint32(uint32(slots)) //nolint:gosec // slots is small
		bw.putUint32(e.Size)
		bw.putUint32(e.CompressedSize)
		bw.putUint64(e.TimeStamp)
		for j := range slots {
			var offset uint64
			if j < len(e.Offsets) {
				offset = e.Offsets[j]
			}
			bw.putUint64(offset)
		}
		bw.putString(e.Name)
		bw.putString(e.Directory)
		bw.putUint32(e.StringID)
		if extended {
			bw.putUint32(e.Flags)
		}

		if bw.err != nil {
			return fmt.Errorf("write file %d: %w", i, bw.err)
		}
	}

	return nil
}

// beWriter writes big-endian fields and keeps the first error.
type beWriter struct {
	w   io.Writer
	err error
	buf [8]byte
}

func (b *beWriter) write(p []byte) {
	if b.err != nil {
		return
	}

	_, b.err = b.w.Write(p)
}

func (b *beWriter) putUint32(v uint32) {
	binary.BigEndian.PutUint32(b.buf[:4], v)
	b.write(b.buf[:4])
}

func (b *beWriter) putUint64(v uint64) {
	binary.BigEndian.PutUint64(b.buf[:8], v)
	b.write(b.buf[:8])
}

func (b *beWriter) putString(s string) {
	if uint64(len(s)) > math.MaxUint32 {
		if b.err == nil {
			b.err = fmt.Errorf("string too long: %d bytes", len(s))
		}
		return
	}

	b.putUint32(uint32(len(s))) //nolint:gosec // bounded above
	b.write([]byte(s))
}
