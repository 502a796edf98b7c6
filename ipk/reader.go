// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package ipk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/woozymasta/rayarc"
)

// fieldReader reads big-endian fields while tracking remaining stream length.
type fieldReader struct {
	r         io.Reader
	remaining int64
	buf       [8]byte
}

func (f *fieldReader) read(n int, what string) ([]byte, error) {
	if int64(n) > f.remaining {
		return nil, fmt.Errorf("%w: truncated %s", rayarc.ErrInvalidHeader, what)
	}

	if _, err := io.ReadFull(f.r, f.buf[:n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated %s", rayarc.ErrInvalidHeader, what)
		}

		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	f.remaining -= int64(n)

	return f.buf[:n], nil
}

func (f *fieldReader) readUint32(what string) (uint32, error) {
	b, err := f.read(4, what)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

func (f *fieldReader) readUint64(what string) (uint64, error) {
	b, err := f.read(8, what)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(b), nil
}

// readString reads one uint32 length-prefixed string.
func (f *fieldReader) readString(what string) (string, error) {
	n, err := f.readUint32(what + " length")
	if err != nil {
		return "", err
	}
	if int64(n) > f.remaining {
		return "", fmt.Errorf("%w: %s length %d exceeds remaining %d bytes", rayarc.ErrInvalidHeader, what, n, f.remaining)
	}

	out := make([]byte, n)
	if _, err := io.ReadFull(f.r, out); err != nil {
		return "", fmt.Errorf("%w: truncated %s", rayarc.ErrInvalidHeader, what)
	}
	f.remaining -= int64(n)

	return string(out), nil
}

// Deserialize parses .ipk header and file table from r. size is the total stream length
// and bounds the table and every payload range.
func Deserialize(r io.Reader, size int64) (*Archive, error) {
	if r == nil {
		return nil, rayarc.ErrNilReader
	}

	f := &fieldReader{r: r, remaining: size}

	magic, err := f.readUint32("magic")
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: %w: got %#08x", rayarc.ErrInvalidHeader, ErrBadMagic, magic)
	}

	a := &Archive{}
	if a.Version, err = f.readUint32("version"); err != nil {
		return nil, err
	}
	if a.Platform, err = f.readUint32("platform"); err != nil {
		return nil, err
	}
	if a.BaseOffset, err = f.readUint32("base offset"); err != nil {
		return nil, err
	}

	fileCount, err := f.readUint32("file count")
	if err != nil {
		return nil, err
	}

	for i := range a.Unknown {
		if a.Unknown[i], err = f.readUint32("header reserved"); err != nil {
			return nil, err
		}
	}

	extended := a.Version >= VersionExtendedHeader
	if extended {
		if a.EngineVersion, err = f.readUint32("engine version"); err != nil {
			return nil, err
		}
	}

	minEntry := int64(entryFixedSize + offsetSize)
	if extended {
		minEntry += 4
	}
	if int64(fileCount)*minEntry > f.remaining {
		return nil, fmt.Errorf(
			"%w: %d files need at least %d bytes, %d remain",
			rayarc.ErrInvalidHeader, fileCount, int64(fileCount)*minEntry, f.remaining,
		)
	}

	if int64(a.BaseOffset) > size {
		return nil, fmt.Errorf("%w: base offset %d beyond stream size %d", rayarc.ErrInvalidHeader, a.BaseOffset, size)
	}
	content := size - int64(a.BaseOffset)

	a.Files = make([]*FileEntry, 0, fileCount)
	for i := range int(fileCount) {
		e, err := readEntry(f, i, extended)
		if err != nil {
			return nil, err
		}
		e.version = a.Version

		end := e.Offset() + uint64(e.StoredSize())
		if end < e.Offset() || end > uint64(content) {
			return nil, fmt.Errorf(
				"%w: file %s payload [%d, %d) exceeds content size %d",
				rayarc.ErrInvalidHeader, e.Path(), e.Offset(), end, content,
			)
		}

		a.Files = append(a.Files, e)
	}

	return a, nil
}

// readEntry reads one file table record.
func readEntry(f *fieldReader, i int, extended bool) (*FileEntry, error) {
	what := fmt.Sprintf("file %d", i)

	offsetCount, err := f.readUint32(what + " offset count")
	if err != nil {
		return nil, err
	}
	if offsetCount == 0 || offsetCount > MaxOffsetCount {
		return nil, fmt.Errorf("%w: %s offset count %d", rayarc.ErrInvalidHeader, what, offsetCount)
	}

	e := &FileEntry{}
	if e.Size, err = f.readUint32(what + " size"); err != nil {
		return nil, err
	}
	if e.CompressedSize, err = f.readUint32(what + " compressed size"); err != nil {
		return nil, err
	}
	if e.TimeStamp, err = f.readUint64(what + " timestamp"); err != nil {
		return nil, err
	}

	e.Offsets = make([]uint64, offsetCount)
	for j := range e.Offsets {
		if e.Offsets[j], err = f.readUint64(what + " offset"); err != nil {
			return nil, err
		}
	}

	if e.Name, err = f.readString(what + " name"); err != nil {
		return nil, err
	}
	if e.Directory, err = f.readString(what + " directory"); err != nil {
		return nil, err
	}
	if e.StringID, err = f.readUint32(what + " string id"); err != nil {
		return nil, err
	}
	if extended {
		if e.Flags, err = f.readUint32(what + " flags"); err != nil {
			return nil, err
		}
	}

	return e, nil
}
