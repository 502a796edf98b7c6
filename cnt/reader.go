// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cnt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/woozymasta/rayarc"
	"golang.org/x/text/encoding"
)

// tableReader reads little-endian table fields while tracking remaining stream length.
type tableReader struct {
	r         io.Reader
	remaining int64
	buf       [4]byte
}

// take reads exactly n bytes into a fresh slice.
func (t *tableReader) take(n int64, what string) ([]byte, error) {
	if n < 0 || n > t.remaining {
		return nil, fmt.Errorf("%w: %s length %d exceeds remaining %d bytes", rayarc.ErrInvalidHeader, what, n, t.remaining)
	}

	out := make([]byte, n)
	if _, err := io.ReadFull(t.r, out); err != nil {
		return nil, truncated(what, err)
	}
	t.remaining -= n

	return out, nil
}

// readFixed reads n <= 4 bytes into the scratch buffer.
func (t *tableReader) readFixed(n int, what string) ([]byte, error) {
	if int64(n) > t.remaining {
		return nil, fmt.Errorf("%w: truncated %s", rayarc.ErrInvalidHeader, what)
	}

	if _, err := io.ReadFull(t.r, t.buf[:n]); err != nil {
		return nil, truncated(what, err)
	}
	t.remaining -= int64(n)

	return t.buf[:n], nil
}

func (t *tableReader) readInt32(what string) (int32, error) {
	b, err := t.readFixed(4, what)
	if err != nil {
		return 0, err
	}

	return int32(binary.LittleEndian.Uint32(b)), nil //nolint:gosec // signed field
}

func (t *tableReader) readUint32(what string) (uint32, error) {
	b, err := t.readFixed(4, what)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (t *tableReader) readByte(what string) (byte, error) {
	b, err := t.readFixed(1, what)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// readFlag reads one boolean byte that must be 0 or 1.
func (t *tableReader) readFlag(what string) (bool, error) {
	b, err := t.readByte(what)
	if err != nil {
		return false, err
	}

	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s flag value %d", rayarc.ErrInvalidHeader, what, b)
	}
}

// readName reads one int32 length-prefixed name and decodes it.
func (t *tableReader) readName(what string, xor bool, key byte, dec *encoding.Decoder) (string, error) {
	n, err := t.readInt32(what + " length")
	if err != nil {
		return "", err
	}

	raw, err := t.take(int64(n), what)
	if err != nil {
		return "", err
	}

	if xor {
		for i := range raw {
			raw[i] ^= key
		}
	}

	decoded, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", rayarc.ErrInvalidHeader, what, err)
	}

	return string(decoded), nil
}

// Deserialize parses .cnt header and tables from r. size is the total stream length and
// bounds every count, string and payload range.
func Deserialize(r io.Reader, size int64, enc encoding.Encoding) (*Archive, error) {
	if r == nil {
		return nil, rayarc.ErrNilReader
	}

	t := &tableReader{r: r, remaining: size}
	dec := enc.NewDecoder()

	dirCount, err := t.readInt32("directory count")
	if err != nil {
		return nil, err
	}
	fileCount, err := t.readInt32("file count")
	if err != nil {
		return nil, err
	}
	if dirCount < 0 || fileCount < 0 {
		return nil, fmt.Errorf("%w: negative table count (%d dirs, %d files)", rayarc.ErrInvalidHeader, dirCount, fileCount)
	}

	a := &Archive{}
	if a.IsXORUsed, err = t.readFlag("xor"); err != nil {
		return nil, err
	}
	if a.IsChecksumUsed, err = t.readFlag("checksum"); err != nil {
		return nil, err
	}
	if a.XORKey, err = t.readByte("xor key"); err != nil {
		return nil, err
	}

	minTable := int64(dirCount)*dirRecordSize + verificationSize + int64(fileCount)*fileRecordSize
	if minTable > t.remaining {
		return nil, fmt.Errorf(
			"%w: %d dirs and %d files need at least %d bytes, %d remain",
			rayarc.ErrInvalidHeader, dirCount, fileCount, minTable, t.remaining,
		)
	}

	a.Directories = make([]string, 0, dirCount)
	for i := range int(dirCount) {
		dir, err := t.readName(fmt.Sprintf("directory %d", i), a.IsXORUsed, a.XORKey, dec)
		if err != nil {
			return nil, err
		}
		a.Directories = append(a.Directories, dir)
	}

	if a.VerificationByte, err = t.readByte("verification byte"); err != nil {
		return nil, err
	}

	a.Files = make([]*FileEntry, 0, fileCount)
	for i := range int(fileCount) {
		e, err := readFileRecord(t, a, i, dec)
		if err != nil {
			return nil, err
		}

		end := int64(e.Pointer) + int64(e.Size)
		if end > size {
			return nil, fmt.Errorf(
				"%w: file %s payload [%d, %d) exceeds stream size %d",
				rayarc.ErrInvalidHeader, e.Name, e.Pointer, end, size,
			)
		}

		a.Files = append(a.Files, e)
	}

	return a, nil
}

// readFileRecord reads one file table record.
func readFileRecord(t *tableReader, a *Archive, i int, dec *encoding.Decoder) (*FileEntry, error) {
	what := fmt.Sprintf("file %d", i)

	dirIndex, err := t.readInt32(what + " directory index")
	if err != nil {
		return nil, err
	}
	if dirIndex < -1 || int64(dirIndex) >= int64(len(a.Directories)) {
		return nil, fmt.Errorf("%w: %s directory index %d out of range", rayarc.ErrInvalidHeader, what, dirIndex)
	}

	name, err := t.readName(what+" name", a.IsXORUsed, a.XORKey, dec)
	if err != nil {
		return nil, err
	}

	e := &FileEntry{Name: name, DirectoryIndex: dirIndex}

	key, err := t.readFixed(4, what+" xor key")
	if err != nil {
		return nil, err
	}
	copy(e.XORKey[:], key)

	if e.Checksum, err = t.readUint32(what + " checksum"); err != nil {
		return nil, err
	}
	if e.Pointer, err = t.readUint32(what + " pointer"); err != nil {
		return nil, err
	}
	if e.Size, err = t.readUint32(what + " size"); err != nil {
		return nil, err
	}

	return e, nil
}

// truncated maps short reads to format errors and passes other I/O errors through.
func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", rayarc.ErrInvalidHeader, what)
	}

	return fmt.Errorf("read %s: %w", what, err)
}
