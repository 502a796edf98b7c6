// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cnt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/encoding"
)

// HeaderSize returns byte length of header and tables of a, which is also the
// absolute offset of the first payload byte. It depends on table counts and encoded
// name lengths only.
func HeaderSize(a *Archive, enc encoding.Encoding) (int64, error) {
	names, err := encodeNames(a, enc)
	if err != nil {
		return 0, err
	}

	return names.headerSize(), nil
}

// encodedNames holds code page bytes of directory and file names.
type encodedNames struct {
	dirs  [][]byte
	files [][]byte
}

// headerSize sums fixed record widths and encoded name lengths.
func (n encodedNames) headerSize() int64 {
	size := int64(fixedHeaderSize + verificationSize)
	for _, d := range n.dirs {
		size += dirRecordSize + int64(len(d))
	}
	for _, f := range n.files {
		size += fileRecordSize + int64(len(f))
	}

	return size
}

// encodeNames converts every table name to container code page.
func encodeNames(a *Archive, enc encoding.Encoding) (encodedNames, error) {
	if len(a.Directories) > math.MaxInt32 || len(a.Files) > math.MaxInt32 {
		return encodedNames{}, fmt.Errorf("table too large: %d dirs, %d files", len(a.Directories), len(a.Files))
	}

	encoder := enc.NewEncoder()
	out := encodedNames{
		dirs:  make([][]byte, len(a.Directories)),
		files: make([][]byte, len(a.Files)),
	}

	for i, d := range a.Directories {
		b, err := encoder.Bytes([]byte(d))
		if err != nil {
			return encodedNames{}, fmt.Errorf("%w: directory %q: %w", ErrNameEncoding, d, err)
		}
		out.dirs[i] = b
	}

	for i, f := range a.Files {
		b, err := encoder.Bytes([]byte(f.Name))
		if err != nil {
			return encodedNames{}, fmt.Errorf("%w: file %q: %w", ErrNameEncoding, f.Name, err)
		}
		out.files[i] = b
	}

	return out, nil
}

// Serialize writes header and tables of a to w exactly as HeaderSize accounts for them.
// Flags, keys and checksums are written as stored in a.
func Serialize(w io.Writer, a *Archive, enc encoding.Encoding) error {
	names, err := encodeNames(a, enc)
	if err != nil {
		return err
	}

	var buf [fileRecordSize]byte
	le := binary.LittleEndian

	le.PutUint32(buf[0:4], uint32(len(a.Directories))) //nolint:gosec // bounded in encodeNames
	le.PutUint32(buf[4:8], uint32(len(a.Files)))       //nolint:gosec // bounded in encodeNames
	buf[8] = boolByte(a.IsXORUsed)
	buf[9] = boolByte(a.IsChecksumUsed)
	buf[10] = a.XORKey
	if _, err := w.Write(buf[:fixedHeaderSize]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, d := range names.dirs {
		if err := writeName(w, d, a.IsXORUsed, a.XORKey); err != nil {
			return fmt.Errorf("write directory %d: %w", i, err)
		}
	}

	if _, err := w.Write([]byte{a.VerificationByte}); err != nil {
		return fmt.Errorf("write verification byte: %w", err)
	}

	for i, e := range a.Files {
		le.PutUint32(buf[0:4], uint32(e.DirectoryIndex)) //nolint:gosec // signed field
		if _, err := w.Write(buf[0:4]); err != nil {
			return fmt.Errorf("write file %d: %w", i, err)
		}

		if err := writeName(w, names.files[i], a.IsXORUsed, a.XORKey); err != nil {
			return fmt.Errorf("write file %d name: %w", i, err)
		}

		copy(buf[0:4], e.XORKey[:])
		le.PutUint32(buf[4:8], e.Checksum)
		le.PutUint32(buf[8:12], e.Pointer)
		le.PutUint32(buf[12:16], e.Size)
		if _, err := w.Write(buf[0:16]); err != nil {
			return fmt.Errorf("write file %d: %w", i, err)
		}
	}

	return nil
}

// writeName writes int32 length prefix and name bytes, XORed with key when xor is set.
func writeName(w io.Writer, name []byte, xor bool, key byte) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(name))) //nolint:gosec // names are short
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}

	if xor && key != 0 {
		masked := make([]byte, len(name))
		for i, b := range name {
			masked[i] = b ^ key
		}
		name = masked
	}

	_, err := w.Write(name)
	return err
}

func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
