// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

// Package cnt reads and writes OpenSpace .cnt containers used by Rayman 2, Rayman 3
// and Tonic Trouble.
//
// A container is a little-endian header with a directory string table and a file table,
// followed by payload bytes addressed by absolute pointers. File payloads and names may
// be XOR obfuscated; repacking always writes them in clear form.
package cnt

import "errors"

// Separator is the path separator used inside .cnt containers.
const Separator = `\`

// Fixed record widths of the .cnt layout.
const (
	// fixedHeaderSize is DirectoryCount + FileCount + three flag/key bytes.
	fixedHeaderSize = 4 + 4 + 1 + 1 + 1
	// verificationSize is the trailing byte of the directory table.
	verificationSize = 1
	// dirRecordSize is the fixed part of one directory record (length prefix).
	dirRecordSize = 4
	// fileRecordSize is the fixed part of one file record without the name bytes.
	fileRecordSize = 4 + 4 + 4 + 4 + 4 + 4
)

// ErrNameEncoding means a name cannot be represented in the container code page.
var ErrNameEncoding = errors.New("name is not representable in container encoding")

// Archive is a parsed .cnt header with its directory and file tables.
type Archive struct {
	// Directories is the flat directory path table; file entries reference it by index.
	Directories []string `json:"directories" yaml:"directories"`
	// Files is the file table in payload order.
	Files []*FileEntry `json:"files" yaml:"files"`
	// IsXORUsed reports whether names are XOR obfuscated with XORKey.
	IsXORUsed bool `json:"is_xor_used" yaml:"is_xor_used"`
	// IsChecksumUsed reports whether VerificationByte and file checksums are meaningful.
	IsChecksumUsed bool `json:"is_checksum_used" yaml:"is_checksum_used"`
	// XORKey is the global name obfuscation key.
	XORKey byte `json:"xor_key" yaml:"xor_key"`
	// VerificationByte closes the directory table.
	VerificationByte byte `json:"verification_byte" yaml:"verification_byte"`
}

// FileEntry is one .cnt file table record.
type FileEntry struct {
	// Name is the file name without directory.
	Name string `json:"name" yaml:"name"`
	// DirectoryIndex references Archive.Directories; -1 is the root.
	DirectoryIndex int32 `json:"directory_index" yaml:"directory_index"`
	// XORKey is the repeating payload key; all zero means clear payload.
	XORKey [4]byte `json:"xor_key" yaml:"xor_key"`
	// Checksum is the stored payload checksum.
	Checksum uint32 `json:"checksum" yaml:"checksum"`
	// Pointer is the absolute payload offset.
	Pointer uint32 `json:"pointer" yaml:"pointer"`
	// Size is the payload size; XOR keeps stored and decoded sizes equal.
	Size uint32 `json:"size" yaml:"size"`
}

// FileName returns entry name without directory.
func (e *FileEntry) FileName() string {
	return e.Name
}

// DecodedSize returns logical payload size.
func (e *FileEntry) DecodedSize() int64 {
	return int64(e.Size)
}

// StoredSize returns on-disk payload size.
func (e *FileEntry) StoredSize() int64 {
	return int64(e.Size)
}

// HasXOR reports whether payload is XOR obfuscated.
func (e *FileEntry) HasXOR() bool {
	return e.XORKey != [4]byte{}
}

// DirectoryPath returns directory path referenced by e, or empty for root.
func (a *Archive) DirectoryPath(e *FileEntry) string {
	if e.DirectoryIndex < 0 || int(e.DirectoryIndex) >= len(a.Directories) {
		return ""
	}

	return a.Directories[e.DirectoryIndex]
}

// directoryIndex returns table index of dir, -1 for root or when absent.
func (a *Archive) directoryIndex(dir string) int32 {
	if dir == "" {
		return -1
	}

	for i, d := range a.Directories {
		if d == dir {
			return int32(i) //nolint:gosec // table length is bounded by int32 count on load
		}
	}

	return -1
}
