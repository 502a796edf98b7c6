// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

// Package ipk reads and writes UbiArt .ipk bundles used by Rayman Origins and
// Rayman Legends.
//
// A bundle is a big-endian header and file table followed by raw or compressed payloads.
// Offsets are relative to the header BaseOffset. Directories are implicit and derived
// from the directory string each file entry carries.
package ipk

import (
	"errors"
	"hash/crc32"
	"strings"
	"time"
)

// Magic is the bundle signature.
const Magic uint32 = 0x50EC12BA

// Separator is the path separator used inside .ipk bundles.
const Separator = "/"

// Layout constants.
const (
	// VersionExtendedHeader is the first version carrying EngineVersion and entry Flags.
	VersionExtendedHeader = 8
	// DefaultVersion is used for bundles created without an explicit version.
	DefaultVersion = 5
	// MaxOffsetCount bounds legacy multi-offset entries on load.
	MaxOffsetCount = 16

	// baseHeaderSize is Magic, Version, Platform, BaseOffset, FileCount and Unknown[4].
	baseHeaderSize = 4 * 9
	// entryFixedSize is OffsetCount, Size, CompressedSize, TimeStamp, name and dir
	// length prefixes and StringID.
	entryFixedSize = 4 + 4 + 4 + 8 + 4 + 4 + 4
	// offsetSize is one Offsets slot.
	offsetSize = 8
)

// Sentinel errors for bundle parsing.
var (
	// ErrBadMagic means the stream does not start with Magic.
	ErrBadMagic = errors.New("ipk: bad magic")
)

// Archive is a parsed .ipk header with its file table.
type Archive struct {
	// Files is the file table in payload order.
	Files []*FileEntry `json:"files" yaml:"files"`
	// Unknown holds four header words preserved verbatim.
	Unknown [4]uint32 `json:"unknown" yaml:"unknown"`
	// Version is the bundle layout version.
	Version uint32 `json:"version" yaml:"version"`
	// Platform is the target platform identifier.
	Platform uint32 `json:"platform" yaml:"platform"`
	// BaseOffset is the absolute offset entry offsets are relative to.
	BaseOffset uint32 `json:"base_offset" yaml:"base_offset"`
	// EngineVersion is present for Version >= VersionExtendedHeader.
	EngineVersion uint32 `json:"engine_version" yaml:"engine_version"`
}

// FileEntry is one .ipk file table record.
type FileEntry struct {
	// Name is the file name without directory.
	Name string `json:"name" yaml:"name"`
	// Directory is the parent path in stored "a/b/" form, empty for root.
	Directory string `json:"directory" yaml:"directory"`
	// Offsets are payload offsets relative to BaseOffset; only the first is used.
	Offsets []uint64 `json:"offsets" yaml:"offsets"`
	// TimeStamp is the Windows FILETIME of the source file.
	TimeStamp uint64 `json:"time_stamp" yaml:"time_stamp"`
	// Size is the decoded size.
	Size uint32 `json:"size" yaml:"size"`
	// CompressedSize is the stored size of a compressed payload, zero for raw payloads.
	CompressedSize uint32 `json:"compressed_size" yaml:"compressed_size"`
	// StringID is the path hash used by the engine.
	StringID uint32 `json:"string_id" yaml:"string_id"`
	// Flags is present for Version >= VersionExtendedHeader.
	Flags uint32 `json:"flags" yaml:"flags"`

	// version is the owning bundle version; it drives codec selection.
	version uint32
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
	if e.IsCompressed() {
		return int64(e.CompressedSize)
	}

	return int64(e.Size)
}

// IsCompressed reports whether payload is compressed.
func (e *FileEntry) IsCompressed() bool {
	return e.CompressedSize != 0
}

// Offset returns the payload offset relative to BaseOffset.
func (e *FileEntry) Offset() uint64 {
	if len(e.Offsets) == 0 {
		return 0
	}

	return e.Offsets[0]
}

// Path returns full slash path of the entry.
func (e *FileEntry) Path() string {
	return e.Directory + e.Name
}

// SetModTime stores t as Windows FILETIME.
func (e *FileEntry) SetModTime(t time.Time) {
	e.TimeStamp = fileTimeFromTime(t)
}

// ModTime returns TimeStamp as time, or zero time when unset.
func (e *FileEntry) ModTime() time.Time {
	if e.TimeStamp < fileTimeUnixEpoch {
		return time.Time{}
	}

	ticks := e.TimeStamp - fileTimeUnixEpoch
	return time.Unix(int64(ticks/1e7), int64(ticks%1e7)*100).UTC() //nolint:gosec // bounded FILETIME range
}

// fileTimeUnixEpoch is 1970-01-01 in 100ns ticks since 1601-01-01.
const fileTimeUnixEpoch = 116444736000000000

// fileTimeFromTime converts t to Windows FILETIME ticks.
func fileTimeFromTime(t time.Time) uint64 {
	if t.IsZero() || t.Unix() < -11644473600 {
		return 0
	}

	return uint64(t.UnixNano()/100 + fileTimeUnixEpoch) //nolint:gosec // checked above
}

// storedDirectory converts a directory path to the "a/b/" stored form.
func storedDirectory(dir string) string {
	dir = strings.Trim(dir, Separator)
	if dir == "" {
		return ""
	}

	return dir + Separator
}

// StringID returns the path hash given to new entries: IEEE CRC32 of the upper-cased
// full path. Entries loaded with a non-zero StringID keep it on write; only new or
// zeroed entries are hashed. Settings.PathHash replaces this function per Manager.
func StringID(path string) uint32 {
	return crc32.ChecksumIEEE([]byte(strings.ToUpper(path)))
}
