// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import "errors"

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the archive header or tables are malformed or truncated.
	ErrInvalidHeader = errors.New("invalid archive: malformed header or tables")
	// ErrCodec means an entry could not be encoded or decoded.
	ErrCodec = errors.New("entry codec failure")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrNilFormat means no archive format was provided.
	ErrNilFormat = errors.New("archive format is nil")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrSizeOverflow means a size or offset exceeds the 4 GiB limit of 32-bit tables.
	ErrSizeOverflow = errors.New("size exceeds uint32 or 4 GiB archive limit")
	// ErrInvalidCompressPattern means one or more compression rules are invalid.
	ErrInvalidCompressPattern = errors.New("invalid compress rules")
	// ErrInvalidEntryPath means one of input entry paths is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrDuplicateEntryPath means two inputs resolve to the same path (case-insensitive).
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrGeneratorConsumed means file generator producers were already materialized.
	ErrGeneratorConsumed = errors.New("file generator already consumed")
	// ErrMissingSource means a file item has neither import nor stored bytes.
	ErrMissingSource = errors.New("file item has no byte source")
)
