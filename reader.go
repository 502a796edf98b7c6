// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Reader is a read-only archive session over one format.
// Listing and lookup are safe for concurrent use; OpenFile streams are independent.
type Reader[A any, E Entry] struct {
	// format is the container family codec.
	format Format[A, E]
	// archive is the parsed header and tables.
	archive A
	// ra is the underlying random-access reader.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// content is the payload region entries are addressed in.
	content *io.SectionReader
	// logger receives debug events.
	logger *slog.Logger
	// index maps case-insensitive path keys to all entries.
	index map[string]int
	// dirs is the directory view built on load.
	dirs []Directory[E]
	// all holds every file in directory view order.
	all []listedFile[E]
	// listed holds files passing reader options filters.
	listed []listedFile[E]
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// listedFile pairs public file metadata with its format entry.
type listedFile[E Entry] struct {
	entry E
	info  FileInfo
}

// Open opens archive file by path and parses its tables with format.
func Open[A any, E Entry](format Format[A, E], path string, opts ReaderOptions) (*Reader[A, E], error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(format, f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReader parses archive from existing ReaderAt and known size.
func NewReader[A any, E Entry](format Format[A, E], ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader[A, E], error) {
	if format == nil {
		return nil, ErrNilFormat
	}
	if ra == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()

	archive, err := format.LoadArchive(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return nil, fmt.Errorf("load %s archive: %w", format.Name(), err)
	}

	dirs, content, err := format.LoadDirectories(archive, ra, size)
	if err != nil {
		return nil, fmt.Errorf("load %s directories: %w", format.Name(), err)
	}

	r := &Reader[A, E]{
		format:  format,
		archive: archive,
		ra:      ra,
		content: content,
		logger:  opts.Logger,
		dirs:    dirs,
		size:    size,
	}
	r.buildIndex()
	r.listed = filterListedFiles(r.all, opts)

	r.logger.Debug("archive loaded",
		slog.String("format", format.Name()),
		slog.Int("directories", len(dirs)),
		slog.Int("files", len(r.all)),
		slog.Int("listed", len(r.listed)),
	)

	return r, nil
}

// buildIndex flattens directory view and indexes files by case-insensitive path.
func (r *Reader[A, E]) buildIndex() {
	sep := r.format.Separator()

	total := 0
	for _, dir := range r.dirs {
		total += len(dir.Files)
	}

	r.all = make([]listedFile[E], 0, total)
	r.index = make(map[string]int, total)
	for _, dir := range r.dirs {
		for _, e := range dir.Files {
			info := FileInfo{
				Path:       JoinPath(sep, dir.Path, e.FileName()),
				Directory:  dir.Path,
				Name:       e.FileName(),
				Size:       e.DecodedSize(),
				StoredSize: e.StoredSize(),
			}

			key := pathKey(info.Path)
			if _, exists := r.index[key]; !exists {
				r.index[key] = len(r.all)
			}
			r.all = append(r.all, listedFile[E]{entry: e, info: info})
		}
	}
}

// Format returns the container family codec of r.
func (r *Reader[A, E]) Format() Format[A, E] {
	return r.format
}

// Archive returns parsed header and tables.
func (r *Reader[A, E]) Archive() A {
	return r.archive
}

// Size returns total archive size in bytes.
func (r *Reader[A, E]) Size() int64 {
	return r.size
}

// Directories returns a copy of the directory view.
func (r *Reader[A, E]) Directories() []Directory[E] {
	out := make([]Directory[E], len(r.dirs))
	for i, dir := range r.dirs {
		out[i].Path = dir.Path
		out[i].Files = append([]E(nil), dir.Files...)
	}

	return out
}

// Files returns listed files after reader option filters.
func (r *Reader[A, E]) Files() []FileInfo {
	out := make([]FileInfo, len(r.listed))
	for i := range r.listed {
		out[i] = r.listed[i].info
	}

	return out
}

// Entry resolves path (any separator, case-insensitive) to its entry.
func (r *Reader[A, E]) Entry(path string) (E, FileInfo, error) {
	ref, err := r.lookup(path)
	if err != nil {
		var zero E
		return zero, FileInfo{}, err
	}

	return ref.entry, ref.info, nil
}

// StoredItems returns write items keeping the stored bytes of every file.
func (r *Reader[A, E]) StoredItems() []FileItem[E] {
	return StoredItems(r.format, r.dirs, r.content)
}

// Close closes the underlying file if reader owns one.
func (r *Reader[A, E]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// checkOpen returns ErrClosed after Close.
func (r *Reader[A, E]) checkOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// lookup finds one file by path.
func (r *Reader[A, E]) lookup(path string) (*listedFile[E], error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	idx, ok := r.index[pathKey(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}

	return &r.all[idx], nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
