// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Default tuning values.
const (
	DefaultWriteBuffer = 4 * 1024 * 1024
	// MaxArchiveData is the addressable payload of 32-bit offset tables (4 GiB).
	MaxArchiveData = 1 << 32
)

// Entry is implemented by every format-specific file entry record.
type Entry interface {
	// FileName is the entry name without directory.
	FileName() string
	// DecodedSize is the logical size after decoding.
	DecodedSize() int64
	// StoredSize is the on-disk size inside archive payload.
	StoredSize() int64
}

// Format is the archive data manager contract implemented by each container family.
// Implementations keep only explicit settings and never carry state between calls.
type Format[A any, E Entry] interface {
	// Name is a short format identifier ("cnt", "ipk").
	Name() string
	// Separator is the archive path separator.
	Separator() string
	// CreateArchive returns an empty archive with format defaults.
	CreateArchive() A
	// LoadArchive parses header and tables from r starting at offset zero.
	LoadArchive(r io.ReadSeeker) (A, error)
	// LoadDirectories builds the directory view and returns the payload region
	// entries are addressed in.
	LoadDirectories(a A, r io.ReaderAt, size int64) ([]Directory[E], *io.SectionReader, error)
	// OpenStored returns the stored (encoded) bytes of e inside content.
	OpenStored(content io.ReaderAt, e E) *io.SectionReader
	// DecodeFile transforms stored bytes of e into logical bytes.
	DecodeFile(dst io.Writer, src io.Reader, e E) error
	// EncodeFile transforms logical bytes into stored bytes and updates e size fields.
	EncodeFile(dst io.Writer, src io.Reader, e E) error
	// NewFileEntry creates a blank entry for a new file in directory dir.
	NewFileEntry(a A, dir string, name string) E
	// WriteArchive repacks a with files into out.
	WriteArchive(ctx context.Context, a A, out io.WriteSeeker, files []FileItem[E]) error
}

// Directory is a directory view over file entries. Root is the empty path.
type Directory[E Entry] struct {
	// Path is directory path using archive separator.
	Path string `json:"path" yaml:"path"`
	// Files are entries directly inside Path.
	Files []E `json:"files" yaml:"files"`
}

// FileItem pairs one entry with its byte source for a write pass.
type FileItem[E Entry] struct {
	// Entry is the format-specific entry record.
	Entry E `json:"-" yaml:"-"`
	// Import supplies logical bytes replacing stored content. Nil keeps stored bytes.
	Import func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Stored returns current encoded bytes of Entry and is used when Import is nil.
	Stored func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Directory is directory path using archive separator.
	Directory string `json:"directory" yaml:"directory"`
	// Name is file name inside Directory.
	Name string `json:"name" yaml:"name"`
}

// Path returns full archive path of item using separator sep.
func (it FileItem[E]) Path(sep string) string {
	return JoinPath(sep, it.Directory, it.Name)
}

// Input describes one source stream to be added to an archive.
type Input struct {
	// ModTime is optional entry timestamp.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Path is destination path inside archive (any separator style).
	Path string `json:"path" yaml:"path"`
}

// FileInfo describes one listed archive file.
type FileInfo struct {
	// Path is full archive path using archive separator.
	Path string `json:"path" yaml:"path"`
	// Directory is directory part of Path.
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	// Name is file name part of Path.
	Name string `json:"name" yaml:"name"`
	// Size is decoded size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// StoredSize is on-disk size in bytes.
	StoredSize int64 `json:"stored_size" yaml:"stored_size"`
}

// WriteResult describes one completed archive write pass.
type WriteResult struct {
	// Files is number of files in written archive.
	Files int `json:"files" yaml:"files"`
	// Size is written archive size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Added is number of files added by an edit.
	Added int `json:"added,omitempty" yaml:"added,omitempty"`
	// Replaced is number of files replaced by an edit.
	Replaced int `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	// Deleted is number of files removed by an edit.
	Deleted int `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// ReaderOptions configures archive explorer listing behavior.
type ReaderOptions struct {
	// Logger receives debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// EntryPathPrefix limits listing to one directory subtree.
	EntryPathPrefix string `json:"entry_path_prefix,omitempty" yaml:"entry_path_prefix,omitempty"`
	// MinEntrySize drops entries whose decoded size is below this threshold.
	MinEntrySize int64 `json:"min_entry_size,omitempty" yaml:"min_entry_size,omitempty"`
	// FilterASCIIOnly drops entries whose path contains non-ASCII bytes.
	FilterASCIIOnly bool `json:"filter_ascii_only,omitempty" yaml:"filter_ascii_only,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(file FileInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// Logger receives debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Paths limits extraction to selected archive paths; nil means all listed files.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default path sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// EditOptions configures file-based archive edit flow.
type EditOptions struct {
	// Logger receives debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means remove backup, 1 keeps only `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// CreateOptions configures Create behavior.
type CreateOptions struct {
	// Logger receives debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// KeepOrder writes inputs in given order instead of sorting by path.
	KeepOrder bool `json:"keep_order,omitempty" yaml:"keep_order,omitempty"`
}

// discardLogger returns logger when set, otherwise a logger that drops everything.
func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}

	return slog.New(slog.DiscardHandler)
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	opts.Logger = discardLogger(opts.Logger)
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	opts.Logger = discardLogger(opts.Logger)

	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	opts.Logger = discardLogger(opts.Logger)

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}

// applyDefaults fills zero-valued create options with defaults.
func (opts *CreateOptions) applyDefaults() {
	opts.Logger = discardLogger(opts.Logger)
}
