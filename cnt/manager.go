// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cnt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/woozymasta/rayarc"
	"github.com/woozymasta/rayarc/codec"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Settings configures a Manager.
type Settings struct {
	// Encoding is the name code page; nil selects Windows-1252.
	Encoding encoding.Encoding `json:"-" yaml:"-"`
	// Logger receives per-entry debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Manager implements rayarc.Format for OpenSpace containers.
// It holds only its settings and is safe for concurrent use on distinct archives.
type Manager struct {
	settings Settings
}

var _ rayarc.Format[*Archive, *FileEntry] = (*Manager)(nil)

// NewManager returns a Manager using settings.
func NewManager(settings Settings) *Manager {
	if settings.Encoding == nil {
		settings.Encoding = charmap.Windows1252
	}
	if settings.Logger == nil {
		settings.Logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{settings: settings}
}

// Name implements rayarc.Format.
func (m *Manager) Name() string {
	return "cnt"
}

// Separator implements rayarc.Format.
func (m *Manager) Separator() string {
	return Separator
}

// CreateArchive returns an empty archive with XOR and checksums disabled.
func (m *Manager) CreateArchive() *Archive {
	return &Archive{
		Directories: []string{},
		Files:       []*FileEntry{},
	}
}

// LoadArchive parses header and tables from r.
func (m *Manager) LoadArchive(r io.ReadSeeker) (*Archive, error) {
	if r == nil {
		return nil, rayarc.ErrNilReader
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek archive end: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek archive start: %w", err)
	}

	return Deserialize(bufio.NewReader(r), size, m.settings.Encoding)
}

// LoadDirectories groups files by directory index. Root comes first, then every table
// directory in table order. Pointers are absolute, so content spans the whole stream.
func (m *Manager) LoadDirectories(a *Archive, r io.ReaderAt, size int64) ([]rayarc.Directory[*FileEntry], *io.SectionReader, error) {
	if r == nil {
		return nil, nil, rayarc.ErrNilReader
	}

	dirs := make([]rayarc.Directory[*FileEntry], len(a.Directories)+1)
	dirs[0].Path = ""
	for i, d := range a.Directories {
		dirs[i+1].Path = d
	}

	for _, e := range a.Files {
		idx := int(e.DirectoryIndex) + 1
		if idx < 0 || idx >= len(dirs) {
			return nil, nil, fmt.Errorf("%w: file %s directory index %d out of range", rayarc.ErrInvalidHeader, e.Name, e.DirectoryIndex)
		}
		dirs[idx].Files = append(dirs[idx].Files, e)
	}

	return dirs, io.NewSectionReader(r, 0, size), nil
}

// OpenStored returns raw payload bytes of e.
func (m *Manager) OpenStored(content io.ReaderAt, e *FileEntry) *io.SectionReader {
	return io.NewSectionReader(content, int64(e.Pointer), int64(e.Size))
}

// DecodeFile removes payload XOR when e carries a key.
func (m *Manager) DecodeFile(dst io.Writer, src io.Reader, e *FileEntry) error {
	n, err := io.Copy(dst, codec.NewXORReader(src, e.XORKey[:]))
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", rayarc.ErrCodec, e.Name, err)
	}
	if n != int64(e.Size) {
		return fmt.Errorf("%w: decode %s: short payload (%d/%d)", rayarc.ErrCodec, e.Name, n, e.Size)
	}

	return nil
}

// EncodeFile copies src in clear form, clears the entry key and records the new size.
func (m *Manager) EncodeFile(dst io.Writer, src io.Reader, e *FileEntry) error {
	e.XORKey = [4]byte{}
	e.Checksum = 0

	n, err := io.Copy(dst, io.LimitReader(src, rayarc.MaxArchiveData))
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", rayarc.ErrCodec, e.Name, err)
	}

	size, err := rayarc.CheckedUint32(e.Name, n)
	if err != nil {
		return err
	}
	e.Size = size

	return nil
}

// NewFileEntry returns a clear entry for name in dir. The directory index is resolved
// again on write.
func (m *Manager) NewFileEntry(a *Archive, dir string, name string) *FileEntry {
	return &FileEntry{
		Name:           name,
		DirectoryIndex: a.directoryIndex(strings.TrimSuffix(dir, Separator)),
	}
}

// WriteArchive repacks a with files into out. Directories are rebuilt from files in
// order of first use, names and keys are written in clear form and checksums are
// disabled. Stored payloads of keyed entries are decoded on the fly.
func (m *Manager) WriteArchive(ctx context.Context, a *Archive, out io.WriteSeeker, files []rayarc.FileItem[*FileEntry]) error {
	if out == nil {
		return rayarc.ErrNilWriter
	}

	logger := m.settings.Logger

	// Directory table and references.
	a.Directories = a.Directories[:0]
	dirIndex := make(map[string]int32, 8)
	a.Files = make([]*FileEntry, 0, len(files))
	keys := make([][4]byte, len(files))

	for i := range files {
		item := &files[i]
		e := item.Entry
		if e == nil {
			e = m.NewFileEntry(a, item.Directory, item.Name)
			item.Entry = e
		}

		dir := strings.Trim(item.Directory, Separator)
		e.Name = item.Name
		e.DirectoryIndex = -1
		if dir != "" {
			idx, ok := dirIndex[dir]
			if !ok {
				idx = int32(len(a.Directories)) //nolint:gosec // bounded by file count
				dirIndex[dir] = idx
				a.Directories = append(a.Directories, dir)
			}
			e.DirectoryIndex = idx
		}

		// Instance fields never survive a repack.
		keys[i] = e.XORKey
		e.XORKey = [4]byte{}
		e.Checksum = 0

		a.Files = append(a.Files, e)
	}

	a.IsXORUsed = false
	a.IsChecksumUsed = false
	a.XORKey = 0
	a.VerificationByte = 0

	headerSize, err := HeaderSize(a, m.settings.Encoding)
	if err != nil {
		return err
	}

	cursor := rayarc.NewPayloadCursor(headerSize, rayarc.MaxArchiveData)
	gen := rayarc.NewFileGenerator[*FileEntry](len(files))
	for i := range files {
		item := files[i]
		key := keys[i]
		gen.Add(item.Entry, func() (io.ReadCloser, error) {
			rc, err := m.openItem(item, key)
			if err != nil {
				return nil, err
			}

			pointer, err := cursor.Advance(item.Name, item.Entry.StoredSize())
			if err != nil {
				_ = rc.Close()
				return nil, err
			}
			item.Entry.Pointer = pointer

			logger.Debug("cnt entry placed",
				slog.String("path", item.Path(Separator)),
				slog.Uint64("pointer", uint64(pointer)),
				slog.Uint64("size", uint64(item.Entry.Size)),
				slog.Bool("imported", item.Import != nil),
			)

			return rc, nil
		})
	}

	written, err := rayarc.WritePayload(ctx, out, headerSize, gen)
	if err != nil {
		return err
	}

	if err := rayarc.WriteHeader(out, func(w io.Writer) error {
		return Serialize(w, a, m.settings.Encoding)
	}); err != nil {
		return err
	}

	logger.Debug("cnt archive written",
		slog.Int("directories", len(a.Directories)),
		slog.Int("files", len(a.Files)),
		slog.Int64("header_size", headerSize),
		slog.Int64("payload_size", written),
	)

	return nil
}

// openItem opens bytes of one write item: encoded import, or stored payload with the
// original key removed.
func (m *Manager) openItem(item rayarc.FileItem[*FileEntry], key [4]byte) (io.ReadCloser, error) {
	if item.Import != nil {
		return rayarc.EncodeImport(item, m.EncodeFile)
	}

	rc, err := rayarc.OpenStoredItem(item)
	if err != nil {
		return nil, err
	}

	if codec.IsZeroKey(key[:]) {
		return rc, nil
	}

	return struct {
		io.Reader
		io.Closer
	}{codec.NewXORReader(rc, key[:]), rc}, nil
}
