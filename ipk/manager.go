// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package ipk

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/woozymasta/rayarc"
)

// Settings configures a Manager.
type Settings struct {
	// Policy decides compression on import; nil selects MatchOriginal.
	Policy CompressPolicy `json:"-" yaml:"-"`
	// Logger receives per-entry debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Version is the layout version of created bundles; zero selects DefaultVersion.
	Version uint32 `json:"version,omitempty" yaml:"version,omitempty"`
	// Platform is the platform identifier of created bundles.
	Platform uint32 `json:"platform,omitempty" yaml:"platform,omitempty"`
	// EngineVersion is written by created bundles with Version >= VersionExtendedHeader.
	EngineVersion uint32 `json:"engine_version,omitempty" yaml:"engine_version,omitempty"`
	// PathHash computes StringID of new entries from the full path; nil selects StringID.
	PathHash func(path string) uint32 `json:"-" yaml:"-"`
}

// Manager implements rayarc.Format for UbiArt bundles.
// It holds only its settings and is safe for concurrent use on distinct archives.
type Manager struct {
	settings Settings
}

var _ rayarc.Format[*Archive, *FileEntry] = (*Manager)(nil)

// NewManager returns a Manager using settings.
func NewManager(settings Settings) *Manager {
	if settings.Policy == nil {
		settings.Policy = MatchOriginal{}
	}
	if settings.Logger == nil {
		settings.Logger = slog.New(slog.DiscardHandler)
	}
	if settings.Version == 0 {
		settings.Version = DefaultVersion
	}
	if settings.PathHash == nil {
		settings.PathHash = StringID
	}

	return &Manager{settings: settings}
}

// Name implements rayarc.Format.
func (m *Manager) Name() string {
	return "ipk"
}

// Separator implements rayarc.Format.
func (m *Manager) Separator() string {
	return Separator
}

// CreateArchive returns an empty bundle using configured version and platform.
func (m *Manager) CreateArchive() *Archive {
	a := &Archive{
		Version:  m.settings.Version,
		Platform: m.settings.Platform,
		Files:    []*FileEntry{},
	}
	if a.Version >= VersionExtendedHeader {
		a.EngineVersion = m.settings.EngineVersion
	}
	a.BaseOffset = uint32(HeaderSize(a)) //nolint:gosec // fixed header only

	return a
}

// LoadArchive parses header and file table from r.
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

	return Deserialize(bufio.NewReader(r), size)
}

// LoadDirectories groups files by directory string. Root comes first, then directories
// in order of first use. Content starts at BaseOffset.
func (m *Manager) LoadDirectories(a *Archive, r io.ReaderAt, size int64) ([]rayarc.Directory[*FileEntry], *io.SectionReader, error) {
	if r == nil {
		return nil, nil, rayarc.ErrNilReader
	}
	if int64(a.BaseOffset) > size {
		return nil, nil, fmt.Errorf("%w: base offset %d beyond stream size %d", rayarc.ErrInvalidHeader, a.BaseOffset, size)
	}

	dirs := []rayarc.Directory[*FileEntry]{{Path: ""}}
	index := map[string]int{"": 0}
	for _, e := range a.Files {
		dir := strings.Trim(e.Directory, Separator)
		i, ok := index[dir]
		if !ok {
			i = len(dirs)
			index[dir] = i
			dirs = append(dirs, rayarc.Directory[*FileEntry]{Path: dir})
		}
		dirs[i].Files = append(dirs[i].Files, e)
	}

	return dirs, io.NewSectionReader(r, int64(a.BaseOffset), size-int64(a.BaseOffset)), nil
}

// OpenStored returns raw or compressed payload bytes of e.
func (m *Manager) OpenStored(content io.ReaderAt, e *FileEntry) *io.SectionReader {
	return io.NewSectionReader(content, int64(e.Offset()), e.StoredSize()) //nolint:gosec // bounded on load
}

// DecodeFile decompresses compressed payloads and copies raw ones.
func (m *Manager) DecodeFile(dst io.Writer, src io.Reader, e *FileEntry) error {
	var (
		n   int64
		err error
	)

	if e.IsCompressed() {
		n, err = SelectCodec(e.version, int64(e.Size)).Encoder().Decode(dst, src)
	} else {
		n, err = io.Copy(dst, src)
	}
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", rayarc.ErrCodec, e.Path(), err)
	}
	if n != int64(e.Size) {
		return fmt.Errorf("%w: decode %s: size mismatch (%d/%d)", rayarc.ErrCodec, e.Path(), n, e.Size)
	}

	return nil
}

// EncodeFile records the decoded size and compresses src when the policy asks for it.
func (m *Manager) EncodeFile(dst io.Writer, src io.Reader, e *FileEntry) error {
	data, err := io.ReadAll(io.LimitReader(src, rayarc.MaxArchiveData))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", rayarc.ErrCodec, e.Path(), err)
	}

	size, err := rayarc.CheckedUint32(e.Path(), int64(len(data)))
	if err != nil {
		return err
	}
	e.Size = size

	if !m.settings.Policy.ShouldCompress(e) {
		e.CompressedSize = 0
		if _, err := dst.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", e.Path(), err)
		}

		return nil
	}

	var packed bytes.Buffer
	variant := SelectCodec(e.version, int64(size))
	if _, err := variant.Encoder().Encode(&packed, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %s encode %s: %w", rayarc.ErrCodec, variant, e.Path(), err)
	}

	compressed, err := rayarc.CheckedUint32(e.Path(), int64(packed.Len()))
	if err != nil {
		return err
	}
	e.CompressedSize = compressed

	if _, err := dst.Write(packed.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", e.Path(), err)
	}

	return nil
}

// NewFileEntry returns a raw entry for name in dir with its engine path hash.
func (m *Manager) NewFileEntry(a *Archive, dir string, name string) *FileEntry {
	e := &FileEntry{
		Name:      name,
		Directory: storedDirectory(dir),
		Offsets:   []uint64{0},
		version:   a.Version,
	}
	e.StringID = m.settings.PathHash(e.Path())

	return e
}

// WriteArchive repacks a with files into out. Every entry keeps exactly one offset slot,
// and BaseOffset becomes the header size.
func (m *Manager) WriteArchive(ctx context.Context, a *Archive, out io.WriteSeeker, files []rayarc.FileItem[*FileEntry]) error {
	if out == nil {
		return rayarc.ErrNilWriter
	}

	logger := m.settings.Logger
	a.Files = make([]*FileEntry, 0, len(files))

	for i := range files {
		item := &files[i]
		e := item.Entry
		if e == nil {
			e = m.NewFileEntry(a, item.Directory, item.Name)
			item.Entry = e
		}

		e.Name = item.Name
		e.Directory = storedDirectory(item.Directory)
		e.version = a.Version
		// Legacy multi-offset layouts collapse to one slot.
		e.Offsets = []uint64{0}
		if e.StringID == 0 {
			e.StringID = m.settings.PathHash(e.Path())
		}

		a.Files = append(a.Files, e)
	}

	headerSize := HeaderSize(a)
	base, err := rayarc.CheckedUint32("base offset", headerSize)
	if err != nil {
		return err
	}
	a.BaseOffset = base

	cursor := rayarc.NewPayloadCursor(0, rayarc.MaxArchiveData)
	gen := rayarc.NewFileGenerator[*FileEntry](len(files))
	for i := range files {
		item := files[i]
		gen.Add(item.Entry, func() (io.ReadCloser, error) {
			rc, err := m.openItem(item)
			if err != nil {
				return nil, err
			}

			offset, err := cursor.Advance(item.Entry.Path(), item.Entry.StoredSize())
			if err != nil {
				_ = rc.Close()
				return nil, err
			}
			item.Entry.Offsets[0] = uint64(offset)

			logger.Debug("ipk entry placed",
				slog.String("path", item.Entry.Path()),
				slog.Uint64("offset", uint64(offset)),
				slog.Uint64("size", uint64(item.Entry.Size)),
				slog.Uint64("compressed_size", uint64(item.Entry.CompressedSize)),
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
		return Serialize(w, a)
	}); err != nil {
		return err
	}

	logger.Debug("ipk archive written",
		slog.Uint64("version", uint64(a.Version)),
		slog.Int("files", len(a.Files)),
		slog.Int64("header_size", headerSize),
		slog.Int64("payload_size", written),
	)

	return nil
}

// openItem opens stored bytes of one write item, encoding imports first.
func (m *Manager) openItem(item rayarc.FileItem[*FileEntry]) (io.ReadCloser, error) {
	if item.Import != nil {
		return rayarc.EncodeImport(item, m.EncodeFile)
	}

	return rayarc.OpenStoredItem(item)
}
