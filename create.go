// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// modTimeSetter is implemented by entries that record a timestamp.
type modTimeSetter interface {
	SetModTime(t time.Time)
}

// Create writes a new archive of format from inputs into out.
// Inputs are sorted by path unless KeepOrder is set; duplicate paths are rejected.
func Create[A any, E Entry](ctx context.Context, format Format[A, E], out io.WriteSeeker, inputs []Input, opts CreateOptions) (*WriteResult, error) {
	if format == nil {
		return nil, ErrNilFormat
	}
	if out == nil {
		return nil, ErrNilWriter
	}

	opts.applyDefaults()

	items, err := prepareCreateItems(format, inputs, opts.KeepOrder)
	if err != nil {
		return nil, err
	}

	archive := format.CreateArchive()
	fileItems := make([]FileItem[E], len(items))
	for i, in := range items {
		entry := format.NewFileEntry(archive, in.dir, in.name)
		applyModTime(entry, in.input.ModTime)

		fileItems[i] = FileItem[E]{
			Entry:     entry,
			Import:    in.input.Open,
			Directory: in.dir,
			Name:      in.name,
		}
	}

	if err := format.WriteArchive(ctx, archive, out, fileItems); err != nil {
		return nil, fmt.Errorf("write %s archive: %w", format.Name(), err)
	}

	size, err := out.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek archive end: %w", err)
	}

	opts.Logger.Debug("archive created",
		slog.String("format", format.Name()),
		slog.Int("files", len(fileItems)),
		slog.Int64("size", size),
	)

	return &WriteResult{Files: len(fileItems), Size: size}, nil
}

// CreateFile writes a new archive to outPath. A partial file is removed on failure.
func CreateFile[A any, E Entry](ctx context.Context, format Format[A, E], outPath string, inputs []Input, opts CreateOptions) (*WriteResult, error) {
	return writeArchiveFile(outPath, func(f *os.File) (*WriteResult, error) {
		return Create(ctx, format, f, inputs, opts)
	})
}

// Repack rewrites the archive at srcPath into dstPath keeping every stored payload.
// Format-specific normalization (flags, offsets) is applied by the format writer.
func Repack[A any, E Entry](ctx context.Context, format Format[A, E], srcPath string, dstPath string, opts ReaderOptions) (*WriteResult, error) {
	if sameFilePath(srcPath, dstPath) {
		return nil, fmt.Errorf("%w: repack target equals source %s", ErrInvalidEntryPath, srcPath)
	}

	r, err := Open(format, srcPath, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	items := r.StoredItems()
	return writeArchiveFile(dstPath, func(f *os.File) (*WriteResult, error) {
		if err := format.WriteArchive(ctx, r.Archive(), f, items); err != nil {
			return nil, fmt.Errorf("write %s archive: %w", format.Name(), err)
		}

		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("seek archive end: %w", err)
		}

		return &WriteResult{Files: len(items), Size: size}, nil
	})
}

// InputsFromDir collects regular files under root as inputs with slash-relative paths.
func InputsFromDir(root string) ([]Input, error) {
	var inputs []Input
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		inputs = append(inputs, Input{
			Path:    filepath.ToSlash(rel),
			ModTime: info.ModTime(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return inputs, nil
}

// createItem is one validated input with its archive directory and name.
type createItem struct {
	input Input
	key   string
	dir   string
	name  string
}

// prepareCreateItems validates inputs, splits paths and orders them.
func prepareCreateItems[A any, E Entry](format Format[A, E], inputs []Input, keepOrder bool) ([]createItem, error) {
	sep := format.Separator()
	items := make([]createItem, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.Open == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, in.Path)
		}

		dir, name, err := SplitPath(in.Path, sep)
		if err != nil {
			return nil, err
		}

		key := pathKey(in.Path)
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryPath, in.Path)
		}
		seen[key] = struct{}{}

		items = append(items, createItem{input: in, key: key, dir: dir, name: name})
	}

	if !keepOrder {
		sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })
	}

	return items, nil
}

// applyModTime stamps entry when it records timestamps and t is set.
func applyModTime[E Entry](entry E, t time.Time) {
	if t.IsZero() {
		return
	}

	if setter, ok := any(entry).(modTimeSetter); ok {
		setter.SetModTime(t)
	}
}

// writeArchiveFile creates outPath, runs write, syncs and closes it.
// The file is removed when write fails.
func writeArchiveFile(outPath string, write func(f *os.File) (*WriteResult, error)) (*WriteResult, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	res, err := write(f)
	if err == nil {
		err = f.Sync()
		if err != nil {
			err = fmt.Errorf("sync archive file: %w", err)
		}
	}

	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close archive file: %w", closeErr)
	}

	if err != nil {
		_ = os.Remove(outPath)
		return nil, err
	}

	return res, nil
}

// sameFilePath reports whether a and b resolve to the same absolute path.
func sameFilePath(a string, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}

	return absA == absB
}
