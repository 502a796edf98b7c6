// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// extractWorkItem stores one selected file with prepared output relative paths.
type extractWorkItem[E Entry] struct {
	file    *listedFile[E]
	relPath string
	relDir  string
}

// Extract writes selected files to dstDir. Files are extracted in parallel by
// MaxWorkers; each file stream is decoded sequentially. On failure it returns
// the first encountered error.
func (r *Reader[A, E]) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	opts.applyDefaults()

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	files, err := r.selectFiles(opts.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workItems, err := prepareExtractWorkItems(files, opts.RawNames)
	if err != nil {
		return err
	}

	if err := prepareExtractDirs(dstRootAbs, workItems); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range workItems {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			return r.extractPreparedFile(gctx, dstRootAbs, task, opts)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

// selectFiles resolves requested paths, or returns all listed files when paths is nil.
func (r *Reader[A, E]) selectFiles(paths []string) ([]*listedFile[E], error) {
	if paths == nil {
		out := make([]*listedFile[E], len(r.listed))
		for i := range r.listed {
			out[i] = &r.listed[i]
		}

		return out, nil
	}

	out := make([]*listedFile[E], 0, len(paths))
	for _, p := range paths {
		ref, err := r.lookup(p)
		if err != nil {
			return nil, err
		}

		out = append(out, ref)
	}

	return out, nil
}

// prepareExtractWorkItems validates selected files and prepares relative fs paths.
func prepareExtractWorkItems[E Entry](files []*listedFile[E], rawNames bool) ([]extractWorkItem[E], error) {
	relPaths := make([]string, len(files))
	for i, file := range files {
		relPaths[i] = file.info.Path
	}

	if !rawNames {
		sanitized, err := sanitizeFilePaths(relPaths)
		if err != nil {
			return nil, err
		}

		relPaths = sanitized
	}

	workItems := make([]extractWorkItem[E], 0, len(files))
	for i, file := range files {
		normalizedPath, err := normalizeExtractEntryPath(relPaths[i])
		if err != nil {
			return nil, fmt.Errorf("normalize file path %s: %w", file.info.Path, err)
		}

		relPath := filepath.FromSlash(normalizedPath)
		relDir := filepath.Dir(relPath)
		if relDir == "." {
			relDir = ""
		}

		workItems = append(workItems, extractWorkItem[E]{
			file:    file,
			relPath: relPath,
			relDir:  relDir,
		})
	}

	return workItems, nil
}

// prepareExtractDirs creates all unique parent directories needed by work items.
func prepareExtractDirs[E Entry](dstRootAbs string, workItems []extractWorkItem[E]) error {
	seen := make(map[string]struct{}, len(workItems))
	for _, task := range workItems {
		if task.relDir == "" {
			continue
		}

		dirPath := filepath.Join(dstRootAbs, task.relDir)
		key := strings.ToLower(dirPath)
		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		if err := os.MkdirAll(dirPath, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", dirPath, err)
		}
	}

	return nil
}

// extractPreparedFile writes one prepared work item to destination root.
func (r *Reader[A, E]) extractPreparedFile(ctx context.Context, dstRootAbs string, task extractWorkItem[E], opts ExtractOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info := task.file.info
	outPath := filepath.Join(dstRootAbs, task.relPath)

	rc := r.openListed(task.file)
	defer func() { _ = rc.Close() }()

	file, err := openExtractFile(outPath, opts.FileMode)
	if err != nil {
		return fmt.Errorf("open %s: %w", info.Path, err)
	}

	buf, release := acquireCopyBuffer()
	written, copyErr := copyExtractData(file, rc, buf)
	release()

	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", info.Path, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", info.Path, closeErr)
	}

	opts.Logger.Debug("file extracted",
		slog.String("path", info.Path),
		slog.String("output", outPath),
		slog.Int64("written", written),
	)

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(info, written, outPath)
	}

	return nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}

// copyExtractData copies one decoded stream to output file using a pooled buffer.
func copyExtractData(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}

// normalizeExtractEntryPath normalizes file path and rejects absolute/traversal inputs.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
