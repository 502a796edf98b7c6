// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import "io"

// ListFiles opens an archive and returns file metadata without payload reads.
func ListFiles[A any, E Entry](format Format[A, E], path string, opts ReaderOptions) ([]FileInfo, error) {
	r, err := Open(format, path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Files(), nil
}

// ListFilesFromReaderAt parses file metadata from a random-access source.
func ListFilesFromReaderAt[A any, E Entry](format Format[A, E], ra io.ReaderAt, size int64, opts ReaderOptions) ([]FileInfo, error) {
	r, err := NewReader(format, ra, size, opts)
	if err != nil {
		return nil, err
	}

	return r.Files(), nil
}
