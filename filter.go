// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import "strings"

// filterListedFiles applies reader option filters to files in order.
func filterListedFiles[E Entry](files []listedFile[E], opts ReaderOptions) []listedFile[E] {
	files = filterFilesBySize(files, opts.MinEntrySize)
	if opts.FilterASCIIOnly {
		files = filterFilesByASCIIOnly(files)
	}

	return filterFilesByPrefix(files, opts.EntryPathPrefix)
}

// filterFilesBySize keeps files whose decoded size is at least minSize.
func filterFilesBySize[E Entry](files []listedFile[E], minSize int64) []listedFile[E] {
	if minSize <= 0 {
		return files
	}

	out := make([]listedFile[E], 0, len(files))
	for _, file := range files {
		if file.info.Size < minSize {
			continue
		}

		out = append(out, file)
	}

	return out
}

// filterFilesByASCIIOnly keeps files whose path contains only ASCII bytes.
func filterFilesByASCIIOnly[E Entry](files []listedFile[E]) []listedFile[E] {
	out := make([]listedFile[E], 0, len(files))
	for _, file := range files {
		if !filterPathIsASCIIOnly(file.info.Path) {
			continue
		}

		out = append(out, file)
	}

	return out
}

// filterPathIsASCIIOnly reports whether path contains only ASCII bytes.
func filterPathIsASCIIOnly(pathValue string) bool {
	for idx := 0; idx < len(pathValue); idx++ {
		if pathValue[idx] >= 0x80 {
			return false
		}
	}

	return true
}

// filterFilesByPrefix keeps files under prefix (or exact match if it points to a file).
// Matching ignores case and separator style.
func filterFilesByPrefix[E Entry](files []listedFile[E], prefix string) []listedFile[E] {
	prefix = pathKey(prefix)
	if prefix == "" {
		return files
	}

	withSlash := prefix + "/"
	out := make([]listedFile[E], 0, len(files))
	for _, file := range files {
		key := pathKey(file.info.Path)
		if key == prefix || strings.HasPrefix(key, withSlash) {
			out = append(out, file)
		}
	}

	return out
}
