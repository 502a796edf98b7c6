// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"fmt"
	"path"
	"strings"
)

// Archive path separators used by supported container families.
const (
	// SeparatorBackslash is used by OpenSpace containers.
	SeparatorBackslash = `\`
	// SeparatorSlash is used by UbiArt containers.
	SeparatorSlash = "/"
)

// NormalizePath converts an archive/internal path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// ToArchivePath converts a normalized slash path to one using archive separator sep.
func ToArchivePath(normalized string, sep string) string {
	if sep == "" || sep == "/" {
		return normalized
	}

	return strings.ReplaceAll(normalized, "/", sep)
}

// JoinPath joins directory and file name with archive separator sep.
// An empty directory denotes the archive root.
func JoinPath(sep string, dir string, name string) string {
	dir = strings.TrimSuffix(dir, sep)
	if dir == "" {
		return name
	}

	return dir + sep + name
}

// SplitPath splits an input path into archive directory and file name using separator sep.
// The directory is empty for root-level files.
func SplitPath(raw string, sep string) (string, string, error) {
	normalized := NormalizePath(raw)
	if normalized == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	dir, name := path.Split(normalized)
	dir = strings.TrimSuffix(dir, "/")

	return ToArchivePath(dir, sep), name, nil
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.TrimPrefix(path, "./")
	return path
}

// pathKey returns case-insensitive map key for archive path in any separator style.
func pathKey(raw string) string {
	return strings.ToLower(NormalizePath(raw))
}
