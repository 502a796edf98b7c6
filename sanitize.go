// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// maxSanitizedSegmentLen limits one path segment to common filesystem-safe length.
	maxSanitizedSegmentLen = 240
	// maxCollisionSuffix bounds the "~N" search for one colliding path.
	maxCollisionSuffix = 1_000_000
	// unsafeNameRunes are replaced by "_" in every segment.
	unsafeNameRunes = `<>:"/\|?*`
)

// reservedDeviceNames contains case-insensitive reserved Windows device names.
// Numbered COM and LPT ports are matched by isReservedDeviceName.
var reservedDeviceNames = map[string]struct{}{
	"aux":     {},
	"clock$":  {},
	"con":     {},
	"conin$":  {},
	"conout$": {},
	"nul":     {},
	"prn":     {},
}

// SanitizePath rewrites one path to deterministic filesystem-safe slash-separated form.
func SanitizePath(pathValue string) (string, error) {
	normalized := NormalizePath(pathValue)
	if normalized == "" {
		return "", nil
	}

	sanitized := sanitizeRelativePath(normalized)
	if _, err := normalizeExtractEntryPath(sanitized); err != nil {
		return "", err
	}

	return sanitized, nil
}

// pathSanitizer hands out unique sanitized paths for one extraction pass.
// Uniqueness is case-insensitive; later collisions get "~N" suffixes.
type pathSanitizer struct {
	taken map[string]struct{}
	next  map[string]int
}

func newPathSanitizer(capacity int) *pathSanitizer {
	return &pathSanitizer{
		taken: make(map[string]struct{}, capacity),
		next:  make(map[string]int),
	}
}

// sanitize converts one archive path and claims it.
func (s *pathSanitizer) sanitize(raw string) (string, error) {
	rel, err := normalizeExtractEntryPath(raw)
	if err != nil {
		// Mangled names are cleaned segment by segment.
		rel = strings.ReplaceAll(raw, `\`, `/`)
	}

	unique, err := s.claim(sanitizeRelativePath(rel))
	if err != nil {
		return "", err
	}
	if _, err := normalizeExtractEntryPath(unique); err != nil {
		return "", err
	}

	return unique, nil
}

// claim reserves p, or the first free "~N" variant of it.
func (s *pathSanitizer) claim(p string) (string, error) {
	key := strings.ToLower(p)
	if _, ok := s.taken[key]; !ok {
		s.taken[key] = struct{}{}
		return p, nil
	}

	dir, name := path.Split(p)
	for n := max(s.next[key], 2); n < maxCollisionSuffix; n++ {
		candidate := dir + withNumericSuffix(name, n)
		candidateKey := strings.ToLower(candidate)
		if _, ok := s.taken[candidateKey]; ok {
			continue
		}

		s.taken[candidateKey] = struct{}{}
		s.next[key] = n + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}

// sanitizeFilePaths rewrites archive paths to filesystem-safe slash paths in input order.
func sanitizeFilePaths(paths []string) ([]string, error) {
	s := newPathSanitizer(len(paths))
	out := make([]string, len(paths))
	for i, raw := range paths {
		p, err := s.sanitize(raw)
		if err != nil {
			return nil, fmt.Errorf("sanitize path %s: %w", raw, err)
		}
		out[i] = p
	}

	return out, nil
}

// sanitizeRelativePath sanitizes every segment of a slash path.
// Traversal segments become "_"; an empty result is "_".
func sanitizeRelativePath(rel string) string {
	var segments []string
	for part := range strings.SplitSeq(rel, "/") {
		switch part = strings.TrimSpace(part); part {
		case "", ".":
			continue
		case "..":
			part = "_"
		}

		segments = append(segments, sanitizePathSegment(part))
	}
	if len(segments) == 0 {
		return "_"
	}

	return strings.Join(segments, "/")
}

// sanitizePathSegment makes one segment valid on Windows and POSIX filesystems.
func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	reserved := isReservedDeviceName(segment)

	out := strings.Map(func(r rune) rune {
		if isUnsafeNameRune(r) {
			return '_'
		}
		return r
	}, segment)

	out = strings.TrimRight(out, ". ")
	if out == "" {
		out = "_"
	}
	if reserved || isReservedDeviceName(out) {
		out = "_" + out
	}

	return shortenSegmentDeterministic(out, maxSanitizedSegmentLen)
}

// isUnsafeNameRune reports runes replaced in file names: controls, format runes,
// path punctuation and U+FFFD left by failed name decoding.
func isUnsafeNameRune(r rune) bool {
	return unicode.IsControl(r) ||
		unicode.Is(unicode.Cf, r) ||
		r == utf8.RuneError ||
		strings.ContainsRune(unsafeNameRunes, r)
}

// isReservedDeviceName reports whether the stem of name is a Windows device name.
func isReservedDeviceName(name string) bool {
	stem, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ".")
	stem = strings.TrimRight(stem, " :")

	if len(stem) == 4 && (strings.HasPrefix(stem, "com") || strings.HasPrefix(stem, "lpt")) {
		return stem[3] >= '1' && stem[3] <= '9'
	}

	_, ok := reservedDeviceNames[stem]
	return ok
}

// withNumericSuffix inserts "~N" before the extension within the segment length limit.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	suffix := "~" + strconv.Itoa(n)

	return shortenSegmentDeterministic(stem, max(maxSanitizedSegmentLen-len(ext)-len(suffix), 1)) + suffix + ext
}

// shortenSegmentDeterministic cuts value to maxLen keeping an fnv hash of the full value.
func shortenSegmentDeterministic(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	tag := fmt.Sprintf("~%08x", h.Sum32())

	return value[:maxLen-len(tag)] + tag
}
