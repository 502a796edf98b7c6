// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	_ "crypto/sha256" // canonical digest algorithm
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// FileDigest is a content digest of one decoded file.
type FileDigest struct {
	// Path is file path using archive separator or slash for inputs.
	Path string `json:"path" yaml:"path"`
	// Digest is canonical (sha256) digest of decoded content.
	Digest digest.Digest `json:"digest" yaml:"digest"`
	// Size is decoded size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// DigestMismatch describes one path whose content differs between two digest sets.
// A missing side has an empty digest.
type DigestMismatch struct {
	Path string        `json:"path" yaml:"path"`
	Want digest.Digest `json:"want,omitempty" yaml:"want,omitempty"`
	Got  digest.Digest `json:"got,omitempty" yaml:"got,omitempty"`
}

// Digests decodes every listed file and returns its canonical digest in listing order.
func (r *Reader[A, E]) Digests(ctx context.Context) ([]FileDigest, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]FileDigest, len(r.listed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range r.listed {
		ref := &r.listed[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rc := r.openListed(ref)
			defer func() { _ = rc.Close() }()

			d, n, err := digestReader(rc)
			if err != nil {
				return fmt.Errorf("digest %s: %w", ref.info.Path, err)
			}

			out[i] = FileDigest{Path: ref.info.Path, Digest: d, Size: n}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// FilterDigests applies the listing filters of opts to digests, so a digest set built
// outside a Reader compares against a filtered archive listing.
func FilterDigests(digests []FileDigest, opts ReaderOptions) []FileDigest {
	files := make([]listedFile[digestEntry], len(digests))
	for i, fd := range digests {
		files[i] = listedFile[digestEntry]{
			entry: digestEntry{index: i},
			info:  FileInfo{Path: fd.Path, Size: fd.Size, StoredSize: fd.Size},
		}
	}

	kept := filterListedFiles(files, opts)
	out := make([]FileDigest, len(kept))
	for i, f := range kept {
		out[i] = digests[f.entry.index]
	}

	return out
}

// digestEntry points back to a digest while it passes through listing filters.
type digestEntry struct {
	index int
}

func (digestEntry) FileName() string   { return "" }
func (digestEntry) DecodedSize() int64 { return 0 }
func (digestEntry) StoredSize() int64  { return 0 }

// InputDigests returns canonical digests of input sources in given order.
func InputDigests(ctx context.Context, inputs []Input) ([]FileDigest, error) {
	out := make([]FileDigest, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.Open == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, in.Path)
		}

		rc, err := in.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", in.Path, err)
		}

		d, n, err := digestReader(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", in.Path, err)
		}

		out = append(out, FileDigest{Path: in.Path, Digest: d, Size: n})
	}

	return out, nil
}

// CompareDigests matches want and got by case-insensitive path and returns
// mismatches sorted by path. Nil means both sets hold identical content.
func CompareDigests(want []FileDigest, got []FileDigest) []DigestMismatch {
	gotByKey := make(map[string]FileDigest, len(got))
	for _, fd := range got {
		gotByKey[pathKey(fd.Path)] = fd
	}

	var out []DigestMismatch
	for _, w := range want {
		key := pathKey(w.Path)
		g, ok := gotByKey[key]
		delete(gotByKey, key)

		switch {
		case !ok:
			out = append(out, DigestMismatch{Path: w.Path, Want: w.Digest})
		case g.Digest != w.Digest:
			out = append(out, DigestMismatch{Path: w.Path, Want: w.Digest, Got: g.Digest})
		}
	}

	for _, g := range gotByKey {
		out = append(out, DigestMismatch{Path: g.Path, Got: g.Digest})
	}

	sort.Slice(out, func(i, j int) bool { return pathKey(out[i].Path) < pathKey(out[j].Path) })
	return out
}

// digestReader hashes src with canonical algorithm and returns bytes read.
func digestReader(src io.Reader) (digest.Digest, int64, error) {
	digester := digest.Canonical.Digester()
	n, err := io.Copy(digester.Hash(), src)
	if err != nil {
		return "", n, err
	}

	return digester.Digest(), n, nil
}
