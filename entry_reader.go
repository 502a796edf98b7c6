// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"fmt"
	"io"
)

// OpenFile opens named file for reading. The returned stream yields decoded content.
func (r *Reader[A, E]) OpenFile(path string) (io.ReadCloser, error) {
	ref, err := r.lookup(path)
	if err != nil {
		return nil, err
	}

	return r.openListed(ref), nil
}

// OpenStoredFile opens named file raw stored bytes without decoding.
func (r *Reader[A, E]) OpenStoredFile(path string) (io.ReadCloser, error) {
	ref, err := r.lookup(path)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(r.format.OpenStored(r.content, ref.entry)), nil
}

// ReadFile reads full decoded content of the named file.
func (r *Reader[A, E]) ReadFile(path string) ([]byte, error) {
	rc, err := r.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// openListed starts streamed decode of one resolved file.
func (r *Reader[A, E]) openListed(ref *listedFile[E]) io.ReadCloser {
	pr, pw := io.Pipe()
	go r.streamDecodeEntry(ref, pw)

	return pr
}

// streamDecodeEntry decodes one entry stream into pipe writer.
func (r *Reader[A, E]) streamDecodeEntry(ref *listedFile[E], dst *io.PipeWriter) {
	src := r.format.OpenStored(r.content, ref.entry)
	if err := r.format.DecodeFile(dst, src, ref.entry); err != nil {
		_ = dst.CloseWithError(fmt.Errorf("decode entry %s: %w", ref.info.Path, err))
		return
	}

	_ = dst.Close()
}
