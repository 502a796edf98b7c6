// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

// Package codec provides stream encoders used by archive entries and save data:
// XOR obfuscation, zlib, LZMA and length-prefixed LZSS.
package codec

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Sentinel errors for codec operations.
var (
	// ErrDecompressFailed means compressed input is corrupt or truncated.
	ErrDecompressFailed = errors.New("decompression failed")
	// ErrUnsupportedCodec means no encoder is registered under requested name.
	ErrUnsupportedCodec = errors.New("unsupported codec")
	// ErrEmptyKey means XOR key has no bytes.
	ErrEmptyKey = errors.New("xor key is empty")
)

// Encoder transforms one stream between stored and logical form.
// Both methods return the number of bytes written to dst.
type Encoder interface {
	// Decode converts stored bytes from src into logical bytes in dst.
	Decode(dst io.Writer, src io.Reader) (int64, error)
	// Encode converts logical bytes from src into stored bytes in dst.
	Encode(dst io.Writer, src io.Reader) (int64, error)
}

var (
	registry   = make(map[string]func() Encoder)
	registryMu sync.RWMutex
)

// Register registers an encoder factory under name.
func Register(name string, factory func() Encoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup returns a new encoder registered under name.
func Lookup(name string) (Encoder, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}

	return factory(), nil
}

// Names returns registered encoder names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// countingWriter counts bytes passed to the wrapped writer.
type countingWriter struct {
	w io.Writer
	n int64
}

// Write implements io.Writer.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
