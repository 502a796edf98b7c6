// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package ipk

import (
	"github.com/woozymasta/rayarc/codec"
)

// Compression identifies a payload compression variant.
type Compression string

// Payload compression variants.
const (
	// CompressionZlib is used by legacy bundles and small entries.
	CompressionZlib Compression = "zlib"
	// CompressionLZMA is used by extended bundles for large entries.
	CompressionLZMA Compression = "lzma"
)

// LZMAMinSize is the decoded size from which extended bundles switch to LZMA.
const LZMAMinSize = 1 << 20

// SelectCodec returns compression variant for an entry of decoded size in a bundle of version.
func SelectCodec(version uint32, size int64) Compression {
	if version < VersionExtendedHeader || size < LZMAMinSize {
		return CompressionZlib
	}

	return CompressionLZMA
}

// Encoder returns stream encoder implementing c.
func (c Compression) Encoder() codec.Encoder {
	if c == CompressionLZMA {
		return codec.LZMA{}
	}

	return codec.Zlib{}
}
