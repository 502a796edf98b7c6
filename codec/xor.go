// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package codec

import "io"

// XOR is a repeating multi-byte XOR transform. It is symmetric, so Decode and Encode
// are the same operation. Key position restarts at zero for every stream.
type XOR struct {
	Key []byte
}

// Decode implements Encoder.
func (x XOR) Decode(dst io.Writer, src io.Reader) (int64, error) {
	return x.apply(dst, src)
}

// Encode implements Encoder.
func (x XOR) Encode(dst io.Writer, src io.Reader) (int64, error) {
	return x.apply(dst, src)
}

// apply copies src to dst through the XOR key stream.
func (x XOR) apply(dst io.Writer, src io.Reader) (int64, error) {
	if len(x.Key) == 0 {
		return 0, ErrEmptyKey
	}

	return io.Copy(dst, NewXORReader(src, x.Key))
}

// IsZeroKey reports whether every key byte is zero, meaning XOR is a no-op.
func IsZeroKey(key []byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}

	return true
}

// XORBytes applies key to buf in place, starting at key position pos.
// It returns the key position following the last byte.
func XORBytes(buf []byte, key []byte, pos int) int {
	if len(key) == 0 {
		return pos
	}

	for i := range buf {
		buf[i] ^= key[pos]
		pos++
		if pos == len(key) {
			pos = 0
		}
	}

	return pos
}

// xorReader applies a repeating key to bytes read from r.
type xorReader struct {
	r   io.Reader
	key []byte
	pos int
}

// NewXORReader returns a reader yielding r bytes XORed with repeating key.
// A zero key returns r unchanged.
func NewXORReader(r io.Reader, key []byte) io.Reader {
	if len(key) == 0 || IsZeroKey(key) {
		return r
	}

	k := make([]byte, len(key))
	copy(k, key)

	return &xorReader{r: r, key: k}
}

// Read implements io.Reader.
func (x *xorReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	if n > 0 {
		x.pos = XORBytes(p[:n], x.key, x.pos)
	}

	return n, err
}
