// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	"fmt"
	"io"
)

// Producer yields stored bytes for one entry. WriteAll invokes it exactly once,
// at the moment the entry payload position is known.
type Producer func() (io.ReadCloser, error)

// FileGenerator holds an ordered list of deferred entry payloads.
// It is single-use and not safe for concurrent use.
type FileGenerator[E Entry] struct {
	items    []generatorItem[E]
	consumed bool
}

// generatorItem stores one registered entry and its deferred producer.
type generatorItem[E Entry] struct {
	entry   E
	produce Producer
}

// NewFileGenerator returns an empty generator with room for capacity entries.
func NewFileGenerator[E Entry](capacity int) *FileGenerator[E] {
	if capacity < 0 {
		capacity = 0
	}

	return &FileGenerator[E]{items: make([]generatorItem[E], 0, capacity)}
}

// Add registers producer for entry. The producer is not invoked here.
func (g *FileGenerator[E]) Add(entry E, produce Producer) {
	g.items = append(g.items, generatorItem[E]{entry: entry, produce: produce})
}

// Len returns number of registered entries.
func (g *FileGenerator[E]) Len() int {
	return len(g.items)
}

// WriteAll materializes every producer in registration order and copies its bytes to w.
// Each payload must match the entry stored size as stamped by its producer.
func (g *FileGenerator[E]) WriteAll(ctx context.Context, w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrNilWriter
	}
	if g.consumed {
		return 0, ErrGeneratorConsumed
	}
	g.consumed = true

	if ctx == nil {
		ctx = context.Background()
	}

	copyBuf, releaseCopyBuffer := acquireCopyBuffer()
	defer releaseCopyBuffer()

	var total int64
	for i := range g.items {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		item := &g.items[i]
		if item.produce == nil {
			return total, fmt.Errorf("%w: %s", ErrMissingSource, item.entry.FileName())
		}

		produce := item.produce
		item.produce = nil

		rc, err := produce()
		if err != nil {
			return total, fmt.Errorf("produce %s: %w", item.entry.FileName(), err)
		}

		written, copyErr := copyPayloadBounded(w, rc, item.entry.StoredSize(), copyBuf)
		closeErr := rc.Close()
		total += written
		if copyErr != nil {
			return total, fmt.Errorf("write payload %s: %w", item.entry.FileName(), copyErr)
		}
		if closeErr != nil {
			return total, fmt.Errorf("close payload %s: %w", item.entry.FileName(), closeErr)
		}
		if written != item.entry.StoredSize() {
			return total, fmt.Errorf(
				"write payload %s: short read (%d/%d)",
				item.entry.FileName(), written, item.entry.StoredSize(),
			)
		}
	}

	return total, nil
}

// PayloadCursor tracks the running payload pointer of one write pass.
type PayloadCursor struct {
	next int64
	end  int64
}

// NewPayloadCursor returns a cursor starting at start whose offsets must stay below limit.
func NewPayloadCursor(start int64, limit int64) *PayloadCursor {
	return &PayloadCursor{next: start, end: limit}
}

// Advance returns the offset for a payload of size and moves the pointer past it.
func (c *PayloadCursor) Advance(name string, size int64) (uint32, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: entry %s has negative size", ErrSizeOverflow, name)
	}
	if c.next > c.end || size > c.end-c.next || c.next > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: entry %s would exceed 4 GiB", ErrSizeOverflow, name)
	}

	offset := uint32(c.next) //nolint:gosec // bounded by check above
	c.next += size

	return offset, nil
}

// Position returns the next payload offset.
func (c *PayloadCursor) Position() int64 {
	return c.next
}
