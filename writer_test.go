// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyPayloadBounded(t *testing.T) {
	t.Parallel()

	t.Run("exact limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abc"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 3 {
			t.Fatalf("written=%d, want 3", written)
		}
		if got := dst.String(); got != "abc" {
			t.Fatalf("dst=%q, want %q", got, "abc")
		}
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abcdef"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if !errors.Is(err, ErrSizeOverflow) {
			t.Fatalf("expected ErrSizeOverflow, got %v", err)
		}
		if written != 3 {
			t.Fatalf("written=%d, want 3", written)
		}
	})

	t.Run("short source", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		written, err := copyPayloadBounded(&dst, bytes.NewReader([]byte("ab")), 5, nil)
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 2 {
			t.Fatalf("written=%d, want 2", written)
		}
	})
}

func TestPayloadCursorAdvance(t *testing.T) {
	t.Parallel()

	c := NewPayloadCursor(12, MaxArchiveData)
	sizes := []int64{5, 0, 7}
	want := []uint32{12, 17, 17}
	for i, size := range sizes {
		got, err := c.Advance("f", size)
		if err != nil {
			t.Fatalf("Advance[%d]: %v", i, err)
		}
		if got != want[i] {
			t.Fatalf("Advance[%d]=%d, want %d", i, got, want[i])
		}
	}
	if c.Position() != 24 {
		t.Fatalf("Position()=%d, want 24", c.Position())
	}

	if _, err := c.Advance("neg", -1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("negative size err=%v, want ErrSizeOverflow", err)
	}

	limited := NewPayloadCursor(0, 10)
	if _, err := limited.Advance("a", 8); err != nil {
		t.Fatalf("Advance within limit: %v", err)
	}
	if _, err := limited.Advance("b", 3); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("Advance past limit err=%v, want ErrSizeOverflow", err)
	}
}

func TestCheckedUint32(t *testing.T) {
	t.Parallel()

	if v, err := CheckedUint32("x", 1<<32-1); err != nil || v != 1<<32-1 {
		t.Fatalf("CheckedUint32(max)=%d, %v", v, err)
	}
	if _, err := CheckedUint32("x", 1<<32); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("CheckedUint32(1<<32) err=%v, want ErrSizeOverflow", err)
	}
	if _, err := CheckedUint32("x", -1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("CheckedUint32(-1) err=%v, want ErrSizeOverflow", err)
	}
}

func TestFileGeneratorRunsProducersInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	gen := NewFileGenerator[stubEntry](2)
	for _, name := range []string{"first", "second"} {
		gen.Add(stubEntry{name: name, stored: int64(len(name))}, func() (io.ReadCloser, error) {
			order = append(order, name)
			return io.NopCloser(bytes.NewReader([]byte(name))), nil
		})
	}

	var out bytes.Buffer
	n, err := gen.WriteAll(context.Background(), &out)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if n != int64(len("firstsecond")) || out.String() != "firstsecond" {
		t.Fatalf("WriteAll wrote %d %q", n, out.String())
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("producer order=%v", order)
	}

	if _, err := gen.WriteAll(context.Background(), &out); !errors.Is(err, ErrGeneratorConsumed) {
		t.Fatalf("second WriteAll err=%v, want ErrGeneratorConsumed", err)
	}
}

func TestFileGeneratorErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		entry   stubEntry
		produce Producer
		ctx     func() context.Context
		wantErr error
	}{
		{
			name:    "missing producer",
			entry:   stubEntry{name: "a", stored: 1},
			wantErr: ErrMissingSource,
		},
		{
			name:  "longer payload",
			entry: stubEntry{name: "a", stored: 1},
			produce: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader([]byte("ab"))), nil
			},
			wantErr: ErrSizeOverflow,
		},
		{
			name:  "canceled",
			entry: stubEntry{name: "a", stored: 1},
			produce: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader([]byte("a"))), nil
			},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr: context.Canceled,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			if tc.ctx != nil {
				ctx = tc.ctx()
			}

			gen := NewFileGenerator[stubEntry](1)
			gen.Add(tc.entry, tc.produce)
			_, err := gen.WriteAll(ctx, io.Discard)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("WriteAll err=%v, want %v", err, tc.wantErr)
			}
		})
	}

	gen := NewFileGenerator[stubEntry](1)
	gen.Add(stubEntry{name: "short", stored: 4}, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("ab"))), nil
	})
	if _, err := gen.WriteAll(context.Background(), io.Discard); err == nil {
		t.Fatal("WriteAll short payload: expected error")
	}
}

func TestWritePayloadAndHeader(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "out.bin"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()

	gen := NewFileGenerator[stubEntry](1)
	gen.Add(stubEntry{name: "p", stored: 3}, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("xyz"))), nil
	})

	written, err := WritePayload(context.Background(), f, 4, gen)
	if err != nil {
		t.Fatalf("WritePayload: %v", err)
	}
	if written != 3 {
		t.Fatalf("written=%d, want 3", written)
	}

	if err := WriteHeader(f, func(w io.Writer) error {
		_, err := w.Write([]byte("HEAD"))
		return err
	}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	got, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "HEADxyz" {
		t.Fatalf("file=%q, want HEADxyz", got)
	}
}

func TestEncodeImportAndOpenStoredItem(t *testing.T) {
	t.Parallel()

	item := FileItem[stubEntry]{
		Name: "a.txt",
		Import: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("hello"))), nil
		},
	}

	rc, err := EncodeImport(item, func(dst io.Writer, src io.Reader, _ stubEntry) error {
		data, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		_, err = dst.Write(bytes.ToUpper(data))
		return err
	})
	if err != nil {
		t.Fatalf("EncodeImport: %v", err)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "HELLO" {
		t.Fatalf("encoded=%q, want HELLO", got)
	}

	if _, err := OpenStoredItem(item); !errors.Is(err, ErrMissingSource) {
		t.Fatalf("OpenStoredItem without Stored err=%v, want ErrMissingSource", err)
	}

	item.Import = nil
	if _, err := EncodeImport(item, nil); !errors.Is(err, ErrMissingSource) {
		t.Fatalf("EncodeImport without Import err=%v, want ErrMissingSource", err)
	}
}
