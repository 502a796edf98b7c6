// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/rayarc"
	"github.com/woozymasta/rayarc/cnt"
	"github.com/woozymasta/rayarc/ipk"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 20000
)

func BenchmarkOpenParseCNT(b *testing.B) {
	format := cnt.NewManager(cnt.Settings{})
	path := createBenchArchive(b, format, benchLargeIndexEntries, 96)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := rayarc.Open(format, path, rayarc.ReaderOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if len(r.Files()) == 0 {
			b.Fatal("empty listing")
		}
		_ = r.Close()
	}
}

func BenchmarkOpenParseIPK(b *testing.B) {
	format := ipk.NewManager(ipk.Settings{})
	path := createBenchArchive(b, format, benchLargeIndexEntries, 96)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := rayarc.Open(format, path, rayarc.ReaderOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if len(r.Files()) == 0 {
			b.Fatal("empty listing")
		}
		_ = r.Close()
	}
}

func BenchmarkExtract(b *testing.B) {
	benchmarkExtractWithSanitize(b, false)
}

func BenchmarkExtractSanitize(b *testing.B) {
	benchmarkExtractWithSanitize(b, true)
}

func benchmarkExtractWithSanitize(b *testing.B, sanitizeNames bool) {
	format := ipk.NewManager(ipk.Settings{Policy: ipk.Always{}})
	path := createBenchArchive(b, format, benchDefaultEntries, 4096)
	dir := b.TempDir()
	opts := rayarc.ExtractOptions{
		MaxWorkers: 4,
		RawNames:   !sanitizeNames,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := rayarc.Open(format, path, rayarc.ReaderOptions{})
		if err != nil {
			b.Fatal(err)
		}
		out := filepath.Join(dir, "ext", fmt.Sprintf("run%d", i))
		err = r.Extract(context.Background(), out, opts)
		_ = r.Close()
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCreateCNT(b *testing.B) {
	benchmarkCreate(b, cnt.NewManager(cnt.Settings{}))
}

func BenchmarkCreateIPKCompressed(b *testing.B) {
	benchmarkCreate(b, ipk.NewManager(ipk.Settings{Policy: ipk.Always{}}))
}

func benchmarkCreate[A any, E rayarc.Entry](b *testing.B, format rayarc.Format[A, E]) {
	inputs := benchInputs(20, bytes.Repeat([]byte("x"), 2000))
	dir := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := filepath.Join(dir, fmt.Sprintf("out%d.%s", i, format.Name()))
		if _, err := rayarc.CreateFile(context.Background(), format, out, inputs, rayarc.CreateOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEditReplace(b *testing.B) {
	format := cnt.NewManager(cnt.Settings{})
	template := createBenchArchive(b, format, benchDefaultEntries, 96)
	dir := b.TempDir()
	replacePayload := bytes.Repeat([]byte("replace"), 2048)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := filepath.Join(dir, fmt.Sprintf("edit-replace-%d.cnt", i))
		if err := copyBenchFile(template, out); err != nil {
			b.Fatal(err)
		}

		editor, err := rayarc.OpenEditor(format, out, rayarc.EditOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if err := editor.Replace(rayarc.Input{Path: benchPath(0), Open: benchOpenBytes(replacePayload)}); err != nil {
			b.Fatal(err)
		}
		if _, err := editor.Commit(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func createBenchArchive[A any, E rayarc.Entry](b *testing.B, format rayarc.Format[A, E], numEntries int, size int) string {
	b.Helper()

	out := filepath.Join(b.TempDir(), "bench."+format.Name())
	inputs := benchInputs(numEntries, bytes.Repeat([]byte("x"), size))
	if _, err := rayarc.CreateFile(context.Background(), format, out, inputs, rayarc.CreateOptions{}); err != nil {
		b.Fatal(err)
	}

	return out
}

func benchInputs(n int, data []byte) []rayarc.Input {
	open := benchOpenBytes(data)
	inputs := make([]rayarc.Input, n)
	for i := range inputs {
		inputs[i] = rayarc.Input{Path: benchPath(i), Open: open}
	}

	return inputs
}

// benchPath returns deterministic paths spread over nested directories.
func benchPath(i int) string {
	exts := [...]string{"sna", "gpt", "ptx", "rtb", "rtp", "apm", "isc", "tga", "png", "ckd"}
	ext := exts[i%len(exts)]

	return fmt.Sprintf("grp_%03d/pack_%03d/entry_%05d_%08x.%s", i%173, (i/173)%211, i, uint32(i)*2654435761, ext)
}

// benchOpenBytes returns a reusable opener that creates a fresh reader for each call.
func benchOpenBytes(data []byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// copyBenchFile copies fixture file to destination path.
func copyBenchFile(src string, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0o600)
}
