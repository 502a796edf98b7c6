// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/rayarc"
	"gopkg.in/yaml.v3"
)

// runCLI executes the command tree and returns captured stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

// writeTree writes files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
}

func sampleTree() map[string]string {
	return map[string]string{
		"World/Levels/ship.sna":  strings.Repeat("rayman ", 300),
		"World/Levels/brig.sna":  "brig",
		"Sound/intro.apm":        "apm",
		"readme.txt":             "root file",
		"World/Maps/menu.isc":    strings.Repeat("<scene/>", 200),
		"World/Maps/bg/menu.png": "png",
	}
}

func TestCreateListExtractVerify(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"cnt", "ipk"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "src")
			writeTree(t, src, sampleTree())
			archive := filepath.Join(dir, "data."+ext)

			out, err := runCLI(t, "create", src, archive)
			require.NoError(t, err)
			assert.Contains(t, out, "6 files")

			out, err = runCLI(t, "list", archive, "--output", "json")
			require.NoError(t, err)
			var files []rayarc.FileInfo
			require.NoError(t, json.Unmarshal([]byte(out), &files))
			assert.Len(t, files, 6)
			assert.Equal(t, "readme.txt", files[0].Path)

			dst := filepath.Join(dir, "out")
			out, err = runCLI(t, "extract", archive, "-o", dst)
			require.NoError(t, err)
			assert.Contains(t, out, "extracted 6 files")

			got, err := os.ReadFile(filepath.Join(dst, "World", "Levels", "ship.sna"))
			require.NoError(t, err)
			assert.Equal(t, sampleTree()["World/Levels/ship.sna"], string(got))

			out, err = runCLI(t, "verify", archive, src)
			require.NoError(t, err)
			assert.Contains(t, out, "ok: 6 files match")
		})
	}
}

func TestListFiltersYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, sampleTree())
	archive := filepath.Join(dir, "bundle.ipk")

	_, err := runCLI(t, "create", src, archive, "--compress", "rules", "--compress-rule", "*.isc")
	require.NoError(t, err)

	out, err := runCLI(t, "list", archive, "--prefix", "world/maps", "--output", "yaml")
	require.NoError(t, err)

	var files []rayarc.FileInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &files))
	require.Len(t, files, 2)

	for _, f := range files {
		assert.True(t, strings.HasPrefix(f.Path, "World/Maps/"), f.Path)
		if f.Name == "menu.isc" {
			assert.Less(t, f.StoredSize, f.Size, "rule-matched file should be compressed")
		} else {
			assert.Equal(t, f.Size, f.StoredSize)
		}
	}

	out, err = runCLI(t, "list", archive, "--min-size", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "ship.sna")
	assert.NotContains(t, out, "brig.sna")
}

func TestEditAndVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, sampleTree())
	archive := filepath.Join(dir, "data.cnt")

	_, err := runCLI(t, "create", src, archive)
	require.NoError(t, err)

	patch := filepath.Join(dir, "patch.sna")
	require.NoError(t, os.WriteFile(patch, []byte("patched brig"), 0o600))
	extra := filepath.Join(dir, "extra.bin")
	require.NoError(t, os.WriteFile(extra, []byte("extra"), 0o600))

	out, err := runCLI(t, "edit", archive,
		"--replace", "World/Levels/brig.sna="+patch,
		"--add", "Extra/extra.bin="+extra,
		"--delete-dir", "World/Maps",
		"--backup-keep", "0",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "added 1, replaced 1, deleted 2")

	_, err = os.Stat(archive + ".bak")
	assert.True(t, os.IsNotExist(err), "backup should be removed")

	// Mirror the edit on disk and compare.
	require.NoError(t, os.WriteFile(filepath.Join(src, "World", "Levels", "brig.sna"), []byte("patched brig"), 0o600))
	require.NoError(t, os.RemoveAll(filepath.Join(src, "World", "Maps")))
	writeTree(t, src, map[string]string{"Extra/extra.bin": "extra"})

	out, err = runCLI(t, "verify", archive, src)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 5 files match")
}

func TestEditRequiresOperations(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "edit", filepath.Join(t.TempDir(), "data.cnt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to edit")
}

func TestRepackAndVerifyArchives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, sampleTree())
	archive := filepath.Join(dir, "bundle.ipk")
	repacked := filepath.Join(dir, "repacked.ipk")

	_, err := runCLI(t, "create", src, archive, "--compress", "always", "--ipk-version", "8")
	require.NoError(t, err)

	out, err := runCLI(t, "repack", archive, repacked)
	require.NoError(t, err)
	assert.Contains(t, out, "repacked")

	out, err = runCLI(t, "verify", archive, repacked)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 6 files match")

	_, err = runCLI(t, "repack", archive, archive)
	require.ErrorIs(t, err, rayarc.ErrInvalidEntryPath)
}

func TestVerifyReportsMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, sampleTree())
	archive := filepath.Join(dir, "data.cnt")

	_, err := runCLI(t, "create", src, archive)
	require.NoError(t, err)

	writeTree(t, src, map[string]string{"Sound/intro.apm": "changed"})

	out, err := runCLI(t, "verify", archive, src)
	require.ErrorIs(t, err, errDigestMismatch)
	assert.Contains(t, out, "intro.apm")
}

func TestVerifyAppliesFiltersToDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, map[string]string{
		"a/x.txt": "inside prefix",
		"b/y.txt": "outside prefix",
	})
	archive := filepath.Join(dir, "t.ipk")

	_, err := runCLI(t, "create", src, archive)
	require.NoError(t, err)

	out, err := runCLI(t, "verify", "--prefix", "a", archive, src)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 1 files match")
	assert.NotContains(t, out, "b/y.txt")

	out, err = runCLI(t, "verify", "--min-size", "14", archive, src)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 1 files match")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{name: "lzss", args: []string{"--codec", "lzss"}},
		{name: "zlib", args: []string{"--codec", "zlib"}},
		{name: "xor", args: []string{"--codec", "xor", "--key", "0x5a3c"}},
	}

	plain := bytes.Repeat([]byte("lums and cages "), 64)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			in := filepath.Join(dir, "plain.bin")
			enc := filepath.Join(dir, "save.sav")
			dec := filepath.Join(dir, "decoded.bin")
			require.NoError(t, os.WriteFile(in, plain, 0o600))

			_, err := runCLI(t, append([]string{"save", "encode", in, enc}, tc.args...)...)
			require.NoError(t, err)
			_, err = runCLI(t, append([]string{"save", "decode", enc, dec}, tc.args...)...)
			require.NoError(t, err)

			got, err := os.ReadFile(dec)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestSaveRejectsBadCodec(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o600))

	_, err := runCLI(t, "save", "decode", in, filepath.Join(dir, "out"), "--codec", "rle")
	require.Error(t, err)

	_, err = runCLI(t, "save", "decode", in, filepath.Join(dir, "out"), "--codec", "xor")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "list", "archive.zip")
	require.ErrorIs(t, err, errUnknownFormat)

	a := &app{format: "IPK"}
	ops, err := a.resolveFormat("archive.bin", ipkConfig{})
	require.NoError(t, err)
	assert.Equal(t, "ipk", ops.Name())

	_, err = a.resolveFormat("archive.bin", ipkConfig{compress: "sometimes"})
	require.Error(t, err)
}

func TestParseFileInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(local, []byte("a"), 0o600))

	inputs, err := parseFileInputs([]string{"Dir/a.bin=" + local})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Dir/a.bin", inputs[0].Path)

	for _, bad := range []string{"no-mapping", "=" + local, "Dir/a.bin=", "Dir/b.bin=" + dir} {
		_, err := parseFileInputs([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestExecuteExitCode(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"list", "missing.cnt"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error:")
}
