// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/woozymasta/rayarc"
	"github.com/woozymasta/rayarc/cnt"
	"github.com/woozymasta/rayarc/ipk"
)

func bytesInput(path string, data []byte) rayarc.Input {
	return rayarc.Input{
		Path: path,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestEditorCommit(t *testing.T) {
	t.Parallel()

	t.Run("cnt", func(t *testing.T) {
		t.Parallel()
		checkEditorCommit(t, cnt.NewManager(cnt.Settings{}))
	})
	t.Run("ipk", func(t *testing.T) {
		t.Parallel()
		checkEditorCommit(t, ipk.NewManager(ipk.Settings{}))
	})
}

func checkEditorCommit[A any, E rayarc.Entry](t *testing.T, format rayarc.Format[A, E]) {
	t.Helper()

	path := createArchive(t, format, sampleFiles)

	ed, err := rayarc.OpenEditor(format, path, rayarc.EditOptions{})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if err := ed.Add(bytesInput("World/Menu/menu.bin", []byte("menu"))); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ed.Replace(bytesInput(`sound\intro.apm`, []byte("new intro"))); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := ed.Delete("root.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	res, err := ed.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Added != 1 || res.Replaced != 1 || res.Deleted != 1 || res.Files != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("backup must be removed with BackupKeep=0: %v", err)
	}

	r := openArchive(t, format, path, rayarc.ReaderOptions{})
	want := map[string]string{
		"Sound/intro.apm":       "new intro",
		"World/Levels/brig.sna": "brig level",
		"World/Menu/menu.bin":   "menu",
	}
	for p, content := range want {
		got, err := r.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", p, err)
		}
		if string(got) != content {
			t.Fatalf("ReadFile(%s)=%q, want %q", p, got, content)
		}
	}

	if _, err := r.ReadFile("root.txt"); !errors.Is(err, rayarc.ErrEntryNotFound) {
		t.Fatalf("deleted file err=%v, want ErrEntryNotFound", err)
	}
	if len(r.Files()) != 4 {
		t.Fatalf("len(Files())=%d, want 4", len(r.Files()))
	}
}

func TestEditorDeleteDir(t *testing.T) {
	t.Parallel()

	format := cnt.NewManager(cnt.Settings{})
	path := createArchive(t, format, sampleFiles)

	ed, err := rayarc.OpenEditor(format, path, rayarc.EditOptions{BackupKeep: 1})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if err := ed.DeleteDir("world"); err != nil {
		t.Fatalf("DeleteDir: %v", err)
	}

	res, err := ed.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Deleted != 2 || res.Files != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("backup must be kept with BackupKeep=1: %v", err)
	}

	r := openArchive(t, format, path, rayarc.ReaderOptions{})
	want := []string{"root.txt", `Sound\intro.apm`}
	if got := filePaths(r.Files()); !equalStrings(got, want) {
		t.Fatalf("Files()=%v, want %v", got, want)
	}
}

func TestEditorRollbackOnFailure(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		stage   func(ed *rayarc.Editor[*cnt.Archive, *cnt.FileEntry]) error
		wantErr error
	}{
		{
			name: "add existing",
			stage: func(ed *rayarc.Editor[*cnt.Archive, *cnt.FileEntry]) error {
				return ed.Add(bytesInput("ROOT.txt", []byte("dup")))
			},
			wantErr: rayarc.ErrDuplicateEntryPath,
		},
		{
			name: "replace missing",
			stage: func(ed *rayarc.Editor[*cnt.Archive, *cnt.FileEntry]) error {
				return ed.Replace(bytesInput("missing.txt", []byte("x")))
			},
			wantErr: rayarc.ErrEntryNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			format := cnt.NewManager(cnt.Settings{})
			path := createArchive(t, format, sampleFiles)
			before, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			ed, err := rayarc.OpenEditor(format, path, rayarc.EditOptions{})
			if err != nil {
				t.Fatalf("OpenEditor: %v", err)
			}
			if err := tc.stage(ed); err != nil {
				t.Fatalf("stage: %v", err)
			}

			if _, err := ed.Commit(context.Background()); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Commit err=%v, want %v", err, tc.wantErr)
			}

			after, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("archive missing after rollback: %v", err)
			}
			if !bytes.Equal(before, after) {
				t.Fatal("archive changed after failed commit")
			}
			if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
				t.Fatalf("backup left after rollback: %v", err)
			}
		})
	}
}

func TestEditorInvalidInputs(t *testing.T) {
	t.Parallel()

	format := cnt.NewManager(cnt.Settings{})
	if _, err := rayarc.OpenEditor(format, "  ", rayarc.EditOptions{}); !errors.Is(err, rayarc.ErrInvalidEntryPath) {
		t.Fatalf("OpenEditor empty path err=%v, want ErrInvalidEntryPath", err)
	}

	ed, err := rayarc.OpenEditor(format, "x.cnt", rayarc.EditOptions{})
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if err := ed.Add(rayarc.Input{Path: "a.txt"}); !errors.Is(err, rayarc.ErrMissingSource) {
		t.Fatalf("Add without source err=%v, want ErrMissingSource", err)
	}
	if err := ed.Delete("/"); !errors.Is(err, rayarc.ErrInvalidEntryPath) {
		t.Fatalf("Delete root err=%v, want ErrInvalidEntryPath", err)
	}
}

func TestEditorBackupRotation(t *testing.T) {
	t.Parallel()

	format := cnt.NewManager(cnt.Settings{})
	path := createArchive(t, format, sampleFiles)

	for i := 0; i < 3; i++ {
		ed, err := rayarc.OpenEditor(format, path, rayarc.EditOptions{BackupKeep: 2})
		if err != nil {
			t.Fatalf("OpenEditor: %v", err)
		}
		if err := ed.Replace(bytesInput("root.txt", []byte{byte('a' + i)})); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if _, err := ed.Commit(context.Background()); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	for _, p := range []string{path + ".bak", path + ".bak.1"} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected backup %s: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".bak.2"); !os.IsNotExist(err) {
		t.Fatalf("unexpected third backup generation: %v", err)
	}
}
