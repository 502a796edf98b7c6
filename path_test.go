// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"errors"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "World/Levels/brig_10", want: "World/Levels/brig_10"},
		{name: "windows", in: `.\World\Levels\brig_10\`, want: "World/Levels/brig_10"},
		{name: "dot segments", in: "./a/../b//c.txt", want: "b/c.txt"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizePath(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizePath(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		sep  string
		dir  string
		name string
		want string
	}{
		{sep: SeparatorBackslash, dir: "", name: "root.sna", want: "root.sna"},
		{sep: SeparatorBackslash, dir: `World\Levels`, name: "a.sna", want: `World\Levels\a.sna`},
		{sep: SeparatorBackslash, dir: `World\`, name: "a.sna", want: `World\a.sna`},
		{sep: SeparatorSlash, dir: "world/maps", name: "menu.isc", want: "world/maps/menu.isc"},
	}

	for _, tc := range testCases {
		got := JoinPath(tc.sep, tc.dir, tc.name)
		if got != tc.want {
			t.Fatalf("JoinPath(%q, %q, %q)=%q, want %q", tc.sep, tc.dir, tc.name, got, tc.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			raw      string
			sep      string
			wantDir  string
			wantName string
		}{
			{raw: `.\World/Levels\brig.sna`, sep: SeparatorBackslash, wantDir: `World\Levels`, wantName: "brig.sna"},
			{raw: `world\maps\menu.isc`, sep: SeparatorSlash, wantDir: "world/maps", wantName: "menu.isc"},
			{raw: "top.bin", sep: SeparatorBackslash, wantDir: "", wantName: "top.bin"},
		}

		for _, tc := range testCases {
			dir, name, err := SplitPath(tc.raw, tc.sep)
			if err != nil {
				t.Fatalf("SplitPath(%q): %v", tc.raw, err)
			}
			if dir != tc.wantDir || name != tc.wantName {
				t.Fatalf("SplitPath(%q)=(%q, %q), want (%q, %q)", tc.raw, dir, name, tc.wantDir, tc.wantName)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, _, err := SplitPath("/", SeparatorBackslash)
		if !errors.Is(err, ErrInvalidEntryPath) {
			t.Fatalf("expected ErrInvalidEntryPath, got %v", err)
		}
	})
}

func TestPathKey(t *testing.T) {
	t.Parallel()

	if pathKey(`World\Levels\A.SNA`) != pathKey("world/levels/a.sna") {
		t.Fatal("pathKey must ignore case and separator style")
	}
}
