// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"errors"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestPathMatcherMatch(t *testing.T) {
	t.Parallel()

	matcher, err := NewPathMatcher(IncludeRules(
		"*.png",
		"sound/",
		"/world/**/*.isc",
	), pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "extension rule", path: `itf_cooked\pc\a.PNG`, want: true},
		{name: "dir-only rule", path: "cache/sound/a.wav", want: true},
		{name: "anchored root match", path: "world/jungle/level.isc", want: true},
		{name: "anchored root miss", path: "x/world/jungle/level.isc", want: false},
		{name: "no match", path: "enginedata/config.ilu", want: false},
		{name: "empty path", path: "  ", want: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := matcher.Match(tc.path)
			if got != tc.want {
				t.Fatalf("Match(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestPathMatcherIncludeExcludeRules(t *testing.T) {
	t.Parallel()

	matcher, err := NewPathMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "textures/**"},
		{Action: pathrules.ActionExclude, Pattern: "textures/tmp/**"},
		{Action: pathrules.ActionInclude, Pattern: "textures/tmp/keep/**"},
	}, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !matcher.Match("textures/main.tga") {
		t.Fatal("textures/main.tga must be included by rules")
	}

	if matcher.Match(`textures\tmp\a.tga`) {
		t.Fatal("textures/tmp/a.tga must be excluded by rules")
	}

	if !matcher.Match("TEXTURES/TMP/keep/a.tga") {
		t.Fatal("TEXTURES/TMP/keep/a.tga must be re-included by rules")
	}
}

func TestPathMatcherInvalidRule(t *testing.T) {
	t.Parallel()

	_, err := NewPathMatcher([]pathrules.Rule{
		{
			Action:  pathrules.ActionUnknown,
			Pattern: "*.png",
		},
	}, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if !errors.Is(err, ErrInvalidCompressPattern) {
		t.Fatalf("expected ErrInvalidCompressPattern, got %v", err)
	}
}

func TestPathMatcherEmptyRules(t *testing.T) {
	t.Parallel()

	matcher, err := NewPathMatcher(IncludeRules("", "  "), pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	if matcher != nil {
		t.Fatal("matcher must be nil for empty rule set")
	}
	if matcher.Match("a.png") {
		t.Fatal("nil matcher must match nothing")
	}
}
