// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// PathMatcher holds compiled gitignore-style path rules.
type PathMatcher struct {
	matcher *pathrules.Matcher
}

// NewPathMatcher compiles path rules. Empty patterns are dropped; an empty rule set
// yields a nil matcher that matches nothing.
func NewPathMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*PathMatcher, error) {
	rules = normalizeMatcherRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidCompressPattern, err)
	}

	return &PathMatcher{matcher: matcher}, nil
}

// IncludeRules builds include rules from raw patterns.
func IncludeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	return rules
}

// normalizeMatcherRules normalizes rule patterns and drops empty patterns.
func normalizeMatcherRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether path is included by the rules. Both separators are accepted.
func (m *PathMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}
