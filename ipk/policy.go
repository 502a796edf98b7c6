// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package ipk

import (
	"github.com/woozymasta/pathrules"
	"github.com/woozymasta/rayarc"
)

// CompressPolicy decides whether an entry is compressed on import.
// ShouldCompress is called after Size holds the new decoded size and before
// CompressedSize is reset, so it still reflects the previous payload.
type CompressPolicy interface {
	ShouldCompress(e *FileEntry) bool
}

// PolicyFunc adapts a function to CompressPolicy.
type PolicyFunc func(e *FileEntry) bool

// ShouldCompress implements CompressPolicy.
func (f PolicyFunc) ShouldCompress(e *FileEntry) bool {
	return f(e)
}

// MatchOriginal compresses entries that were compressed before import.
// New entries are stored raw.
type MatchOriginal struct{}

// ShouldCompress implements CompressPolicy.
func (MatchOriginal) ShouldCompress(e *FileEntry) bool {
	return e.IsCompressed()
}

// Always compresses every entry.
type Always struct{}

// ShouldCompress implements CompressPolicy.
func (Always) ShouldCompress(*FileEntry) bool {
	return true
}

// Never stores every entry raw.
type Never struct{}

// ShouldCompress implements CompressPolicy.
func (Never) ShouldCompress(*FileEntry) bool {
	return false
}

// RulePolicy compresses entries whose path matches rules and whose decoded size
// is at least MinSize.
type RulePolicy struct {
	matcher *rayarc.PathMatcher
	minSize uint32
}

// NewRulePolicy compiles case-insensitive rules into a RulePolicy.
func NewRulePolicy(rules []pathrules.Rule, minSize uint32) (*RulePolicy, error) {
	matcher, err := rayarc.NewPathMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		return nil, err
	}

	return &RulePolicy{matcher: matcher, minSize: minSize}, nil
}

// ShouldCompress implements CompressPolicy.
func (p *RulePolicy) ShouldCompress(e *FileEntry) bool {
	if p == nil || e.Size < p.minSize {
		return false
	}

	return p.matcher.Match(e.Path())
}
