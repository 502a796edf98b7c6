// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/rayarc"
	"github.com/woozymasta/rayarc/cnt"
	"github.com/woozymasta/rayarc/ipk"
)

// errUnknownFormat means the archive format could not be resolved.
var errUnknownFormat = errors.New("unknown archive format")

// archiveOps runs generic rayarc flows for one concrete format.
type archiveOps interface {
	Name() string
	List(path string, opts rayarc.ReaderOptions) ([]rayarc.FileInfo, error)
	Extract(ctx context.Context, path string, dst string, ropts rayarc.ReaderOptions, eopts rayarc.ExtractOptions) error
	Create(ctx context.Context, out string, inputs []rayarc.Input, opts rayarc.CreateOptions) (*rayarc.WriteResult, error)
	Edit(ctx context.Context, path string, plan editPlan, opts rayarc.EditOptions) (*rayarc.WriteResult, error)
	Repack(ctx context.Context, src string, dst string, opts rayarc.ReaderOptions) (*rayarc.WriteResult, error)
	Digests(ctx context.Context, path string, opts rayarc.ReaderOptions) ([]rayarc.FileDigest, error)
}

// formatOps adapts a rayarc.Format to archiveOps.
type formatOps[A any, E rayarc.Entry] struct {
	format rayarc.Format[A, E]
}

func (o formatOps[A, E]) Name() string {
	return o.format.Name()
}

func (o formatOps[A, E]) List(path string, opts rayarc.ReaderOptions) ([]rayarc.FileInfo, error) {
	return rayarc.ListFiles(o.format, path, opts)
}

func (o formatOps[A, E]) Extract(ctx context.Context, path string, dst string, ropts rayarc.ReaderOptions, eopts rayarc.ExtractOptions) error {
	r, err := rayarc.Open(o.format, path, ropts)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	return r.Extract(ctx, dst, eopts)
}

func (o formatOps[A, E]) Create(ctx context.Context, out string, inputs []rayarc.Input, opts rayarc.CreateOptions) (*rayarc.WriteResult, error) {
	return rayarc.CreateFile(ctx, o.format, out, inputs, opts)
}

func (o formatOps[A, E]) Edit(ctx context.Context, path string, plan editPlan, opts rayarc.EditOptions) (*rayarc.WriteResult, error) {
	ed, err := rayarc.OpenEditor(o.format, path, opts)
	if err != nil {
		return nil, err
	}

	if err := stagePlan(ed, plan); err != nil {
		return nil, err
	}

	return ed.Commit(ctx)
}

func (o formatOps[A, E]) Repack(ctx context.Context, src string, dst string, opts rayarc.ReaderOptions) (*rayarc.WriteResult, error) {
	return rayarc.Repack(ctx, o.format, src, dst, opts)
}

func (o formatOps[A, E]) Digests(ctx context.Context, path string, opts rayarc.ReaderOptions) ([]rayarc.FileDigest, error) {
	r, err := rayarc.Open(o.format, path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Digests(ctx)
}

// ipkConfig holds bundle creation and compression flags.
type ipkConfig struct {
	compress        string
	rules           []string
	version         uint32
	platform        uint32
	engineVersion   uint32
	compressMinSize uint32
}

// policy builds the compress policy selected by flags.
func (c ipkConfig) policy() (ipk.CompressPolicy, error) {
	switch strings.ToLower(c.compress) {
	case "", "match":
		return ipk.MatchOriginal{}, nil
	case "always":
		return ipk.Always{}, nil
	case "never":
		return ipk.Never{}, nil
	case "rules":
		return ipk.NewRulePolicy(rayarc.IncludeRules(c.rules...), c.compressMinSize)
	default:
		return nil, fmt.Errorf("unknown compress mode %q (match, always, never, rules)", c.compress)
	}
}

// resolveFormat returns archive operations for name, or for the extension of path when name is empty.
func (a *app) resolveFormat(path string, cfg ipkConfig) (archiveOps, error) {
	name := strings.ToLower(strings.TrimSpace(a.format))
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch name {
	case "cnt":
		return formatOps[*cnt.Archive, *cnt.FileEntry]{
			format: cnt.NewManager(cnt.Settings{Logger: a.logger}),
		}, nil
	case "ipk":
		policy, err := cfg.policy()
		if err != nil {
			return nil, err
		}

		return formatOps[*ipk.Archive, *ipk.FileEntry]{
			format: ipk.NewManager(ipk.Settings{
				Policy:        policy,
				Logger:        a.logger,
				Version:       cfg.version,
				Platform:      cfg.platform,
				EngineVersion: cfg.engineVersion,
			}),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q (use --format cnt or --format ipk)", errUnknownFormat, path)
	}
}
