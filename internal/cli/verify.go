// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
)

// errDigestMismatch means compared contents differ.
var errDigestMismatch = errors.New("content mismatch")

func (a *app) newVerifyCommand() *cobra.Command {
	var ropts rayarc.ReaderOptions

	cmd := &cobra.Command{
		Use:   "verify <archive> <dir|archive>",
		Short: "Compare decoded archive content with a directory or another archive",
		Example: `  rayarc verify Textures.cnt textures
  rayarc verify bundle_pc.ipk bundle_repacked.ipk`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ropts.Logger = a.logger

			ops, err := a.resolveFormat(args[0], ipkConfig{})
			if err != nil {
				return err
			}
			want, err := ops.Digests(cmd.Context(), args[0], ropts)
			if err != nil {
				return err
			}

			got, err := a.otherDigests(cmd, args[1], ropts)
			if err != nil {
				return err
			}

			mismatches := rayarc.CompareDigests(want, got)
			for _, m := range mismatches {
				_, _ = fmt.Fprintf(a.stdout, "%s: want %s, got %s\n", m.Path, orMissing(m.Want.String()), orMissing(m.Got.String()))
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("%w: %d of %d files", errDigestMismatch, len(mismatches), len(want))
			}

			_, _ = fmt.Fprintf(a.stdout, "ok: %d files match\n", len(want))
			return nil
		},
	}

	addReaderFlags(cmd, &ropts)

	return cmd
}

// otherDigests digests a directory tree or a second archive.
func (a *app) otherDigests(cmd *cobra.Command, path string, ropts rayarc.ReaderOptions) ([]rayarc.FileDigest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		inputs, err := rayarc.InputsFromDir(path)
		if err != nil {
			return nil, err
		}

		digests, err := rayarc.InputDigests(cmd.Context(), inputs)
		if err != nil {
			return nil, err
		}

		return rayarc.FilterDigests(digests, ropts), nil
	}

	ops, err := a.resolveFormat(path, ipkConfig{})
	if err != nil {
		return nil, err
	}

	return ops.Digests(cmd.Context(), path, ropts)
}

func orMissing(s string) string {
	if s == "" {
		return "<missing>"
	}

	return s
}
