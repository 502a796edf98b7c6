// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
)

// createOptions holds create command flags.
type createOptions struct {
	ipk       ipkConfig
	keepOrder bool
}

func (a *app) newCreateCommand() *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create <dir> <archive>",
		Short: "Create an archive from a directory",
		Long: `Create an archive from every regular file under a directory.

Files are written in case-insensitive path order unless --keep-order is set.
Bundle flags only apply to ipk archives.`,
		Example: `  rayarc create textures Textures.cnt
  rayarc create bundle bundle_pc.ipk --compress rules --compress-rule '*.png' --compress-rule '*.isc'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.resolveFormat(args[1], opts.ipk)
			if err != nil {
				return err
			}

			inputs, err := rayarc.InputsFromDir(args[0])
			if err != nil {
				return err
			}

			res, err := ops.Create(cmd.Context(), args[1], inputs, rayarc.CreateOptions{
				Logger:    a.logger,
				KeepOrder: opts.keepOrder,
			})
			if err != nil {
				return err
			}

			printWriteResult(a.stdout, "created", args[1], res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.keepOrder, "keep-order", false, "keep directory walk order instead of sorting by path")
	addIPKFlags(cmd, &opts.ipk)

	return cmd
}

// addIPKFlags registers bundle settings flags.
func addIPKFlags(cmd *cobra.Command, cfg *ipkConfig) {
	f := cmd.Flags()
	f.StringVar(&cfg.compress, "compress", "match", "ipk compression: match, always, never or rules")
	f.StringArrayVar(&cfg.rules, "compress-rule", nil, "ipk path pattern compressed in rules mode (repeatable)")
	f.Uint32Var(&cfg.compressMinSize, "compress-min-size", 0, "ipk minimal decoded size compressed in rules mode")
	f.Uint32Var(&cfg.version, "ipk-version", 0, "ipk layout version of created bundles (0 means default)")
	f.Uint32Var(&cfg.platform, "platform", 0, "ipk platform identifier of created bundles")
	f.Uint32Var(&cfg.engineVersion, "engine-version", 0, "ipk engine version of created bundles")
}

// printWriteResult prints a one-line summary of a write pass.
func printWriteResult(w io.Writer, verb string, path string, res *rayarc.WriteResult) {
	_, _ = fmt.Fprintf(w, "%s %s: %d files, %d bytes", verb, path, res.Files, res.Size)
	if res.Added > 0 || res.Replaced > 0 || res.Deleted > 0 {
		_, _ = fmt.Fprintf(w, " (added %d, replaced %d, deleted %d)", res.Added, res.Replaced, res.Deleted)
	}
	_, _ = fmt.Fprintln(w)
}
