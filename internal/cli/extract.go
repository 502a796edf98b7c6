// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
)

// extractOptions holds extract command flags.
type extractOptions struct {
	output   string
	mode     string
	reader   rayarc.ReaderOptions
	workers  int
	rawNames bool
}

func (a *app) newExtractCommand() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <archive> [path...]",
		Short: "Extract decoded files from an archive",
		Long: `Extract decoded files from an archive into a directory.

Without paths every listed file is extracted. File names are sanitized for the
local filesystem unless --raw-names is set.`,
		Example: `  rayarc extract Textures.cnt -o textures
  rayarc extract bundle_pc.ipk world/maps/menu.isc -o out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args[0], args[1:], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "data", "output directory")
	f.StringVar(&opts.mode, "mode", string(rayarc.ExtractFileModeAuto), "output file mode: auto, truncate or create_only")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (0 means CPU count)")
	f.BoolVar(&opts.rawNames, "raw-names", false, "keep archive names without sanitization")
	addReaderFlags(cmd, &opts.reader)

	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, path string, paths []string, opts *extractOptions) error {
	ops, err := a.resolveFormat(path, ipkConfig{})
	if err != nil {
		return err
	}

	var count atomic.Int64
	opts.reader.Logger = a.logger
	eopts := rayarc.ExtractOptions{
		Logger:     a.logger,
		FileMode:   rayarc.ExtractFileMode(opts.mode),
		MaxWorkers: opts.workers,
		RawNames:   opts.rawNames,
		OnEntryDone: func(rayarc.FileInfo, int64, string) {
			count.Add(1)
		},
	}
	if len(paths) > 0 {
		eopts.Paths = paths
	}

	if err := ops.Extract(cmd.Context(), path, opts.output, opts.reader, eopts); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "extracted %d files to %s\n", count.Load(), opts.output)
	return nil
}
