// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
	"gopkg.in/yaml.v3"
)

// listOptions holds list command flags.
type listOptions struct {
	output string
	reader rayarc.ReaderOptions
}

func (a *app) newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List files of an archive",
		Example: `  rayarc list Textures.cnt
  rayarc list bundle_pc.ipk --prefix world/maps --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runList(args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	addReaderFlags(cmd, &opts.reader)

	return cmd
}

// addReaderFlags registers listing filter flags shared by read commands.
func addReaderFlags(cmd *cobra.Command, opts *rayarc.ReaderOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.EntryPathPrefix, "prefix", "", "limit to files under this archive directory")
	f.BoolVar(&opts.FilterASCIIOnly, "ascii-only", false, "skip files whose path has non-ASCII bytes")
	f.Int64Var(&opts.MinEntrySize, "min-size", 0, "skip files smaller than this decoded size")
}

func (a *app) runList(path string, opts *listOptions) error {
	ops, err := a.resolveFormat(path, ipkConfig{})
	if err != nil {
		return err
	}

	opts.reader.Logger = a.logger
	files, err := ops.List(path, opts.reader)
	if err != nil {
		return err
	}

	return writeFileList(a.stdout, files, opts.output)
}

// writeFileList renders files in the requested output format.
func writeFileList(w io.Writer, files []rayarc.FileInfo, output string) error {
	switch output {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(tw, "SIZE\tSTORED\t")
		for _, f := range files {
			_, _ = fmt.Fprintf(tw, "%d\t%d\t %s\n", f.Size, f.StoredSize, f.Path)
		}

		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(files); err != nil {
			return err
		}

		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", output)
	}
}
