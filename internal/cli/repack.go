// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
)

func (a *app) newRepackCommand() *cobra.Command {
	var ropts rayarc.ReaderOptions

	cmd := &cobra.Command{
		Use:   "repack <src> <dst>",
		Short: "Rewrite an archive with fresh offsets",
		Long: `Rewrite an archive into a new file keeping every stored payload byte.

Offsets are recomputed; cnt checksums are cleared and multi-offset ipk entries
collapse to one slot.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.resolveFormat(args[0], ipkConfig{})
			if err != nil {
				return err
			}

			ropts.Logger = a.logger
			res, err := ops.Repack(cmd.Context(), args[0], args[1], ropts)
			if err != nil {
				return err
			}

			printWriteResult(a.stdout, "repacked", args[1], res)
			return nil
		},
	}

	return cmd
}
