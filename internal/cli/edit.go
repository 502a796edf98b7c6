// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc"
)

// editPlan holds staged edit flags in command line form.
type editPlan struct {
	add       []string
	replace   []string
	delete    []string
	deleteDir []string
}

// empty reports whether plan stages nothing.
func (p editPlan) empty() bool {
	return len(p.add) == 0 && len(p.replace) == 0 && len(p.delete) == 0 && len(p.deleteDir) == 0
}

// stagePlan stages every plan operation on ed.
func stagePlan[A any, E rayarc.Entry](ed *rayarc.Editor[A, E], p editPlan) error {
	added, err := parseFileInputs(p.add)
	if err != nil {
		return err
	}
	replaced, err := parseFileInputs(p.replace)
	if err != nil {
		return err
	}

	if err := ed.Add(added...); err != nil {
		return err
	}
	if err := ed.Replace(replaced...); err != nil {
		return err
	}
	if err := ed.Delete(p.delete...); err != nil {
		return err
	}

	return ed.DeleteDir(p.deleteDir...)
}

// parseFileInputs converts "archive/path=local/file" pairs into inputs.
func parseFileInputs(pairs []string) ([]rayarc.Input, error) {
	inputs := make([]rayarc.Input, 0, len(pairs))
	for _, pair := range pairs {
		archivePath, localPath, ok := strings.Cut(pair, "=")
		if !ok || archivePath == "" || localPath == "" {
			return nil, fmt.Errorf("invalid file mapping %q (want archive/path=local/file)", pair)
		}

		info, err := os.Stat(localPath)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: not a regular file", localPath)
		}

		inputs = append(inputs, rayarc.Input{
			Path:    archivePath,
			ModTime: info.ModTime(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(localPath)
			},
		})
	}

	return inputs, nil
}

// editOptions holds edit command flags.
type editOptions struct {
	plan       editPlan
	ipk        ipkConfig
	backupKeep int
}

func (a *app) newEditCommand() *cobra.Command {
	opts := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit <archive>",
		Short: "Add, replace or delete files in an archive",
		Long: `Apply staged changes to an archive in one rewrite.

The archive is moved to <archive>.bak, rewritten, and restored from the backup
if anything fails. Replaced files keep their entry records.`,
		Example: `  rayarc edit bundle_pc.ipk --replace world/maps/menu.isc=menu.isc
  rayarc edit Textures.cnt --delete-dir Old --add New/a.gf=a.gf --backup-keep 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.plan.empty() {
				return errors.New("nothing to edit (use --add, --replace, --delete or --delete-dir)")
			}

			ops, err := a.resolveFormat(args[0], opts.ipk)
			if err != nil {
				return err
			}

			res, err := ops.Edit(cmd.Context(), args[0], opts.plan, rayarc.EditOptions{
				Logger:     a.logger,
				BackupKeep: opts.backupKeep,
			})
			if err != nil {
				return err
			}

			printWriteResult(a.stdout, "edited", args[0], res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.plan.add, "add", nil, "add file as archive/path=local/file (repeatable)")
	f.StringArrayVar(&opts.plan.replace, "replace", nil, "replace file as archive/path=local/file (repeatable)")
	f.StringArrayVar(&opts.plan.delete, "delete", nil, "delete archive path (repeatable)")
	f.StringArrayVar(&opts.plan.deleteDir, "delete-dir", nil, "delete every file under archive directory (repeatable)")
	f.IntVar(&opts.backupKeep, "backup-keep", 1, "backup generations kept after commit (0 removes backup)")
	f.StringVar(&opts.ipk.compress, "compress", "match", "ipk compression: match, always, never or rules")
	f.StringArrayVar(&opts.ipk.rules, "compress-rule", nil, "ipk path pattern compressed in rules mode (repeatable)")
	f.Uint32Var(&opts.ipk.compressMinSize, "compress-min-size", 0, "ipk minimal decoded size compressed in rules mode")

	return cmd
}
