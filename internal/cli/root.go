// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

// Package cli implements the rayarc command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// app holds state shared by all commands of one invocation.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	format  string
	verbose bool
}

// Execute runs the command tree with args and returns a process exit code.
func Execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	return 0
}

// NewRootCommand builds the rayarc command tree writing to stdout and stderr.
func NewRootCommand(stdout io.Writer, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "rayarc",
		Short: "Tools for Rayman game archives",
		Long: `rayarc reads, extracts, creates, edits and repacks Rayman game archives.

Supported formats:
  cnt  OpenSpace containers (Rayman 2, Rayman 3, Tonic Trouble)
  ipk  UbiArt bundles (Rayman Origins, Rayman Legends)

The format is detected from the archive extension unless --format is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			a.initLogger()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging on stderr")
	root.PersistentFlags().StringVar(&a.format, "format", "", "archive format (cnt or ipk); detected from extension when empty")

	root.AddCommand(
		a.newListCommand(),
		a.newExtractCommand(),
		a.newCreateCommand(),
		a.newEditCommand(),
		a.newRepackCommand(),
		a.newVerifyCommand(),
		a.newSaveCommand(),
	)

	return root
}

// initLogger installs a text handler on stderr; --verbose enables debug level.
func (a *app) initLogger() {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}

	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}
