// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woozymasta/rayarc/codec"
)

// saveOptions holds save command flags.
type saveOptions struct {
	codec string
	key   string
}

func (a *app) newSaveCommand() *cobra.Command {
	opts := &saveOptions{}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Decode or encode save data and standalone streams",
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.codec, "codec", "c", "lzss",
		fmt.Sprintf("stream codec: %s or xor", strings.Join(codec.Names(), ", ")))
	f.StringVar(&opts.key, "key", "", "hex xor key for --codec xor")

	cmd.AddCommand(
		a.newSaveTransformCommand("decode", "Decode a stored stream into plain bytes", opts, true),
		a.newSaveTransformCommand("encode", "Encode plain bytes into a stored stream", opts, false),
	)

	return cmd
}

func (a *app) newSaveTransformCommand(use string, short string, opts *saveOptions, decode bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <in> <out>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			enc, err := opts.encoder()
			if err != nil {
				return err
			}

			n, err := transformFile(enc, args[0], args[1], decode)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(a.stdout, "%sd %s: %d bytes\n", use, args[1], n)
			return nil
		},
	}
}

// encoder resolves the selected codec.
func (o *saveOptions) encoder() (codec.Encoder, error) {
	name := strings.ToLower(strings.TrimSpace(o.codec))
	if name != "xor" {
		return codec.Lookup(name)
	}

	key, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(o.key), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse xor key: %w", err)
	}
	if len(key) == 0 {
		return nil, codec.ErrEmptyKey
	}

	return codec.XOR{Key: key}, nil
}

// transformFile runs enc over in and writes out, removing out on failure.
func transformFile(enc codec.Encoder, in string, out string, decode bool) (int64, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(out)
	if err != nil {
		return 0, err
	}

	var n int64
	if decode {
		n, err = enc.Decode(dst, src)
	} else {
		n, err = enc.Encode(dst, src)
	}
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(out)
		return 0, err
	}

	return n, nil
}
