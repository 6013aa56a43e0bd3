// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dacolabs/xmlgen/internal/archive"
	"github.com/dacolabs/xmlgen/internal/prompts"
	"github.com/dacolabs/xmlgen/internal/secrets"
)

type unpackOptions struct {
	secret string
	outDir string
}

func newUnpackCmd(secretSource secrets.Source) *cobra.Command {
	opts := &unpackOptions{}

	cmd := &cobra.Command{
		Use:   "unpack ARCHIVE",
		Short: "Open a sealed archive and write its document",
		Long: `Decrypt an archive written by "xmlgen package" and write the document it holds.
The password of secret NAME is read from ` + secrets.EnvPrefix + `NAME.`,
		Example: `  # Recover the document of a delivered archive
  xmlgen unpack acme_wco_daily_20260309.zip.enc --secret acme --out-dir restored`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(cmd, secretSource, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.secret, "secret", "", "Name of the secret holding the archive password")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", ".", "Directory for the extracted document")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func runUnpack(cmd *cobra.Command, secretSource secrets.Source, path string, opts *unpackOptions) error {
	password, err := secretSource.Secret(opts.secret)
	if err != nil {
		return err
	}
	name, content, err := archive.Unpack(path, password)
	if err != nil {
		return fmt.Errorf("failed to unpack %s: %w", path, err)
	}

	dst := filepath.Join(opts.outDir, filepath.Base(name))
	if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(dst, content, 0o600); err != nil {
		return err
	}

	prompts.PrintResult(cmd.OutOrStdout(), []prompts.ResultField{
		{Label: "Archive", Value: path},
		{Label: "Document", Value: dst},
	}, "")
	return nil
}
