// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dacolabs/xmlgen/internal/archive"
	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/prompts"
	"github.com/dacolabs/xmlgen/internal/secrets"
	"github.com/dacolabs/xmlgen/internal/storage"
)

type packageOptions struct {
	input          string
	naming         string
	secret         string
	outDir         string
	uploadTo       string
	nonInteractive bool
}

func newPackageCmd(backends storage.Register, secretSource secrets.Source) *cobra.Command {
	opts := &packageOptions{}

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Compress and seal a generated document for delivery",
		Long: `Compress a generated document into a zip archive, seal it with a password read
from the secret store and optionally upload it.

The archive is named <client_code>_<product_variant>_<cut>_<YYYYMMDD>.zip.enc after
the naming file. The password of secret NAME is read from ` + secrets.EnvPrefix + `NAME.`,
		Example: `  # Seal feed.xml with the password in XMLGEN_SECRET_ACME
  xmlgen package --input feed.xml --naming naming.json --secret acme

  # Seal and upload to a delivery directory
  xmlgen package --input feed.xml --naming naming.json --secret acme --upload-to file:///mnt/outbox/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, backends, secretSource, opts, time.Now())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Document to package")
	cmd.Flags().StringVar(&opts.naming, "naming", "", "JSON naming file with client_code, product_variant and cut")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Name of the secret holding the archive password")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "Directory for the sealed archive (default the input's directory)")
	cmd.Flags().StringVar(&opts.uploadTo, "upload-to", "", "Storage location to upload the sealed archive to")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Run without prompts")

	return cmd
}

func runPackage(cmd *cobra.Command, backends storage.Register, secretSource secrets.Source, opts *packageOptions, now time.Time) error {
	if opts.nonInteractive {
		if opts.input == "" || opts.naming == "" || opts.secret == "" {
			return errors.New("--input, --naming and --secret are required in non-interactive mode")
		}
	} else if err := prompts.RunPackageForm(&opts.input, &opts.naming, &opts.secret); err != nil {
		return err
	}

	naming, err := config.LoadNaming(opts.naming)
	if err != nil {
		return err
	}
	password, err := secretSource.Secret(opts.secret)
	if err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Dir(opts.input)
	}
	dst := filepath.Join(outDir, naming.ArchiveName(now))
	if err := archive.Package(opts.input, dst, password); err != nil {
		return fmt.Errorf("failed to package %s: %w", opts.input, err)
	}

	fields := []prompts.ResultField{
		{Label: "Input", Value: opts.input},
		{Label: "Archive", Value: dst},
	}
	if opts.uploadTo != "" {
		loc, err := backends.Upload(cmd.Context(), dst, opts.uploadTo)
		if err != nil {
			return err
		}
		fields = append(fields, prompts.ResultField{Label: "Uploaded", Value: loc.String()})
	}
	prompts.PrintResult(cmd.OutOrStdout(), fields, "")
	return nil
}
