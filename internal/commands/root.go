// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package commands contains all CLI command definitions.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/secrets"
	"github.com/dacolabs/xmlgen/internal/session"
	"github.com/dacolabs/xmlgen/internal/storage"
	"github.com/dacolabs/xmlgen/internal/transform"
)

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd(strategies transform.Register, secretSource secrets.Source) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "xmlgen",
		Short: "Generate WCOData XML feeds from parquet tables",
		Long: `Generate a WCOData XML document from a directory of parquet tables,
shaped by the occurrence constraints of an XML Schema.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLogLevel(logger.LogLevelVerbose)
			} else {
				logger.SetLogLevel(logger.LogLevelInfo)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String(session.ConfigFlag, "", "Config file (default ./"+session.ConfigFileName+" when present)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	backends := storage.Default()
	rootCmd.AddCommand(
		newGenerateCmd(strategies),
		newValidateCmd(),
		newSchemaCmd(),
		newFetchCmd(backends),
		newPackageCmd(backends, secretSource),
		newUnpackCmd(secretSource),
		newVersionCmd(),
	)

	return rootCmd
}
