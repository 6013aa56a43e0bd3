// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dacolabs/xmlgen/internal/prompts"
	"github.com/dacolabs/xmlgen/internal/storage"
)

type fetchOptions struct {
	from string
	to   string
}

func newFetchCmd(backends storage.Register) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Copy input tables from a storage location",
		Long: fmt.Sprintf(`Mirror the table directories under a storage location into a local data
directory, ready for generate.

Supported schemes: %s`, strings.Join(backends.Available(), ", ")),
		Example: `  # Mirror a shared export into ./data
  xmlgen fetch --from file:///mnt/exports/wco --to ./data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.from == "" || opts.to == "" {
				return errors.New("--from and --to are required")
			}
			n, err := backends.Fetch(cmd.Context(), opts.from, opts.to)
			if err != nil {
				return err
			}
			prompts.PrintResult(cmd.OutOrStdout(), []prompts.ResultField{
				{Label: "From", Value: opts.from},
				{Label: "To", Value: opts.to},
				{Label: "Files", Value: fmt.Sprint(n)},
			}, "")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "Storage location to copy from")
	cmd.Flags().StringVar(&opts.to, "to", "", "Local data directory")

	return cmd
}
