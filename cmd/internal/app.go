// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package internal contains the main application logic for the CLI.
package internal

import (
	"context"

	"github.com/dacolabs/xmlgen/internal/commands"
	"github.com/dacolabs/xmlgen/internal/secrets"
	"github.com/dacolabs/xmlgen/internal/transform"
	"github.com/dacolabs/xmlgen/internal/transform/attributes"
	"github.com/dacolabs/xmlgen/internal/transform/join"
)

// Strategies returns the registry of every transformation strategy.
func Strategies() transform.Register {
	strategies := make(transform.Register)
	strategies.Add(join.New())
	strategies.Add(attributes.New())
	return strategies
}

// Run is the main application logic, extracted for testability.
// It accepts OS dependencies as parameters (context, env lookup).
func Run(ctx context.Context, getenv func(string) string) error {
	rootCmd := commands.NewRootCmd(Strategies(), secrets.NewEnv(getenv))
	return rootCmd.ExecuteContext(ctx)
}
