// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package session provides configuration loading for CLI commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/config"
)

var (
	// ErrConfigNotFound indicates an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfig indicates the config file exists but is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = "xmlgen.yaml"

// contextKey is used to store Context in context.Context.
type contextKey struct{}

// Context holds the resolved run configuration.
type Context struct {
	Config *config.Config

	// Path is the file the configuration was read from. Empty when the built-in
	// defaults are in use.
	Path string
}

// Load resolves the configuration and returns a new context.Context with the session
// Context stored in it. An empty path looks for ConfigFileName in the working
// directory and falls back to the defaults when it is absent.
func Load(ctx context.Context, path string) (context.Context, error) {
	explicit := path != ""
	if !explicit {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, ConfigFileName)
	}

	sess := &Context{}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		logger.Verbose("no " + ConfigFileName + " found, using defaults")
		sess.Config = config.Default()
	} else {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		sess.Config = cfg
		sess.Path = path
	}

	if err := sess.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return context.WithValue(ctx, contextKey{}, sess), nil
}

// From extracts the session Context from a context.Context.
// Returns nil if no Context is stored.
func From(ctx context.Context) *Context {
	if sess, ok := ctx.Value(contextKey{}).(*Context); ok {
		return sess
	}
	return nil
}
