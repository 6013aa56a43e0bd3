// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/xmlgen/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	} else {
		abs, err := filepath.Abs(dir)
		require.NoError(t, err)
		dir = abs
	}
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(dir))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		dir          string // relative to testdata, empty means use t.TempDir()
		path         string
		wantErr      error
		wantStrategy config.Strategy
		wantFromFile bool
	}{
		{
			name:         "defaults when no config file",
			wantStrategy: config.StrategyJoin,
		},
		{
			name:    "explicit path missing",
			path:    "missing.yaml",
			wantErr: ErrConfigNotFound,
		},
		{
			name:    "invalid config",
			dir:     "testdata/invalid-config",
			wantErr: ErrInvalidConfig,
		},
		{
			name:         "valid",
			dir:          "testdata/valid",
			wantStrategy: config.StrategyAttributes,
			wantFromFile: true,
		},
		{
			name:         "explicit path",
			dir:          "testdata",
			path:         "valid/xmlgen.yaml",
			wantStrategy: config.StrategyAttributes,
			wantFromFile: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, tt.dir)

			ctx, err := Load(context.Background(), tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			sess := From(ctx)
			require.NotNil(t, sess)
			assert.Equal(t, tt.wantStrategy, sess.Config.Strategy)
			assert.Equal(t, tt.wantFromFile, sess.Path != "")
		})
	}
}

func TestFrom_NoContextStored(t *testing.T) {
	assert.Nil(t, From(context.Background()))
}

func TestRequireFromCommand(t *testing.T) {
	chdir(t, "testdata/valid")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := RequireFromCommand(cmd)
	assert.Error(t, err)

	require.NoError(t, PreRunLoad(cmd, nil))
	sess, err := RequireFromCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, 1000, sess.Config.WindowSize())
}

func TestPreRunLoad_WithCommandExecution(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantWindow int
	}{
		{name: "config flag", args: []string{"sub", "--config", "valid/xmlgen.yaml"}, wantWindow: 1000},
		{name: "no config", args: []string{"sub"}, wantWindow: config.DefaultWindow},
		{name: "bad config flag", args: []string{"sub", "--config", "invalid-config/xmlgen.yaml"}, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, "testdata")

			var captured *Context
			rootCmd := &cobra.Command{
				Use:               "test",
				PersistentPreRunE: PreRunLoad,
			}
			rootCmd.PersistentFlags().String(ConfigFlag, "", "config file")
			rootCmd.AddCommand(&cobra.Command{
				Use: "sub",
				RunE: func(cmd *cobra.Command, args []string) error {
					sess, err := RequireFromCommand(cmd)
					captured = sess
					return err
				},
			})

			rootCmd.SetArgs(tt.args)
			err := rootCmd.ExecuteContext(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, captured)
			assert.Equal(t, tt.wantWindow, captured.Config.WindowSize())
		})
	}
}
