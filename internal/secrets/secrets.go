// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package secrets resolves named secrets such as archive passwords.
package secrets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates a secret is not defined.
var ErrNotFound = errors.New("secret not found")

// EnvPrefix prefixes the environment variable of every secret.
const EnvPrefix = "XMLGEN_SECRET_"

// Source resolves secrets by name.
type Source interface {
	Secret(name string) ([]byte, error)
}

// Env reads secrets from environment variables named EnvPrefix followed by the
// upper-cased secret name.
type Env struct {
	getenv func(string) string
}

// NewEnv creates an environment-backed source. getenv is usually os.Getenv.
func NewEnv(getenv func(string) string) *Env {
	return &Env{getenv: getenv}
}

// Secret returns the value of the variable for name. Empty values count as missing.
func (e *Env) Secret(name string) ([]byte, error) {
	key := EnvName(name)
	if key == EnvPrefix {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	v := e.getenv(key)
	if v == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotFound, key)
	}
	return []byte(v), nil
}

// EnvName returns the environment variable holding secret name. Dashes, dots and
// spaces become underscores.
func EnvName(name string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(strings.TrimSpace(name)))
}
