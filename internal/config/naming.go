// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Naming is the JSON side-config that names delivered archives.
type Naming struct {
	ClientCode     string `json:"client_code"`
	ProductVariant string `json:"product_variant"`
	Cut            string `json:"cut"`
}

// LoadNaming reads a Naming side-config from a JSON file.
func LoadNaming(path string) (*Naming, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	var n Naming
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parsing naming file %s: %w", path, err)
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("naming file %s: %w", path, err)
	}
	return &n, nil
}

// Validate checks that every naming field is set.
func (n *Naming) Validate() error {
	var missing []string
	if n.ClientCode == "" {
		missing = append(missing, "client_code")
	}
	if n.ProductVariant == "" {
		missing = append(missing, "product_variant")
	}
	if n.Cut == "" {
		missing = append(missing, "cut")
	}
	if len(missing) > 0 {
		return errors.New("missing " + strings.Join(missing, ", "))
	}
	return nil
}

// ArchiveName returns the archive file name for a delivery made at t.
func (n *Naming) ArchiveName(t time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.zip.enc",
		strings.ToLower(n.ClientCode),
		strings.ToLower(n.ProductVariant),
		strings.ToLower(n.Cut),
		t.UTC().Format("20060102"))
}
