// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package config handles xmlgen run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the current version of the config file format.
const CurrentConfigVersion = 1

// DefaultWindow is the number of root records processed per streaming window.
const DefaultWindow = 25000

// Strategy names a denormalization strategy.
type Strategy string

const (
	// StrategyJoin merges every declared table in memory and writes the document once.
	StrategyJoin Strategy = "join"
	// StrategyAttributes joins the generic attribute table in windows and streams output.
	StrategyAttributes Strategy = "attributes"
)

// SegmentPolicy selects which root records the entities section keeps based on
// segment table presence.
type SegmentPolicy string

const (
	// SegmentPolicyNone keeps every matched record.
	SegmentPolicyNone SegmentPolicy = "none"
	// SegmentPolicyAnyPerKind keeps records with rows in at least one single-field and at
	// least one multi-field segment table.
	SegmentPolicyAnyPerKind SegmentPolicy = "any-per-kind"
	// SegmentPolicyAll keeps records with rows in every configured segment table.
	SegmentPolicyAll SegmentPolicy = "all"
)

// Config represents the xmlgen.yaml run configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Root overrides the document root element; empty selects the first top-level element.
	Root string `yaml:"root,omitempty"`
	// RootTable is the table holding one row per root record.
	RootTable string `yaml:"rootTable"`
	// KeyColumn is the root record GUID column shared by every child table.
	KeyColumn string `yaml:"keyColumn"`

	Classification Classification `yaml:"classification"`
	Sections       []Section      `yaml:"sections"`
	Relations      []Relation     `yaml:"relations,omitempty"`
	// Tables lists candidate tables; those named like a schema element are loaded.
	Tables     []string   `yaml:"tables,omitempty"`
	Segments   Segments   `yaml:"segments"`
	Attributes Attributes `yaml:"attributes"`
	Filters    Filters    `yaml:"filters"`
	Keys       Keys       `yaml:"keys"`

	Strategy Strategy `yaml:"strategy,omitempty"`
	Window   int      `yaml:"window,omitempty"`
	// Workers bounds the build pool; zero uses every CPU.
	Workers  int    `yaml:"workers,omitempty"`
	SpillDir string `yaml:"spillDir,omitempty"`
}

// Classification describes the lookup table assigning each root GUID to a section.
type Classification struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Section describes one output container and where its records come from.
type Section struct {
	Container string `yaml:"container"`
	Element   string `yaml:"element"`
	// MatchType selects root records by classification value.
	MatchType string `yaml:"matchType,omitempty"`
	// Table reads records directly from a table instead of the classified root table.
	Table string `yaml:"table,omitempty"`
	// Limit truncates the section; zero keeps every record.
	Limit int `yaml:"limit,omitempty"`
	// SegmentFilter applies filters.requireSegments to the section.
	SegmentFilter bool `yaml:"segmentFilter,omitempty"`
}

// Relation nests child tables into a parent table by the parent's GUID column.
type Relation struct {
	Parent   string   `yaml:"parent"`
	Key      string   `yaml:"key"`
	Children []string `yaml:"children"`
}

// Segments configures the auxiliary segment extension point.
type Segments struct {
	Element string         `yaml:"element"`
	Tables  []SegmentTable `yaml:"tables,omitempty"`
}

// SegmentTable describes a side table rendered as Segment/Record/Field.
type SegmentTable struct {
	Table      string `yaml:"table"`
	GUIDColumn string `yaml:"guidColumn"`
	Label      string `yaml:"label"`
	MultiField bool   `yaml:"multiField,omitempty"`
	// FieldName overrides the DerivedName of multi-field rows.
	FieldName string `yaml:"fieldName,omitempty"`
}

// Attributes configures the generic long-format attribute table.
type Attributes struct {
	Table         string `yaml:"table"`
	ElementColumn string `yaml:"elementColumn"`
	ValueColumn   string `yaml:"valueColumn"`
	Separator     string `yaml:"separator"`
}

// Filters holds record selection policies.
type Filters struct {
	RequireSegments SegmentPolicy `yaml:"requireSegments,omitempty"`
}

// Keys configures join key handling.
type Keys struct {
	// NormalizeGUIDs compares parseable GUID keys case-insensitively.
	NormalizeGUIDs bool `yaml:"normalizeGUIDs,omitempty"`
}

// Load reads a Config from a file path. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.Version != CurrentConfigVersion {
		return errors.New("unsupported config version")
	}
	if c.RootTable == "" {
		return errors.New("rootTable is required")
	}
	if c.KeyColumn == "" {
		return errors.New("keyColumn is required")
	}
	switch c.Strategy {
	case "", StrategyJoin, StrategyAttributes:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	switch c.Filters.RequireSegments {
	case "", SegmentPolicyNone, SegmentPolicyAnyPerKind, SegmentPolicyAll:
	default:
		return fmt.Errorf("unknown segment policy %q", c.Filters.RequireSegments)
	}
	if c.Window < 0 {
		return errors.New("window must not be negative")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if len(c.Sections) == 0 {
		return errors.New("at least one section is required")
	}
	for i, s := range c.Sections {
		if s.Container == "" || s.Element == "" {
			return fmt.Errorf("section %d: container and element are required", i)
		}
		if (s.MatchType == "") == (s.Table == "") {
			return fmt.Errorf("section %s: exactly one of matchType and table is required", s.Container)
		}
		if s.Limit < 0 {
			return fmt.Errorf("section %s: limit must not be negative", s.Container)
		}
	}
	for _, r := range c.Relations {
		if r.Parent == "" || r.Key == "" || len(r.Children) == 0 {
			return fmt.Errorf("relation %q: parent, key and children are required", r.Parent)
		}
	}
	seen := make(map[string]struct{}, len(c.Segments.Tables))
	for _, t := range c.Segments.Tables {
		if t.Table == "" || t.GUIDColumn == "" || t.Label == "" {
			return fmt.Errorf("segment table %q: table, guidColumn and label are required", t.Table)
		}
		if _, dup := seen[t.Table]; dup {
			return fmt.Errorf("segment table %q declared twice", t.Table)
		}
		seen[t.Table] = struct{}{}
	}
	return nil
}

// WindowSize returns the configured window, falling back to DefaultWindow.
func (c *Config) WindowSize() int {
	if c.Window > 0 {
		return c.Window
	}
	return DefaultWindow
}

// ChildTables returns the set of tables nested under a declared relation parent.
func (c *Config) ChildTables() map[string]struct{} {
	children := make(map[string]struct{})
	for _, r := range c.Relations {
		for _, child := range r.Children {
			children[strings.ToLower(child)] = struct{}{}
		}
	}
	return children
}

// SegmentTable returns the segment spec for a table name.
func (c *Config) SegmentTable(name string) (SegmentTable, bool) {
	for _, t := range c.Segments.Tables {
		if strings.EqualFold(t.Table, name) {
			return t, true
		}
	}
	return SegmentTable{}, false
}
