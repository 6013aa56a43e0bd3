// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package attributes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/transform"
	"github.com/dacolabs/xmlgen/internal/validate"
)

const feedSchema = "../testdata/feed.xsd"

type entityRow struct {
	EntityGUID string `parquet:"entityguid"`
	Name       string `parquet:"name"`
}

type pairRow struct {
	EntityGUID string `parquet:"entityguid"`
	Element    string `parquet:"element"`
	Value      string `parquet:"value"`
}

type lookupRow struct {
	EntityGUID string `parquet:"entityguid"`
	MatchType  string `parquet:"entity_match_type"`
}

type deleteRow struct {
	EntityGUID string `parquet:"entityguid"`
}

type usmsbRow struct {
	EntityGUID  string `parquet:"entityguid"`
	USMSBGUID   string `parquet:"usmsbguid"`
	LastUpdated string `parquet:"lastupdated"`
	SourceName  string `parquet:"source_name"`
}

type associatedRow struct {
	EntityGUID           string `parquet:"entityguid"`
	AssociatedEntityGUID string `parquet:"associatedentityguid"`
	SourceName           string `parquet:"source_name"`
}

func writeParquet[T any](t *testing.T, dir, name string, rows []T) {
	t.Helper()
	tdir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(tdir, 0o750))
	require.NoError(t, parquet.WriteFile(filepath.Join(tdir, "part-00000.parquet"), rows))
}

func writeFeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeParquet(t, dir, "entity", []entityRow{{"g1", "Alice"}, {"g2", "Bob"}, {"g3", ""}, {"g4", "Unclassified"}})
	writeParquet(t, dir, "entity_element_details_consolidated", []pairRow{
		{"g1", "Name", "Alice Cooper"},
		{"g1", "EntityAddress", `[{"City":"Paris"},{"City":"Lima"}]`},
		{"g2", "Name", ""},
		{"g4", "Name", "Ignored"},
	})
	writeParquet(t, dir, "custom_feed_entity_match_type_lookup", []lookupRow{
		{"g1", "matched_entity"}, {"g2", "related_entity"}, {"g3", "matched_entity"},
	})
	writeParquet(t, dir, "entitydeletes", []deleteRow{{"d1"}})
	return dir
}

const wantDocument = `<?xml version="1.0" encoding="UTF-8"?>
<WCOData>
  <Entities>
    <Entity>
      <EntityGUID>g1</EntityGUID>
      <Name>Alice Cooper</Name>
      <EntityAddresses>
        <EntityAddress>
          <City>Paris</City>
        </EntityAddress>
        <EntityAddress>
          <City>Lima</City>
        </EntityAddress>
      </EntityAddresses>
      <AdditionalSegments/>
    </Entity>
    <Entity>
      <EntityGUID>g3</EntityGUID>
      <EntityAddresses/>
      <AdditionalSegments/>
    </Entity>
  </Entities>
  <Relationships>
    <Relationship>
      <EntityGUID>g2</EntityGUID>
      <Name>Bob</Name>
      <EntityAddresses/>
      <AdditionalSegments/>
    </Relationship>
  </Relationships>
  <EntityDeletes>
    <EntityDelete>
      <EntityGUID>d1</EntityGUID>
    </EntityDelete>
  </EntityDeletes>
</WCOData>
`

func run(t *testing.T, cfg *config.Config, dataDir, out string) (*transform.Result, error) {
	t.Helper()
	r := transform.Register{}
	r.Add(New())
	return transform.Execute(context.Background(), r, transform.Options{
		DataDir:    dataDir,
		SchemaPath: feedSchema,
		Output:     out,
		Config:     cfg,
	})
}

func attributesConfig() *config.Config {
	cfg := config.Default()
	cfg.Strategy = config.StrategyAttributes
	return cfg
}

func TestStrategy_Transform(t *testing.T) {
	tests := []struct {
		name   string
		window int
		spill  bool
	}{
		{name: "single window in memory", window: 0},
		{name: "one record per window", window: 1},
		{name: "spilled index", window: 2, spill: true},
	}

	dataDir := writeFeed(t)
	s, err := validate.Load(feedSchema)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := attributesConfig()
			cfg.Window = tt.window
			cfg.Workers = 2
			if tt.spill {
				cfg.SpillDir = t.TempDir()
			}
			out := filepath.Join(t.TempDir(), "out.xml")

			res, err := run(t, cfg, dataDir, out)
			require.NoError(t, err)

			assert.Equal(t, "attributes", res.Strategy)
			assert.Equal(t, []transform.SectionResult{
				{Container: "Entities", Records: 2},
				{Container: "Relationships", Records: 1},
				{Container: "EntityDeletes", Records: 1},
			}, res.Sections)

			got, err := os.ReadFile(out) //nolint:gosec // test file path
			require.NoError(t, err)
			assert.Equal(t, wantDocument, string(got))

			report, err := validate.File(out, s, "WCOData")
			require.NoError(t, err)
			assert.True(t, report.Valid(), report.Err())

			if tt.spill {
				entries, err := os.ReadDir(cfg.SpillDir)
				require.NoError(t, err)
				assert.Empty(t, entries)
			}
		})
	}
}

func TestStrategy_Transform_SegmentPolicy(t *testing.T) {
	dataDir := writeFeed(t)
	writeParquet(t, dataDir, "usmsb", []usmsbRow{{"g1", "u1", "2024-01-02", "FinCEN"}})
	writeParquet(t, dataDir, "associatedentity", []associatedRow{{"g1", "a1", "Registry"}})

	cfg := attributesConfig()
	cfg.Filters.RequireSegments = config.SegmentPolicyAnyPerKind
	out := filepath.Join(t.TempDir(), "out.xml")

	res, err := run(t, cfg, dataDir, out)
	require.NoError(t, err)
	assert.Equal(t, []transform.SectionResult{
		{Container: "Entities", Records: 1},
		{Container: "Relationships", Records: 1},
		{Container: "EntityDeletes", Records: 1},
	}, res.Sections)

	got, err := os.ReadFile(out) //nolint:gosec // test file path
	require.NoError(t, err)
	doc := string(got)
	assert.Contains(t, doc, "<EntityGUID>g1</EntityGUID>")
	assert.NotContains(t, doc, "<EntityGUID>g3</EntityGUID>")
	assert.Contains(t, doc, `<Segment Type="Associated Entity">`)
	assert.Contains(t, doc, `<Record GUID="a1">`)
	assert.Contains(t, doc, `<Segment Type="US MSB">`)
	assert.Contains(t, doc, `<Record GUID="u1">`)
	assert.Contains(t, doc, "<DerivedName>Usmsb</DerivedName>")
	assert.Contains(t, doc, "<DerivedValue>FinCEN</DerivedValue>")

	s, err := validate.Load(feedSchema)
	require.NoError(t, err)
	report, err := validate.File(out, s, "WCOData")
	require.NoError(t, err)
	assert.True(t, report.Valid(), report.Err())
}

func TestStrategy_Transform_SectionLimit(t *testing.T) {
	cfg := attributesConfig()
	cfg.Sections[0].Limit = 1
	out := filepath.Join(t.TempDir(), "out.xml")

	res, err := run(t, cfg, writeFeed(t), out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sections[0].Records)
	assert.Equal(t, 3, res.Records())
}

func TestStrategy_Transform_MissingAttributeTable(t *testing.T) {
	dataDir := writeFeed(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dataDir, "entity_element_details_consolidated")))
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := run(t, attributesConfig(), dataDir, out)
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStrategy_Transform_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := transform.Register{}
	r.Add(New())
	out := filepath.Join(t.TempDir(), "out.xml")
	_, err := transform.Execute(ctx, r, transform.Options{
		DataDir:    writeFeed(t),
		SchemaPath: feedSchema,
		Output:     out,
		Config:     attributesConfig(),
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
