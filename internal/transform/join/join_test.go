// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package join

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

type addressRow struct {
	EntityGUID string `parquet:"entityguid"`
	City       string `parquet:"city"`
}

type lookupRow struct {
	EntityGUID string `parquet:"entityguid"`
	MatchType  string `parquet:"entity_match_type"`
}

type deleteRow struct {
	EntityGUID string `parquet:"entityguid"`
}

type segmentRow struct {
	EntityGUID  string `parquet:"entityguid"`
	USMSBGUID   string `parquet:"usmsbguid"`
	LastUpdated string `parquet:"lastupdated"`
	SourceName  string `parquet:"source_name"`
}

func writeParquet[T any](t *testing.T, dir, name string, rows []T) {
	t.Helper()
	tdir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(tdir, 0o750))
	require.NoError(t, parquet.WriteFile(filepath.Join(tdir, "part-00000.parquet"), rows))
}

func writeFeed(t *testing.T) (dataDir, schemaPath string) {
	t.Helper()
	dataDir = t.TempDir()
	schemaPath = feedSchema

	writeParquet(t, dataDir, "entity", []entityRow{{"g1", "Alice"}, {"g2", "Bob"}, {"g3", ""}})
	writeParquet(t, dataDir, "entityaddress", []addressRow{{"g1", "Paris"}, {"g1", "Oslo"}})
	writeParquet(t, dataDir, "custom_feed_entity_match_type_lookup", []lookupRow{
		{"g1", "matched_entity"}, {"g2", "related_entity"}, {"g3", "matched_entity"},
	})
	writeParquet(t, dataDir, "entitydeletes", []deleteRow{{"d1"}})
	writeParquet(t, dataDir, "usmsb", []segmentRow{{"g1", "u1", "2024-01-02", "FinCEN"}})
	return dataDir, schemaPath
}

const wantDocument = `<?xml version="1.0" encoding="UTF-8"?>
<WCOData>
  <Entities>
    <Entity>
      <EntityGUID>g1</EntityGUID>
      <Name>Alice</Name>
      <EntityAddresses>
        <EntityAddress>
          <City>Paris</City>
        </EntityAddress>
        <EntityAddress>
          <City>Oslo</City>
        </EntityAddress>
      </EntityAddresses>
      <AdditionalSegments>
        <Segment Type="US MSB">
          <Record GUID="u1">
            <LastUpdated>2024-01-02</LastUpdated>
            <Field>
              <DerivedName>Usmsb</DerivedName>
              <DerivedValue>FinCEN</DerivedValue>
            </Field>
          </Record>
        </Segment>
      </AdditionalSegments>
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

func TestStrategy_Transform(t *testing.T) {
	dataDir, schemaPath := writeFeed(t)
	out := filepath.Join(t.TempDir(), "out.xml")

	r := transform.Register{}
	r.Add(New())

	res, err := transform.Execute(context.Background(), r, transform.Options{
		DataDir:    dataDir,
		SchemaPath: schemaPath,
		Output:     out,
		Config:     config.Default(),
	})
	require.NoError(t, err)

	assert.Equal(t, "join", res.Strategy)
	assert.Equal(t, 5, res.Tables)
	assert.Equal(t, []transform.SectionResult{
		{Container: "Entities", Records: 2},
		{Container: "Relationships", Records: 1},
		{Container: "EntityDeletes", Records: 1},
	}, res.Sections)

	got, err := os.ReadFile(out) //nolint:gosec // test file path
	require.NoError(t, err)
	assert.Equal(t, wantDocument, string(got))

	s, err := validate.Load(schemaPath)
	require.NoError(t, err)
	report, err := validate.File(out, s, "WCOData")
	require.NoError(t, err)
	assert.True(t, report.Valid(), report.Err())
}

func TestStrategy_Transform_MissingRootTable(t *testing.T) {
	dataDir, schemaPath := writeFeed(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dataDir, "entity")))
	out := filepath.Join(t.TempDir(), "out.xml")

	r := transform.Register{}
	r.Add(New())
	_, err := transform.Execute(context.Background(), r, transform.Options{
		DataDir:    dataDir,
		SchemaPath: schemaPath,
		Output:     out,
		Config:     config.Default(),
	})
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
