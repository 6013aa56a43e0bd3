// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/xmlgen/internal/archive"
	"github.com/dacolabs/xmlgen/internal/secrets"
	"github.com/dacolabs/xmlgen/internal/transform"
	"github.com/dacolabs/xmlgen/internal/transform/attributes"
	"github.com/dacolabs/xmlgen/internal/transform/join"
)

func feedSchema(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs("../transform/testdata/feed.xsd")
	require.NoError(t, err)
	return path
}

// inTempDir runs the test from an empty working directory so no xmlgen.yaml is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(dir))
	return dir
}

func execute(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	strategies := transform.Register{}
	strategies.Add(join.New())
	strategies.Add(attributes.New())

	cmd := NewRootCmd(strategies, secrets.NewEnv(func(k string) string { return env[k] }))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type entityRow struct {
	EntityGUID string `parquet:"entityguid"`
	Name       string `parquet:"name"`
}

type lookupRow struct {
	EntityGUID string `parquet:"entityguid"`
	MatchType  string `parquet:"entity_match_type"`
}

func writeTables(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "entity"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "custom_feed_entity_match_type_lookup"), 0o750))
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "entity", "part-0.parquet"),
		[]entityRow{{"g1", "Alice"}, {"g2", "Bob"}}))
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "custom_feed_entity_match_type_lookup", "part-0.parquet"),
		[]lookupRow{{"g1", "matched_entity"}, {"g2", "related_entity"}}))
}

func TestGenerate(t *testing.T) {
	schema := feedSchema(t)
	dir := inTempDir(t)
	writeTables(t, filepath.Join(dir, "data"))

	out, err := execute(t, nil, "generate", "--non-interactive",
		"-d", "data", "-o", "feed.xml", "-s", schema, "--validate", "--time")
	require.NoError(t, err)

	assert.Contains(t, out, "with the join strategy")
	assert.Contains(t, out, "Entities:")
	assert.Contains(t, out, "1 records")
	assert.Contains(t, out, "Document is valid")
	assert.Contains(t, out, "Time taken:")

	content, err := os.ReadFile(filepath.Join(dir, "feed.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<EntityGUID>g1</EntityGUID>")
	assert.Contains(t, string(content), "<Name>Bob</Name>")
}

func TestGenerate_Mock(t *testing.T) {
	schema := feedSchema(t)
	dir := inTempDir(t)

	out, err := execute(t, nil, "generate", "--mock", "-s", schema, "--validate")
	require.NoError(t, err)
	assert.Contains(t, out, "mock")
	assert.Contains(t, out, "Document is valid")
	assert.FileExists(t, filepath.Join(dir, defaultOutput))
}

func TestGenerate_Errors(t *testing.T) {
	schema := feedSchema(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing data directory",
			args:    []string{"generate", "--non-interactive", "-s", schema},
			wantErr: "--data-directory is required",
		},
		{
			name:    "unknown strategy",
			args:    []string{"generate", "--non-interactive", "-d", "data", "-s", schema, "--strategy", "pivot"},
			wantErr: `unknown strategy "pivot"`,
		},
		{
			name:    "missing config file",
			args:    []string{"generate", "--config", "nope.yaml", "--mock"},
			wantErr: "configuration file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			_, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	schema := feedSchema(t)
	dir := inTempDir(t)

	valid := filepath.Join(dir, "valid.xml")
	require.NoError(t, os.WriteFile(valid, []byte(`<WCOData><Entities/><Relationships/></WCOData>`), 0o600))
	out, err := execute(t, nil, "validate", valid, "-s", schema)
	require.NoError(t, err)
	assert.Contains(t, out, "Document is valid")

	invalid := filepath.Join(dir, "invalid.xml")
	require.NoError(t, os.WriteFile(invalid, []byte(`<WCOData><Relationships/><Bogus/></WCOData>`), 0o600))
	out, err = execute(t, nil, "validate", invalid, "-s", schema)
	require.Error(t, err)
	assert.Contains(t, out, "Document is not valid")
	assert.Contains(t, out, "cvc-complex-type.2.4")
}

func TestSchemaDescribe(t *testing.T) {
	schema := feedSchema(t)
	inTempDir(t)

	out, err := execute(t, nil, "schema", "describe", "-s", schema)
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/WCOData/Entities/Entity")
	assert.Contains(t, out, "unbounded")
	assert.Contains(t, out, "EntityAddresses")
	assert.Contains(t, out, "Root: /WCOData")

	out, err = execute(t, nil, "schema", "describe", "-s", schema, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"root": "/WCOData"`)

	_, err = execute(t, nil, "schema", "describe", "-s", schema, "-o", "xml")
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	dir := inTempDir(t)
	src := filepath.Join(dir, "export")
	writeTables(t, src)

	out, err := execute(t, nil, "fetch", "--from", "file://"+filepath.ToSlash(src), "--to", "data")
	require.NoError(t, err)
	assert.Contains(t, out, "Files:")
	assert.FileExists(t, filepath.Join(dir, "data", "entity", "part-0.parquet"))

	_, err = execute(t, nil, "fetch", "--from", "s3://bucket/export", "--to", "data")
	assert.Error(t, err)
}

func TestPackage(t *testing.T) {
	dir := inTempDir(t)
	input := filepath.Join(dir, "feed.xml")
	require.NoError(t, os.WriteFile(input, []byte("<WCOData/>\n"), 0o600))
	naming := filepath.Join(dir, "naming.json")
	require.NoError(t, os.WriteFile(naming, []byte(`{"client_code":"ACME","product_variant":"WCO","cut":"daily"}`), 0o600))
	outbox := filepath.Join(dir, "outbox") + string(filepath.Separator)
	env := map[string]string{"XMLGEN_SECRET_ACME": "pw"}

	out, err := execute(t, env, "package", "--non-interactive",
		"-i", input, "--naming", naming, "--secret", "acme", "--upload-to", outbox)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded:")

	matches, err := filepath.Glob(filepath.Join(dir, "outbox", "acme_wco_daily_*.zip.enc"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	name, content, err := archive.Unpack(matches[0], []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "feed.xml", name)
	assert.Equal(t, "<WCOData/>\n", string(content))

	_, err = execute(t, nil, "package", "--non-interactive", "-i", input, "--naming", naming, "--secret", "acme")
	assert.ErrorIs(t, err, secrets.ErrNotFound)

	restored := filepath.Join(dir, "restored")
	out, err = execute(t, env, "unpack", matches[0], "--secret", "acme", "--out-dir", restored)
	require.NoError(t, err)
	assert.Contains(t, out, "Document:")
	got, err := os.ReadFile(filepath.Join(restored, "feed.xml")) //nolint:gosec // test file path
	require.NoError(t, err)
	assert.Equal(t, "<WCOData/>\n", string(got))

	wrong := map[string]string{"XMLGEN_SECRET_ACME": "nope"}
	_, err = execute(t, wrong, "unpack", matches[0], "--secret", "acme", "--out-dir", restored)
	assert.ErrorIs(t, err, archive.ErrDecrypt)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "xmlgen version")
}
