// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	plain := []byte("<WCOData/>")
	sealed, err := Seal([]byte("pw"), plain)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(sealed, []byte(magic)))
	assert.NotContains(t, string(sealed), "WCOData")

	got, err := Open([]byte("pw"), sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	again, err := Seal([]byte("pw"), plain)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestOpen_Errors(t *testing.T) {
	sealed, err := Seal([]byte("pw"), []byte("payload"))
	require.NoError(t, err)

	_, err = Open([]byte("wrong"), sealed)
	assert.ErrorIs(t, err, ErrDecrypt)

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Open([]byte("pw"), tampered)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = Open([]byte("pw"), []byte("PK\x03\x04 plain zip"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSeal_EmptyPassword(t *testing.T) {
	_, err := Seal(nil, []byte("payload"))
	assert.Error(t, err)
}

func TestCompressExtract(t *testing.T) {
	content := strings.Repeat("<Entity><EntityGUID>g1</EntityGUID></Entity>\n", 200)
	var buf bytes.Buffer
	require.NoError(t, Compress(&buf, "feed.xml", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), strings.NewReader(content)))
	assert.Less(t, buf.Len(), len(content))

	name, got, err := Extract(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "feed.xml", name)
	assert.Equal(t, content, string(got))

	_, _, err = Extract([]byte("not a zip"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestPackageUnpack(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "output.xml")
	require.NoError(t, os.WriteFile(src, []byte("<WCOData/>\n"), 0o600))
	dst := filepath.Join(dir, "out", "acme_wco_daily_20260309.zip.enc")

	require.NoError(t, Package(src, dst, []byte("pw")))

	name, content, err := Unpack(dst, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "output.xml", name)
	assert.Equal(t, "<WCOData/>\n", string(content))

	_, _, err = Unpack(dst, []byte("nope"))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestPackage_MissingSource(t *testing.T) {
	err := Package(filepath.Join(t.TempDir(), "missing.xml"), filepath.Join(t.TempDir(), "x.enc"), []byte("pw"))
	assert.Error(t, err)
}
