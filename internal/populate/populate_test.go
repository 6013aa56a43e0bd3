// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package populate

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/xmltree"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

const entityXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Entity">
    <xs:complexType><xs:sequence>
      <xs:element name="EntityGUID" minOccurs="1" maxOccurs="1"/>
      <xs:element name="Name" minOccurs="0" maxOccurs="1"/>
      <xs:element name="Alias" minOccurs="0" maxOccurs="unbounded"/>
      <xs:element name="Remark" minOccurs="2" maxOccurs="3"/>
      <xs:element name="EntityAddresses" minOccurs="0" maxOccurs="1">
        <xs:complexType><xs:sequence>
          <xs:element name="EntityAddress" minOccurs="1" maxOccurs="unbounded">
            <xs:complexType><xs:sequence>
              <xs:element name="City" minOccurs="0" maxOccurs="1"/>
              <xs:element name="Country" minOccurs="0" maxOccurs="1"/>
            </xs:sequence></xs:complexType>
          </xs:element>
        </xs:sequence></xs:complexType>
      </xs:element>
      <xs:element name="DOB" minOccurs="0" maxOccurs="1">
        <xs:complexType><xs:sequence>
          <xs:element name="Day" minOccurs="0" maxOccurs="1"/>
          <xs:element name="Year" minOccurs="0" maxOccurs="1"/>
        </xs:sequence></xs:complexType>
      </xs:element>
      <xs:element name="AdditionalSegments" minOccurs="0" maxOccurs="1"/>
    </xs:sequence></xs:complexType>
  </xs:element>
</xs:schema>`

func newPopulator(t *testing.T, segments config.Segments) *Populator {
	t.Helper()
	s, err := xschema.Parse(strings.NewReader(entityXSD))
	require.NoError(t, err)
	return New(s, segments)
}

func render(t *testing.T, n *xmltree.Node) string {
	t.Helper()
	return string(xmltree.Render(n, 0))
}

func address(city string) record.Value {
	return record.Nested(record.Record{"city": record.Scalar(city)})
}

func baseRecord() record.Record {
	return record.Record{
		"entityguid":    record.Scalar("g1"),
		"name":          record.Scalar("Alice"),
		"alias":         record.Sequence(),
		"remark":        record.Sequence(record.Scalar("r1"), record.Scalar("r2")),
		"entityaddress": record.Sequence(),
		"dob":           record.Nested(record.Record{"year": record.Scalar(int64(1970))}),
	}
}

func TestPopulate_ChildOrderFollowsSchema(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	rec := baseRecord()

	node, err := p.Build("/Entity", rec)
	require.NoError(t, err)

	var tags []string
	for _, c := range node.Children {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"EntityGUID", "Name", "Remark", "Remark", "EntityAddresses", "DOB", "AdditionalSegments"}, tags)
}

func TestPopulate_JoinedRowsRenderInOrder(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	rec := baseRecord()
	rec["entityaddress"] = record.Sequence(address("Paris"), address("Oslo"), address("Lima"))

	node, err := p.Build("/Entity", rec)
	require.NoError(t, err)

	addrs := node.First("EntityAddresses").ChildrenNamed("EntityAddress")
	require.Len(t, addrs, 3)
	assert.Equal(t, "Paris", addrs[0].First("City").Text)
	assert.Equal(t, "Oslo", addrs[1].First("City").Text)
	assert.Equal(t, "Lima", addrs[2].First("City").Text)
	// Country is absent from each nested record and has no children.
	assert.NotNil(t, addrs[0].First("Country"))
}

func TestPopulate_OccurrenceBounds(t *testing.T) {
	tests := []struct {
		name    string
		remarks record.Value
		want    []string
	}{
		{
			name:    "pads to minOccurs",
			remarks: record.Sequence(),
			want:    []string{"", ""},
		},
		{
			name:    "pads partial sequence",
			remarks: record.Sequence(record.Scalar("only")),
			want:    []string{"only", ""},
		},
		{
			name:    "truncates to maxOccurs",
			remarks: record.Sequence(record.Scalar("a"), record.Scalar("b"), record.Scalar("c"), record.Scalar("d")),
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "null items render empty",
			remarks: record.Sequence(record.Null(), record.Scalar("x"), record.Scalar("")),
			want:    []string{"", "x", ""},
		},
	}

	p := newPopulator(t, config.Segments{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			rec["remark"] = tt.remarks

			node, err := p.Build("/Entity", rec)
			require.NoError(t, err)

			var got []string
			for _, r := range node.ChildrenNamed("Remark") {
				got = append(got, r.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPopulate_UnboundedRendersAll(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	rec := baseRecord()
	items := make([]record.Value, 50)
	for i := range items {
		items[i] = record.Scalar(i)
	}
	rec["alias"] = record.Sequence(items...)

	node, err := p.Build("/Entity", rec)
	require.NoError(t, err)
	assert.Len(t, node.ChildrenNamed("Alias"), 50)
}

func TestPopulate_Scalars(t *testing.T) {
	p := newPopulator(t, config.Segments{})

	rec := baseRecord()
	rec["name"] = record.Scalar("")
	node, err := p.Build("/Entity", rec)
	require.NoError(t, err)
	assert.Empty(t, node.ChildrenNamed("Name"), "empty string scalar is omitted")

	rec["name"] = record.Null()
	node, err = p.Build("/Entity", rec)
	require.NoError(t, err)
	assert.Empty(t, node.ChildrenNamed("Name"), "null scalar is omitted")

	rec["name"] = record.Scalar(int64(0))
	node, err = p.Build("/Entity", rec)
	require.NoError(t, err)
	require.Len(t, node.ChildrenNamed("Name"), 1)
	assert.Equal(t, "0", node.First("Name").Text)
}

func TestPopulate_AbsentFields(t *testing.T) {
	p := newPopulator(t, config.Segments{})

	node, err := p.Build("/Entity", record.Record{"entityguid": record.Scalar("g1")})
	require.NoError(t, err)

	// A missing container child yields minOccurs empty elements and no recursion.
	addrs := node.First("EntityAddresses").ChildrenNamed("EntityAddress")
	require.Len(t, addrs, 1)
	assert.Empty(t, addrs[0].Children)

	// A missing non-container field yields one element populated from the same record.
	dob := node.First("DOB")
	require.NotNil(t, dob)
	assert.NotNil(t, dob.First("Year"))

	assert.Len(t, node.ChildrenNamed("Remark"), 1, "absent non-container field yields one element")
}

func TestPopulate_NestedUsesNestedRecord(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	node, err := p.Build("/Entity", baseRecord())
	require.NoError(t, err)

	dob := node.First("DOB")
	require.NotNil(t, dob)
	assert.Equal(t, "1970", dob.First("Year").Text)
	assert.NotNil(t, dob.First("Day"))
}

func TestPopulate_StructuralError(t *testing.T) {
	p := newPopulator(t, config.Segments{})

	rec := baseRecord()
	rec["name"] = record.Value{}
	_, err := p.Build("/Entity", rec)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/Entity/Name", se.Path)
	assert.Equal(t, "name", se.Field)

	rec = baseRecord()
	rec["alias"] = record.Sequence(record.Sequence())
	_, err = p.Build("/Entity", rec)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/Entity/Alias", se.Path)
	assert.Equal(t, record.KindSequence, se.Kind)
}

func TestPopulate_Concurrent(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	want := render(t, mustBuild(t, p, baseRecord()))

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := p.Build("/Entity", baseRecord())
			if err == nil {
				results[i] = string(xmltree.Render(n, 0))
			}
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func mustBuild(t *testing.T, p *Populator, rec record.Record) *xmltree.Node {
	t.Helper()
	n, err := p.Build("/Entity", rec)
	require.NoError(t, err)
	return n
}

func TestPopulate_RendersExpectedXML(t *testing.T) {
	p := newPopulator(t, config.Segments{})
	rec := baseRecord()
	rec["entityaddress"] = record.Sequence(address("Paris"))

	var buf bytes.Buffer
	require.NoError(t, xmltree.WriteDocument(&buf, mustBuild(t, p, rec)))

	want := `<?xml version="1.0" encoding="UTF-8"?>
<Entity>
  <EntityGUID>g1</EntityGUID>
  <Name>Alice</Name>
  <Remark>r1</Remark>
  <Remark>r2</Remark>
  <EntityAddresses>
    <EntityAddress>
      <City>Paris</City>
      <Country/>
    </EntityAddress>
  </EntityAddresses>
  <DOB>
    <Day/>
    <Year>1970</Year>
  </DOB>
  <AdditionalSegments/>
</Entity>
`
	assert.Equal(t, want, buf.String())
}
