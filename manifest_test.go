package worm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wormdb/worm"
)

func loadManifest(t *testing.T, doc string) []*worm.Table {
	t.Helper()
	tables, err := worm.LoadManifest(strings.NewReader(doc))
	require.NoError(t, err)
	return tables
}

func TestLoadManifest(t *testing.T) {
	tables := loadManifest(t, `
tables:
  - name: artist
    fields:
      - {name: first_name, type: text, default: NA}
      - {name: last_name, type: text, default: NA}
      - {name: birthday, type: date, not_null: true}
  - name: album
    fields:
      - {name: artist, ref: artist, not_null: true, on_delete: cascade}
      - {name: title, type: text, not_null: true}
`)
	require.Len(t, tables, 2)

	artist := tables[0]
	assert.Equal(t, "artist", artist.Name)
	assert.Equal(t, []string{"first_name", "last_name", "birthday", "id"}, artist.Columns())

	first, ok := artist.Field("first_name")
	require.True(t, ok)
	assert.Equal(t, worm.TypeText, first.Type)
	assert.Equal(t, "NA", first.Default)

	album := tables[1]
	fk, ok := album.Field("artist")
	require.True(t, ok)
	assert.Equal(t, "artist", fk.Ref)
	assert.Equal(t, worm.TypeInt, fk.Type)
	assert.Equal(t, worm.Cascade, fk.OnDelete)
	assert.Contains(t, album.CreateSQL(), "artist INTEGER REFERENCES artist ON DELETE cascade NOT NULL")
}

func TestLoadManifestDeclaredPrimaryKey(t *testing.T) {
	tables := loadManifest(t, `
tables:
  - name: country
    fields:
      - {name: code, type: int, primary_key: true}
      - {name: label, type: text}
`)
	require.Len(t, tables, 1)

	country := tables[0]
	assert.Equal(t, []string{"code", "label"}, country.Columns())

	pk, _, ok := country.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "code", pk.Name)
	assert.Equal(t, 1, strings.Count(country.CreateSQL(), "PRIMARY KEY"))
}

func TestLoadManifestExtends(t *testing.T) {
	tables := loadManifest(t, `
tables:
  - name: timestamped
    abstract: true
    fields:
      - {name: created_at, type: timestamp, not_null: true}
  - name: note
    extends: timestamped
    fields:
      - {name: body, type: text}
`)
	// abstract bases serve extension only, they are not returned
	require.Len(t, tables, 1)
	note := tables[0]
	assert.Equal(t, "note", note.Name)
	assert.False(t, note.Abstract)
	assert.Equal(t, []string{"created_at", "body", "id"}, note.Columns())
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty document", "tables: []", "no tables declared"},
		{"nameless table", "tables:\n  - fields: [{name: x, type: int}]", "table without a name"},
		{
			"duplicate table",
			"tables:\n  - {name: a, fields: []}\n  - {name: a, fields: []}",
			"duplicate table a",
		},
		{
			"nameless field",
			"tables:\n  - name: a\n    fields: [{type: int}]",
			"field without a name",
		},
		{
			"duplicate field",
			"tables:\n  - name: a\n    fields: [{name: x, type: int}, {name: x, type: text}]",
			"duplicate field a.x",
		},
		{
			"unknown type",
			"tables:\n  - name: a\n    fields: [{name: x, type: varchar}]",
			`unknown type "varchar"`,
		},
		{
			"unknown on_delete",
			"tables:\n  - name: a\n    fields: [{name: x, ref: b, on_delete: explode}]",
			`unknown on_delete "explode"`,
		},
		{
			"abstract with extends",
			"tables:\n  - {name: base, abstract: true, fields: []}\n  - {name: a, abstract: true, extends: base, fields: []}",
			"is abstract and extends",
		},
		{
			"extends unknown base",
			"tables:\n  - name: a\n    extends: nope\n    fields: []",
			"extends unknown table nope",
		},
		{
			"extends concrete table",
			"tables:\n  - {name: base, fields: []}\n  - {name: a, extends: base, fields: []}",
			"extends non-abstract table base",
		},
		{
			"unknown key rejected",
			"tables:\n  - name: a\n    colour: red\n    fields: []",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := worm.LoadManifest(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, worm.ErrManifest)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestLoadManifestFileMissing(t *testing.T) {
	_, err := worm.LoadManifestFile("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
