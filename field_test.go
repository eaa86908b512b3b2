package worm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wormdb/worm"
)

func TestFieldString(t *testing.T) {
	f := worm.Field{Name: "s", Type: worm.TypeText}
	assert.Equal(t, "s", f.String())
}

func TestFieldColumnDef(t *testing.T) {
	tests := []struct {
		name  string
		field worm.Field
		want  string
	}{
		{
			name:  "plain text",
			field: worm.Field{Name: "title", Type: worm.TypeText},
			want:  "title TEXT",
		},
		{
			name:  "default and not null",
			field: worm.Field{Name: "name", Type: worm.TypeText, Default: 3, NotNull: true},
			want:  "name TEXT DEFAULT (3) NOT NULL",
		},
		{
			name:  "string default is quoted",
			field: worm.Field{Name: "first_name", Type: worm.TypeText, Default: "NA"},
			want:  "first_name TEXT DEFAULT ('NA')",
		},
		{
			name: "date default",
			field: worm.Field{
				Name:    "birthday",
				Type:    worm.TypeDate,
				Default: time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
				NotNull: true,
			},
			want: "birthday DATE DEFAULT ('1000-01-01') NOT NULL",
		},
		{
			name:  "primary key",
			field: worm.Field{Name: "id", Type: worm.TypeInt, PrimaryKey: true, NotNull: true},
			want:  "id INTEGER PRIMARY KEY NOT NULL",
		},
		{
			name:  "foreign key renders as integer reference",
			field: worm.Field{Name: "artist", Ref: "artist", NotNull: true},
			want:  "artist INTEGER REFERENCES artist NOT NULL",
		},
		{
			name:  "foreign key with actions",
			field: worm.Field{Name: "owner", Ref: "users", OnDelete: worm.Cascade, OnUpdate: worm.SetNull},
			want:  "owner INTEGER REFERENCES users ON DELETE cascade ON UPDATE set null",
		},
		{
			name:  "unique",
			field: worm.Field{Name: "email", Type: worm.TypeText, Unique: true},
			want:  "email TEXT UNIQUE",
		},
		{
			name:  "generated stored column",
			field: worm.Field{Name: "total", Type: worm.TypeFloat, Generate: "price * qty", Stored: true},
			want:  "total REAL AS (price * qty) STORED",
		},
		{
			name:  "bool uses integer affinity",
			field: worm.Field{Name: "active", Type: worm.TypeBool, Default: true},
			want:  "active INTEGER DEFAULT (1)",
		},
		{
			name:  "blob default",
			field: worm.Field{Name: "payload", Type: worm.TypeBlob, Default: []byte{0xde, 0xad}},
			want:  "payload BLOB DEFAULT (X'DEAD')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.ColumnDef())
		})
	}
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "NULL", worm.Literal(nil))
	assert.Equal(t, "'it''s'", worm.Literal("it's"))
	assert.Equal(t, "42", worm.Literal(42))
	assert.Equal(t, "1.5", worm.Literal(1.5))
	assert.Equal(t, "0", worm.Literal(false))
	assert.Equal(t, "'1995-10-21'", worm.Literal(time.Date(1995, 10, 21, 0, 0, 0, 0, time.UTC)))
}
