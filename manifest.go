package worm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// A manifest is a declarative schema file: YAML table descriptions that
// load into Table descriptors. Abstract tables declared in a manifest
// exist only to be extended by later tables in the same document; they
// are not returned.
//
//	tables:
//	  - name: timestamped
//	    abstract: true
//	    fields:
//	      - {name: created_at, type: timestamp, not_null: true}
//	  - name: artist
//	    extends: timestamped
//	    fields:
//	      - {name: first_name, type: text, default: NA}
//	      - {name: last_name, type: text, default: NA}

type manifest struct {
	Tables []manifestTable `yaml:"tables"`
}

type manifestTable struct {
	Name     string          `yaml:"name"`
	Abstract bool            `yaml:"abstract"`
	Extends  string          `yaml:"extends"`
	Fields   []manifestField `yaml:"fields"`
}

type manifestField struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Default    any    `yaml:"default"`
	PrimaryKey bool   `yaml:"primary_key"`
	NotNull    bool   `yaml:"not_null"`
	Unique     bool   `yaml:"unique"`
	Ref        string `yaml:"ref"`
	OnDelete   string `yaml:"on_delete"`
	OnUpdate   string `yaml:"on_update"`
}

var fieldTypes = map[string]FieldType{
	"text":      TypeText,
	"int":       TypeInt,
	"integer":   TypeInt,
	"float":     TypeFloat,
	"real":      TypeFloat,
	"bool":      TypeBool,
	"blob":      TypeBlob,
	"date":      TypeDate,
	"timestamp": TypeTimestamp,
}

var refActions = map[string]RefAction{
	"restrict":    Restrict,
	"set null":    SetNull,
	"set default": SetDefault,
	"cascade":     Cascade,
}

// LoadManifestFile loads a schema manifest from a file path.
func LoadManifestFile(path string) ([]*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tables, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tables, nil
}

// LoadManifest parses a YAML schema manifest into concrete table
// descriptors, in declaration order.
func LoadManifest(r io.Reader) ([]*Table, error) {
	var doc manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("%w: no tables declared", ErrManifest)
	}

	seen := make(map[string]*Table)
	var tables []*Table
	for _, mt := range doc.Tables {
		if mt.Name == "" {
			return nil, fmt.Errorf("%w: table without a name", ErrManifest)
		}
		if _, dup := seen[mt.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate table %s", ErrManifest, mt.Name)
		}
		fields, err := manifestFields(mt)
		if err != nil {
			return nil, err
		}

		var t *Table
		switch {
		case mt.Abstract && mt.Extends != "":
			return nil, fmt.Errorf("%w: table %s is abstract and extends %s", ErrManifest, mt.Name, mt.Extends)
		case mt.Abstract:
			t = NewAbstractTable(mt.Name, fields...)
		case mt.Extends != "":
			base, ok := seen[mt.Extends]
			if !ok {
				return nil, fmt.Errorf("%w: table %s extends unknown table %s", ErrManifest, mt.Name, mt.Extends)
			}
			if !base.Abstract {
				return nil, fmt.Errorf("%w: table %s extends non-abstract table %s", ErrManifest, mt.Name, mt.Extends)
			}
			t = base.Derive(mt.Name, fields...)
		default:
			t = NewTable(mt.Name, fields...)
		}
		seen[mt.Name] = t
		if !t.Abstract {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func manifestFields(mt manifestTable) ([]Field, error) {
	names := make(map[string]bool)
	fields := make([]Field, 0, len(mt.Fields))
	for _, mf := range mt.Fields {
		if mf.Name == "" {
			return nil, fmt.Errorf("%w: table %s has a field without a name", ErrManifest, mt.Name)
		}
		if names[mf.Name] {
			return nil, fmt.Errorf("%w: duplicate field %s.%s", ErrManifest, mt.Name, mf.Name)
		}
		names[mf.Name] = true

		f := Field{
			Name:       mf.Name,
			Default:    mf.Default,
			PrimaryKey: mf.PrimaryKey,
			NotNull:    mf.NotNull,
			Unique:     mf.Unique,
			Ref:        mf.Ref,
		}
		if mf.Ref == "" {
			ft, ok := fieldTypes[strings.ToLower(mf.Type)]
			if !ok {
				return nil, fmt.Errorf("%w: field %s.%s has unknown type %q", ErrManifest, mt.Name, mf.Name, mf.Type)
			}
			f.Type = ft
		} else {
			f.Type = TypeInt
		}
		if mf.OnDelete != "" {
			action, ok := refActions[strings.ToLower(mf.OnDelete)]
			if !ok {
				return nil, fmt.Errorf("%w: field %s.%s has unknown on_delete %q", ErrManifest, mt.Name, mf.Name, mf.OnDelete)
			}
			f.OnDelete = action
		}
		if mf.OnUpdate != "" {
			action, ok := refActions[strings.ToLower(mf.OnUpdate)]
			if !ok {
				return nil, fmt.Errorf("%w: field %s.%s has unknown on_update %q", ErrManifest, mt.Name, mf.Name, mf.OnUpdate)
			}
			f.OnUpdate = action
		}
		fields = append(fields, f)
	}
	return fields, nil
}
