package worm

import (
	"sort"

	. "github.com/tinywasm/fmt"
)

// RelationInfo describes a one-to-many relation loader to generate.
type RelationInfo struct {
	ChildStruct string // e.g. "Album"
	FKField     string // e.g. "ArtistID"  (Go field name)
	FKColumn    string // e.g. "artist_id" (column name)
	LoaderName  string // e.g. "FindAllAlbumByArtistID"
	FKFieldType string // e.g. "int64"
}

// ResolveRelations (exported for testing) scans all parent SliceFields,
// finds the matching FK in the child struct, and appends RelationInfo
// to the child's entry in the map.
func (g *Gen) ResolveRelations(all map[string]StructInfo) {
	// Sort parent names to ensure deterministic relation generation
	var parentNames []string
	for parentName := range all {
		parentNames = append(parentNames, parentName)
	}
	sort.Strings(parentNames)

	for _, parentName := range parentNames {
		parentInfo := all[parentName]
		for _, sliceField := range parentInfo.SliceFields {
			childStructName := sliceField.ElemType
			childInfo, ok := all[childStructName]
			if !ok {
				g.log(Sprintf("Warning: relation field %s.%s points to unknown struct %s; skipping", parentName, sliceField.Name, childStructName))
				continue
			}

			fkField := findFKField(childInfo, parentInfo.TableName)
			if fkField == nil {
				g.log(Sprintf("Warning: no FK found in child %s pointing to parent table %s (from %s.%s); skipping relation loader", childStructName, parentInfo.TableName, parentName, sliceField.Name))
				continue
			}

			rel := RelationInfo{
				ChildStruct: childStructName,
				FKField:     fkField.Name,
				FKColumn:    fkField.ColumnName,
				LoaderName:  Sprintf("FindAll%sBy%s", childStructName, fkField.Name),
				FKFieldType: fkField.GoType,
			}
			childInfo.Relations = append(childInfo.Relations, rel)
			all[childStructName] = childInfo
		}
	}
}

// findFKField returns the first FieldInfo in child whose Ref matches parentTable,
// or nil if none found.
func findFKField(child StructInfo, parentTable string) *FieldInfo {
	for _, f := range child.Fields {
		if f.Ref == parentTable {
			return &f
		}
	}
	return nil
}
