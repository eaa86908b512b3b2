package worm

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/tinywasm/fmt"
)

// FieldInfo is a parsed struct field headed for a Field descriptor.
type FieldInfo struct {
	Name       string // Go field name, e.g. "FirstName"
	ColumnName string // column name, e.g. "first_name"
	Type       FieldType
	PrimaryKey bool
	Unique     bool
	NotNull    bool
	Ref        string // FK: target table name from db:"ref=..."
	GoType     string
}

// SliceFieldInfo records a slice-of-struct field found in a parent struct.
// Not DB-mapped; used only for relation resolution.
type SliceFieldInfo struct {
	Name     string // e.g. "Albums"
	ElemType string // e.g. "Album"
}

// StructInfo is everything wormgen knows about one model struct.
type StructInfo struct {
	Name              string
	TableName         string
	PackageName       string
	Fields            []FieldInfo
	TableNameDeclared bool
	SourceFile        string
	SliceFields       []SliceFieldInfo // populated by ParseStruct; used by ResolveRelations
	Relations         []RelationInfo   // populated by ResolveRelations; used by GenerateForFile
}

// declaredTableName returns the literal a TableName() method on structName
// returns, or "" when the struct declares none.
func declaredTableName(file *ast.File, structName string) string {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "TableName" || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		if receiverName(fn.Recv.List[0].Type) != structName {
			continue
		}
		if fn.Body == nil || len(fn.Body.List) != 1 {
			continue
		}
		ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		if lit, ok := ret.Results[0].(*ast.BasicLit); ok {
			return Convert(lit.Value).TrimPrefix(`"`).TrimSuffix(`"`).String()
		}
	}
	return ""
}

func receiverName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// findStruct locates the named struct type declaration in a parsed file.
func findStruct(file *ast.File, name string) (*ast.StructType, bool) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Name.Name != name {
				continue
			}
			if st, ok := ts.Type.(*ast.StructType); ok {
				return st, true
			}
		}
	}
	return nil, false
}

// dbTagOf extracts the db struct tag value, "" when absent.
func dbTagOf(field *ast.Field) string {
	if field.Tag == nil {
		return ""
	}
	raw := Convert(field.Tag.Value).TrimPrefix("`").TrimSuffix("`").String()
	for _, part := range Convert(raw).Split(" ") {
		if HasPrefix(part, `db:"`) {
			return Convert(part).TrimPrefix(`db:"`).TrimSuffix(`"`).String()
		}
	}
	return ""
}

// goTypeOf names the field's Go type for the cases the generator maps.
// Slices other than []byte return "" here; they are relation candidates.
func goTypeOf(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return pkg.Name + "." + t.Sel.Name
		}
	case *ast.ArrayType:
		if elt, ok := t.Elt.(*ast.Ident); ok && elt.Name == "byte" {
			return "[]byte"
		}
	}
	return ""
}

// sliceElem returns the element type name of a []Struct field, "" otherwise.
func sliceElem(expr ast.Expr) string {
	arr, ok := expr.(*ast.ArrayType)
	if !ok {
		return ""
	}
	if elt, ok := arr.Elt.(*ast.Ident); ok && elt.Name != "byte" {
		return elt.Name
	}
	return ""
}

func mapFieldType(goType string) (FieldType, bool) {
	switch goType {
	case "string":
		return TypeText, true
	case "int", "int32", "int64", "uint", "uint32", "uint64":
		return TypeInt, true
	case "float32", "float64":
		return TypeFloat, true
	case "bool":
		return TypeBool, true
	case "[]byte":
		return TypeBlob, true
	case "time.Time":
		return TypeTimestamp, true
	}
	return TypeText, false
}

// ParseStruct parses a single struct from a Go file and returns its metadata.
func (g *Gen) ParseStruct(structName string, goFile string) (StructInfo, error) {
	if structName == "" {
		return StructInfo{}, Err("Please provide a struct name")
	}
	if goFile == "" {
		return StructInfo{}, Err("goFile path cannot be empty")
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
	if err != nil {
		return StructInfo{}, Err(err, "Failed to parse file")
	}

	st, ok := findStruct(file, structName)
	if !ok {
		return StructInfo{}, Err("Struct not found in file")
	}

	tableName := declaredTableName(file, structName)
	declared := tableName != ""
	if !declared {
		tableName = Convert(structName + "s").SnakeLow().String()
	}

	info := StructInfo{
		Name:              structName,
		TableName:         tableName,
		PackageName:       file.Name.Name,
		TableNameDeclared: declared,
	}

	pkFound := false
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded field
		}
		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}
		tag := dbTagOf(field)
		if tag == "-" {
			continue
		}

		if elem := sliceElem(field.Type); elem != "" {
			// []Struct is a relation candidate, never a column
			info.SliceFields = append(info.SliceFields, SliceFieldInfo{Name: fieldName, ElemType: elem})
			continue
		}

		goType := goTypeOf(field.Type)
		fieldType, ok := mapFieldType(goType)
		if !ok {
			g.log(Sprintf("Warning: unsupported type %s for field %s.%s; skipping. Add db:\"-\" to suppress.", goType, structName, fieldName))
			continue
		}

		f := FieldInfo{
			Name:       fieldName,
			ColumnName: Convert(fieldName).SnakeLow().String(),
			Type:       fieldType,
			GoType:     goType,
		}

		if isID, isPK := IDorPrimaryKey(tableName, fieldName); (isID || isPK) && !pkFound {
			f.PrimaryKey = true
			f.NotNull = true
			pkFound = true
		}

		for _, opt := range Convert(tag).Split(",") {
			switch {
			case opt == "pk" || opt == "autoincrement":
				if !f.PrimaryKey && !pkFound {
					f.PrimaryKey = true
					f.NotNull = true
					pkFound = true
				}
			case opt == "unique":
				f.Unique = true
			case opt == "not_null":
				f.NotNull = true
			case HasPrefix(opt, "ref="):
				target := Convert(opt).TrimPrefix("ref=").String()
				parts := Convert(target).Split(":")
				f.Ref = parts[0]
				if len(parts) > 1 {
					g.log(Sprintf("Warning: ref column override on %s.%s ignored; references always target the primary key", structName, fieldName))
				}
			}
		}

		info.Fields = append(info.Fields, f)
	}

	if len(info.Fields) > 0 && !pkFound {
		return StructInfo{}, Err(Sprintf("struct %s has no primary key field; declare one with db:\"pk\"", structName))
	}

	return info, nil
}

// GenerateForStruct reads the Go file and generates the worm bindings for a given struct name.
func (g *Gen) GenerateForStruct(structName string, goFile string) error {
	info, err := g.ParseStruct(structName, goFile)
	if err != nil {
		return err
	}
	if len(info.Fields) == 0 {
		return nil
	}
	return g.GenerateForFile([]StructInfo{info}, goFile)
}

func fieldTypeExpr(t FieldType) string {
	switch t {
	case TypeInt:
		return "worm.TypeInt"
	case TypeFloat:
		return "worm.TypeFloat"
	case TypeBool:
		return "worm.TypeBool"
	case TypeBlob:
		return "worm.TypeBlob"
	case TypeDate:
		return "worm.TypeDate"
	case TypeTimestamp:
		return "worm.TypeTimestamp"
	default:
		return "worm.TypeText"
	}
}

func fieldLiteral(f FieldInfo) string {
	lit := Convert(Sprintf("\tworm.Field{Name: \"%s\", Type: %s", f.ColumnName, fieldTypeExpr(f.Type)))
	if f.PrimaryKey {
		lit.Write(", PrimaryKey: true")
	}
	if f.NotNull {
		lit.Write(", NotNull: true")
	}
	if f.Unique {
		lit.Write(", Unique: true")
	}
	if f.Ref != "" {
		lit.Write(Sprintf(", Ref: \"%s\"", f.Ref))
	}
	lit.Write("},\n")
	return lit.String()
}

// GenerateForFile writes worm bindings for all infos into one file.
func (g *Gen) GenerateForFile(infos []StructInfo, sourceFile string) error {
	if len(infos) == 0 {
		return nil
	}
	buf := Convert()
	buf.Write("// Code generated by wormgen; DO NOT EDIT.\n")
	buf.Write("// NOTE: Values() and Pointers() must always be in table field order.\n")
	buf.Write(Sprintf("package %s\n\n", infos[0].PackageName))
	buf.Write("import (\n\t\"context\"\n\n\t\"github.com/wormdb/worm\"\n)\n\n")

	for _, info := range infos {
		name := info.Name

		// Table descriptor
		buf.Write(Sprintf("var %sTable = worm.NewTable(\"%s\",\n", name, info.TableName))
		for _, f := range info.Fields {
			buf.Write(fieldLiteral(f))
		}
		buf.Write(")\n\n")

		// Model interface
		buf.Write(Sprintf("func (m *%s) Table() *worm.Table {\n\treturn %sTable\n}\n\n", name, name))

		buf.Write(Sprintf("func (m *%s) Values() []any {\n\treturn []any{\n", name))
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t\tm.%s,\n", f.Name))
		}
		buf.Write("\t}\n}\n\n")

		buf.Write(Sprintf("func (m *%s) Pointers() []any {\n\treturn []any{\n", name))
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t\t&m.%s,\n", f.Name))
		}
		buf.Write("\t}\n}\n\n")

		// Column-name metadata
		buf.Write(Sprintf("var %sMeta = struct {\n\tTableName string\n", name))
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t%s string\n", f.Name))
		}
		buf.Write(Sprintf("}{\n\tTableName: \"%s\",\n", info.TableName))
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t%s: \"%s\",\n", f.Name, f.ColumnName))
		}
		buf.Write("}\n\n")

		// Typed read helpers
		buf.Write(Sprintf("func FindOne%s(ctx context.Context, q *worm.Query) (*%s, error) {\n", name, name))
		buf.Write(Sprintf("\tm := &%s{}\n", name))
		buf.Write("\tif err := q.Scan(ctx, m); err != nil {\n\t\treturn nil, err\n\t}\n")
		buf.Write("\treturn m, nil\n}\n\n")

		buf.Write(Sprintf("func FindAll%s(ctx context.Context, q *worm.Query) ([]*%s, error) {\n", name, name))
		buf.Write(Sprintf("\tvar results []*%s\n", name))
		buf.Write("\terr := q.Each(ctx,\n")
		buf.Write(Sprintf("\t\tfunc() worm.Model { return &%s{} },\n", name))
		buf.Write(Sprintf("\t\tfunc(m worm.Model) { results = append(results, m.(*%s)) },\n", name))
		buf.Write("\t)\n\treturn results, err\n}\n\n")

		for _, rel := range info.Relations {
			buf.Write(Sprintf(
				"// FindAll%sBy%s retrieves all %s records for a given parent key.\n"+
					"// Auto-generated by wormgen — relation detected via db:\"ref=%s\".\n"+
					"func FindAll%sBy%s(ctx context.Context, db *worm.DB, parentID %s) ([]*%s, error) {\n"+
					"\treturn FindAll%s(ctx, db.Find(%sTable).Where(worm.Eq(%sMeta.%s, parentID)))\n"+
					"}\n\n",
				rel.ChildStruct, rel.FKField,
				rel.ChildStruct,
				info.TableName, // parent table, for the comment
				rel.ChildStruct, rel.FKField, rel.FKFieldType, rel.ChildStruct,
				rel.ChildStruct, rel.ChildStruct, rel.ChildStruct, rel.FKField,
			))
		}
	}

	outName := Convert(sourceFile).TrimSuffix(".go").String() + "_worm.go"
	return os.WriteFile(outName, buf.Bytes(), 0644)
}

// collectAllStructs walks rootDir and returns every parsed StructInfo
// keyed by struct name, with struct and file discovery order preserved.
func (g *Gen) collectAllStructs() (map[string]StructInfo, []string, []string, error) {
	all := make(map[string]StructInfo)
	var structOrder, fileOrder []string
	fileSeen := make(map[string]bool)

	err := filepath.WalkDir(g.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			switch entry.Name() {
			case "vendor", ".git", "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name() != "model.go" && entry.Name() != "models.go" {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil // skip unparseable files
		}

		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if _, ok := ts.Type.(*ast.StructType); !ok {
					continue
				}
				info, err := g.ParseStruct(ts.Name.Name, path)
				if err != nil {
					g.log(Sprintf("Skipping %s in %s: %v", ts.Name.Name, path, err))
					continue
				}
				if len(info.Fields) == 0 {
					g.log(Sprintf("Warning: %s has no mappable fields; skipping", ts.Name.Name))
					continue
				}
				info.SourceFile = path
				all[info.Name] = info
				structOrder = append(structOrder, info.Name)
				if !fileSeen[path] {
					fileSeen[path] = true
					fileOrder = append(fileOrder, path)
				}
			}
		}
		return nil
	})

	return all, structOrder, fileOrder, err
}

// generateAll groups the enriched all map by source file path and calls
// GenerateForFile once per file.
func (g *Gen) generateAll(all map[string]StructInfo, structOrder []string, fileOrder []string) error {
	byFile := make(map[string][]StructInfo)
	for _, structName := range structOrder {
		info := all[structName]
		byFile[info.SourceFile] = append(byFile[info.SourceFile], info)
	}
	for _, sourceFile := range fileOrder {
		if infos := byFile[sourceFile]; len(infos) > 0 {
			if err := g.GenerateForFile(infos, sourceFile); err != nil {
				g.log(Sprintf("Failed to write output for %s: %v", sourceFile, err))
			}
		}
	}
	return nil
}

// Run is the entry point for the CLI tool: collect model structs,
// resolve cross-struct relations, then generate per source file.
func (g *Gen) Run() error {
	all, structOrder, fileOrder, err := g.collectAllStructs()
	if err != nil {
		return Err(err, "error walking directory")
	}
	if len(all) == 0 {
		return Err("no models found")
	}
	g.ResolveRelations(all)
	return g.generateAll(all, structOrder, fileOrder)
}
