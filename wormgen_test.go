package worm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wormdb/worm"
)

const modelSource = `package music

import "time"

type Artist struct {
	ID        int64
	FirstName string ` + "`db:\"not_null\"`" + `
	LastName  string
	Email     string ` + "`db:\"unique\"`" + `
	Birthday  time.Time
	Albums    []Album
	cache     map[string]any
	Scratch   string ` + "`db:\"-\"`" + `
}

type Album struct {
	ID       int64
	ArtistID int64 ` + "`db:\"ref=artists\"`" + `
	Title    string
}

func (a Album) TableName() string { return "album" }
`

func writeModelFile(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestParseStruct(t *testing.T) {
	path := writeModelFile(t, modelSource)
	g := worm.NewGen()

	info, err := g.ParseStruct("Artist", path)
	require.NoError(t, err)

	assert.Equal(t, "Artist", info.Name)
	assert.Equal(t, "artists", info.TableName)
	assert.False(t, info.TableNameDeclared)
	assert.Equal(t, "music", info.PackageName)

	// Albums becomes a relation candidate, unexported and db:"-" fields drop
	require.Len(t, info.Fields, 5)
	require.Len(t, info.SliceFields, 1)
	assert.Equal(t, "Album", info.SliceFields[0].ElemType)

	id := info.Fields[0]
	assert.Equal(t, "id", id.ColumnName)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.NotNull)

	first := info.Fields[1]
	assert.Equal(t, "first_name", first.ColumnName)
	assert.Equal(t, worm.TypeText, first.Type)
	assert.True(t, first.NotNull)
	assert.False(t, first.PrimaryKey)

	email := info.Fields[3]
	assert.True(t, email.Unique)

	birthday := info.Fields[4]
	assert.Equal(t, worm.TypeTimestamp, birthday.Type)
}

func TestParseStructDeclaredTableName(t *testing.T) {
	path := writeModelFile(t, modelSource)
	g := worm.NewGen()

	info, err := g.ParseStruct("Album", path)
	require.NoError(t, err)
	assert.Equal(t, "album", info.TableName)
	assert.True(t, info.TableNameDeclared)

	fk := info.Fields[1]
	assert.Equal(t, "artist_id", fk.ColumnName)
	assert.Equal(t, "artists", fk.Ref)
}

func TestParseStructErrors(t *testing.T) {
	path := writeModelFile(t, modelSource)
	g := worm.NewGen()

	_, err := g.ParseStruct("", path)
	assert.Error(t, err)

	_, err = g.ParseStruct("Nope", path)
	assert.Error(t, err)

	noPK := writeModelFile(t, `package m

type Tag struct {
	Label string
}
`)
	_, err = g.ParseStruct("Tag", noPK)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no primary key")
}

func TestGenerateForFile(t *testing.T) {
	path := writeModelFile(t, modelSource)
	g := worm.NewGen()

	artist, err := g.ParseStruct("Artist", path)
	require.NoError(t, err)
	album, err := g.ParseStruct("Album", path)
	require.NoError(t, err)

	all := map[string]worm.StructInfo{"Artist": artist, "Album": album}
	g.ResolveRelations(all)

	require.NoError(t, g.GenerateForFile([]worm.StructInfo{all["Artist"], all["Album"]}, path))

	out, err := os.ReadFile(filepath.Join(filepath.Dir(path), "model_worm.go"))
	require.NoError(t, err)
	src := string(out)

	assert.Contains(t, src, "// Code generated by wormgen; DO NOT EDIT.")
	assert.Contains(t, src, "package music")
	assert.Contains(t, src, `var ArtistTable = worm.NewTable("artists",`)
	assert.Contains(t, src, `worm.Field{Name: "id", Type: worm.TypeInt, PrimaryKey: true, NotNull: true},`)
	assert.Contains(t, src, "func (m *Artist) Table() *worm.Table {")
	assert.Contains(t, src, "func (m *Artist) Values() []any {")
	assert.Contains(t, src, "func (m *Artist) Pointers() []any {")
	assert.Contains(t, src, "var ArtistMeta = struct {")
	assert.Contains(t, src, "func FindOneArtist(ctx context.Context, q *worm.Query) (*Artist, error) {")
	assert.Contains(t, src, "func FindAllArtist(ctx context.Context, q *worm.Query) ([]*Artist, error) {")
	assert.Contains(t, src, `worm.Field{Name: "artist_id", Type: worm.TypeInt, Ref: "artists"},`)
	assert.Contains(t, src, "func FindAllAlbumByArtistID(ctx context.Context, db *worm.DB, parentID int64) ([]*Album, error) {")
}

func TestResolveRelations(t *testing.T) {
	path := writeModelFile(t, modelSource)
	g := worm.NewGen()

	artist, err := g.ParseStruct("Artist", path)
	require.NoError(t, err)
	album, err := g.ParseStruct("Album", path)
	require.NoError(t, err)

	all := map[string]worm.StructInfo{"Artist": artist, "Album": album}
	g.ResolveRelations(all)

	rels := all["Album"].Relations
	require.Len(t, rels, 1)
	assert.Equal(t, "Album", rels[0].ChildStruct)
	assert.Equal(t, "ArtistID", rels[0].FKField)
	assert.Equal(t, "artist_id", rels[0].FKColumn)
	assert.Equal(t, "FindAllAlbumByArtistID", rels[0].LoaderName)
	assert.Equal(t, "int64", rels[0].FKFieldType)
}

func TestGenRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.go"), []byte(modelSource), 0o644))

	g := worm.NewGen()
	g.SetRootDir(dir)

	g.SetLog(func(messages ...any) { t.Log(messages...) })

	require.NoError(t, g.Run())

	_, err := os.Stat(filepath.Join(dir, "model_worm.go"))
	assert.NoError(t, err)
}

func TestGenRunNoModels(t *testing.T) {
	g := worm.NewGen()
	g.SetRootDir(t.TempDir())
	assert.Error(t, g.Run())
}
