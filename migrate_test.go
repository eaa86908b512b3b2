package worm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wormdb/worm"
)

func TestTableDiffString(t *testing.T) {
	d := worm.TableDiff{
		Table:   "artist",
		Added:   []string{"birthday", "id"},
		Removed: []string{"age"},
	}
	assert.Equal(t, "artist: +(birthday, id) -(age)", d.String())

	empty := worm.TableDiff{Table: "album"}
	assert.Equal(t, "album: +() -()", empty.String())
}

func TestMigrationError(t *testing.T) {
	err := &worm.MigrationError{Diffs: []worm.TableDiff{
		{Table: "artist", Added: []string{"birthday"}},
		{Table: "album", Removed: []string{"year"}},
	}}

	assert.ErrorIs(t, err, worm.ErrMigrationNeeded)
	assert.Contains(t, err.Error(), "artist: +(birthday) -()")
	assert.Contains(t, err.Error(), "album: +() -(year)")

	var me *worm.MigrationError
	assert.True(t, errors.As(error(err), &me))
	assert.Len(t, me.Diffs, 2)
}

func TestMasterTableIsVirtual(t *testing.T) {
	assert.True(t, worm.MasterTable.Virtual)
	assert.Equal(t, "sqlite_master", worm.MasterTable.String())
	// the catalog carries no implicit key of its own
	assert.Equal(t, []string{"type", "name", "tbl_name", "rootpage", "sql"}, worm.MasterTable.Columns())
}
