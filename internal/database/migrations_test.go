package database

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("docs")},
		"sub/3.sql": {Data: []byte("SELECT 3;")},
	}

	ms, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "001_a.sql", ms[0].Version)
	assert.Equal(t, "SELECT 1;", ms[0].SQL)
	assert.Equal(t, "002_b.sql", ms[1].Version)
}

func TestRepositoryMigrationsCoverEveryTable(t *testing.T) {
	ms, err := LoadMigrations(os.DirFS("../../migrations"))
	require.NoError(t, err)

	var all string
	for _, m := range ms {
		all += m.SQL
	}
	for _, table := range []string{"profiles", "inventory", "categories", "departments", "activity_log"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
