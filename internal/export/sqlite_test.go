package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/store"
)

func testStore() *store.Store {
	st := store.New()
	st.InsertOrUpdate("Steam", "💨", true, item.Canonical("Water", "Fire"))
	st.InsertOrUpdate("Steam", "💨", true, item.Canonical("Steam", "Steam"))
	st.InsertOrUpdate("Lava", "🌋", false, item.Canonical("Earth", "Fire"))
	st.MarkExhausted("Wind", "Earth")
	return st
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookbook.db")

	n, err := WriteSQLite(context.Background(), path, testStore())
	require.NoError(t, err)
	assert.Equal(t, Counts{Items: 6, Recipes: 3, Exhausted: 1}, n)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 6, count(t, db, "items"))
	assert.Equal(t, 3, count(t, db, "recipes"))
	assert.Equal(t, 1, count(t, db, "exhausted"))

	var emoji string
	var isNew bool
	require.NoError(t, db.QueryRow(`SELECT emoji, is_new FROM items WHERE name = ?`, "Steam").Scan(&emoji, &isNew))
	assert.Equal(t, "💨", emoji)
	assert.True(t, isNew)

	var result string
	require.NoError(t, db.QueryRow(`SELECT result FROM recipes WHERE first = ? AND second = ?`, "Fire", "Water").Scan(&result))
	assert.Equal(t, "Steam", result)
}

func TestWriteSQLite_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookbook.db")
	ctx := context.Background()

	_, err := WriteSQLite(ctx, path, testStore())
	require.NoError(t, err)
	n, err := WriteSQLite(ctx, path, store.New())
	require.NoError(t, err)
	assert.Equal(t, Counts{Items: 4}, n)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 4, count(t, db, "items"))
	assert.Zero(t, count(t, db, "recipes"))
}

func TestWriteSQLite_BadPath(t *testing.T) {
	_, err := WriteSQLite(context.Background(), filepath.Join(t.TempDir(), "missing", "x.db"), store.New())
	assert.Error(t, err)
}
