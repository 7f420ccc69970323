// Package export writes a collection into a SQLite database for ad-hoc
// querying. The database is rebuilt from scratch on every export.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jeanpaul/cookbook/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Counts is the number of rows written per table.
type Counts struct {
	Items     int
	Recipes   int
	Exhausted int
}

// WriteSQLite replaces the items, recipes and exhausted tables in the
// database at path with the contents of st, in a single transaction.
func WriteSQLite(ctx context.Context, path string, st *store.Store) (Counts, error) {
	db, err := open(path)
	if err != nil {
		return Counts{}, err
	}
	defer db.Close()

	items, exhausted := st.Snapshot()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return Counts{}, fmt.Errorf("apply schema: %w", err)
	}

	insertItem, err := tx.PrepareContext(ctx, `INSERT INTO items (name, emoji, is_new) VALUES (?, ?, ?)`)
	if err != nil {
		return Counts{}, fmt.Errorf("prepare items: %w", err)
	}
	defer insertItem.Close()

	insertRecipe, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO recipes (result, first, second) VALUES (?, ?, ?)`)
	if err != nil {
		return Counts{}, fmt.Errorf("prepare recipes: %w", err)
	}
	defer insertRecipe.Close()

	var n Counts
	for _, it := range items {
		if _, err := insertItem.ExecContext(ctx, it.Name, it.Emoji, it.IsNew); err != nil {
			return Counts{}, fmt.Errorf("insert item %q: %w", it.Name, err)
		}
		n.Items++
		for _, p := range it.Parents {
			res, err := insertRecipe.ExecContext(ctx, it.Name, p.First, p.Second)
			if err != nil {
				return Counts{}, fmt.Errorf("insert recipe %s = %s: %w", p, it.Name, err)
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				n.Recipes++
			}
		}
	}
	for _, p := range exhausted {
		if _, err := tx.ExecContext(ctx, `INSERT INTO exhausted (first, second) VALUES (?, ?)`, p.First, p.Second); err != nil {
			return Counts{}, fmt.Errorf("insert exhausted %s: %w", p, err)
		}
		n.Exhausted++
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("commit export: %w", err)
	}
	return n, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}
