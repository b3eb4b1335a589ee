//go:build !sqlite_fts5

package library

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the assets table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search over names, paths and tags.
func (db *DB) Search(query string, limit int) ([]AssetRow, error) {
	if limit <= 0 {
		limit = 20
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT `+assetColumns+`
		FROM assets
		WHERE name LIKE ? ESCAPE '\' OR path LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE, path
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("library: search: %w", err)
	}
	defer rows.Close()
	return scanAssets(rows)
}
