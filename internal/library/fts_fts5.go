//go:build sqlite_fts5

package library

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS assets_fts USING fts5(
			id UNINDEXED,
			name,
			path,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, name, path string, tags []string) error {
	if _, err := tx.Exec(`DELETE FROM assets_fts WHERE id = ? OR path = ?`, id, path); err != nil {
		return fmt.Errorf("library: clear fts: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO assets_fts (id, name, path, tags) VALUES (?, ?, ?, ?)`,
		id, name, path, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("library: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM assets_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("library: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 match over names, paths and tags, best first.
func (db *DB) Search(query string, limit int) ([]AssetRow, error) {
	if limit <= 0 {
		limit = 20
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT `+prefixed("a.")+`
		FROM assets_fts
		JOIN assets a ON a.id = assets_fts.id
		WHERE assets_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("library: search: %w", err)
	}
	defer rows.Close()
	return scanAssets(rows)
}

// ftsQuery turns free text into a prefix match on every word.
func ftsQuery(q string) string {
	words := strings.Fields(q)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"*`
	}
	return strings.Join(words, " ")
}

func prefixed(p string) string {
	cols := strings.Split(assetColumns, ", ")
	for i, c := range cols {
		cols[i] = p + c
	}
	return strings.Join(cols, ", ")
}
