package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/montage/internal/apperr"
	"github.com/starford/montage/internal/checksum"
	"github.com/starford/montage/internal/models"
	"github.com/starford/montage/internal/timeline"
)

// MediaURLPrefix is where the HTTP server exposes the media directory.
const MediaURLPrefix = "/media/"

// AssetRow represents a row in the assets table.
type AssetRow struct {
	ID        string
	Path      string
	Kind      models.MediaKind
	Name      string
	URL       string
	Thumbnail string
	Duration  *float64
	Size      int64
	Tags      []string
	Checksum  string
	UpdatedAt time.Time
}

// Asset converts the row to the placement input.
func (r AssetRow) Asset() timeline.Asset {
	return timeline.Asset{
		ID:        r.ID,
		Kind:      timeline.ClipKind(r.Kind),
		URL:       r.URL,
		Name:      r.Name,
		Thumbnail: r.Thumbnail,
		Duration:  r.Duration,
	}
}

// IDForPath derives the stable asset id of a media path.
func IDForPath(path string) string {
	return checksum.Short(filepath.ToSlash(filepath.Clean(path)))
}

// URLForPath returns the URL a media path is served under.
func URLForPath(path string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return MediaURLPrefix + strings.Join(parts, "/")
}

const assetColumns = `id, path, kind, name, url, thumbnail, duration, size, tags, checksum, updated_at`

// UpsertAsset inserts or replaces an asset and its FTS entry within a
// transaction.
func (db *DB) UpsertAsset(a AssetRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("library: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if a.Tags == nil {
		a.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(a.Tags)

	// A path can only map to one id; clear any row left by an older id scheme.
	if _, err := tx.Exec(`DELETE FROM assets WHERE path = ? AND id <> ?`, a.Path, a.ID); err != nil {
		return fmt.Errorf("library: clear path: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			kind       = excluded.kind,
			name       = excluded.name,
			url        = excluded.url,
			thumbnail  = excluded.thumbnail,
			duration   = excluded.duration,
			size       = excluded.size,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, a.ID, a.Path, string(a.Kind), a.Name, a.URL, a.Thumbnail, a.Duration, a.Size,
		string(tagsJSON), a.Checksum, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("library: upsert asset: %w", err)
	}

	if err := ftsUpsert(tx, a.ID, a.Name, a.Path, a.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAsset removes the asset stored at path and its FTS entry.
func (db *DB) DeleteAsset(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("library: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("library: delete asset: %w", err)
	}
	return tx.Commit()
}

// GetAsset returns the asset with the given id.
func (db *DB) GetAsset(id string) (*AssetRow, error) {
	row := db.conn.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("library: asset %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("library: get asset: %w", err)
	}
	return a, nil
}

// FindByName returns the asset whose name or file name equals name. When
// several match, the shortest path wins.
func (db *DB) FindByName(name string) (*AssetRow, error) {
	row := db.conn.QueryRow(`
		SELECT `+assetColumns+` FROM assets
		WHERE name = ? OR path = ? OR path LIKE ? ESCAPE '\'
		ORDER BY length(path), path
		LIMIT 1
	`, name, name, "%/"+escapeLike(name))
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("library: asset named %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("library: find by name: %w", err)
	}
	return a, nil
}

// ListAssets returns a page of assets ordered by name, optionally filtered
// by kind, plus the total number of matches.
func (db *DB) ListAssets(kind string, limit, offset int) ([]AssetRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where, args := "", []any{}
	if kind != "" {
		where, args = "WHERE kind = ?", append(args, kind)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM assets `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("library: count assets: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+assetColumns+` FROM assets `+where+`
		ORDER BY name COLLATE NOCASE, path LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("library: list assets: %w", err)
	}
	defer rows.Close()
	out, err := scanAssets(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllChecksums returns path → checksum for every cataloged asset.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("library: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*AssetRow, error) {
	var (
		a        AssetRow
		kind     string
		duration sql.NullFloat64
		tags     string
	)
	if err := s.Scan(&a.ID, &a.Path, &kind, &a.Name, &a.URL, &a.Thumbnail, &duration,
		&a.Size, &tags, &a.Checksum, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Kind = models.MediaKind(kind)
	if duration.Valid {
		d := duration.Float64
		a.Duration = &d
	}
	_ = json.Unmarshal([]byte(tags), &a.Tags)
	return &a, nil
}

func scanAssets(rows *sql.Rows) ([]AssetRow, error) {
	var out []AssetRow
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
