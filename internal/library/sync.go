package library

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/montage/internal/models"
	"github.com/starford/montage/internal/parser"
	"github.com/starford/montage/internal/storage"
)

// Sync walks the media directory and brings the catalog up to date:
//   - new or changed files (or sidecars) are indexed
//   - files removed from disk are deleted from the catalog
func Sync(db Catalog, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
		if checksums[f.Path] == f.Fingerprint {
			continue
		}
		if _, err := indexFile(db, store, f); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteAsset(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// IndexPath catalogs the media file at path, which is relative to the media
// root, and returns its row.
func IndexPath(db Catalog, store storage.Provider, path string) (*AssetRow, error) {
	f, err := store.Stat(path)
	if err != nil {
		return nil, err
	}
	return indexFile(db, store, f)
}

// indexFile derives the asset row for f from the file and its sidecar and
// upserts it.
func indexFile(db Catalog, store storage.Provider, f models.MediaFile) (*AssetRow, error) {
	row := AssetRow{
		ID:        IDForPath(f.Path),
		Path:      f.Path,
		Kind:      f.Kind,
		Name:      filepath.Base(f.Path),
		URL:       URLForPath(f.Path),
		Size:      f.Size,
		Checksum:  f.Fingerprint,
		UpdatedAt: f.UpdatedAt,
	}
	if f.Kind == models.MediaImage {
		row.Thumbnail = row.URL
	}

	// A text asset's name is its text, which placement turns into the clip
	// content; metadata names apply only to empty text files.
	var meta parser.Metadata
	hasText := false
	if f.Kind == models.MediaText {
		data, err := store.Read(f.Path)
		if err != nil {
			return nil, err
		}
		var text string
		meta, text = parser.ParseText(data)
		if text != "" {
			row.Name = text
			hasText = true
		}
	}

	if data, err := store.Read(storage.SidecarFor(f.Path)); err == nil {
		side, err := parser.ParseSidecar(data)
		if err != nil {
			return nil, fmt.Errorf("library: %s: %w", f.Path, err)
		}
		meta = merge(meta, side)
	}

	if meta.Name != "" && !hasText {
		row.Name = meta.Name
	}
	if meta.Thumbnail != "" {
		row.Thumbnail = meta.Thumbnail
	}
	row.Duration = meta.Duration
	row.Tags = meta.Tags

	if err := db.UpsertAsset(row); err != nil {
		return nil, err
	}
	return &row, nil
}

// merge lets sidecar fields win over inline frontmatter.
func merge(base, over parser.Metadata) parser.Metadata {
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Duration != nil {
		base.Duration = over.Duration
	}
	if over.Thumbnail != "" {
		base.Thumbnail = over.Thumbnail
	}
	if len(over.Tags) > 0 {
		base.Tags = over.Tags
	}
	return base
}

// relPath converts an absolute event path under root to a media path.
func relPath(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}
