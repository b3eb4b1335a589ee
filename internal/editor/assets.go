package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/starford/montage/internal/apperr"
	"github.com/starford/montage/internal/importer"
	"github.com/starford/montage/internal/library"
	"github.com/starford/montage/internal/storage"
	"github.com/starford/montage/internal/timeline"
)

// Directories under the media root for files created through the editor.
const (
	UploadDir    = "uploads"
	GeneratedDir = "generated"
)

// AssetItem is an asset as listed to clients.
type AssetItem struct {
	timeline.Asset
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
	Age       string    `json:"age"`
}

func newAssetItem(r library.AssetRow) AssetItem {
	return AssetItem{
		Asset:     r.Asset(),
		Path:      filepath.ToSlash(r.Path),
		Size:      r.Size,
		SizeHuman: humanize.Bytes(uint64(max(r.Size, 0))),
		Tags:      nonNilSlice(r.Tags),
		UpdatedAt: r.UpdatedAt,
		Age:       humanize.Time(r.UpdatedAt),
	}
}

// AssetQuery filters an asset listing.
type AssetQuery struct {
	Kind   string
	Query  string
	Limit  int
	Offset int
}

// ListAssets lists or searches the library. A non-empty query searches and
// ignores the offset.
func (s *Service) ListAssets(_ context.Context, q AssetQuery) ([]AssetItem, int, error) {
	var (
		rows  []library.AssetRow
		total int
		err   error
	)
	if strings.TrimSpace(q.Query) != "" {
		rows, err = s.db.Search(q.Query, q.Limit)
		if err == nil && q.Kind != "" {
			filtered := rows[:0]
			for _, r := range rows {
				if string(r.Kind) == q.Kind {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}
		total = len(rows)
	} else {
		rows, total, err = s.db.ListAssets(q.Kind, q.Limit, q.Offset)
	}
	if err != nil {
		return nil, 0, err
	}
	items := make([]AssetItem, len(rows))
	for i, r := range rows {
		items[i] = newAssetItem(r)
	}
	return items, total, nil
}

// Asset returns one library asset.
func (s *Service) Asset(_ context.Context, id string) (AssetItem, error) {
	row, err := s.db.GetAsset(id)
	if err != nil {
		return AssetItem{}, err
	}
	return newAssetItem(*row), nil
}

// AddMedia stores an uploaded media file under UploadDir and catalogs it.
// A name that collides with an existing upload gets a unique prefix.
func (s *Service) AddMedia(_ context.Context, name string, data []byte) (AssetItem, error) {
	name = cleanFileName(name)
	if _, ok := storage.KindOf(name); !ok {
		return AssetItem{}, fmt.Errorf("editor: unsupported media type %q: %w", filepath.Ext(name), apperr.ErrInvalid)
	}
	rel := filepath.Join(UploadDir, name)
	if _, err := s.store.Stat(rel); err == nil {
		rel = filepath.Join(UploadDir, uuid.NewString()[:8]+"-"+name)
	}
	return s.writeAndIndex(rel, data)
}

// AddGeneratedText stores text as a new text asset.
func (s *Service) AddGeneratedText(_ context.Context, text string) (AssetItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AssetItem{}, fmt.Errorf("editor: empty text: %w", apperr.ErrInvalid)
	}
	return s.writeAndIndex(filepath.Join(GeneratedDir, uuid.NewString()+".txt"), []byte(text+"\n"))
}

// AddGeneratedMedia stores generated binary media with a fresh name and the
// extension ext (".png", ".mp3", ...).
func (s *Service) AddGeneratedMedia(_ context.Context, ext string, data []byte) (AssetItem, error) {
	rel := filepath.Join(GeneratedDir, uuid.NewString()+strings.ToLower(ext))
	if _, ok := storage.KindOf(rel); !ok {
		return AssetItem{}, fmt.Errorf("editor: unsupported media type %q: %w", ext, apperr.ErrInvalid)
	}
	return s.writeAndIndex(rel, data)
}

func (s *Service) writeAndIndex(rel string, data []byte) (AssetItem, error) {
	if err := s.store.Write(rel, data); err != nil {
		return AssetItem{}, err
	}
	row, err := library.IndexPath(s.db, s.store, rel)
	if err != nil {
		return AssetItem{}, err
	}
	s.logger.Info("editor: asset added", slog.String("path", rel), slog.String("id", row.ID))
	return newAssetItem(*row), nil
}

// ImportReport summarizes a draft import.
type ImportReport struct {
	Adapter string   `json:"adapter"`
	Tracks  int      `json:"tracks"`
	Clips   int      `json:"clips"`
	Linked  int      `json:"linked"`
	Missing []string `json:"missing"`
}

// ImportDraft replaces the session project with an imported draft. Playback
// stops first; clip media is relinked from the library by file name.
func (s *Service) ImportDraft(ctx context.Context, data []byte) (timeline.Project, ImportReport, error) {
	imported, err := s.importer.Import(data)
	if err != nil {
		return s.session.Snapshot(), ImportReport{}, fmt.Errorf("editor: import: %w: %w", apperr.ErrInvalid, err)
	}
	p, linked := importer.Relink(*imported, s.lookupSource)

	s.clock.Stop()
	p = s.session.Replace(p)

	report := ImportReport{
		Adapter: s.importer.Name(),
		Tracks:  len(p.Tracks),
		Clips:   p.ClipCount(),
		Linked:  linked,
		Missing: nonNilSlice(importer.MissingSources(p)),
	}
	s.logger.Info("editor: draft imported",
		slog.String("adapter", report.Adapter),
		slog.Int("clips", report.Clips),
		slog.Int("linked", report.Linked),
		slog.Int("missing", len(report.Missing)))
	return p, report, nil
}

// Relink fills missing clip media in the current project from the library.
func (s *Service) Relink(_ context.Context) (timeline.Project, int) {
	linked := 0
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		var next timeline.Project
		next, linked = importer.Relink(p, s.lookupSource)
		return next
	})
	return p, linked
}

func (s *Service) lookupSource(name string) (string, bool) {
	row, err := s.db.FindByName(name)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("editor: relink lookup failed", slog.String("name", name), slog.String("error", err.Error()))
		}
		return "", false
	}
	return row.URL, true
}

// cleanFileName reduces name to a safe base file name.
func cleanFileName(name string) string {
	name = path.Base(filepath.ToSlash(strings.TrimSpace(name)))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`\/:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
