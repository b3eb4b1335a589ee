package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/montage/internal/checksum"
	"github.com/starford/montage/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the media directory
}

// NewFS creates a new FS provider rooted at the given directory, creating
// it when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute media root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the media root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes media root: %s", rel)
	}
	return abs, nil
}

// List walks dir and returns every media file below it.
func (f *FS) List(dir string) ([]models.MediaFile, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.MediaFile
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != base && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(d.Name()) {
			return nil
		}
		kind, ok := KindOf(d.Name())
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, f.describe(rel, kind, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Stat describes one media file.
func (f *FS) Stat(path string) (models.MediaFile, error) {
	kind, ok := KindOf(path)
	if !ok {
		return models.MediaFile{}, fmt.Errorf("storage: not a media file: %s", path)
	}
	abs, err := f.safePath(path)
	if err != nil {
		return models.MediaFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return models.MediaFile{}, fmt.Errorf("storage: %s is a directory", path)
	}
	return f.describe(filepath.Clean(path), kind, info), nil
}

// describe builds the metadata for a media file. The fingerprint covers the
// path, size and modification time of the file and of its sidecar.
func (f *FS) describe(rel string, kind models.MediaKind, info fs.FileInfo) models.MediaFile {
	parts := []string{
		filepath.ToSlash(rel),
		strconv.FormatInt(info.Size(), 10),
		strconv.FormatInt(info.ModTime().UnixNano(), 10),
	}
	if side, err := os.Stat(filepath.Join(f.root, SidecarFor(rel))); err == nil {
		parts = append(parts,
			strconv.FormatInt(side.Size(), 10),
			strconv.FormatInt(side.ModTime().UnixNano(), 10))
	}
	return models.MediaFile{
		Path:        rel,
		Kind:        kind,
		Size:        info.Size(),
		Fingerprint: checksum.Sum([]byte(strings.Join(parts, "|"))),
		UpdatedAt:   info.ModTime(),
	}
}

// Read returns the raw bytes of a media file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file, fsync, rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".montage-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a media file and its sidecar.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	_ = os.Remove(SidecarFor(abs))
	return nil
}

// Move renames a media file, carrying its sidecar along.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	if _, err := os.Stat(SidecarFor(absOld)); err == nil {
		if err := os.Rename(SidecarFor(absOld), SidecarFor(absNew)); err != nil {
			return fmt.Errorf("storage: move sidecar: %w", err)
		}
	}
	return nil
}
