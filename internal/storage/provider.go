// Package storage defines the media directory abstraction.
package storage

import "github.com/starford/montage/internal/models"

// Provider is the interface for media directory operations. All paths are
// relative to the media root and use the host separator.
type Provider interface {
	// List returns every media file under dir. Sidecars, hidden files and
	// unknown extensions are skipped.
	List(dir string) ([]models.MediaFile, error)
	// Stat describes a single media file.
	Stat(path string) (models.MediaFile, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Root returns the absolute media root.
	Root() string
}
