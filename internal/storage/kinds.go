package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/montage/internal/models"
)

// SidecarExt is the extension of metadata files stored next to media, as in
// "clip.mp4.yaml".
const SidecarExt = ".yaml"

var kindByExt = map[string]models.MediaKind{
	".mp4":  models.MediaVideo,
	".mov":  models.MediaVideo,
	".m4v":  models.MediaVideo,
	".mkv":  models.MediaVideo,
	".webm": models.MediaVideo,
	".avi":  models.MediaVideo,
	".mp3":  models.MediaAudio,
	".wav":  models.MediaAudio,
	".m4a":  models.MediaAudio,
	".aac":  models.MediaAudio,
	".ogg":  models.MediaAudio,
	".flac": models.MediaAudio,
	".opus": models.MediaAudio,
	".png":  models.MediaImage,
	".jpg":  models.MediaImage,
	".jpeg": models.MediaImage,
	".gif":  models.MediaImage,
	".webp": models.MediaImage,
	".txt":  models.MediaText,
}

// KindOf returns the media kind for path by extension.
func KindOf(path string) (models.MediaKind, bool) {
	k, ok := kindByExt[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// IsSidecar reports whether path names a media sidecar.
func IsSidecar(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), SidecarExt) {
		return false
	}
	_, ok := KindOf(strings.TrimSuffix(path, filepath.Ext(path)))
	return ok
}

// SidecarFor returns the sidecar path of a media file.
func SidecarFor(path string) string {
	return path + SidecarExt
}

// MediaForSidecar returns the media path a sidecar describes.
func MediaForSidecar(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// hidden reports whether a file or directory name should be ignored.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
