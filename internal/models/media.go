// Package models defines the media library types shared by storage and the
// catalog.
package models

import "time"

// MediaKind classifies a media file. Values match the timeline clip kinds.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
	MediaText  MediaKind = "text"
)

// MediaFile describes one file in the media directory.
type MediaFile struct {
	Path string    `json:"path"`
	Kind MediaKind `json:"kind"`
	Size int64     `json:"size"`
	// Fingerprint changes whenever the file or its sidecar changes.
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}
