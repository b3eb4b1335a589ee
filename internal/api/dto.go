package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/montage/internal/editor"
	"github.com/starford/montage/internal/timeline"
)

// AddTrackRequest is the request body for adding a track.
type AddTrackRequest struct {
	Kind timeline.TrackKind `json:"kind,omitempty" example:"audio"`
}

// Validate implements validation.Validatable.
func (r AddTrackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.In(timeline.TrackVisual, timeline.TrackAudio)),
	)
}

// TrackFlagsRequest toggles track header flags. Omitted flags are unchanged.
type TrackFlagsRequest struct {
	Muted  *bool `json:"muted,omitempty"`
	Locked *bool `json:"locked,omitempty"`
}

// Validate implements validation.Validatable.
func (r TrackFlagsRequest) Validate() error {
	if r.Muted == nil && r.Locked == nil {
		return errors.New("muted or locked is required")
	}
	return nil
}

// PlaceClipRequest places a library asset. Without track_id the first track
// of the matching kind is used; without start the clip lands at the playhead.
type PlaceClipRequest struct {
	AssetID string   `json:"asset_id" example:"3f2a9c0d1e4b5a6f" validate:"required"`
	TrackID string   `json:"track_id,omitempty" example:"1"`
	Start   *float64 `json:"start,omitempty" example:"12.5"`
}

// Validate implements validation.Validatable.
func (r PlaceClipRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AssetID, validation.Required),
		validation.Field(&r.Start, validation.Min(0.0)),
	)
}

// PropertiesRequest is a partial clip properties update.
type PropertiesRequest struct {
	timeline.PropertiesPatch
}

// Validate implements validation.Validatable.
func (r PropertiesRequest) Validate() error {
	return editor.ValidateProperties(r.PropertiesPatch)
}

// SelectionRequest selects a clip; a null or empty clip_id clears the selection.
type SelectionRequest struct {
	ClipID *string `json:"clip_id"`
}

// SeekRequest moves the playhead either to an absolute time or to the time
// under a pointer in the track area.
type SeekRequest struct {
	Time       *float64 `json:"time,omitempty" example:"12.5"`
	PointerX   *float64 `json:"pointer_x,omitempty"`
	OriginX    float64  `json:"origin_x,omitempty"`
	ScrollLeft float64  `json:"scroll_left,omitempty"`
}

// Validate implements validation.Validatable.
func (r SeekRequest) Validate() error {
	if (r.Time == nil) == (r.PointerX == nil) {
		return errors.New("exactly one of time or pointer_x is required")
	}
	return nil
}

// ProjectResponse wraps a snapshot with the current zoom.
type ProjectResponse struct {
	Project timeline.Project `json:"project"`
	Zoom    float64          `json:"zoom" example:"20"`
}

// ClipResponse is returned after placing a clip.
type ClipResponse struct {
	Clip    timeline.Clip    `json:"clip"`
	Project timeline.Project `json:"project"`
}

// ImportResponse is returned after importing a draft.
type ImportResponse struct {
	Project timeline.Project    `json:"project"`
	Report  editor.ImportReport `json:"report"`
}

// AssetListResponse wraps paginated asset listings.
type AssetListResponse struct {
	Assets []editor.AssetItem `json:"assets" validate:"required"`
	Total  int                `json:"total" example:"42" validate:"required"`
}

// ZoomResponse reports the zoom after a step.
type ZoomResponse struct {
	Zoom float64 `json:"zoom" example:"24"`
}
