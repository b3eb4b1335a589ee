package api

import (
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/montage/internal/editor"
	"github.com/starford/montage/internal/timeline"
)

const maxDraftBytes = 50 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *editor.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *editor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request, p timeline.Project) {
	writeJSON(w, http.StatusOK, ProjectResponse{Project: p, Zoom: h.svc.Zoom(r.Context())})
}

// GetProject handles GET /api/project.
//
//	@Summary		Get the current project snapshot
//	@Tags			project
//	@Produce		json
//	@Success		200	{object}	ProjectResponse
//	@Security		BearerAuth
//	@Router			/project [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	h.project(w, r, h.svc.Project(r.Context()))
}

// ImportProject handles POST /api/project/import.
//
//	@Summary		Replace the project with an imported CapCut draft
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/project/import [post]
func (h *Handler) ImportProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDraftBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	p, report, err := h.svc.ImportDraft(r.Context(), data)
	if err != nil {
		writeError(w, "import draft", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Project: p, Report: report})
}

// ExportEDL handles GET /api/project/edl.
//
//	@Summary		Export the project as a CMX3600 EDL
//	@Tags			project
//	@Produce		plain
//	@Param			fps		query	number	false	"Frame rate"	default(30)
//	@Param			title	query	string	false	"EDL title"
//	@Success		200		{string}	string
//	@Security		BearerAuth
//	@Router			/project/edl [get]
func (h *Handler) ExportEDL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fps, _ := strconv.ParseFloat(q.Get("fps"), 64)
	edl := h.svc.ExportEDL(r.Context(), q.Get("title"), fps)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="project.edl"`)
	_, _ = io.WriteString(w, edl)
}

// AddTrack handles POST /api/tracks.
//
//	@Summary		Append an empty track
//	@Tags			tracks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddTrackRequest	false	"Track kind"
//	@Success		201		{object}	timeline.Track
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tracks [post]
func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	var req AddTrackRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	_, track := h.svc.AddTrack(r.Context(), req.Kind)
	writeJSON(w, http.StatusCreated, track)
}

// UpdateTrack handles PATCH /api/tracks/{id}.
//
//	@Summary		Mute or lock a track
//	@Tags			tracks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Track id"
//	@Param			body	body		TrackFlagsRequest	true	"Flags"
//	@Success		200		{object}	ProjectResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tracks/{id} [patch]
func (h *Handler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	var req TrackFlagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.SetTrackFlags(r.Context(), chi.URLParam(r, "id"), editor.TrackFlags{Muted: req.Muted, Locked: req.Locked})
	if err != nil {
		writeError(w, "update track", err)
		return
	}
	h.project(w, r, p)
}

// PlaceClip handles POST /api/clips.
//
//	@Summary		Place a library asset on a track
//	@Tags			clips
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PlaceClipRequest	true	"Placement"
//	@Success		201		{object}	ClipResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips [post]
func (h *Handler) PlaceClip(w http.ResponseWriter, r *http.Request) {
	var req PlaceClipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, clip, err := h.svc.PlaceAsset(r.Context(), req.AssetID, req.TrackID, req.Start)
	if err != nil {
		writeError(w, "place clip", err)
		return
	}
	writeJSON(w, http.StatusCreated, ClipResponse{Clip: clip, Project: p})
}

// UpdateClipProperties handles PATCH /api/clips/{id}/properties.
//
//	@Summary		Merge partial properties into a clip
//	@Tags			clips
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Clip id"
//	@Param			body	body		PropertiesRequest	true	"Properties"
//	@Success		200		{object}	ProjectResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips/{id}/properties [patch]
func (h *Handler) UpdateClipProperties(w http.ResponseWriter, r *http.Request) {
	var req PropertiesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateClipProperties(r.Context(), chi.URLParam(r, "id"), req.PropertiesPatch)
	if err != nil {
		writeError(w, "update clip", err)
		return
	}
	h.project(w, r, p)
}

// DeleteClip handles DELETE /api/clips/{id}.
//
//	@Summary		Remove a clip
//	@Tags			clips
//	@Param			id	path	string	true	"Clip id"
//	@Success		204	"Clip removed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips/{id} [delete]
func (h *Handler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.RemoveClip(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete clip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/selection.
//
//	@Summary		Select a clip or clear the selection
//	@Tags			clips
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectionRequest	true	"Selection"
//	@Success		200		{object}	ProjectResponse
//	@Security		BearerAuth
//	@Router			/selection [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := ""
	if req.ClipID != nil {
		id = *req.ClipID
	}
	h.project(w, r, h.svc.SelectClip(r.Context(), id))
}

// Seek handles POST /api/seek.
//
//	@Summary		Move the playhead
//	@Tags			playback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SeekRequest	true	"Time or pointer position"
//	@Success		200		{object}	ProjectResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/seek [post]
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var p timeline.Project
	if req.Time != nil {
		p = h.svc.Seek(r.Context(), *req.Time)
	} else {
		p = h.svc.SeekPointer(r.Context(), *req.PointerX, req.OriginX, req.ScrollLeft)
	}
	h.project(w, r, p)
}

// ZoomIn handles POST /api/zoom/in.
//
//	@Summary		Zoom the timeline in one step
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	ZoomResponse
//	@Security		BearerAuth
//	@Router			/zoom/in [post]
func (h *Handler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ZoomResponse{Zoom: h.svc.ZoomIn(r.Context())})
}

// ZoomOut handles POST /api/zoom/out.
//
//	@Summary		Zoom the timeline out one step
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	ZoomResponse
//	@Security		BearerAuth
//	@Router			/zoom/out [post]
func (h *Handler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ZoomResponse{Zoom: h.svc.ZoomOut(r.Context())})
}

// TogglePlayback handles POST /api/playback/toggle.
func (h *Handler) TogglePlayback(w http.ResponseWriter, r *http.Request) {
	h.project(w, r, h.svc.TogglePlayback(r.Context()))
}

// StartPlayback handles POST /api/playback/start.
func (h *Handler) StartPlayback(w http.ResponseWriter, r *http.Request) {
	h.project(w, r, h.svc.Play(r.Context()))
}

// StopPlayback handles POST /api/playback/stop.
func (h *Handler) StopPlayback(w http.ResponseWriter, r *http.Request) {
	h.project(w, r, h.svc.Pause(r.Context()))
}

// Preview handles GET /api/preview.
//
//	@Summary		Resolve the visual frame and audio set at a time
//	@Tags			playback
//	@Produce		json
//	@Param			t	query		number	false	"Time in seconds; defaults to the playhead"
//	@Success		200	{object}	timeline.Preview
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var at *float64
	if raw := r.URL.Query().Get("t"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			writeJSON(w, http.StatusBadRequest, errorBody("t must be a finite non-negative number"))
			return
		}
		at = &t
	}
	writeJSON(w, http.StatusOK, h.svc.Preview(r.Context(), at))
}

// Ruler handles GET /api/ruler.
//
//	@Summary		Ruler ticks at the current zoom
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	editor.Ruler
//	@Security		BearerAuth
//	@Router			/ruler [get]
func (h *Handler) Ruler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Ruler(r.Context()))
}
