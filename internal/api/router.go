package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/montage/internal/editor"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *editor.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Project.
	r.Get("/project", h.GetProject)
	r.Post("/project/import", h.ImportProject)
	r.Get("/project/edl", h.ExportEDL)

	// Tracks and clips.
	r.Post("/tracks", h.AddTrack)
	r.Patch("/tracks/{id}", h.UpdateTrack)
	r.Post("/clips", h.PlaceClip)
	r.Patch("/clips/{id}/properties", h.UpdateClipProperties)
	r.Delete("/clips/{id}", h.DeleteClip)
	r.Post("/selection", h.Select)

	// Playhead, view and playback.
	r.Post("/seek", h.Seek)
	r.Post("/zoom/in", h.ZoomIn)
	r.Post("/zoom/out", h.ZoomOut)
	r.Post("/playback/toggle", h.TogglePlayback)
	r.Post("/playback/start", h.StartPlayback)
	r.Post("/playback/stop", h.StopPlayback)
	r.Get("/preview", h.Preview)
	r.Get("/ruler", h.Ruler)

	// Media library.
	r.Get("/assets", h.ListAssets)
	r.Get("/assets/{id}", h.GetAsset)
	r.Post("/assets", h.UploadAsset)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
