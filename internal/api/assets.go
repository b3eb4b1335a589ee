package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/montage/internal/editor"
	"github.com/starford/montage/internal/storage"
)

const maxUploadBytes = 500 << 20 // 500 MB

// ListAssets handles GET /api/assets.
//
//	@Summary		List or search library assets
//	@Tags			assets
//	@Produce		json
//	@Param			kind	query		string	false	"Media kind"	Enums(video, audio, image, text)
//	@Param			q		query		string	false	"Search query"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	AssetListResponse
//	@Security		BearerAuth
//	@Router			/assets [get]
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListAssets(r.Context(), editor.AssetQuery{
		Kind:   q.Get("kind"),
		Query:  q.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: items, Total: total})
}

// GetAsset handles GET /api/assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Asset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get asset", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UploadAsset handles POST /api/assets (multipart/form-data, field "file").
//
//	@Summary		Upload a media file into the library
//	@Tags			assets
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Media file"
//	@Success		201		{object}	editor.AssetItem
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets [post]
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	item, err := h.svc.AddMedia(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, "upload asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// MediaHandler serves files from the media directory.
type MediaHandler struct {
	root string
}

// NewMediaHandler creates a handler rooted at the media directory.
func NewMediaHandler(root string) *MediaHandler {
	return &MediaHandler{root: root}
}

// resolve validates a request path and returns the absolute file path.
// Only media files are served; sidecars and other files stay private.
func (h *MediaHandler) resolve(raw string) (string, error) {
	rel, err := url.PathUnescape(strings.TrimPrefix(raw, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path: %s", raw)
	}
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path: %s", raw)
	}
	if _, ok := storage.KindOf(cleaned); !ok {
		return "", fmt.Errorf("not a media file: %s", raw)
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes media directory")
	}
	return abs, nil
}

// ServeFile handles GET /media/*.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.resolve(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
