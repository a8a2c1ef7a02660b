package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ferrand/raido/internal/blob"
)

const maxUploadBytes = 32 << 20 // 32 MB per file

// UploadHandler stores and serves attachment blobs.
type UploadHandler struct {
	blobs *blob.Store
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(blobs *blob.Store) *UploadHandler {
	return &UploadHandler{blobs: blobs}
}

// Upload handles POST /api/uploads. Expects a multipart form with a single
// "file" part. The returned file id is content-addressed, so re-uploading the
// same bytes is harmless.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart form with a 'file' part is required"))
		return
	}
	defer file.Close()

	info, err := h.blobs.Put(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{
		FileID:      info.ID,
		Size:        info.Size,
		ContentType: header.Header.Get("Content-Type"),
		URL:         "/attachments/" + info.ID,
	})
}

// Serve handles GET /attachments/{fileID}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")
	path, err := h.blobs.Path(id)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid file id"))
		return
	}
	if !h.blobs.Exists(id) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, path)
}

// Delete handles DELETE /api/uploads/{fileID} (admin). Removing a blob that
// is missing is not an error.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")
	if err := h.blobs.Delete(id); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid file id"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
