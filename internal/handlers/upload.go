package handlers

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/http"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

// UploadField is the multipart field that carries the files.
const UploadField = "photos"

type MediaService interface {
	Upload(ctx context.Context, files []*multipart.FileHeader) ([]models.UploadedFile, error)
	Limits() services.MediaLimits
}

type UploadHandler struct {
	media MediaService
}

func NewUploadHandler(media MediaService) *UploadHandler {
	return &UploadHandler{media: media}
}

type UploadResponse struct {
	OK    bool                  `json:"ok"`
	Files []models.UploadedFile `json:"files"`
}

// Upload handles POST /api/upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody(h.media.Limits()))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, services.ErrPayloadTooLarge)
			return
		}
		writeMessage(w, http.StatusBadRequest, "Expected a multipart form with a \"photos\" field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files, err := h.media.Upload(r.Context(), r.MultipartForm.File[UploadField])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{OK: true, Files: files})
}

// multipartOverhead covers boundaries and part headers.
const multipartOverhead = 1 << 20

// maxUploadBody leaves room for one file over the count limit so the service
// can report it. Limits too large to multiply saturate at math.MaxInt64.
func maxUploadBody(limits services.MediaLimits) int64 {
	files := int64(limits.MaxFiles) + 1
	if files < 1 || limits.MaxFileBytes <= 0 {
		return multipartOverhead
	}
	if limits.MaxFileBytes > (math.MaxInt64-multipartOverhead)/files {
		return math.MaxInt64
	}
	return files*limits.MaxFileBytes + multipartOverhead
}
