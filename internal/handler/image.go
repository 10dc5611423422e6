package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/pkordes/office-listings/backend/internal/middleware"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// UploadImage handles POST /listings/{id}/images with a multipart "image"
// file. The caller is authorized before the body is parsed. A missing file
// is reported by the service as a field error.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	caller := middleware.IdentityFrom(r.Context())
	if err := s.images.AuthorizeUpload(r.Context(), caller, id); err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}

	var src io.Reader
	var maxErr *http.MaxBytesError
	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil)
		return
	case err != nil && !errors.Is(err, http.ErrNotMultipart):
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid multipart form data", nil)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err == nil {
		file, _, ferr := r.FormFile("image")
		if ferr == nil {
			defer file.Close()
			src = file
		}
	}

	img, err := s.images.Upload(r.Context(), caller, id, src)
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[ImageResponse]{Data: imageToResponse(img)})
}

// DeleteImage handles DELETE /listings/{id}/images/{imageId}.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	if err := s.images.Delete(r.Context(), middleware.IdentityFrom(r.Context()), listingID, imageID); err != nil {
		s.writeServiceError(w, r, err, "image not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
