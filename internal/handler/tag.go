package handler

import (
	"net/http"
)

// ListTags handles GET /tags.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "tag not found")
		return
	}

	data := make([]TagResponse, len(tags))
	for i, t := range tags {
		data[i] = tagToResponse(t)
	}
	writeJSON(w, http.StatusOK, DataResponse[[]TagResponse]{Data: data})
}
