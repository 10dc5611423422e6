package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/office-listings/backend/internal/middleware"
)

// decodeListing stands in for the listing handlers: it decodes a JSON body
// and answers 413 when the decoder hits the MaxBytesReader limit.
var decodeListing = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
})

func listingBody(titleLen int) string {
	return `{"title":"` + strings.Repeat("a", titleLen) + `"}`
}

func TestMaxBodySizeHandler(t *testing.T) {
	const limit = 64

	tests := []struct {
		name          string
		body          string
		contentLength int64 // -1 streams the body without a Content-Length
		wantStatus    int
		wantErrorBody bool
	}{
		{
			name:          "body within limit reaches handler",
			body:          listingBody(10),
			contentLength: int64(len(listingBody(10))),
			wantStatus:    http.StatusCreated,
		},
		{
			name:          "body exactly at limit reaches handler",
			body:          listingBody(limit - len(listingBody(0))),
			contentLength: limit,
			wantStatus:    http.StatusCreated,
		},
		{
			name:          "declared length over limit rejected before handler",
			body:          listingBody(200),
			contentLength: int64(len(listingBody(200))),
			wantStatus:    http.StatusRequestEntityTooLarge,
			wantErrorBody: true,
		},
		{
			name:          "streamed body over limit fails inside decoder",
			body:          listingBody(200),
			contentLength: -1,
			wantStatus:    http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewMaxBodySizeHandler(limit)(decodeListing)

			req := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if !tt.wantErrorBody {
				return
			}
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var got struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "payload_too_large", got.Error.Code)
			assert.NotEmpty(t, got.Error.Message)
		})
	}
}
