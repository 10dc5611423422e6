// Package handler implements the HTTP handlers for the office listings API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (listing.go, image.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/service"
)

// ListingServicer defines the listing operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type ListingServicer interface {
	Search(ctx context.Context, caller domain.Identity, filter domain.ListingFilter) (domain.Page[domain.Listing], error)
	Get(ctx context.Context, caller domain.Identity, id int64) (domain.Listing, error)
	Create(ctx context.Context, caller domain.Identity, in service.ListingInput) (domain.Listing, error)
	Update(ctx context.Context, caller domain.Identity, id int64, in service.ListingInput) (domain.Listing, error)
	Delete(ctx context.Context, caller domain.Identity, id int64) error
}

// ImageServicer defines the image operations the handlers depend on.
type ImageServicer interface {
	AuthorizeUpload(ctx context.Context, caller domain.Identity, listingID int64) error
	Upload(ctx context.Context, caller domain.Identity, listingID int64, r io.Reader) (domain.Image, error)
	Delete(ctx context.Context, caller domain.Identity, listingID, imageID int64) error
}

// ModerationServicer defines the review operation.
type ModerationServicer interface {
	Review(ctx context.Context, caller domain.Identity, id int64, status domain.ApprovalStatus) (domain.Listing, error)
}

// TagServicer defines the tag operations the handlers depend on.
type TagServicer interface {
	List(ctx context.Context) ([]domain.Tag, error)
}

// Server holds the handler dependencies. Wire it in main.go and mount
// Routes() under the root router.
type Server struct {
	listings   ListingServicer
	images     ImageServicer
	moderation ModerationServicer
	tags       TagServicer
	log        *slog.Logger
	openapi    []byte
}

// NewServer constructs the Server with all its dependencies.
// openapi is served verbatim at /openapi.yaml; nil disables the route.
func NewServer(listings ListingServicer, images ImageServicer, moderation ModerationServicer, tags TagServicer, log *slog.Logger, openapi []byte) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		listings:   listings,
		images:     images,
		moderation: moderation,
		tags:       tags,
		log:        log,
		openapi:    openapi,
	}
}

// Routes returns the API router. Identity is expected in the request context
// (see middleware.NewAuthenticator); anonymous requests reach every route and
// are rejected by the service layer where an identity is needed.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openapi != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Get("/tags", s.ListTags)

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", s.SearchListings)
		r.Post("/", s.CreateListing)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetListing)
			r.Put("/", s.UpdateListing)
			r.Delete("/", s.DeleteListing)

			r.Put("/approval", s.ReviewListing)

			r.Post("/images", s.UploadImage)
			r.Delete("/images/{imageId}", s.DeleteImage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}
