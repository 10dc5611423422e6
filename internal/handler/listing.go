package handler

import (
	"net/http"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/middleware"
	"github.com/pkordes/office-listings/backend/internal/service"
)

// listingRequest is the JSON body of POST /listings and PUT /listings/{id}.
// Absent fields decode to nil; "tags": [] decodes to an empty, non-nil slice.
type listingRequest struct {
	Name            *string      `json:"name"`
	Description     *string      `json:"description"`
	AddressLine1    *string      `json:"address_line_1"`
	Lat             *numericText `json:"lat"`
	Lng             *numericText `json:"lng"`
	PricePerDay     *int         `json:"price_per_day"`
	MonthlyDiscount *int         `json:"monthly_discount"`
	Hidden          *bool        `json:"hidden"`
	Tags            []int64      `json:"tags"`
	FeaturedImageID *int64       `json:"featured_image_id"`
}

func (req listingRequest) toInput() service.ListingInput {
	return service.ListingInput{
		Name:            req.Name,
		Description:     req.Description,
		AddressLine1:    req.AddressLine1,
		Lat:             req.Lat.ptr(),
		Lng:             req.Lng.ptr(),
		PricePerDay:     req.PricePerDay,
		MonthlyDiscount: req.MonthlyDiscount,
		Hidden:          req.Hidden,
		Tags:            req.Tags,
		FeaturedImageID: req.FeaturedImageID,
	}
}

// SearchListings handles GET /listings.
// Supports ?owner_id=, ?visitor_id=, ?lat=&lng= and ?page= (20 per page).
func (s *Server) SearchListings(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error(), nil)
		return
	}

	page, err := s.listings.Search(r.Context(), middleware.IdentityFrom(r.Context()), params.filter())
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}

	data := make([]ListingResponse, len(page.Items))
	for i, l := range page.Items {
		data[i] = listingToResponse(l)
	}
	writeJSON(w, http.StatusOK, ListingPage{
		Data: data,
		Pagination: Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
		},
	})
}

// GetListing handles GET /listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	l, err := s.listings.Get(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[ListingResponse]{Data: listingToResponse(l)})
}

// CreateListing handles POST /listings.
func (s *Server) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := s.listings.Create(r.Context(), middleware.IdentityFrom(r.Context()), req.toInput())
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[ListingResponse]{Data: listingToResponse(l)})
}

// UpdateListing handles PUT /listings/{id}. Only the fields present in the
// body are changed.
func (s *Server) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := s.listings.Update(r.Context(), middleware.IdentityFrom(r.Context()), id, req.toInput())
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[ListingResponse]{Data: listingToResponse(l)})
}

// DeleteListing handles DELETE /listings/{id}.
func (s *Server) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.listings.Delete(r.Context(), middleware.IdentityFrom(r.Context()), id); err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// approvalRequest is the JSON body of PUT /listings/{id}/approval.
type approvalRequest struct {
	ApprovalStatus string `json:"approval_status"`
}

// ReviewListing handles PUT /listings/{id}/approval.
// An unknown status is passed on as zero so the reviewer's rights are
// checked before the value is rejected.
func (s *Server) ReviewListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req approvalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, _ := domain.ParseApprovalStatus(req.ApprovalStatus)

	l, err := s.moderation.Review(r.Context(), middleware.IdentityFrom(r.Context()), id, status)
	if err != nil {
		s.writeServiceError(w, r, err, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[ListingResponse]{Data: listingToResponse(l)})
}
