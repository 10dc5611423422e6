package handler

import (
	"time"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// ListingResponse is the API representation of a listing with its
// read-model projections.
type ListingResponse struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	User              *OwnerResponse  `json:"user,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	AddressLine1      string          `json:"address_line_1"`
	Lat               float64         `json:"lat"`
	Lng               float64         `json:"lng"`
	PricePerDay       int             `json:"price_per_day"`
	MonthlyDiscount   int             `json:"monthly_discount"`
	Hidden            bool            `json:"hidden"`
	ApprovalStatus    string          `json:"approval_status"`
	FeaturedImageID   *int64          `json:"featured_image_id"`
	ReservationsCount int             `json:"reservations_count"`
	Tags              []TagResponse   `json:"tags"`
	Images            []ImageResponse `json:"images"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OwnerResponse is the public summary of a listing's host.
type OwnerResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagResponse is the API representation of a tag.
type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ImageResponse is the API representation of an image.
type ImageResponse struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListingPage is the body of GET /listings.
type ListingPage struct {
	Data       []ListingResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// DataResponse wraps a single resource or a plain collection.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

func listingToResponse(l domain.Listing) ListingResponse {
	resp := ListingResponse{
		ID:                l.ID,
		UserID:            l.UserID,
		Name:              l.Name,
		Description:       l.Description,
		AddressLine1:      l.AddressLine1,
		Lat:               l.Lat,
		Lng:               l.Lng,
		PricePerDay:       l.PricePerDay,
		MonthlyDiscount:   l.MonthlyDiscount,
		Hidden:            l.Hidden,
		ApprovalStatus:    l.ApprovalStatus.String(),
		FeaturedImageID:   l.FeaturedImageID,
		ReservationsCount: l.ReservationsCount,
		Tags:              make([]TagResponse, len(l.Tags)),
		Images:            make([]ImageResponse, len(l.Images)),
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	if l.Owner != nil {
		resp.User = &OwnerResponse{ID: l.Owner.ID, Name: l.Owner.Name}
	}
	for i, t := range l.Tags {
		resp.Tags[i] = tagToResponse(t)
	}
	for i, img := range l.Images {
		resp.Images[i] = imageToResponse(img)
	}
	return resp
}

func tagToResponse(t domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name}
}

func imageToResponse(img domain.Image) ImageResponse {
	return ImageResponse{ID: img.ID, Path: img.Path}
}
