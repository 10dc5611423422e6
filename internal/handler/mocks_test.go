package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/handler"
	"github.com/pkordes/office-listings/backend/internal/middleware"
	"github.com/pkordes/office-listings/backend/internal/service"
)

// ---- mocks -----------------------------------------------------------------
// Set only the method fields your test needs.

type mockListingServicer struct {
	search func(ctx context.Context, caller domain.Identity, filter domain.ListingFilter) (domain.Page[domain.Listing], error)
	get    func(ctx context.Context, caller domain.Identity, id int64) (domain.Listing, error)
	create func(ctx context.Context, caller domain.Identity, in service.ListingInput) (domain.Listing, error)
	update func(ctx context.Context, caller domain.Identity, id int64, in service.ListingInput) (domain.Listing, error)
	delete func(ctx context.Context, caller domain.Identity, id int64) error
}

func (m *mockListingServicer) Search(ctx context.Context, caller domain.Identity, filter domain.ListingFilter) (domain.Page[domain.Listing], error) {
	return m.search(ctx, caller, filter)
}
func (m *mockListingServicer) Get(ctx context.Context, caller domain.Identity, id int64) (domain.Listing, error) {
	return m.get(ctx, caller, id)
}
func (m *mockListingServicer) Create(ctx context.Context, caller domain.Identity, in service.ListingInput) (domain.Listing, error) {
	return m.create(ctx, caller, in)
}
func (m *mockListingServicer) Update(ctx context.Context, caller domain.Identity, id int64, in service.ListingInput) (domain.Listing, error) {
	return m.update(ctx, caller, id, in)
}
func (m *mockListingServicer) Delete(ctx context.Context, caller domain.Identity, id int64) error {
	return m.delete(ctx, caller, id)
}

type mockImageServicer struct {
	authorizeUpload func(ctx context.Context, caller domain.Identity, listingID int64) error
	upload          func(ctx context.Context, caller domain.Identity, listingID int64, r io.Reader) (domain.Image, error)
	delete          func(ctx context.Context, caller domain.Identity, listingID, imageID int64) error
}

func (m *mockImageServicer) AuthorizeUpload(ctx context.Context, caller domain.Identity, listingID int64) error {
	return m.authorizeUpload(ctx, caller, listingID)
}
func (m *mockImageServicer) Upload(ctx context.Context, caller domain.Identity, listingID int64, r io.Reader) (domain.Image, error) {
	return m.upload(ctx, caller, listingID, r)
}
func (m *mockImageServicer) Delete(ctx context.Context, caller domain.Identity, listingID, imageID int64) error {
	return m.delete(ctx, caller, listingID, imageID)
}

type mockModerationServicer struct {
	review func(ctx context.Context, caller domain.Identity, id int64, status domain.ApprovalStatus) (domain.Listing, error)
}

func (m *mockModerationServicer) Review(ctx context.Context, caller domain.Identity, id int64, status domain.ApprovalStatus) (domain.Listing, error) {
	return m.review(ctx, caller, id, status)
}

type mockTagServicer struct {
	list func(ctx context.Context) ([]domain.Tag, error)
}

func (m *mockTagServicer) List(ctx context.Context) ([]domain.Tag, error) {
	return m.list(ctx)
}

// compile-time checks: each mock must satisfy its handler interface.
var (
	_ handler.ListingServicer    = (*mockListingServicer)(nil)
	_ handler.ImageServicer      = (*mockImageServicer)(nil)
	_ handler.ModerationServicer = (*mockModerationServicer)(nil)
	_ handler.TagServicer        = (*mockTagServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// services groups the mocks a test wires into the Server. Nil entries are
// replaced with empty mocks, which panic if called.
type services struct {
	listings   *mockListingServicer
	images     *mockImageServicer
	moderation *mockModerationServicer
	tags       *mockTagServicer
}

// newHTTPHandler wires a Server with the given mocks.
func newHTTPHandler(svcs services) http.Handler {
	if svcs.listings == nil {
		svcs.listings = &mockListingServicer{}
	}
	if svcs.images == nil {
		svcs.images = &mockImageServicer{}
	}
	if svcs.moderation == nil {
		svcs.moderation = &mockModerationServicer{}
	}
	if svcs.tags == nil {
		svcs.tags = &mockTagServicer{}
	}
	srv := handler.NewServer(svcs.listings, svcs.images, svcs.moderation, svcs.tags, nil, []byte("openapi: 3.0.3\n"))
	return srv.Routes()
}

// asUser attaches an identity to req the way the authenticator would.
func asUser(req *http.Request, id domain.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

var owner = domain.Identity{
	UserID:       10,
	Capabilities: []string{domain.CapabilityListingCreate, domain.CapabilityListingUpdate},
}

func listingFixture() domain.Listing {
	featured := int64(7)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.Listing{
		ID:                1,
		UserID:            owner.UserID,
		Name:              "Sunny desk",
		Description:       "Quiet corner office",
		AddressLine1:      "1 Main St",
		Lat:               52.52000659,
		Lng:               13.40495399,
		PricePerDay:       2500,
		MonthlyDiscount:   10,
		ApprovalStatus:    domain.ApprovalApproved,
		FeaturedImageID:   &featured,
		ReservationsCount: 2,
		Owner:             &domain.User{ID: owner.UserID, Name: "Ada"},
		Tags:              []domain.Tag{{ID: 3, Name: "wifi"}},
		Images:            []domain.Image{{ID: 7, ListingID: 1, Path: "listings/1/a.png"}},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
