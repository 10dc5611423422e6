package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/handler"
	"github.com/pkordes/office-listings/backend/internal/service"
)

// ---- GET /listings ---------------------------------------------------------

func TestSearchListings_200(t *testing.T) {
	var got domain.ListingFilter
	var gotCaller domain.Identity
	svc := &mockListingServicer{
		search: func(_ context.Context, caller domain.Identity, f domain.ListingFilter) (domain.Page[domain.Listing], error) {
			gotCaller, got = caller, f
			return domain.Page[domain.Listing]{Items: []domain.Listing{listingFixture()}, Page: 2, Limit: 20, Total: 21}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings?owner_id=10&lat=52.5&lng=13.4&page=2", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gotCaller.Authenticated())
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, int64(10), *got.OwnerID)
	assert.Nil(t, got.VisitorID)
	require.NotNil(t, got.Lat)
	assert.InDelta(t, 52.5, *got.Lat, 1e-9)
	assert.Equal(t, 2, got.Page)

	var resp handler.ListingPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "approved", resp.Data[0].ApprovalStatus)
	assert.Equal(t, 2, resp.Data[0].ReservationsCount)
	require.NotNil(t, resp.Data[0].User)
	assert.Equal(t, "Ada", resp.Data[0].User.Name)
	assert.Equal(t, handler.Pagination{Page: 2, Limit: 20, Total: 21}, resp.Pagination)
}

func TestSearchListings_200_EmptyPageIsArray(t *testing.T) {
	svc := &mockListingServicer{
		search: func(_ context.Context, _ domain.Identity, _ domain.ListingFilter) (domain.Page[domain.Listing], error) {
			return domain.Page[domain.Listing]{Page: 9, Limit: 20, Total: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings?page=9", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestSearchListings_400_BadQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/listings?owner_id=abc", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_parameter", decodeError(t, rec.Body).Error.Code)
}

func TestSearchListings_503_HidesCause(t *testing.T) {
	svc := &mockListingServicer{
		search: func(_ context.Context, _ domain.Identity, _ domain.ListingFilter) (domain.Page[domain.Listing], error) {
			return domain.Page[domain.Listing]{}, fmt.Errorf("service.ListingService.Search: %w: %w", domain.ErrUnavailable, errors.New("dial tcp: refused"))
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

// ---- GET /listings/{id} ----------------------------------------------------

func TestGetListing_200(t *testing.T) {
	fixture := listingFixture()
	svc := &mockListingServicer{
		get: func(_ context.Context, _ domain.Identity, id int64) (domain.Listing, error) {
			assert.Equal(t, int64(1), id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings/1", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.DataResponse[handler.ListingResponse]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.Data.ID)
	assert.Equal(t, fixture.Lat, resp.Data.Lat)
	assert.Equal(t, []handler.TagResponse{{ID: 3, Name: "wifi"}}, resp.Data.Tags)
	assert.Equal(t, []handler.ImageResponse{{ID: 7, Path: "listings/1/a.png"}}, resp.Data.Images)
	require.NotNil(t, resp.Data.FeaturedImageID)
	assert.Equal(t, int64(7), *resp.Data.FeaturedImageID)
}

func TestGetListing_404(t *testing.T) {
	svc := &mockListingServicer{
		get: func(_ context.Context, _ domain.Identity, _ int64) (domain.Listing, error) {
			return domain.Listing{}, fmt.Errorf("service.ListingService.Get: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings/42", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec.Body).Error.Code)
}

func TestGetListing_400_InvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/listings/not-a-number", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- POST /listings --------------------------------------------------------

func TestCreateListing_201(t *testing.T) {
	var got service.ListingInput
	var gotCaller domain.Identity
	svc := &mockListingServicer{
		create: func(_ context.Context, caller domain.Identity, in service.ListingInput) (domain.Listing, error) {
			gotCaller, got = caller, in
			l := listingFixture()
			l.ApprovalStatus = domain.ApprovalPending
			return l, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"name":           "Sunny desk",
		"description":    "Quiet corner office",
		"address_line_1": "1 Main St",
		"lat":            52.520006593,
		"lng":            "13.404953989",
		"price_per_day":  2500,
		"tags":           []int64{3, 3},
	})
	req := asUser(httptest.NewRequest(http.MethodPost, "/listings", body), owner)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, owner.UserID, gotCaller.UserID)
	require.NotNil(t, got.Lat)
	assert.Equal(t, "52.520006593", *got.Lat)
	require.NotNil(t, got.Lng)
	assert.Equal(t, "13.404953989", *got.Lng)
	assert.Equal(t, []int64{3, 3}, got.Tags)
	assert.Nil(t, got.MonthlyDiscount)

	var resp handler.DataResponse[handler.ListingResponse]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "pending", resp.Data.ApprovalStatus)
}

func TestCreateListing_PassesNonNumericCoordinateToValidator(t *testing.T) {
	var got service.ListingInput
	svc := &mockListingServicer{
		create: func(_ context.Context, _ domain.Identity, in service.ListingInput) (domain.Listing, error) {
			got = in
			return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", domain.NewValidationError(domain.FieldErrors{
				"lat": {"The lat must be a number."},
			}))
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{"lat": true}`)), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.NotNil(t, got.Lat)
	assert.Equal(t, "true", *got.Lat)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, []string{"The lat must be a number."}, resp.Error.Fields["lat"])
}

func TestCreateListing_422_WrongJSONType(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{"price_per_day": "lots"}`)), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, []string{"The price per day must be an integer."}, resp.Error.Fields["price_per_day"])
}

func TestCreateListing_400_MalformedJSON(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{"name":`)), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateListing_EmptyBodyReachesService(t *testing.T) {
	called := false
	svc := &mockListingServicer{
		create: func(_ context.Context, _ domain.Identity, in service.ListingInput) (domain.Listing, error) {
			called = true
			assert.Nil(t, in.Name)
			assert.Nil(t, in.Tags)
			return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", domain.ErrUnauthenticated)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/listings", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestCreateListing_403(t *testing.T) {
	svc := &mockListingServicer{
		create: func(_ context.Context, _ domain.Identity, _ service.ListingInput) (domain.Listing, error) {
			return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", domain.ErrForbidden)
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{}`)), domain.Identity{UserID: 5})
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ---- PUT /listings/{id} ----------------------------------------------------

func TestUpdateListing_200_DistinguishesEmptyTags(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantTags []int64
	}{
		{name: "absent", body: `{"name":"New"}`, wantTags: nil},
		{name: "null", body: `{"tags":null}`, wantTags: nil},
		{name: "empty", body: `{"tags":[]}`, wantTags: []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got service.ListingInput
			svc := &mockListingServicer{
				update: func(_ context.Context, _ domain.Identity, id int64, in service.ListingInput) (domain.Listing, error) {
					assert.Equal(t, int64(1), id)
					got = in
					return listingFixture(), nil
				},
			}

			req := asUser(httptest.NewRequest(http.MethodPut, "/listings/1", strings.NewReader(tc.body)), owner)
			rec := httptest.NewRecorder()

			newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantTags, got.Tags)
		})
	}
}

func TestUpdateListing_FeaturedImageForwarded(t *testing.T) {
	var got service.ListingInput
	svc := &mockListingServicer{
		update: func(_ context.Context, _ domain.Identity, _ int64, in service.ListingInput) (domain.Listing, error) {
			got = in
			return listingFixture(), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPut, "/listings/1", strings.NewReader(`{"featured_image_id": 7, "hidden": true}`)), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.FeaturedImageID)
	assert.Equal(t, int64(7), *got.FeaturedImageID)
	require.NotNil(t, got.Hidden)
	assert.True(t, *got.Hidden)
}

// ---- DELETE /listings/{id} -------------------------------------------------

func TestDeleteListing_204(t *testing.T) {
	svc := &mockListingServicer{
		delete: func(_ context.Context, caller domain.Identity, id int64) error {
			assert.Equal(t, owner.UserID, caller.UserID)
			assert.Equal(t, int64(1), id)
			return nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/listings/1", nil), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteListing_409_ActiveReservations(t *testing.T) {
	svc := &mockListingServicer{
		delete: func(_ context.Context, _ domain.Identity, _ int64) error {
			return fmt.Errorf("service.ListingService.Delete: %w", domain.NewConflictError("listing", service.MsgActiveReservations))
		},
	}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/listings/1", nil), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{listings: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "conflict", resp.Error.Code)
	assert.Equal(t, service.MsgActiveReservations, resp.Error.Message)
	assert.Equal(t, []string{service.MsgActiveReservations}, resp.Error.Fields["listing"])
}

// ---- PUT /listings/{id}/approval -------------------------------------------

func TestReviewListing_200(t *testing.T) {
	svc := &mockModerationServicer{
		review: func(_ context.Context, _ domain.Identity, id int64, status domain.ApprovalStatus) (domain.Listing, error) {
			assert.Equal(t, int64(1), id)
			assert.Equal(t, domain.ApprovalRejected, status)
			l := listingFixture()
			l.ApprovalStatus = status
			return l, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPut, "/listings/1/approval", strings.NewReader(`{"approval_status":"rejected"}`)), domain.Identity{UserID: 1})
	rec := httptest.NewRecorder()

	newHTTPHandler(services{moderation: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.DataResponse[handler.ListingResponse]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "rejected", resp.Data.ApprovalStatus)
}

func TestReviewListing_UnknownStatusPassedAsZero(t *testing.T) {
	svc := &mockModerationServicer{
		review: func(_ context.Context, _ domain.Identity, _ int64, status domain.ApprovalStatus) (domain.Listing, error) {
			assert.Equal(t, domain.ApprovalStatus(0), status)
			return domain.Listing{}, fmt.Errorf("service.ModerationService.Review: %w", domain.ErrForbidden)
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPut, "/listings/1/approval", strings.NewReader(`{"approval_status":"maybe"}`)), owner)
	rec := httptest.NewRecorder()

	newHTTPHandler(services{moderation: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
