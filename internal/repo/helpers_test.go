package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
	"github.com/pkordes/office-listings/backend/testutil"
)

// newTestStore opens a single transaction and returns a Store bound to it,
// plus the transaction itself for fixtures that have no repo (reservations).
// Everything is rolled back when the test finishes.
func newTestStore(t *testing.T) (*repo.Store, pgx.Tx) {
	t.Helper()
	tx := testutil.NewTx(t)
	return repo.NewStore(tx), tx
}

// mustCreateUser inserts a user with a unique email.
func mustCreateUser(t *testing.T, s *repo.Store, admin bool) domain.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), domain.User{
		Name:    "Host",
		Email:   fmt.Sprintf("%s@example.com", uuid.NewString()),
		IsAdmin: admin,
	})
	require.NoError(t, err, "create user")
	return u
}

// listingFixture returns an approved, visible listing ready for insertion.
func listingFixture(ownerID int64) domain.Listing {
	return domain.Listing{
		UserID:          ownerID,
		Name:            "Harbour View Office",
		Description:     "Quiet desks by the water",
		AddressLine1:    "1 Dock Street",
		Lat:             38.72066100,
		Lng:             -9.16004100,
		PricePerDay:     1500,
		MonthlyDiscount: 0,
		ApprovalStatus:  domain.ApprovalApproved,
	}
}

// mustCreateListing inserts l after applying mutators.
func mustCreateListing(t *testing.T, s *repo.Store, l domain.Listing, mutators ...func(*domain.Listing)) domain.Listing {
	t.Helper()
	for _, m := range mutators {
		m(&l)
	}
	created, err := s.Listings.Create(context.Background(), l)
	require.NoError(t, err, "create listing")
	return created
}

// mustReserve inserts a reservation directly; the listings core never writes them.
func mustReserve(t *testing.T, tx pgx.Tx, listingID, visitorID int64, status domain.ReservationStatus) {
	t.Helper()
	_, err := tx.Exec(context.Background(),
		`INSERT INTO reservations (listing_id, user_id, status) VALUES ($1, $2, $3)`,
		listingID, visitorID, int16(status))
	require.NoError(t, err, "create reservation")
}

func listingIDs(listings []domain.Listing) []int64 {
	out := make([]int64, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}
