package service_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
	"github.com/pkordes/office-listings/backend/internal/service"
)

// Hand-written test doubles. Each method is a function field. Set only the
// ones your test needs; calling an unset one panics.

// ---- ListingRepo -----------------------------------------------------------

type mockListingRepo struct {
	create                  func(ctx context.Context, l domain.Listing) (domain.Listing, error)
	getByID                 func(ctx context.Context, id int64) (domain.Listing, error)
	update                  func(ctx context.Context, l domain.Listing, resetApproval bool) (domain.Listing, error)
	setApprovalStatus       func(ctx context.Context, id int64, status domain.ApprovalStatus) (domain.Listing, error)
	softDelete              func(ctx context.Context, id int64) error
	hasActiveReservations   func(ctx context.Context, id int64) (bool, error)
	search                  func(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error)
	count                   func(ctx context.Context, q domain.ListingQuery) (int64, error)
	activeReservationCounts func(ctx context.Context, ids []int64) (map[int64]int, error)
}

func (m *mockListingRepo) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	return m.create(ctx, l)
}
func (m *mockListingRepo) GetByID(ctx context.Context, id int64) (domain.Listing, error) {
	return m.getByID(ctx, id)
}
func (m *mockListingRepo) Update(ctx context.Context, l domain.Listing, resetApproval bool) (domain.Listing, error) {
	return m.update(ctx, l, resetApproval)
}
func (m *mockListingRepo) SetApprovalStatus(ctx context.Context, id int64, status domain.ApprovalStatus) (domain.Listing, error) {
	return m.setApprovalStatus(ctx, id, status)
}
func (m *mockListingRepo) SoftDelete(ctx context.Context, id int64) error {
	return m.softDelete(ctx, id)
}
func (m *mockListingRepo) HasActiveReservations(ctx context.Context, id int64) (bool, error) {
	return m.hasActiveReservations(ctx, id)
}
func (m *mockListingRepo) Search(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, error) {
	return m.search(ctx, q)
}
func (m *mockListingRepo) Count(ctx context.Context, q domain.ListingQuery) (int64, error) {
	return m.count(ctx, q)
}
func (m *mockListingRepo) ActiveReservationCounts(ctx context.Context, ids []int64) (map[int64]int, error) {
	return m.activeReservationCounts(ctx, ids)
}

// ---- TagRepo ---------------------------------------------------------------

type mockTagRepo struct {
	upsert          func(ctx context.Context, name string) (domain.Tag, error)
	list            func(ctx context.Context) ([]domain.Tag, error)
	existingIDs     func(ctx context.Context, ids []int64) ([]int64, error)
	attachToListing func(ctx context.Context, listingID int64, tagIDs []int64) error
	syncListing     func(ctx context.Context, listingID int64, tagIDs []int64) error
	listByListings  func(ctx context.Context, ids []int64) (map[int64][]domain.Tag, error)
}

func (m *mockTagRepo) Upsert(ctx context.Context, name string) (domain.Tag, error) {
	return m.upsert(ctx, name)
}
func (m *mockTagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	return m.list(ctx)
}
func (m *mockTagRepo) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return m.existingIDs(ctx, ids)
}
func (m *mockTagRepo) AttachToListing(ctx context.Context, listingID int64, tagIDs []int64) error {
	return m.attachToListing(ctx, listingID, tagIDs)
}
func (m *mockTagRepo) SyncListing(ctx context.Context, listingID int64, tagIDs []int64) error {
	return m.syncListing(ctx, listingID, tagIDs)
}
func (m *mockTagRepo) ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Tag, error) {
	return m.listByListings(ctx, ids)
}

// ---- ImageRepo -------------------------------------------------------------

type mockImageRepo struct {
	create         func(ctx context.Context, img domain.Image) (domain.Image, error)
	getByID        func(ctx context.Context, listingID, imageID int64) (domain.Image, error)
	countByListing func(ctx context.Context, listingID int64) (int, error)
	delete         func(ctx context.Context, listingID, imageID int64) error
	listByListings func(ctx context.Context, ids []int64) (map[int64][]domain.Image, error)
}

func (m *mockImageRepo) Create(ctx context.Context, img domain.Image) (domain.Image, error) {
	return m.create(ctx, img)
}
func (m *mockImageRepo) GetByID(ctx context.Context, listingID, imageID int64) (domain.Image, error) {
	return m.getByID(ctx, listingID, imageID)
}
func (m *mockImageRepo) CountByListing(ctx context.Context, listingID int64) (int, error) {
	return m.countByListing(ctx, listingID)
}
func (m *mockImageRepo) Delete(ctx context.Context, listingID, imageID int64) error {
	return m.delete(ctx, listingID, imageID)
}
func (m *mockImageRepo) ListByListings(ctx context.Context, ids []int64) (map[int64][]domain.Image, error) {
	return m.listByListings(ctx, ids)
}

// ---- UserRepo --------------------------------------------------------------

type mockUserRepo struct {
	create     func(ctx context.Context, u domain.User) (domain.User, error)
	getByID    func(ctx context.Context, id int64) (domain.User, error)
	getByIDs   func(ctx context.Context, ids []int64) (map[int64]domain.User, error)
	listAdmins func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	return m.getByIDs(ctx, ids)
}
func (m *mockUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	return m.listAdmins(ctx)
}

// ---- collaborators ---------------------------------------------------------

// fakeTx runs fn against the same mock repos and counts units of work.
type fakeTx struct {
	repos repo.Repos
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	f.calls++
	return fn(f.repos)
}

// recordingNotifier captures every event; err is returned from each call.
type recordingNotifier struct {
	events []domain.PendingApprovalEvent
	err    error
}

func (n *recordingNotifier) NotifyPendingApproval(_ context.Context, e domain.PendingApprovalEvent) error {
	n.events = append(n.events, e)
	return n.err
}

type mockStorage struct {
	put    func(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	delete func(ctx context.Context, path string) error
}

func (m *mockStorage) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return m.put(ctx, name, contentType, r)
}
func (m *mockStorage) Delete(ctx context.Context, path string) error {
	return m.delete(ctx, path)
}

// compile-time checks: every mock must satisfy the interface it stands in for.
var (
	_ repo.ListingRepo      = (*mockListingRepo)(nil)
	_ repo.TagRepo          = (*mockTagRepo)(nil)
	_ repo.ImageRepo        = (*mockImageRepo)(nil)
	_ repo.UserRepo         = (*mockUserRepo)(nil)
	_ service.Transactor    = (*fakeTx)(nil)
	_ service.AdminNotifier = (*recordingNotifier)(nil)
	_ service.Storage       = (*mockStorage)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
