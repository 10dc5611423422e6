package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// MsgActiveReservations is reported under the "listing" field when a delete
// is blocked.
const MsgActiveReservations = "Cannot delete a listing with active reservations."

// ListingService implements search, show and the moderated write path for
// listings.
type ListingService struct {
	repos     repo.Repos
	tx        Transactor
	validator *ListingValidator
	notifier  AdminNotifier
	log       *slog.Logger
	now       func() time.Time

	// pending tracks notifications still being delivered.
	pending sync.WaitGroup
}

// NewListingService constructs a ListingService. repos serves reads and
// validation lookups; tx scopes every write.
func NewListingService(repos repo.Repos, tx Transactor, notifier AdminNotifier, log *slog.Logger) *ListingService {
	return &ListingService{
		repos:     repos,
		tx:        tx,
		validator: NewListingValidator(repos.Tags, repos.Images),
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Search returns one page of listings matching filter, as seen by caller.
// Visibility is resolved once for the whole query. A page past the end is
// empty, not an error.
func (s *ListingService) Search(ctx context.Context, caller domain.Identity, filter domain.ListingFilter) (domain.Page[domain.Listing], error) {
	q := domain.NewListingQuery(caller, filter)

	listings, err := s.repos.Listings.Search(ctx, q)
	if err != nil {
		return domain.Page[domain.Listing]{}, storageErr("service.ListingService.Search", err)
	}
	total, err := s.repos.Listings.Count(ctx, q)
	if err != nil {
		return domain.Page[domain.Listing]{}, storageErr("service.ListingService.Search", err)
	}
	if err := s.hydrate(ctx, listings); err != nil {
		return domain.Page[domain.Listing]{}, storageErr("service.ListingService.Search", err)
	}

	return domain.Page[domain.Listing]{
		Items: listings,
		Page:  q.Pagination.Page,
		Limit: q.Pagination.Limit,
		Total: total,
	}, nil
}

// Get returns a single listing with its projections. A listing the caller is
// not allowed to see is reported as not found.
func (s *ListingService) Get(ctx context.Context, caller domain.Identity, id int64) (domain.Listing, error) {
	l, err := s.repos.Listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, storageErr("service.ListingService.Get", err)
	}
	if !domain.ResolveVisibility(caller, &l.UserID).Allows(l) {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Get: %w", domain.ErrNotFound)
	}

	one := []domain.Listing{l}
	if err := s.hydrate(ctx, one); err != nil {
		return domain.Listing{}, storageErr("service.ListingService.Get", err)
	}
	return one[0], nil
}

// Create validates in and stores a new listing owned by caller. The listing
// always starts Pending and every administrator is notified once.
func (s *ListingService) Create(ctx context.Context, caller domain.Identity, in ListingInput) (domain.Listing, error) {
	if err := authorize(caller, domain.CapabilityListingCreate); err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", err)
	}

	patch, err := s.validator.Validate(ctx, ProfileCreate, nil, in)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Create: %w", err)
	}

	l := patch.Apply(domain.Listing{UserID: caller.UserID})
	l.ApprovalStatus = domain.InitialApprovalStatus()
	l.FeaturedImageID = nil

	var created domain.Listing
	err = s.tx.WithinTx(ctx, func(r repo.Repos) error {
		var err error
		if created, err = r.Listings.Create(ctx, l); err != nil {
			return err
		}
		return r.Tags.AttachToListing(ctx, created.ID, patch.TagIDs)
	})
	if err != nil {
		return domain.Listing{}, storageErr("service.ListingService.Create", err)
	}

	s.notifyPending(ctx, created, domain.PendingReasonCreated)
	return s.project(ctx, created), nil
}

// Update applies the fields present in in to listing id. Moving a reviewed
// listing sends it back to Pending and notifies administrators; any other
// edit leaves the approval status alone.
func (s *ListingService) Update(ctx context.Context, caller domain.Identity, id int64, in ListingInput) (domain.Listing, error) {
	if err := authorize(caller, domain.CapabilityListingUpdate); err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", err)
	}

	stored, err := s.ownedListing(ctx, caller, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", err)
	}

	patch, err := s.validator.Validate(ctx, ProfileUpdate, &stored, in)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("service.ListingService.Update: %w", err)
	}

	next, transitioned := domain.NextApprovalStatus(stored.ApprovalStatus, domain.LocationChanged(stored, patch))
	changed := patch.Apply(stored)
	changed.ApprovalStatus = next

	var updated domain.Listing
	err = s.tx.WithinTx(ctx, func(r repo.Repos) error {
		var err error
		if updated, err = r.Listings.Update(ctx, changed, transitioned); err != nil {
			return err
		}
		if patch.ReplaceTags {
			return r.Tags.SyncListing(ctx, updated.ID, patch.TagIDs)
		}
		return nil
	})
	if err != nil {
		return domain.Listing{}, storageErr("service.ListingService.Update", err)
	}

	if transitioned {
		s.notifyPending(ctx, updated, domain.PendingReasonLocationChanged)
	}
	return s.project(ctx, updated), nil
}

// Delete soft-deletes listing id. A listing with an active reservation
// cannot be deleted.
func (s *ListingService) Delete(ctx context.Context, caller domain.Identity, id int64) error {
	if err := authorize(caller, domain.CapabilityListingUpdate); err != nil {
		return fmt.Errorf("service.ListingService.Delete: %w", err)
	}

	if _, err := s.ownedListing(ctx, caller, id); err != nil {
		return fmt.Errorf("service.ListingService.Delete: %w", err)
	}

	reserved, err := s.repos.Listings.HasActiveReservations(ctx, id)
	if err != nil {
		return storageErr("service.ListingService.Delete", err)
	}
	if reserved {
		return fmt.Errorf("service.ListingService.Delete: %w", domain.NewConflictError("listing", MsgActiveReservations))
	}

	if err := s.repos.Listings.SoftDelete(ctx, id); err != nil {
		return storageErr("service.ListingService.Delete", err)
	}
	return nil
}

// ownedListing loads listing id and checks that caller owns it.
func (s *ListingService) ownedListing(ctx context.Context, caller domain.Identity, id int64) (domain.Listing, error) {
	return loadOwnedListing(ctx, s.repos.Listings, caller, id)
}

// loadOwnedListing is shared by every write path scoped to a listing owner.
func loadOwnedListing(ctx context.Context, listings repo.ListingRepo, caller domain.Identity, id int64) (domain.Listing, error) {
	l, err := listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, storageErr("load listing", err)
	}
	if !l.OwnedBy(caller) {
		return domain.Listing{}, fmt.Errorf("%w: listing %d belongs to another user", domain.ErrForbidden, id)
	}
	return l, nil
}

// notifyPending dispatches the pending-approval event in the background.
// The write has already committed, so the response does not wait for
// delivery, the request's cancellation does not stop it, and failures are
// only logged.
func (s *ListingService) notifyPending(ctx context.Context, l domain.Listing, reason domain.PendingApprovalReason) {
	event := domain.NewPendingApprovalEvent(l, reason, s.now())
	detached := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.notifier.NotifyPendingApproval(detached, event); err != nil {
			s.log.WarnContext(detached, "pending approval notification failed",
				"listing_id", l.ID,
				"reason", string(reason),
				"error", err,
			)
		}
	}()
}

// Wait blocks until every notification started so far has been delivered
// or has failed. Call it after the HTTP server has shut down.
func (s *ListingService) Wait() {
	s.pending.Wait()
}

// project attaches the read-model fields to a freshly written listing. The
// write already committed, so a failed lookup only degrades the response.
func (s *ListingService) project(ctx context.Context, l domain.Listing) domain.Listing {
	one := []domain.Listing{l}
	if err := s.hydrate(ctx, one); err != nil {
		s.log.WarnContext(ctx, "listing projection failed", "listing_id", l.ID, "error", err)
		return l
	}
	return one[0]
}

// hydrate batch-loads reservation counts, tags, images and owners for
// listings, one query per relation regardless of page size.
func (s *ListingService) hydrate(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]int64, len(listings))
	ownerIDs := make([]int64, 0, len(listings))
	seenOwner := make(map[int64]bool, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		if !seenOwner[l.UserID] {
			seenOwner[l.UserID] = true
			ownerIDs = append(ownerIDs, l.UserID)
		}
	}

	counts, err := s.repos.Listings.ActiveReservationCounts(ctx, ids)
	if err != nil {
		return err
	}
	tags, err := s.repos.Tags.ListByListings(ctx, ids)
	if err != nil {
		return err
	}
	images, err := s.repos.Images.ListByListings(ctx, ids)
	if err != nil {
		return err
	}
	owners, err := s.repos.Users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return err
	}

	for i := range listings {
		l := &listings[i]
		l.ReservationsCount = counts[l.ID]
		l.Tags = nonNil(tags[l.ID])
		l.Images = nonNil(images[l.ID])
		if owner, ok := owners[l.UserID]; ok {
			l.Owner = &owner
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

