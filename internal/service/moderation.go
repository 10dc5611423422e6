package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// ModerationService lets administrators approve or reject pending listings.
type ModerationService struct {
	listings repo.ListingRepo
	users    repo.UserRepo
	log      *slog.Logger
}

// NewModerationService constructs a ModerationService.
func NewModerationService(listings repo.ListingRepo, users repo.UserRepo, log *slog.Logger) *ModerationService {
	return &ModerationService{listings: listings, users: users, log: log}
}

// Review sets the approval status of listing id. Only administrators may
// review, and only Approved or Rejected can be set by hand.
func (s *ModerationService) Review(ctx context.Context, caller domain.Identity, id int64, status domain.ApprovalStatus) (domain.Listing, error) {
	if !caller.Authenticated() {
		return domain.Listing{}, fmt.Errorf("service.ModerationService.Review: %w", domain.ErrUnauthenticated)
	}
	reviewer, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return domain.Listing{}, storageErr("service.ModerationService.Review", err)
	}
	if !reviewer.IsAdmin {
		return domain.Listing{}, fmt.Errorf("service.ModerationService.Review: %w: administrators only", domain.ErrForbidden)
	}

	if _, err := s.listings.GetByID(ctx, id); err != nil {
		return domain.Listing{}, storageErr("service.ModerationService.Review", err)
	}
	if !domain.CanReviewTo(status) {
		return domain.Listing{}, fmt.Errorf("service.ModerationService.Review: %w", domain.NewValidationError(domain.FieldErrors{
			"approval_status": {"The approval status must be approved or rejected."},
		}))
	}

	l, err := s.listings.SetApprovalStatus(ctx, id, status)
	if err != nil {
		return domain.Listing{}, storageErr("service.ModerationService.Review", err)
	}
	s.log.InfoContext(ctx, "listing reviewed",
		"listing_id", id,
		"reviewer_id", reviewer.ID,
		"approval_status", status.String(),
	)
	return l, nil
}
