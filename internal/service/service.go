// Package service contains the business logic for the office listings API.
// Services authorize the caller, validate inputs, enforce business rules,
// and orchestrate repo calls. No SQL lives here: services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// Transactor runs fn with repositories bound to one transaction.
// *repo.Store satisfies it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo.Repos) error) error
}

// Storage persists uploaded image files and returns an opaque path.
type Storage interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// AdminNotifier tells every administrator that a listing awaits review.
type AdminNotifier interface {
	NotifyPendingApproval(ctx context.Context, event domain.PendingApprovalEvent) error
}

// authorize checks that caller holds capability. Anonymous callers get
// ErrUnauthenticated; authenticated callers without the grant get ErrForbidden.
func authorize(caller domain.Identity, capability string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !caller.Can(capability) {
		return fmt.Errorf("%w: token lacks %q", domain.ErrForbidden, capability)
	}
	return nil
}

// storageErr classifies a repo failure: ErrNotFound passes through, anything
// else is reported as ErrUnavailable with the cause still wrapped for logs.
func storageErr(op string, err error) error {
	if domainErr(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}

// domainErr reports whether err already carries one of the domain sentinels.
func domainErr(err error) bool {
	for _, kind := range []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrConflict,
		domain.ErrForbidden,
		domain.ErrUnauthenticated,
		domain.ErrUnavailable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
