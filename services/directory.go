package services

import (
	"context"

	"wedding-backend/models"
)

// GuestDirectory is the read/write contract against the guest list.
// Implementations match one normalized code by strict equality — partial or
// fuzzy matching is a directory-provisioning bug, not something this layer
// resolves. Safe for concurrent use.
//
// FindByCode returns ErrInvalidInput for an empty code (before any network
// call), ErrNotFound when the code does not resolve, and
// ErrUpstreamUnavailable on transport failure. The two last must never be
// conflated.
type GuestDirectory interface {
	FindByCode(ctx context.Context, code string) (*models.GuestRecord, error)
	Update(ctx context.Context, recordID string, upd models.GuestUpdate) error
}
