package ports

import (
	"context"

	"github.com/adomia/account-gate/internal/core/domain"
)

// TombstoneRepository defines the interface for the deleted-account store.
// Tombstones are insert-only: there is deliberately no update or delete.
type TombstoneRepository interface {
	// FindByExternalID returns domain.ErrTombstoneNotFound when no tombstone
	// exists for the given upstream user id.
	FindByExternalID(ctx context.Context, externalUserID string) (*domain.Tombstone, error)
	// FindByEmail matches the email exactly as stored; no normalization.
	FindByEmail(ctx context.Context, email string) (*domain.Tombstone, error)
	// Create returns domain.ErrTombstoneExists when the unique constraint on
	// external id or email fires. Callers treat that the same as "found".
	Create(ctx context.Context, tombstone *domain.Tombstone) error
	// List returns tombstones ordered by recording time, newest first.
	List(ctx context.Context, limit, offset int64) ([]domain.Tombstone, error)
}
