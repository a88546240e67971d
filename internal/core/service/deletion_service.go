package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/api/metrics"
	"github.com/adomia/account-gate/internal/core/domain"
	"github.com/adomia/account-gate/internal/core/ports"
)

// DeletionService converts "delete my account" into a durable tombstone.
// Only identity resolution and the store write can fail the operation;
// upstream cleanup is advisory and runs through the cleanup queue.
type DeletionService struct {
	repo    ports.TombstoneRepository
	gateway ports.UpstreamGateway
	cleanup ports.CleanupQueue
	lock    ports.DeletionLock
	log     zerolog.Logger
}

func NewDeletionService(repo ports.TombstoneRepository, gateway ports.UpstreamGateway, cleanup ports.CleanupQueue, lock ports.DeletionLock, log zerolog.Logger) *DeletionService {
	return &DeletionService{repo: repo, gateway: gateway, cleanup: cleanup, lock: lock, log: log}
}

func (s *DeletionService) DeleteCurrent(ctx context.Context, cookie, authorization string) error {
	// Who is asking? Upstream owns authentication, so the caller's own
	// credentials are replayed against the current-user endpoint.
	resp, err := s.gateway.CurrentUser(ctx, cookie, authorization)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return domain.ErrAuthRequired
	}

	ident, ok := domain.ExtractIdentity(resp.Body)
	if !ok || ident.ExternalUserID == "" {
		return domain.ErrIdentityMissing
	}

	// Repeat deletions are not an error: an existing tombstone means the
	// work is already done.
	existing, err := s.alreadyDeleted(ctx, ident)
	if err != nil {
		return fmt.Errorf("tombstone lookup: %w", err)
	}
	if existing {
		metrics.DeletionsTotal.WithLabelValues("already_deleted").Inc()
		s.log.Info().Str("external_user_id", ident.ExternalUserID).Msg("account already tombstoned")
		return nil
	}

	// Advisory lock narrowing the check-then-insert race between concurrent
	// first-time deletions. The unique index below is what actually
	// guarantees a single tombstone; losing the lock only means a peer is
	// mid-flight, so re-check once before attempting the insert.
	release, acquired := s.lock.Acquire(ctx, ident.ExternalUserID)
	defer release()
	if !acquired {
		existing, err := s.alreadyDeleted(ctx, ident)
		if err != nil {
			return fmt.Errorf("tombstone lookup: %w", err)
		}
		if existing {
			metrics.DeletionsTotal.WithLabelValues("already_deleted").Inc()
			return nil
		}
	}

	tombstone := &domain.Tombstone{
		ExternalUserID:  ident.ExternalUserID,
		Email:           ident.Email,
		SnapshotPayload: resp.Body,
		RecordedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, tombstone); err != nil {
		if errors.Is(err, domain.ErrTombstoneExists) {
			// Lost the race to a concurrent deletion; same outcome.
			metrics.DeletionsTotal.WithLabelValues("already_deleted").Inc()
			return nil
		}
		return fmt.Errorf("tombstone write: %w", err)
	}

	metrics.DeletionsTotal.WithLabelValues("created").Inc()
	metrics.TombstonesCreatedTotal.Inc()
	s.log.Info().Str("external_user_id", ident.ExternalUserID).Msg("tombstone recorded")

	// Exactly one request ever reaches this point for a given identity (the
	// insert above succeeded), so cleanup is enqueued exactly once.
	s.cleanup.Enqueue(ports.CleanupTask{
		ExternalUserID: ident.ExternalUserID,
		Cookie:         cookie,
		Authorization:  authorization,
	})

	return nil
}

func (s *DeletionService) alreadyDeleted(ctx context.Context, ident domain.Identity) (bool, error) {
	if _, err := s.repo.FindByExternalID(ctx, ident.ExternalUserID); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrTombstoneNotFound) {
		return false, err
	}
	if ident.Email != "" {
		if _, err := s.repo.FindByEmail(ctx, ident.Email); err == nil {
			return true, nil
		} else if !errors.Is(err, domain.ErrTombstoneNotFound) {
			return false, err
		}
	}
	return false, nil
}
