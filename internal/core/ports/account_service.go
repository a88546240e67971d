package ports

import (
	"context"

	"github.com/adomia/account-gate/internal/core/domain"
)

// LoginGate screens login attempts against the deleted-account store before
// and after the upstream round trip.
type LoginGate interface {
	// Authenticate returns the upstream response to relay, or an error
	// wrapping domain.ErrAccountDeleted when a tombstone blocks the login.
	Authenticate(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error)
}

// AccountDeleter turns a "delete my account" request into a durable
// tombstone plus best-effort upstream cleanup.
type AccountDeleter interface {
	// DeleteCurrent resolves the caller's identity upstream and records the
	// tombstone. Repeat calls for an already-deleted identity succeed.
	DeleteCurrent(ctx context.Context, cookie, authorization string) error
}

// CleanupTask identifies the upstream state left behind by a deletion: the
// account itself and the session that authorized the request.
type CleanupTask struct {
	ExternalUserID string
	Cookie         string
	Authorization  string
}

// CleanupQueue accepts fire-and-forget upstream cleanup work. Enqueue never
// blocks the deletion flow and failures stay inside the queue.
type CleanupQueue interface {
	Enqueue(task CleanupTask)
}

// OpsAuthService authenticates the operator credential for the admin surface.
type OpsAuthService interface {
	// Login verifies the operator password and returns a signed token, or an
	// error wrapping domain.ErrInvalidCredentials.
	Login(ctx context.Context, password string) (string, error)
}

// DeletionLock is an advisory, per-identity lock narrowing the window in
// which two concurrent deletions of the same account race. The store's
// unique constraint stays the authoritative backstop.
type DeletionLock interface {
	// Acquire returns a release func and whether the lock was obtained. Lock
	// backend failures count as acquired so deletions never stall on it.
	Acquire(ctx context.Context, externalUserID string) (release func(), acquired bool)
}
