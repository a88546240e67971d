package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockTTL = 30 * time.Second

// DeletionLock is an advisory per-identity lock backed by Redis SET NX.
// Key format: deletion:lock:<external_user_id>
//
// It only narrows the window in which two concurrent first-time deletions of
// the same account duplicate work; the store's unique index is the real
// guarantee. Redis being unavailable therefore counts as acquired.
type DeletionLock struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewDeletionLock(client *redis.Client, log zerolog.Logger) *DeletionLock {
	return &DeletionLock{client: client, log: log}
}

// Acquire takes the lock for the given identity. The returned release func
// is always safe to call, also when the lock was not obtained.
func (l *DeletionLock) Acquire(ctx context.Context, externalUserID string) (func(), bool) {
	key := l.key(externalUserID)

	ok, err := l.client.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("external_user_id", externalUserID).
			Msg("deletion lock unavailable, proceeding without it")
		return func() {}, true
	}
	if !ok {
		return func() {}, false
	}

	return func() {
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			// The TTL reclaims it.
			l.log.Warn().Err(err).Str("external_user_id", externalUserID).
				Msg("deletion lock release failed")
		}
	}, true
}

func (l *DeletionLock) key(externalUserID string) string {
	return fmt.Sprintf("deletion:lock:%s", externalUserID)
}
