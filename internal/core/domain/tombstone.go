package domain

import (
	"errors"
	"time"
)

var ErrTombstoneNotFound = errors.New("tombstone not found")
var ErrTombstoneExists = errors.New("tombstone already exists")
var ErrAccountDeleted = errors.New("account is deleted")
var ErrIdentityMissing = errors.New("account identity missing")
var ErrAuthRequired = errors.New("authentication required")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Tombstone is the permanent record blocking a deleted account. It is written
// once by the deletion flow and never updated or removed: the store acts as a
// block list that outlives whatever the upstream system does with the account.
type Tombstone struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	ExternalUserID string    `json:"external_user_id" bson:"external_user_id"`
	Email          string    `json:"email,omitempty" bson:"email,omitempty"`
	// SnapshotPayload holds the upstream user object exactly as it was
	// returned at deletion time. Kept for audit and recovery, never parsed.
	SnapshotPayload []byte    `json:"-" bson:"snapshot_payload"`
	RecordedAt      time.Time `json:"recorded_at" bson:"recorded_at"`
}
