package store

import (
	"context"
	"errors"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
)

var ErrNotFound = errors.New("identity not found")

// IdentityStore is the document-store surface the safety core consumes.
// The unit of consistency is a single identity record; there are no
// multi-record transactions.
type IdentityStore interface {
	FindByPhone(ctx context.Context, phone string) (*models.Identity, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Identity, error)

	// Upsert creates or fully replaces an identity record.
	Upsert(ctx context.Context, identity *models.Identity) error

	// UpdateLocation persists a location sample and battery level only if
	// the sample is not older than the stored one. Returns false when the
	// sample was discarded as stale.
	UpdateLocation(ctx context.Context, phone string, loc models.Location, battery int) (bool, error)

	// SetInvite overwrites the identity's invite code and expiry.
	SetInvite(ctx context.Context, phone, code string, expiry time.Time) error

	// AddCircleMember adds member to phone's circle set. Adding an
	// existing member is a no-op.
	AddCircleMember(ctx context.Context, phone, member string) error

	// SetLostMode marks the identity Lost with the given recovery config.
	SetLostMode(ctx context.Context, phone, message string, siren bool) error

	// MarkSOS marks the identity SOS, leaving lost-mode config untouched.
	MarkSOS(ctx context.Context, phone string) error

	// ClearStatus returns the identity to Safe and clears lost-mode config.
	ClearStatus(ctx context.Context, phone string) error
}
