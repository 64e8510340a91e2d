package store

import (
	"context"
	"sync"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
)

// MemoryStore is an in-memory IdentityStore. It backs the package tests
// and any deployment that runs without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*models.Identity

	// FailWrites makes every write return an error; tests use it to
	// simulate a degraded persistence layer.
	FailWrites bool
	// FailReads does the same for reads.
	FailReads bool
	// Err is the error returned while failing. Defaults to a timeout-ish error.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{identities: make(map[string]*models.Identity)}
}

func (s *MemoryStore) failErr() error {
	if s.Err != nil {
		return s.Err
	}
	return context.DeadlineExceeded
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, s.failErr()
	}
	identity, ok := s.identities[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIdentity(identity), nil
}

func (s *MemoryStore) FindByInviteCode(_ context.Context, code string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, s.failErr()
	}
	for _, identity := range s.identities {
		if identity.InviteCode == code && code != "" {
			return cloneIdentity(identity), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Upsert(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return s.failErr()
	}
	s.identities[identity.PhoneNumber] = cloneIdentity(identity)
	return nil
}

func (s *MemoryStore) UpdateLocation(_ context.Context, phone string, loc models.Location, battery int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return false, s.failErr()
	}
	identity, ok := s.identities[phone]
	if !ok {
		return false, nil
	}
	stored := identity.Location.ObservedAt
	if stored != nil && loc.ObservedAt != nil && loc.ObservedAt.Before(*stored) {
		return false, nil
	}
	identity.Location = loc
	identity.BatteryLevel = battery
	return true, nil
}

func (s *MemoryStore) SetInvite(_ context.Context, phone, code string, expiry time.Time) error {
	return s.mutate(phone, func(identity *models.Identity) {
		identity.InviteCode = code
		identity.InviteCodeExpiry = &expiry
	})
}

func (s *MemoryStore) AddCircleMember(_ context.Context, phone, member string) error {
	return s.mutate(phone, func(identity *models.Identity) {
		if !identity.InCircle(member) {
			identity.Circle = append(identity.Circle, member)
		}
	})
}

func (s *MemoryStore) SetLostMode(_ context.Context, phone, message string, siren bool) error {
	return s.mutate(phone, func(identity *models.Identity) {
		identity.Status = models.StatusLost
		identity.LostMessage = message
		identity.SirenActive = siren
	})
}

func (s *MemoryStore) MarkSOS(_ context.Context, phone string) error {
	return s.mutate(phone, func(identity *models.Identity) {
		identity.Status = models.StatusSOS
	})
}

func (s *MemoryStore) ClearStatus(_ context.Context, phone string) error {
	return s.mutate(phone, func(identity *models.Identity) {
		identity.Status = models.StatusSafe
		identity.LostMessage = ""
		identity.SirenActive = false
	})
}

func (s *MemoryStore) mutate(phone string, fn func(*models.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return s.failErr()
	}
	identity, ok := s.identities[phone]
	if !ok {
		return ErrNotFound
	}
	fn(identity)
	return nil
}

func cloneIdentity(identity *models.Identity) *models.Identity {
	clone := *identity
	clone.Circle = append(clone.Circle[:0:0], identity.Circle...)
	if identity.Location.ObservedAt != nil {
		observed := *identity.Location.ObservedAt
		clone.Location.ObservedAt = &observed
	}
	if identity.InviteCodeExpiry != nil {
		expiry := *identity.InviteCodeExpiry
		clone.InviteCodeExpiry = &expiry
	}
	return &clone
}
