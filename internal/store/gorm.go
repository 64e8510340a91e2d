package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed identity store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).First(&identity, "phone_number = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	return &identity, nil
}

func (s *GormStore) FindByInviteCode(ctx context.Context, code string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).First(&identity, "invite_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite code: %w", err)
	}
	return &identity, nil
}

func (s *GormStore) Upsert(ctx context.Context, identity *models.Identity) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			UpdateAll: true,
		}).
		Create(identity).Error
}

func (s *GormStore) UpdateLocation(ctx context.Context, phone string, loc models.Location, battery int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Identity{}).
		Where("phone_number = ?", phone).
		Where("location_observed_at IS NULL OR location_observed_at <= ?", loc.ObservedAt).
		Updates(map[string]interface{}{
			"location_lat":         loc.Lat,
			"location_lng":         loc.Lng,
			"location_speed":       loc.Speed,
			"location_observed_at": loc.ObservedAt,
			"battery_level":        battery,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to persist location: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) SetInvite(ctx context.Context, phone, code string, expiry time.Time) error {
	return s.updateByPhone(ctx, phone, map[string]interface{}{
		"invite_code":        code,
		"invite_code_expiry": expiry,
	})
}

// AddCircleMember appends member to the jsonb circle set atomically,
// skipping the write when the member is already present.
func (s *GormStore) AddCircleMember(ctx context.Context, phone, member string) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE identities
		 SET circle = COALESCE(circle, '[]'::jsonb) || to_jsonb(?::text), updated_at = NOW()
		 WHERE phone_number = ? AND NOT COALESCE(circle, '[]'::jsonb) @> to_jsonb(?::text)`,
		member, phone, member,
	).Error
}

func (s *GormStore) SetLostMode(ctx context.Context, phone, message string, siren bool) error {
	return s.updateByPhone(ctx, phone, map[string]interface{}{
		"status":       models.StatusLost,
		"lost_message": message,
		"siren_active": siren,
	})
}

func (s *GormStore) MarkSOS(ctx context.Context, phone string) error {
	return s.updateByPhone(ctx, phone, map[string]interface{}{
		"status": models.StatusSOS,
	})
}

func (s *GormStore) ClearStatus(ctx context.Context, phone string) error {
	return s.updateByPhone(ctx, phone, map[string]interface{}{
		"status":       models.StatusSafe,
		"lost_message": "",
		"siren_active": false,
	})
}

func (s *GormStore) updateByPhone(ctx context.Context, phone string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Identity{}).
		Where("phone_number = ?", phone).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
