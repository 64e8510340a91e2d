package directory

import (
	"context"
	"errors"

	"github.com/samuelAmenu/vbcs-backend/internal/classifier"
	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"gorm.io/gorm"
)

// GormDirectory resolves verified enterprise lines from the enterprises
// table. Only Active entries count as verified.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) FindVerifiedByNumber(ctx context.Context, number string) (string, error) {
	var ent models.Enterprise
	err := d.db.WithContext(ctx).
		Where("registered_number = ? AND status = ?", number, models.EnterpriseStatusActive).
		First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", classifier.ErrNotVerified
	}
	if err != nil {
		return "", err
	}
	return ent.CompanyName, nil
}
