package classifier

import (
	"context"
	"errors"

	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReportStore is the Postgres-backed ReportStore.
type GormReportStore struct {
	db *gorm.DB
}

func NewGormReportStore(db *gorm.DB) *GormReportStore {
	return &GormReportStore{db: db}
}

func (s *GormReportStore) Append(ctx context.Context, report *models.SpamReport) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *GormReportStore) CountByNumber(ctx context.Context, number string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SpamReport{}).
		Where("reported_number = ?", number).
		Count(&count).Error
	return count, err
}

func (s *GormReportStore) SaveAggregate(ctx context.Context, agg *models.SuspiciousNumber) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"report_count", "status", "updated_at"}),
		}).
		Create(agg).Error
}

func (s *GormReportStore) FindAggregate(ctx context.Context, number string) (*models.SuspiciousNumber, error) {
	var agg models.SuspiciousNumber
	err := s.db.WithContext(ctx).First(&agg, "phone_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownNumber
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
