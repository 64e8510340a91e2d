package models

import (
	"time"

	"github.com/google/uuid"
)

// Enterprise is a verified business line in the caller-ID directory.
// Only Active entries count as verified for lookup purposes.
type Enterprise struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyName      string    `gorm:"size:200;not null" json:"company_name"`
	RegisteredNumber string    `gorm:"size:20;not null;uniqueIndex" json:"registered_number"`
	Tier             string    `gorm:"size:20;default:'Standard'" json:"tier"`
	Status           string    `gorm:"size:30;default:'Pending Approval'" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const EnterpriseStatusActive = "Active"
