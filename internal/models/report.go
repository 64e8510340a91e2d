package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk tiers derived from report volume.
const (
	TierWarning    = "Warning"
	TierSuspicious = "Suspicious"
	TierBlocked    = "Blocked"
)

// SpamReport is a single append-only report against a phone number.
// Rows are never updated or deleted; duplicates from the same reporter
// are recorded as-is.
type SpamReport struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportedNumber string    `gorm:"size:20;not null;index" json:"reported_number"`
	ReporterPhone  string    `gorm:"size:20" json:"reporter_phone,omitempty"`
	Reason         string    `gorm:"size:100;not null" json:"reason"`
	Comment        string    `gorm:"size:500" json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SuspiciousNumber is the derived aggregate for a reported number.
// ReportCount and Status are recomputed from SpamReport rows after
// every submission and are never hand-edited.
type SuspiciousNumber struct {
	PhoneNumber string    `gorm:"primaryKey;size:20" json:"phone_number"`
	ReportCount int       `gorm:"not null;default:0" json:"report_count"`
	Status      string    `gorm:"size:20;not null;default:'Warning'" json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}
