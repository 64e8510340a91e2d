package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthTicket is a pending OTP challenge. Tickets are single-use and
// replaced whenever a new code is requested for the same number.
type AuthTicket struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PhoneNumber string    `gorm:"size:20;not null;index" json:"phone_number"`
	CodeHash    string    `gorm:"size:100;not null" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
