package models

import (
	"time"

	"gorm.io/datatypes"
)

// Identity status values. Lost and SOS are set by the safety controller;
// Safe is the default and the state every cycle returns to.
const (
	StatusSafe = "Safe"
	StatusLost = "Lost"
	StatusSOS  = "SOS"
)

// Location is the last published position of a device.
type Location struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Speed      float64    `json:"speed"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// Identity is the core subscriber record, keyed by phone number.
// Created on first OTP contact; never hard-deleted by the core.
type Identity struct {
	PhoneNumber       string `gorm:"primaryKey;size:20" json:"phone_number"`
	FullName          string `gorm:"size:100" json:"full_name"`
	AvatarURL         string `gorm:"type:text" json:"avatar_url,omitempty"`
	DeviceFingerprint string `gorm:"size:64" json:"-"`
	Password          string `gorm:"size:100" json:"-"`

	Status       string `gorm:"size:10;default:'Safe'" json:"status"`
	LostMessage  string `gorm:"size:280" json:"lost_message,omitempty"`
	SirenActive  bool   `json:"siren_active"`
	BatteryLevel int    `json:"battery_level"`

	Location Location `gorm:"embedded;embeddedPrefix:location_" json:"location"`

	// Circle holds the phone numbers of mutually-linked members.
	// Membership is symmetric: if A lists B, B must list A.
	Circle datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"circle"`

	InviteCode       string     `gorm:"size:12;index" json:"-"`
	InviteCodeExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Identity) TableName() string {
	return "identities"
}

// InCircle reports whether phone is a member of this identity's circle.
func (i *Identity) InCircle(phone string) bool {
	for _, p := range i.Circle {
		if p == phone {
			return true
		}
	}
	return false
}
