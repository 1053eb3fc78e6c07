package models

import (
	"time"

	"gorm.io/gorm"
)

type OTP struct {
	gorm.Model

	Email     string    `gorm:"index;size:255" json:"email"`
	Code      string    `gorm:"size:8" json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
