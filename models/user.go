package models

import (
	"gorm.io/gorm"
)

const (
	RoleUser    = "USER"
	RolePartner = "PARTNER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model

	FirstName    string `gorm:"size:64" json:"first_name"`
	LastName     string `gorm:"size:64" json:"last_name"`
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string `gorm:"size:128" json:"-"`
	Role         string `gorm:"size:16;default:USER" json:"role"`

	// Soft reference by code, no enforced foreign key.
	PartnerCode string `gorm:"index;size:32" json:"partner_code"`

	// Provider-assigned identifiers, distinct from the local primary key.
	EntityID string `gorm:"index;size:64" json:"centryos_entity_id"`
	WalletID string `gorm:"index;size:64" json:"centryos_wallet_id"`
}
