package models

import "gorm.io/gorm"

type Partner struct {
	gorm.Model

	PartnerCode  string `gorm:"uniqueIndex;size:32" json:"partner_code"`
	Name         string `gorm:"size:128" json:"name"`
	Email        string `gorm:"size:255" json:"email"`
	PasswordHash string `gorm:"size:128" json:"-"`
}
