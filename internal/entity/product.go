package entity

import "github.com/google/uuid"

type Product struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code   string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name   string    `gorm:"type:varchar(128);not null"`
	IsPaid bool      `gorm:"default:false;not null"`

	LicenseCodes []LicenseCode
}
