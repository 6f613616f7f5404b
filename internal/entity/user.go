package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(320);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         UserRole  `gorm:"type:varchar(16);default:'user';not null"`

	CreatedAt time.Time

	Sessions     []Session
	LicenseCodes []LicenseCode `gorm:"foreignKey:RedeemedByUserID"`
}
