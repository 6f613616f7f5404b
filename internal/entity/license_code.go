package entity

import (
	"time"

	"github.com/google/uuid"
)

// LicenseCode is the ledger row for one distinct code string. It is created
// lazily on the first redemption attempt that carries a verified envelope
// and is never deleted, only revoked.
type LicenseCode struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code string    `gorm:"type:varchar(512);uniqueIndex;not null"`

	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Product   Product

	// Expiry copied from the signed envelope; evaluated against current
	// time at validation, not redemption time.
	ExpiresAt *time.Time

	RedeemedByUserID *uuid.UUID `gorm:"type:uuid;index"`
	RedeemedBy       *User      `gorm:"foreignKey:RedeemedByUserID"`
	RedeemedAt       *time.Time

	// Fixed on first redemption, permanent for the life of the code.
	BoundHWIDHash *string `gorm:"type:varchar(64)"`

	IsRevoked    bool    `gorm:"default:false;not null"`
	RevokeReason *string `gorm:"type:text"`

	CreatedAt time.Time
}

// Usable reports whether the record entitles a caller holding hwidHash at
// the given instant. A record expiring exactly now is still usable; it goes
// stale strictly after its expiry.
func (lc *LicenseCode) Usable(hwidHash string, now time.Time) bool {
	if lc.IsRevoked {
		return false
	}
	if lc.BoundHWIDHash != nil && *lc.BoundHWIDHash != hwidHash {
		return false
	}
	if lc.ExpiresAt != nil && now.After(*lc.ExpiresAt) {
		return false
	}
	return true
}
