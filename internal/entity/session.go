package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionRevokeLogout  = "LOGOUT"
	SessionRevokeExpired = "EXPIRED"
	SessionRevokeAdmin   = "ADMIN_REVOKED"
)

// Session holds one login. Only the SHA-256 of the bearer token is stored;
// the raw token is returned once at login and is not recoverable from here.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:ix_sessions_user_active"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	TokenHash string `gorm:"type:varchar(64);uniqueIndex;not null"`
	HWIDHash  string `gorm:"type:varchar(64);index;not null"`

	CreatedAt  time.Time
	LastSeenAt time.Time

	IsActive     bool `gorm:"default:true;not null;index:ix_sessions_user_active"`
	RevokedAt    *time.Time
	RevokeReason *string `gorm:"type:text"`
}

// IdleSince reports whether the session has gone idle for longer than ttl
// as of now. Expiry slides with LastSeenAt, so a continuously touched
// session never goes idle.
func (s *Session) IdleSince(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastSeenAt) > ttl
}
