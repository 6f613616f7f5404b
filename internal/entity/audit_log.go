package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditLoginSuccess    AuditAction = "login_success"
	AuditLoginFailed     AuditAction = "login_failed"
	AuditLoginBlocked    AuditAction = "login_blocked"
	AuditLogout          AuditAction = "logout"
	AuditRedeemSuccess   AuditAction = "redeem_success"
	AuditRedeemDenied    AuditAction = "redeem_denied"
	AuditLicenseRevoked  AuditAction = "license_revoked"
	AuditSessionsRevoked AuditAction = "sessions_revoked"
)

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string     `gorm:"type:varchar(45)"`
	Action    AuditAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
