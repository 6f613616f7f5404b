package repository

import (
	"context"
	"errors"
	"time"

	"hwlock/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSessionLimit is returned by Admit when the account already holds the
// maximum number of active sessions.
var ErrSessionLimit = errors.New("active session limit reached")

type SessionRepository interface {
	// Admit atomically expires idle sessions, counts the survivors and
	// inserts the new session, all while holding the account's user row
	// lock. Two racing logins for the same account therefore serialize,
	// and at most maxActive sessions can be active at any committed
	// instant.
	Admit(ctx context.Context, session *entity.Session, maxActive int, idleBefore time.Time) error
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error)
	Touch(ctx context.Context, sessionID uuid.UUID, seenAt time.Time) error
	MarkInactive(ctx context.Context, sessionID uuid.UUID, reason string, at time.Time) error
	MarkAllInactiveByUser(ctx context.Context, userID uuid.UUID, reason string, at time.Time) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Admit(ctx context.Context, session *entity.Session, maxActive int, idleBefore time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the account row so concurrent admissions for the same
		// user serialize instead of both observing the same count.
		var owner entity.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", session.UserID).
			First(&owner).Error; err != nil {
			return err
		}

		var active []entity.Session
		if err := tx.
			Where("user_id = ? AND is_active = ?", session.UserID, true).
			Find(&active).Error; err != nil {
			return err
		}

		remaining := 0
		for _, stale := range active {
			if stale.LastSeenAt.Before(idleBefore) {
				if err := deactivate(tx, stale.ID, entity.SessionRevokeExpired, session.CreatedAt); err != nil {
					return err
				}
				continue
			}
			remaining++
		}

		if remaining >= maxActive {
			return ErrSessionLimit
		}
		return tx.Create(session).Error
	})
}

func (r *sessionRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_active = ?", tokenHash, true).
		First(&session).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, seenAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ?", sessionID).
		Update("last_seen_at", seenAt).
		Error
}

func (r *sessionRepository) MarkInactive(ctx context.Context, sessionID uuid.UUID, reason string, at time.Time) error {
	return deactivate(r.db.WithContext(ctx), sessionID, reason, at)
}

func (r *sessionRepository) MarkAllInactiveByUser(ctx context.Context, userID uuid.UUID, reason string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    &at,
			"revoke_reason": &reason,
		}).
		Error
}

// deactivate only touches still-active rows, which makes the transition
// idempotent: a second call finds nothing to update and succeeds.
func deactivate(tx *gorm.DB, sessionID uuid.UUID, reason string, at time.Time) error {
	return tx.
		Model(&entity.Session{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    &at,
			"revoke_reason": &reason,
		}).
		Error
}
