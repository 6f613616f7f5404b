package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"hwlock/internal/entity"
	"hwlock/internal/repository"
	"hwlock/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

// rawTokenBytes sizes the bearer token at 256 bits of entropy.
const rawTokenBytes = 32

type LoginResult struct {
	Token     string
	User      *entity.User
	Session   *entity.Session
	ExpiresAt time.Time
}

// AuthService owns account registration and session admission control.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	audit    repository.AuditLogRepository

	passwordHash PasswordHasher
	clock        Clock
	config       AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	audit repository.AuditLogRepository,
	passwordHash PasswordHasher,
	clock Clock,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		audit:        audit,
		passwordHash: passwordHash,
		clock:        clock,
		config:       config,
	}
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (*entity.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidInput
	}

	normalized := utils.NormalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.passwordHash.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        normalized,
		PasswordHash: hash,
		Role:         entity.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and admits a new session. Admission is atomic
// with respect to racing logins for the same account: idle sessions are
// lazily expired, the active count is re-checked and the insert happens in
// one committed unit, so MaxConcurrentSessions holds at every instant.
func (s *AuthService) Login(ctx context.Context, email string, password string, hwidHash string, ipAddress *string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" || strings.TrimSpace(hwidHash) == "" {
		return nil, ErrInvalidInput
	}

	normalized := utils.NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, password)
		_ = s.logAudit(ctx, nil, ipAddress, entity.AuditLoginFailed, map[string]any{"email": normalized})
		return nil, ErrInvalidCredentials
	}
	if !s.passwordHash.Verify(user.PasswordHash, password) {
		_ = s.logAudit(ctx, &user.ID, ipAddress, entity.AuditLoginFailed, map[string]any{"email": normalized})
		return nil, ErrInvalidCredentials
	}

	rawToken, err := utils.GenerateRandomToken(rawTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &entity.Session{
		UserID:     user.ID,
		TokenHash:  utils.HashToken(rawToken),
		HWIDHash:   hwidHash,
		CreatedAt:  now,
		LastSeenAt: now,
		IsActive:   true,
	}

	err = s.sessions.Admit(ctx, session, s.config.MaxConcurrentSessions, now.Add(-s.config.SessionTTL))
	if errors.Is(err, repository.ErrSessionLimit) {
		_ = s.logAudit(ctx, &user.ID, ipAddress, entity.AuditLoginBlocked, map[string]any{"hwid_hash": hwidHash})
		return nil, ErrActiveSessionExists
	}
	if err != nil {
		return nil, err
	}

	_ = s.logAudit(ctx, &user.ID, ipAddress, entity.AuditLoginSuccess, map[string]any{"hwid_hash": hwidHash})
	return &LoginResult{
		Token:     rawToken,
		User:      user,
		Session:   session,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}, nil
}

// Touch authenticates a bearer token, lazily expiring the session when its
// inactivity window has passed and sliding last_seen_at otherwise.
func (s *AuthService) Touch(ctx context.Context, rawToken string) (*entity.Session, *entity.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, nil, ErrInvalidSession
	}

	session, err := s.sessions.FindActiveByTokenHash(ctx, utils.HashToken(strings.TrimSpace(rawToken)))
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrInvalidSession
	}

	now := s.clock.Now()
	if session.IdleSince(now, s.config.SessionTTL) {
		_ = s.sessions.MarkInactive(ctx, session.ID, entity.SessionRevokeExpired, now)
		return nil, nil, ErrSessionExpired
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		return nil, nil, err
	}
	session.LastSeenAt = now

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	return session, user, nil
}

// Logout is idempotent: marking an already-inactive session again is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, userID *uuid.UUID, ipAddress *string) error {
	if err := s.sessions.MarkInactive(ctx, sessionID, entity.SessionRevokeLogout, s.clock.Now()); err != nil {
		return err
	}
	_ = s.logAudit(ctx, userID, ipAddress, entity.AuditLogout, nil)
	return nil
}

func (s *AuthService) RevokeUserSessions(ctx context.Context, userID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.MarkAllInactiveByUser(ctx, userID, entity.SessionRevokeAdmin, s.clock.Now()); err != nil {
		return err
	}
	_ = s.logAudit(ctx, &userID, ipAddress, entity.AuditSessionsRevoked, nil)
	return nil
}

func (s *AuthService) logAudit(ctx context.Context, userID *uuid.UUID, ipAddress *string, action entity.AuditAction, metadata map[string]any) error {
	if s.audit == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(raw)
	}
	return s.audit.Log(ctx, &entity.AuditLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	})
}
