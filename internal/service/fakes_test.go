package service

import (
	"context"
	"sync"
	"time"

	"hwlock/internal/entity"
	"hwlock/internal/repository"

	"github.com/google/uuid"
)

// The fakes below implement the repository interfaces over mutex-guarded
// maps. Each method that the real store runs as one transaction holds the
// mutex for its whole duration, so the concurrency properties under test
// (single redemption winner, at-most-N admissions) are real, not simulated.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash string, password string) bool {
	return hash == "hashed:"+password
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]entity.Session)}
}

func (r *fakeSessionRepo) Admit(_ context.Context, session *entity.Session, maxActive int, idleBefore time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for id, existing := range r.sessions {
		if existing.UserID != session.UserID || !existing.IsActive {
			continue
		}
		if existing.LastSeenAt.Before(idleBefore) {
			reason := entity.SessionRevokeExpired
			existing.IsActive = false
			existing.RevokedAt = &session.CreatedAt
			existing.RevokeReason = &reason
			r.sessions[id] = existing
			continue
		}
		active++
	}

	if active >= maxActive {
		return repository.ErrSessionLimit
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) FindActiveByTokenHash(_ context.Context, tokenHash string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.TokenHash == tokenHash && session.IsActive {
			copied := session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, sessionID uuid.UUID, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[sessionID]; ok {
		session.LastSeenAt = seenAt
		r.sessions[sessionID] = session
	}
	return nil
}

func (r *fakeSessionRepo) MarkInactive(_ context.Context, sessionID uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[sessionID]; ok && session.IsActive {
		session.IsActive = false
		session.RevokedAt = &at
		session.RevokeReason = &reason
		r.sessions[sessionID] = session
	}
	return nil
}

func (r *fakeSessionRepo) MarkAllInactiveByUser(_ context.Context, userID uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			session.RevokedAt = &at
			session.RevokeReason = &reason
			r.sessions[id] = session
		}
	}
	return nil
}

func (r *fakeSessionRepo) get(id uuid.UUID) (entity.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *fakeSessionRepo) activeCount(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive {
			count++
		}
	}
	return count
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]entity.Product
}

func newFakeProductRepo(products ...entity.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[string]entity.Product)}
	for _, product := range products {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		repo.products[product.Code] = product
	}
	return repo
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product, ok := r.products[code]; ok {
		copied := product
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

func (r *fakeProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.Code] = *product
	return nil
}

type fakeLicenseRepo struct {
	mu      sync.Mutex
	records map[string]entity.LicenseCode
}

func newFakeLicenseRepo() *fakeLicenseRepo {
	return &fakeLicenseRepo{records: make(map[string]entity.LicenseCode)}
}

func (r *fakeLicenseRepo) RedeemTx(_ context.Context, code string, fresh *entity.LicenseCode, apply func(*entity.LicenseCode) error) (*entity.LicenseCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	working, ok := r.records[code]
	if !ok {
		working = *fresh
		if working.ID == uuid.Nil {
			working.ID = uuid.New()
		}
	}
	if err := apply(&working); err != nil {
		return nil, err
	}
	r.records[code] = working
	copied := working
	return &copied, nil
}

func (r *fakeLicenseRepo) ListRedeemedByUser(_ context.Context, userID uuid.UUID, productID uuid.UUID) ([]entity.LicenseCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []entity.LicenseCode
	for _, record := range r.records {
		if record.ProductID == productID && record.RedeemedByUserID != nil && *record.RedeemedByUserID == userID {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (r *fakeLicenseRepo) Revoke(_ context.Context, code string, reason string) (*entity.LicenseCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[code]
	if !ok {
		return nil, nil
	}
	record.IsRevoked = true
	record.RevokeReason = &reason
	r.records[code] = record
	copied := record
	return &copied, nil
}

func (r *fakeLicenseRepo) get(code string) (entity.LicenseCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[code]
	return record, ok
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) actions() []entity.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []entity.AuditAction
	for _, log := range r.logs {
		actions = append(actions, log.Action)
	}
	return actions
}
