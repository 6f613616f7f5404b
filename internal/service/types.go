package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	// SessionTTL is the inactivity window; it slides with every
	// authenticated call.
	SessionTTL            time.Duration
	MaxConcurrentSessions int
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
