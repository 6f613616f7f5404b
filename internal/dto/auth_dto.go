package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterResponse struct {
	OK    bool   `json:"ok"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	HWIDHash string `json:"hwid_hash" validate:"required,len=64,hexadecimal"`
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	UserEmail        string    `json:"user_email"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}

type SessionMeResponse struct {
	Email      string    `json:"email"`
	HWIDHash   string    `json:"hwid_hash"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsActive   bool      `json:"is_active"`
}
