package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserNotFound           = errors.New("user not found")

	ErrActiveSessionExists = errors.New("ACTIVE_SESSION_EXISTS")
	ErrInvalidSession      = errors.New("INVALID_SESSION")
	ErrSessionExpired      = errors.New("SESSION_EXPIRED")

	ErrProductNotFound = errors.New("product not found")
	ErrProductFree     = errors.New("product is free, no license needed")

	// ErrLicenseInvalid wraps the codec error kind that rejected the code.
	ErrLicenseInvalid = errors.New("license invalid")

	ErrLicenseNotFound        = errors.New("license not found")
	ErrLicenseProductMismatch = errors.New("license not for this product")
	ErrLicenseRevoked         = errors.New("REVOKED")
	ErrAlreadyRedeemed        = errors.New("ALREADY_REDEEMED")
	ErrHWIDChanged            = errors.New("HWID_CHANGED")
	ErrHWIDMismatchSession    = errors.New("hwid mismatch with current session")
)
