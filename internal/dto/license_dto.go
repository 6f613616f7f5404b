package dto

import "time"

type RedeemRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	LicenseCode string `json:"license_code" validate:"required"`
	HWIDHash    string `json:"hwid_hash" validate:"required,len=64,hexadecimal"`
}

type RedeemResponse struct {
	OK            bool       `json:"ok"`
	ProductCode   string     `json:"product_code"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	BoundHWIDHash string     `json:"bound_hwid_hash"`
}

type ValidateRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	HWIDHash    string `json:"hwid_hash" validate:"required,len=64,hexadecimal"`
}

type ValidateResponse struct {
	Valid       bool       `json:"valid"`
	ProductCode string     `json:"product_code"`
	Reason      string     `json:"reason,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type RevokeLicenseRequest struct {
	LicenseCode string `json:"license_code" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}
