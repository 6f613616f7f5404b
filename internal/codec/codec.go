// Package codec encodes and verifies signed license codes.
//
// Wire form: LIC1.<base32(payload)>.<base32(signature)> where payload is
// canonical JSON (sorted keys, no whitespace) and the signature is
// HMAC-SHA256 over the exact payload bytes. Base32 is unpadded so codes
// survive copy/paste without trailing '=' characters. The same encoding is
// used by the offline generator, so both sides must agree byte-for-byte.
package codec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const Prefix = "LIC1"

var (
	ErrInvalidFormat    = errors.New("INVALID_FORMAT")
	ErrInvalidEncoding  = errors.New("INVALID_ENCODING")
	ErrInvalidSignature = errors.New("INVALID_SIGNATURE")
	ErrInvalidPayload   = errors.New("INVALID_PAYLOAD")
	ErrInvalidFields    = errors.New("INVALID_FIELDS")
	ErrExpired          = errors.New("EXPIRED")
)

// Fields is the signed content of a license code. The nonce only exists so
// that two codes for the same product and expiry are distinct strings; the
// codec does not check it for uniqueness.
type Fields struct {
	Version   int
	Product   string
	Nonce     string
	ExpiresAt *time.Time
}

// payload mirrors Fields in canonical form. Struct fields are declared in
// sorted key order so json.Marshal emits the same bytes a sorted-key
// serializer would.
type payload struct {
	Exp     string `json:"exp,omitempty"`
	Nonce   string `json:"nonce"`
	Product string `json:"product"`
	V       int    `json:"v"`
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewFields builds a version-1 field set with a fresh 128-bit nonce.
func NewFields(product string, expiresAt *time.Time) (Fields, error) {
	buffer := make([]byte, 16)
	if _, err := rand.Read(buffer); err != nil {
		return Fields{}, err
	}
	return Fields{
		Version:   1,
		Product:   product,
		Nonce:     hex.EncodeToString(buffer),
		ExpiresAt: expiresAt,
	}, nil
}

// Encode serializes fields canonically, signs them and returns the printable
// code.
func Encode(fields Fields, secret []byte) (string, error) {
	if fields.Version != 1 || fields.Product == "" || fields.Nonce == "" {
		return "", ErrInvalidFields
	}
	body := payload{
		Nonce:   fields.Nonce,
		Product: fields.Product,
		V:       fields.Version,
	}
	if fields.ExpiresAt != nil {
		body.Exp = formatExpiry(*fields.ExpiresAt)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return Prefix + "." + b32.EncodeToString(raw) + "." + b32.EncodeToString(sign(secret, raw)), nil
}

// DecodeAndVerify checks a code against the secret and returns its fields.
// Steps fail fast in a fixed order, each with its own error kind, and no
// data from a failed step is trusted. A code whose expiry equals now is
// still valid; it expires strictly after the exp instant.
func DecodeAndVerify(code string, secret []byte, now time.Time) (Fields, error) {
	parts := strings.Split(strings.TrimSpace(code), ".")
	if len(parts) != 3 || parts[0] != Prefix {
		return Fields{}, ErrInvalidFormat
	}

	raw, err := b32.DecodeString(strings.ToUpper(parts[1]))
	if err != nil {
		return Fields{}, ErrInvalidEncoding
	}
	signature, err := b32.DecodeString(strings.ToUpper(parts[2]))
	if err != nil {
		return Fields{}, ErrInvalidEncoding
	}

	if !hmac.Equal(sign(secret, raw), signature) {
		return Fields{}, ErrInvalidSignature
	}

	var body payload
	if err := json.Unmarshal(raw, &body); err != nil {
		return Fields{}, ErrInvalidPayload
	}

	if body.V != 1 || body.Product == "" || body.Nonce == "" {
		return Fields{}, ErrInvalidFields
	}

	fields := Fields{
		Version: body.V,
		Product: body.Product,
		Nonce:   body.Nonce,
	}
	if body.Exp != "" {
		expiresAt, err := time.Parse(time.RFC3339, body.Exp)
		if err != nil {
			return Fields{}, ErrInvalidFields
		}
		expiresAt = expiresAt.UTC()
		fields.ExpiresAt = &expiresAt
		if now.After(expiresAt) {
			return fields, ErrExpired
		}
	}
	return fields, nil
}

func formatExpiry(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func sign(secret []byte, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
