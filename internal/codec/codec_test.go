package codec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func mustEncode(t *testing.T, fields Fields) string {
	t.Helper()
	code, err := Encode(fields, testSecret)
	require.NoError(t, err)
	return code
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		fields Fields
	}{
		{
			name:   "without expiry",
			fields: Fields{Version: 1, Product: "demo_paid", Nonce: strings.Repeat("ab", 16)},
		},
		{
			name:   "with expiry",
			fields: Fields{Version: 1, Product: "demo_paid", Nonce: strings.Repeat("0f", 16), ExpiresAt: &expiry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := mustEncode(t, tt.fields)
			decoded, err := DecodeAndVerify(code, testSecret, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.fields.Version, decoded.Version)
			assert.Equal(t, tt.fields.Product, decoded.Product)
			assert.Equal(t, tt.fields.Nonce, decoded.Nonce)
			if tt.fields.ExpiresAt == nil {
				assert.Nil(t, decoded.ExpiresAt)
			} else {
				require.NotNil(t, decoded.ExpiresAt)
				assert.True(t, tt.fields.ExpiresAt.Equal(*decoded.ExpiresAt))
			}
		})
	}
}

func TestEncodeCanonicalPayload(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	fields := Fields{Version: 1, Product: "demo_paid", Nonce: "00112233445566778899aabbccddeeff", ExpiresAt: &expiry}

	code := mustEncode(t, fields)
	parts := strings.Split(code, ".")
	require.Len(t, parts, 3)
	assert.Equal(t, "LIC1", parts[0])

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[1])
	require.NoError(t, err)
	assert.Equal(t,
		`{"exp":"2030-01-01T00:00:00Z","nonce":"00112233445566778899aabbccddeeff","product":"demo_paid","v":1}`,
		string(raw))

	mac := hmac.New(sha256.New, testSecret)
	mac.Write(raw)
	expectedSig := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))
	assert.Equal(t, expectedSig, parts[2])
}

func TestEncodeRejectsIncompleteFields(t *testing.T) {
	_, err := Encode(Fields{Version: 1, Product: "demo_paid"}, testSecret)
	assert.ErrorIs(t, err, ErrInvalidFields)

	_, err = Encode(Fields{Version: 2, Product: "demo_paid", Nonce: "aa"}, testSecret)
	assert.ErrorIs(t, err, ErrInvalidFields)
}

func TestDecodeAndVerifyRejections(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fields, err := NewFields("demo_paid", nil)
	require.NoError(t, err)
	valid := mustEncode(t, fields)
	parts := strings.Split(valid, ".")

	tests := []struct {
		name string
		code string
		want error
	}{
		{"empty", "", ErrInvalidFormat},
		{"two segments", parts[0] + "." + parts[1], ErrInvalidFormat},
		{"four segments", valid + ".extra", ErrInvalidFormat},
		{"truncated tag", strings.TrimPrefix(valid, "L"), ErrInvalidFormat},
		{"wrong tag", "LIC2." + parts[1] + "." + parts[2], ErrInvalidFormat},
		{"payload not base32", parts[0] + ".!!!!." + parts[2], ErrInvalidEncoding},
		{"signature not base32", parts[0] + "." + parts[1] + ".!!!!", ErrInvalidEncoding},
		{"signature flipped", flipSignatureByte(valid), ErrInvalidSignature},
		{"signature truncated", valid[:len(valid)-4], ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAndVerify(tt.code, testSecret, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeAndVerifyWrongSecret(t *testing.T) {
	fields, err := NewFields("demo_paid", nil)
	require.NoError(t, err)
	code := mustEncode(t, fields)

	_, err = DecodeAndVerify(code, []byte("another-secret"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeAndVerifyPayloadAndFieldErrors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"not json", "this is not json", ErrInvalidPayload},
		{"json array", `[1,2,3]`, ErrInvalidPayload},
		{"wrong version", `{"nonce":"aa","product":"demo_paid","v":2}`, ErrInvalidFields},
		{"missing product", `{"nonce":"aa","v":1}`, ErrInvalidFields},
		{"missing nonce", `{"product":"demo_paid","v":1}`, ErrInvalidFields},
		{"malformed exp", `{"exp":"sometime","nonce":"aa","product":"demo_paid","v":1}`, ErrInvalidFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAndVerify(signedCode([]byte(tt.payload)), testSecret, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// A code whose exp equals the verification instant is still valid; one
// second past it is expired.
func TestDecodeAndVerifyExpiryBoundary(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fields := Fields{Version: 1, Product: "demo_paid", Nonce: strings.Repeat("cd", 16), ExpiresAt: &expiry}
	code := mustEncode(t, fields)

	_, err := DecodeAndVerify(code, testSecret, expiry)
	assert.NoError(t, err)

	_, err = DecodeAndVerify(code, testSecret, expiry.Add(time.Second))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeAndVerifyIsCaseInsensitive(t *testing.T) {
	fields, err := NewFields("demo_paid", nil)
	require.NoError(t, err)
	code := mustEncode(t, fields)

	decoded, err := DecodeAndVerify("LIC1"+strings.ToLower(strings.TrimPrefix(code, "LIC1")), testSecret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fields.Nonce, decoded.Nonce)
}

func TestNewFieldsNonceIsUnique(t *testing.T) {
	first, err := NewFields("demo_paid", nil)
	require.NoError(t, err)
	second, err := NewFields("demo_paid", nil)
	require.NoError(t, err)

	assert.Len(t, first.Nonce, 32)
	assert.NotEqual(t, first.Nonce, second.Nonce)
}

func signedCode(raw []byte) string {
	encoding := base32.StdEncoding.WithPadding(base32.NoPadding)
	mac := hmac.New(sha256.New, testSecret)
	mac.Write(raw)
	return Prefix + "." + encoding.EncodeToString(raw) + "." + encoding.EncodeToString(mac.Sum(nil))
}

// flipSignatureByte changes the first character of the signature segment,
// which always carries data bits.
func flipSignatureByte(code string) string {
	idx := strings.LastIndex(code, ".") + 1
	replacement := byte('A')
	if code[idx] == 'A' {
		replacement = 'B'
	}
	return code[:idx] + string(replacement) + code[idx+1:]
}
