// Package qr produces and verifies the signed attendance payloads embedded
// in registration QR codes. The scanner posts the raw token back; the
// server trusts only the HMAC, never client-decoded fields.
package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Signing errors
var (
	ErrMalformedToken = errors.New("malformed attendance token")
	ErrBadSignature   = errors.New("attendance token signature mismatch")
)

// Payload is the content of an attendance QR code
type Payload struct {
	EventID        int64  `json:"eventId"`
	UserID         int64  `json:"userId"`
	RegistrationID int64  `json:"registrationId"`
	StudentName    string `json:"studentName"`
}

// Signer encodes payloads as <base64url(json)>.<hex(hmac-sha256)> tokens
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer keyed with the given secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Encode serializes and signs a payload
func (s *Signer) Encode(p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attendance payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + s.sign(encoded), nil
}

// Verify checks the signature and returns the embedded payload
func (s *Signer) Verify(token string) (*Payload, error) {
	encoded, sig, found := strings.Cut(token, ".")
	if !found || encoded == "" || sig == "" {
		return nil, ErrMalformedToken
	}

	if !hmac.Equal([]byte(s.sign(encoded)), []byte(sig)) {
		return nil, ErrBadSignature
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrMalformedToken
	}
	if p.EventID <= 0 || p.UserID <= 0 || p.RegistrationID <= 0 {
		return nil, ErrMalformedToken
	}

	return &p, nil
}

func (s *Signer) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

// PNG renders a signed token as a QR code image
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
