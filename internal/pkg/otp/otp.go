// Package otp generates and checks the short numeric codes used to prove
// control of an email address. Codes are stored at rest only as digests.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
)

// Length is the number of digits in a generated code
const Length = 6

var codePattern = regexp.MustCompile(`^\d{6}$`)

// Generate produces a cryptographically random 6-digit numeric code
func Generate() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Digest returns the hex-encoded SHA-256 digest of a code for at-rest
// storage and database-side comparison.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Match reports whether code hashes to the stored digest, comparing in
// constant time.
func Match(digest, code string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(Digest(code))) == 1
}

// ValidFormat reports whether the string is exactly six digits. Checked
// before any lookup so malformed codes never reach the store.
func ValidFormat(code string) bool {
	return codePattern.MatchString(code)
}
