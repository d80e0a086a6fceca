package models

import (
	"time"
)

// User defines the user model based on the 'users' table. Rows are only
// created after the registration OTP has been verified, so IsEmailVerified
// is true from the moment the row exists.
type User struct {
	ID              int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Name            string    `json:"name" db:"name" example:"Anjali Rao"`                      // Full name
	Email           string    `json:"email" db:"email" example:"2100031234@klu.ac.in"`          // College email address (unique)
	Password        string    `json:"-" db:"password_hash"`                                     // Hashed password (excluded from JSON)
	UserType        UserType  `json:"userType" db:"user_type" example:"student"`                // student or organizer
	Year            string    `json:"year" db:"year" example:"3"`                               // Year of study
	Department      string    `json:"department" db:"department" example:"CSE"`                 // Department short name
	Section         string    `json:"section" db:"section" example:"B"`                         // Class section
	College         string    `json:"college" db:"college" example:"KL University"`             // College name
	IsEmailVerified bool      `json:"isEmailVerified" db:"is_email_verified" example:"true"`    // Email ownership proven via OTP
	IsClubVerified  bool      `json:"isClubVerified" db:"is_club_verified" example:"false"`     // True only while the owned club is approved
	CreatedAt       time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Timestamp when the user was created
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"` // Timestamp when the user was last updated
}

// PendingRegistration holds a signup that has not proven email ownership
// yet, keyed by an opaque token handed to the client. The OTP itself is
// stored only as a digest and the row is deleted once the user is created.
type PendingRegistration struct {
	Token      string    `json:"token" db:"token"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Password   string    `json:"-" db:"password_hash"`
	UserType   UserType  `json:"userType" db:"user_type"`
	Year       string    `json:"year" db:"year"`
	Department string    `json:"department" db:"department"`
	Section    string    `json:"section" db:"section"`
	College    string    `json:"college" db:"college"`
	OTPDigest  string    `json:"-" db:"otp_digest"`
	OTPSentAt  time.Time `json:"-" db:"otp_sent_at"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Expired reports whether the pending registration's OTP window has
// passed. The code is live strictly before the expiry instant.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
