package dto

import (
	"time"

	"github.com/campuspulse/server/internal/app/models"
)

// RegisterRequest represents a new account signup. Nothing is persisted to
// the users table until the emailed code is verified.
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	UserType   string `json:"userType" binding:"required,oneof=student organizer"`
	Year       string `json:"year" binding:"required"`
	Department string `json:"department" binding:"required"`
	Section    string `json:"section"`
}

// RegisterResponse returns the opaque token the client must quote when
// verifying or resending. Delivered is false when the email could not be
// sent; the signup still stands until the code expires.
type RegisterResponse struct {
	PendingToken string    `json:"pendingToken"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Delivered    bool      `json:"delivered"`
}

// VerifyEmailRequest carries the pending token and the 6-digit code
type VerifyEmailRequest struct {
	PendingToken string `json:"pendingToken" binding:"required"`
	OTP          string `json:"otp" binding:"required"`
}

// ResendOTPRequest asks for a fresh code for a pending registration
type ResendOTPRequest struct {
	PendingToken string `json:"pendingToken" binding:"required"`
}

// ResendOTPResponse mirrors RegisterResponse for the new code
type ResendOTPResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Delivered bool      `json:"delivered"`
}

// CheckUserExistsRequest asks whether an email already has an account
type CheckUserExistsRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CheckUserExistsResponse reports account existence for an email
type CheckUserExistsResponse struct {
	Exists bool `json:"exists"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	UserType       string `json:"userType"`
	Year           string `json:"year"`
	Department     string `json:"department"`
	Section        string `json:"section,omitempty"`
	College        string `json:"college"`
	IsClubVerified bool   `json:"isClubVerified"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// ProfileResponse is the /auth/me payload, with the owned club when any
type ProfileResponse struct {
	User UserResponse `json:"user"`
	Club *ClubSummary `json:"club,omitempty"`
}

// FromUser converts a models.User to a UserResponse
func FromUser(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		UserType:       string(user.UserType),
		Year:           user.Year,
		Department:     user.Department,
		Section:        user.Section,
		College:        user.College,
		IsClubVerified: user.IsClubVerified,
	}
}
