package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/auth"
	"github.com/campuspulse/server/internal/pkg/email"
	"github.com/campuspulse/server/internal/pkg/otp"
	"github.com/campuspulse/server/internal/pkg/validation"
)

// AuthService handles signup, email verification and token operations.
// Signups live in pending_registrations until the emailed code is
// verified; only then does a users row exist.
type AuthService struct {
	userRepo       repositories.IUserRepository
	pendingRepo    repositories.IPendingRegistrationRepository
	clubRepo       repositories.IClubRepository
	tokenRepo      repositories.ITokenRepository
	jwtService     *auth.JWTService
	emailService   email.EmailService
	collegeName    string
	emailDomain    string
	otpTTL         time.Duration
	resendInterval time.Duration
	allowBypass    bool
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	pendingRepo repositories.IPendingRegistrationRepository,
	clubRepo repositories.IClubRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	collegeName string,
	emailDomain string,
	otpTTL time.Duration,
	resendInterval time.Duration,
	allowBypass bool,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		pendingRepo:    pendingRepo,
		clubRepo:       clubRepo,
		tokenRepo:      tokenRepo,
		jwtService:     jwtService,
		emailService:   emailService,
		collegeName:    collegeName,
		emailDomain:    emailDomain,
		otpTTL:         otpTTL,
		resendInterval: resendInterval,
		allowBypass:    allowBypass,
		logger:         logger,
		now:            time.Now,
	}
}

// Register validates a signup and parks it as a pending registration with
// a fresh emailed code. Nothing reaches the users table here.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := validation.ValidateName(req.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateCollegeEmail(req.Email, s.emailDomain); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}

	// Opportunistic cleanup of abandoned signups
	if n, err := s.pendingRepo.DeleteExpired(ctx, s.now()); err == nil && n > 0 {
		s.logger.Debug().Int64("purged", n).Msg("Purged expired pending registrations")
	}

	now := s.now()
	pending := &models.PendingRegistration{
		Token:      uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Password:   hashed,
		UserType:   models.UserType(req.UserType),
		Year:       req.Year,
		Department: req.Department,
		Section:    req.Section,
		College:    s.collegeName,
		OTPDigest:  otp.Digest(code),
		OTPSentAt:  now,
		ExpiresAt:  now.Add(s.otpTTL),
		CreatedAt:  now,
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil {
		return nil, err
	}

	delivered := true
	if err := s.emailService.SendRegistrationOTP(req.Email, req.Name, code, s.otpTTL); err != nil {
		// Delivery failure is not fatal; the client can ask for a resend
		delivered = false
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to deliver registration code")
	}

	return &dto.RegisterResponse{
		PendingToken: pending.Token,
		Email:        pending.Email,
		ExpiresAt:    pending.ExpiresAt,
		Delivered:    delivered,
	}, nil
}

// VerifyEmail checks the submitted code against the pending registration
// and, on success, creates the account and signs the user in. The pending
// row is consumed; a wrong code leaves everything untouched.
func (s *AuthService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*dto.AuthResponse, error) {
	if !otp.ValidFormat(req.OTP) {
		return nil, apperrors.ErrInvalidOTP
	}

	pending, err := s.pendingRepo.GetByToken(ctx, req.PendingToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if pending.Expired(now) {
		// The row stays until purge so a resend can still revive it
		return nil, apperrors.ErrOTPExpired
	}

	if !s.codeAccepted(pending.OTPDigest, req.OTP) {
		return nil, apperrors.ErrInvalidOTP
	}

	user := &models.User{
		Name:       pending.Name,
		Email:      pending.Email,
		Password:   pending.Password,
		UserType:   pending.UserType,
		Year:       pending.Year,
		Department: pending.Department,
		Section:    pending.Section,
		College:    pending.College,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	user.IsEmailVerified = true

	if err := s.pendingRepo.Delete(ctx, req.PendingToken); err != nil {
		s.logger.Warn().Err(err).Str("token", req.PendingToken).Msg("Failed to consume pending registration")
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", id).Str("email", user.Email).Msg("User registered")
	return &dto.AuthResponse{Token: *token, User: dto.FromUser(user)}, nil
}

// ResendOTP issues a fresh code for a pending registration, invalidating
// the previous one. Subject to the server-side resend interval.
func (s *AuthService) ResendOTP(ctx context.Context, req *dto.ResendOTPRequest) (*dto.ResendOTPResponse, error) {
	pending, err := s.pendingRepo.GetByToken(ctx, req.PendingToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Sub(pending.OTPSentAt) < s.resendInterval {
		return nil, apperrors.ErrResendThrottled
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.otpTTL)
	if err := s.pendingRepo.UpdateOTP(ctx, pending.Token, otp.Digest(code), now, expiresAt); err != nil {
		return nil, err
	}

	delivered := true
	if err := s.emailService.SendRegistrationOTP(pending.Email, pending.Name, code, s.otpTTL); err != nil {
		delivered = false
		s.logger.Warn().Err(err).Str("email", pending.Email).Msg("Failed to deliver registration code")
	}

	return &dto.ResendOTPResponse{ExpiresAt: expiresAt, Delivered: delivered}, nil
}

// CheckUserExists reports whether an email already has an account
func (s *AuthService) CheckUserExists(ctx context.Context, emailAddr string) (bool, error) {
	return s.userRepo.EmailExists(ctx, emailAddr)
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: *token, User: dto.FromUser(user)}, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair,
// revoking the old refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, _, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to revoke rotated refresh token")
	}

	return s.issueTokens(ctx, user)
}

// GetProfile returns the authenticated user together with their club, if
// they organize one
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProfileResponse{User: dto.FromUser(user)}

	club, err := s.clubRepo.GetByOrganizerID(ctx, userID)
	if err == nil {
		resp.Club = dto.SummaryFromClub(club)
	} else if !errors.Is(err, apperrors.ErrClubNotFound) {
		return nil, err
	}

	return resp, nil
}

func (s *AuthService) codeAccepted(digest, code string) bool {
	if s.allowBypass && code == devBypassCode {
		return true
	}
	return otp.Match(digest, code)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.CreateToken(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:           accessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(expiresIn),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: int64(refreshExpiresIn),
	}, nil
}
