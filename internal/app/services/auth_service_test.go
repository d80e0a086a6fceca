package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/auth"
)

type authTestEnv struct {
	svc     *AuthService
	users   *fakeUserRepo
	pending *fakePendingRepo
	clubs   *fakeClubRepo
	tokens  *fakeTokenRepo
	email   *fakeEmailService
	clock   time.Time
}

func newAuthTestEnv(t *testing.T, allowBypass bool) *authTestEnv {
	t.Helper()

	users := newFakeUserRepo()
	env := &authTestEnv{
		users:   users,
		pending: newFakePendingRepo(),
		clubs:   newFakeClubRepo(users),
		tokens:  newFakeTokenRepo(),
		email:   &fakeEmailService{},
		clock:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})

	env.svc = NewAuthService(
		env.users, env.pending, env.clubs, env.tokens,
		jwtService, env.email,
		"KL University", "klu.ac.in",
		10*time.Minute, 60*time.Second,
		allowBypass,
		zerolog.Nop(),
	)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *authTestEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func validRegisterRequest() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:       "Anjali Rao",
		Email:      "2100031234@klu.ac.in",
		Password:   "passw0rd",
		UserType:   "student",
		Year:       "3",
		Department: "CSE",
		Section:    "B",
	}
}

func TestRegisterCreatesPendingNotUser(t *testing.T) {
	env := newAuthTestEnv(t, false)

	resp, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.PendingToken)
	assert.True(t, resp.Delivered)
	assert.Equal(t, env.clock.Add(10*time.Minute), resp.ExpiresAt)

	// No account exists until the code is verified
	assert.Empty(t, env.users.users)
	require.Len(t, env.pending.pending, 1)

	stored := env.pending.pending[resp.PendingToken]
	require.NotNil(t, stored)
	// The raw code never reaches the store, only its digest
	assert.NotEqual(t, env.email.lastCode(), stored.OTPDigest)
	assert.NotEqual(t, "passw0rd", stored.Password)
}

func TestRegisterRejectsExistingEmail(t *testing.T) {
	env := newAuthTestEnv(t, false)
	_, err := env.users.Create(context.Background(), &models.User{Email: "2100031234@klu.ac.in"})
	require.NoError(t, err)

	_, err = env.svc.Register(context.Background(), validRegisterRequest())
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	env := newAuthTestEnv(t, false)
	req := validRegisterRequest()
	req.Email = "someone@gmail.com"

	_, err := env.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmail)
	assert.Empty(t, env.pending.pending)
}

func TestRegisterSurvivesDeliveryFailure(t *testing.T) {
	env := newAuthTestEnv(t, false)
	env.email.failNext = true

	resp, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.False(t, resp.Delivered)
	// The pending registration still stands; a resend can recover it
	assert.Len(t, env.pending.pending, 1)
}

func TestVerifyEmailCreatesAccount(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	resp, err := env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          env.email.lastCode(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2100031234@klu.ac.in", resp.User.Email)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)

	// The pending row is consumed and a real account exists
	assert.Empty(t, env.pending.pending)
	require.Len(t, env.users.users, 1)
	for _, u := range env.users.users {
		assert.True(t, u.IsEmailVerified)
	}
}

func TestVerifyEmailWrongCodeLeavesStateUntouched(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          "000000",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	// Nothing changed: no user, pending row intact, correct code still works
	assert.Empty(t, env.users.users)
	assert.Len(t, env.pending.pending, 1)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          env.email.lastCode(),
	})
	assert.NoError(t, err)
}

func TestVerifyEmailRejectsMalformedCode(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "abcdef", "1234567"} {
		_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
			PendingToken: reg.PendingToken,
			OTP:          code,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidOTP, "code %q", code)
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	code := env.email.lastCode()

	env.advance(11 * time.Minute)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          code,
	})
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
	assert.Empty(t, env.users.users)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	env := newAuthTestEnv(t, false)

	_, err := env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: "no-such-token",
		OTP:          "123456",
	})
	assert.ErrorIs(t, err, apperrors.ErrPendingNotFound)
}

func TestVerifyEmailBypassCode(t *testing.T) {
	env := newAuthTestEnv(t, true)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          devBypassCode,
	})
	assert.NoError(t, err)
	assert.Len(t, env.users.users, 1)
}

func TestVerifyEmailBypassDisabled(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          devBypassCode,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)
}

func TestResendOTPInvalidatesOldCode(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	oldCode := env.email.lastCode()

	env.advance(2 * time.Minute)

	resendResp, err := env.svc.ResendOTP(context.Background(), &dto.ResendOTPRequest{PendingToken: reg.PendingToken})
	require.NoError(t, err)
	assert.Equal(t, env.clock.Add(10*time.Minute), resendResp.ExpiresAt)

	newCode := env.email.lastCode()
	require.NotEqual(t, oldCode, newCode)

	// The superseded code no longer verifies, the fresh one does
	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          oldCode,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          newCode,
	})
	assert.NoError(t, err)
}

func TestResendOTPThrottled(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	env.advance(30 * time.Second)
	_, err = env.svc.ResendOTP(context.Background(), &dto.ResendOTPRequest{PendingToken: reg.PendingToken})
	assert.ErrorIs(t, err, apperrors.ErrResendThrottled)

	env.advance(31 * time.Second)
	_, err = env.svc.ResendOTP(context.Background(), &dto.ResendOTPRequest{PendingToken: reg.PendingToken})
	assert.NoError(t, err)
}

func TestResendOTPExtendsExpiredSignup(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	// Past the code's window but before any purge ran
	env.advance(11 * time.Minute)

	_, err = env.svc.ResendOTP(context.Background(), &dto.ResendOTPRequest{PendingToken: reg.PendingToken})
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          env.email.lastCode(),
	})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	_, err = env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          env.email.lastCode(),
	})
	require.NoError(t, err)

	resp, err := env.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "2100031234@klu.ac.in",
		Password: "passw0rd",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)

	_, err = env.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "2100031234@klu.ac.in",
		Password: "wrong-password1",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@klu.ac.in",
		Password: "passw0rd",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshTokenRotates(t *testing.T) {
	env := newAuthTestEnv(t, false)

	reg, err := env.svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	authResp, err := env.svc.VerifyEmail(context.Background(), &dto.VerifyEmailRequest{
		PendingToken: reg.PendingToken,
		OTP:          env.email.lastCode(),
	})
	require.NoError(t, err)

	refreshed, err := env.svc.RefreshToken(context.Background(), authResp.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The rotated-out token is dead
	_, err = env.svc.RefreshToken(context.Background(), authResp.Token.RefreshToken)
	assert.Error(t, err)
}

func TestCheckUserExists(t *testing.T) {
	env := newAuthTestEnv(t, false)

	exists, err := env.svc.CheckUserExists(context.Background(), "2100031234@klu.ac.in")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = env.users.Create(context.Background(), &models.User{Email: "2100031234@klu.ac.in"})
	require.NoError(t, err)

	exists, err = env.svc.CheckUserExists(context.Background(), "2100031234@klu.ac.in")
	require.NoError(t, err)
	assert.True(t, exists)
}
