package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/logger"
)

// IPendingRegistrationRepository defines storage for signups awaiting
// email verification
type IPendingRegistrationRepository interface {
	Create(ctx context.Context, pending *models.PendingRegistration) error
	GetByToken(ctx context.Context, token string) (*models.PendingRegistration, error)
	UpdateOTP(ctx context.Context, token, otpDigest string, sentAt, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// PendingRegistrationRepository handles pending_registrations operations
type PendingRegistrationRepository struct {
	db *pgxpool.Pool
}

// NewPendingRegistrationRepository creates a new PendingRegistrationRepository
func NewPendingRegistrationRepository(db *pgxpool.Pool) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{db: db}
}

// Create stores a pending registration keyed by its opaque token
func (r *PendingRegistrationRepository) Create(ctx context.Context, pending *models.PendingRegistration) error {
	query := `
		INSERT INTO pending_registrations
			(token, name, email, password_hash, user_type, year, department, section, college,
			 otp_digest, otp_sent_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		pending.Token, pending.Name, pending.Email, pending.Password, pending.UserType,
		pending.Year, pending.Department, pending.Section, pending.College,
		pending.OTPDigest, pending.OTPSentAt, pending.ExpiresAt, pending.CreatedAt,
	)
	if err != nil {
		logger.Error().Err(err).Str("email", pending.Email).Msg("Error creating pending registration")
		return fmt.Errorf("error creating pending registration: %w", err)
	}
	return nil
}

// GetByToken retrieves a pending registration by its token
func (r *PendingRegistrationRepository) GetByToken(ctx context.Context, token string) (*models.PendingRegistration, error) {
	query := `
		SELECT token, name, email, password_hash, user_type, year, department, section, college,
		       otp_digest, otp_sent_at, expires_at, created_at
		FROM pending_registrations
		WHERE token = $1`

	var p models.PendingRegistration
	err := r.db.QueryRow(ctx, query, token).Scan(
		&p.Token, &p.Name, &p.Email, &p.Password, &p.UserType,
		&p.Year, &p.Department, &p.Section, &p.College,
		&p.OTPDigest, &p.OTPSentAt, &p.ExpiresAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPendingNotFound
		}
		return nil, fmt.Errorf("error retrieving pending registration: %w", err)
	}
	return &p, nil
}

// UpdateOTP replaces the stored code digest and window. The previous code
// stops validating the moment this commits.
func (r *PendingRegistrationRepository) UpdateOTP(ctx context.Context, token, otpDigest string, sentAt, expiresAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		"UPDATE pending_registrations SET otp_digest = $1, otp_sent_at = $2, expires_at = $3 WHERE token = $4",
		otpDigest, sentAt, expiresAt, token)
	if err != nil {
		logger.Error().Err(err).Msg("Error updating pending registration OTP")
		return fmt.Errorf("error updating pending registration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPendingNotFound
	}
	return nil
}

// Delete consumes a pending registration
func (r *PendingRegistrationRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM pending_registrations WHERE token = $1", token)
	if err != nil {
		return fmt.Errorf("error deleting pending registration: %w", err)
	}
	return nil
}

// DeleteExpired purges pending registrations whose window passed
func (r *PendingRegistrationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM pending_registrations WHERE expires_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("error purging expired registrations: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
