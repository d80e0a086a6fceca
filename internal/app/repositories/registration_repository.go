package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/dberrors"
	"github.com/campuspulse/server/internal/pkg/helpers"
)

// IRegistrationRepository defines registration database operations
type IRegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetByEventID(ctx context.Context, eventID int64, status, paymentStatus string, page, pageSize int) ([]models.Registration, int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id int64, status *models.RegistrationStatus, paymentStatus *models.PaymentStatus) error
	SetPaymentProof(ctx context.Context, id int64, fileID int64) error
	MarkAttended(ctx context.Context, id int64, at time.Time) (bool, error)
}

// RegistrationRepository handles registration database operations
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration while enforcing capacity. The event row
// is locked for the duration of the transaction so concurrent inserts
// serialize on the seat count. A capacity of zero means unlimited.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) (int64, error) {
	responsesJSON, err := json.Marshal(reg.Responses)
	if err != nil {
		return 0, fmt.Errorf("error encoding responses: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error starting registration transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var capacity int
	err = tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, fmt.Errorf("error locking event row: %w", err)
	}

	if capacity > 0 {
		var taken int64
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, reg.EventID).Scan(&taken)
		if err != nil {
			return 0, fmt.Errorf("error counting registrations: %w", err)
		}
		if taken >= int64(capacity) {
			return 0, apperrors.ErrEventFull
		}
	}

	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO registrations
			(event_id, user_id, responses, registration_status, payment_status, attended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $6)
		RETURNING id`,
		reg.EventID, reg.UserID, responsesJSON, reg.RegistrationStatus, reg.PaymentStatus, now,
	).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "registrations_event_id_user_id_key") {
			return 0, apperrors.ErrAlreadyRegistered
		}
		return 0, fmt.Errorf("error creating registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing registration: %w", err)
	}
	return id, nil
}

const registrationSelect = `
	SELECT r.id, r.event_id, r.user_id, r.responses, r.registration_status,
	       r.payment_status, r.payment_proof_file_id, r.attended, r.attended_at,
	       r.created_at, r.updated_at,
	       u.name, u.email, e.title`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var responsesJSON []byte
	var userName, userEmail, eventTitle string
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &responsesJSON, &reg.RegistrationStatus,
		&reg.PaymentStatus, &reg.PaymentProofFileID, &reg.Attended, &reg.AttendedAt,
		&reg.CreatedAt, &reg.UpdatedAt,
		&userName, &userEmail, &eventTitle,
	)
	if err != nil {
		return nil, err
	}
	if len(responsesJSON) > 0 {
		if err := json.Unmarshal(responsesJSON, &reg.Responses); err != nil {
			return nil, fmt.Errorf("error decoding responses: %w", err)
		}
	}
	reg.User = &models.User{ID: reg.UserID, Name: userName, Email: userEmail}
	reg.Event = &models.Event{ID: reg.EventID, Title: eventTitle}
	return &reg, nil
}

// GetByID retrieves a registration with its student and event
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	query := registrationSelect + `
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN events e ON e.id = r.event_id
		WHERE r.id = $1`

	reg, err := scanRegistration(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error retrieving registration: %w", err)
	}
	return reg, nil
}

// GetByEventID retrieves an event's registrations with optional status
// filters and pagination
func (r *RegistrationRepository) GetByEventID(ctx context.Context, eventID int64, status, paymentStatus string, page, pageSize int) ([]models.Registration, int64, error) {
	query := registrationSelect + `,
	       COUNT(*) OVER() AS total_count
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN events e ON e.id = r.event_id
		WHERE r.event_id = $1`

	args := []interface{}{eventID}
	argIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND r.registration_status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}
	if paymentStatus != "" {
		query += fmt.Sprintf(" AND r.payment_status = $%d", argIndex)
		args = append(args, paymentStatus)
		argIndex++
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	query += fmt.Sprintf(" ORDER BY r.created_at LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing registrations: %w", err)
	}
	defer rows.Close()

	var regs []models.Registration
	var total int64
	for rows.Next() {
		var reg models.Registration
		var responsesJSON []byte
		var userName, userEmail, eventTitle string
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.UserID, &responsesJSON, &reg.RegistrationStatus,
			&reg.PaymentStatus, &reg.PaymentProofFileID, &reg.Attended, &reg.AttendedAt,
			&reg.CreatedAt, &reg.UpdatedAt,
			&userName, &userEmail, &eventTitle, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning registration row: %w", err)
		}
		if len(responsesJSON) > 0 {
			if err := json.Unmarshal(responsesJSON, &reg.Responses); err != nil {
				return nil, 0, fmt.Errorf("error decoding responses: %w", err)
			}
		}
		reg.User = &models.User{ID: reg.UserID, Name: userName, Email: userEmail}
		reg.Event = &models.Event{ID: reg.EventID, Title: eventTitle}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating registration rows: %w", err)
	}

	return regs, total, nil
}

// GetByUserID retrieves all registrations belonging to a student
func (r *RegistrationRepository) GetByUserID(ctx context.Context, userID int64) ([]models.Registration, error) {
	query := registrationSelect + `
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing registrations: %w", err)
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		var reg models.Registration
		var responsesJSON []byte
		var userName, userEmail, eventTitle string
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.UserID, &responsesJSON, &reg.RegistrationStatus,
			&reg.PaymentStatus, &reg.PaymentProofFileID, &reg.Attended, &reg.AttendedAt,
			&reg.CreatedAt, &reg.UpdatedAt,
			&userName, &userEmail, &eventTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning registration row: %w", err)
		}
		if len(responsesJSON) > 0 {
			if err := json.Unmarshal(responsesJSON, &reg.Responses); err != nil {
				return nil, fmt.Errorf("error decoding responses: %w", err)
			}
		}
		reg.User = &models.User{ID: reg.UserID, Name: userName, Email: userEmail}
		reg.Event = &models.Event{ID: reg.EventID, Title: eventTitle}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}

	return regs, nil
}

// UpdateStatus applies an organizer review decision. Either field may be
// nil to leave it untouched.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id int64, status *models.RegistrationStatus, paymentStatus *models.PaymentStatus) error {
	query := "UPDATE registrations SET updated_at = $1"
	args := []interface{}{time.Now()}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(", registration_status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}
	if paymentStatus != nil {
		query += fmt.Sprintf(", payment_status = $%d", argIndex)
		args = append(args, *paymentStatus)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argIndex)
	args = append(args, id)

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating registration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// SetPaymentProof attaches an uploaded payment screenshot
func (r *RegistrationRepository) SetPaymentProof(ctx context.Context, id int64, fileID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE registrations
		SET payment_proof_file_id = $1, payment_status = $2, updated_at = $3
		WHERE id = $4`,
		fileID, models.PaymentStatusPending, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error attaching payment proof: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// MarkAttended records attendance exactly once. Returns false when the
// registration was already marked; the row is never re-stamped.
func (r *RegistrationRepository) MarkAttended(ctx context.Context, id int64, at time.Time) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE registrations
		SET attended = true, attended_at = $1, updated_at = $1
		WHERE id = $2 AND attended = false`,
		at, id)
	if err != nil {
		return false, fmt.Errorf("error marking attendance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Distinguish a double scan from a missing row
		var exists bool
		if err := r.db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)", id).Scan(&exists); err != nil {
			return false, fmt.Errorf("error checking registration: %w", err)
		}
		if !exists {
			return false, apperrors.ErrRegistrationNotFound
		}
		return false, nil
	}
	return true, nil
}
