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
	"github.com/campuspulse/server/internal/pkg/dberrors"
	"github.com/campuspulse/server/internal/pkg/helpers"
	"github.com/campuspulse/server/internal/pkg/logger"
)

// IClubRepository defines club database operations
type IClubRepository interface {
	Create(ctx context.Context, club *models.Club) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Club, error)
	GetByOrganizerID(ctx context.Context, organizerID int64) (*models.Club, error)
	GetAll(ctx context.Context, search, status string, page, pageSize int) ([]models.Club, int64, error)
	UpdateFacultyOTP(ctx context.Context, clubID int64, otpDigest string, sentAt, expiresAt time.Time) error
	ApproveWithFacultyOTP(ctx context.Context, clubID int64, otpDigest string, now time.Time) (int64, error)
	Approve(ctx context.Context, clubID int64) (int64, error)
	UpdateStatus(ctx context.Context, clubID int64, status models.ClubStatus, notes string) error
	IncrementEventCount(ctx context.Context, clubID int64, delta int) error
}

// ClubRepository handles club database operations
type ClubRepository struct {
	db *pgxpool.Pool
}

// NewClubRepository creates a new ClubRepository
func NewClubRepository(db *pgxpool.Pool) *ClubRepository {
	return &ClubRepository{db: db}
}

const clubColumns = `id, club_name, club_description, logo_file_id, organizer_id,
	faculty_name, faculty_email, faculty_department,
	is_organizer_verified, is_faculty_verified, is_club_approved,
	faculty_otp_digest, faculty_otp_expires_at, faculty_otp_sent_at,
	status, admin_notes, college, member_count, event_count, created_at, updated_at`

func scanClub(row pgx.Row) (*models.Club, error) {
	var c models.Club
	err := row.Scan(
		&c.ID, &c.ClubName, &c.ClubDescription, &c.LogoFileID, &c.OrganizerID,
		&c.FacultyName, &c.FacultyEmail, &c.FacultyDepartment,
		&c.IsOrganizerVerified, &c.IsFacultyVerified, &c.IsClubApproved,
		&c.FacultyOTPDigest, &c.FacultyOTPExpiresAt, &c.FacultyOTPSentAt,
		&c.Status, &c.AdminNotes, &c.College, &c.MemberCount, &c.EventCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new club in pending status
func (r *ClubRepository) Create(ctx context.Context, club *models.Club) (int64, error) {
	now := time.Now()
	query := `
		INSERT INTO clubs (club_name, club_description, logo_file_id, organizer_id,
			faculty_name, faculty_email, faculty_department,
			is_organizer_verified, is_faculty_verified, is_club_approved,
			faculty_otp_digest, faculty_otp_expires_at, faculty_otp_sent_at,
			status, admin_notes, college, member_count, event_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, false, false, $8, $9, $10, $11, '', $12, 0, 0, $13, $13)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		club.ClubName, club.ClubDescription, club.LogoFileID, club.OrganizerID,
		club.FacultyName, club.FacultyEmail, club.FacultyDepartment,
		club.FacultyOTPDigest, club.FacultyOTPExpiresAt, club.FacultyOTPSentAt,
		models.ClubStatusPending, club.College, now,
	).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "clubs_club_name_key") {
			return 0, apperrors.ErrClubNameTaken
		}
		if dberrors.IsDuplicateConstraintError(err, "clubs_organizer_id_key") {
			return 0, apperrors.ErrClubAlreadyExists
		}
		logger.Error().Err(err).Str("clubName", club.ClubName).Msg("Error creating club")
		return 0, fmt.Errorf("error creating club: %w", err)
	}
	return id, nil
}

// GetByID retrieves a club by ID with its logo
func (r *ClubRepository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	query := fmt.Sprintf("SELECT %s FROM clubs WHERE id = $1", clubColumns)

	club, err := scanClub(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClubNotFound
		}
		return nil, fmt.Errorf("error retrieving club: %w", err)
	}

	r.attachLogo(ctx, club)
	return club, nil
}

// GetByOrganizerID retrieves the club owned by an organizer
func (r *ClubRepository) GetByOrganizerID(ctx context.Context, organizerID int64) (*models.Club, error) {
	query := fmt.Sprintf("SELECT %s FROM clubs WHERE organizer_id = $1", clubColumns)

	club, err := scanClub(r.db.QueryRow(ctx, query, organizerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClubNotFound
		}
		return nil, fmt.Errorf("error retrieving club: %w", err)
	}

	r.attachLogo(ctx, club)
	return club, nil
}

// GetAll retrieves clubs with filtering and pagination
func (r *ClubRepository) GetAll(ctx context.Context, search, status string, page, pageSize int) ([]models.Club, int64, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count FROM clubs WHERE 1=1`, clubColumns)

	args := []interface{}{}
	argIndex := 1

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}
	if search != "" {
		query += fmt.Sprintf(" AND club_name ILIKE $%d", argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	query += fmt.Sprintf(" ORDER BY club_name LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing clubs: %w", err)
	}
	defer rows.Close()

	var clubs []models.Club
	var total int64
	for rows.Next() {
		var c models.Club
		err := rows.Scan(
			&c.ID, &c.ClubName, &c.ClubDescription, &c.LogoFileID, &c.OrganizerID,
			&c.FacultyName, &c.FacultyEmail, &c.FacultyDepartment,
			&c.IsOrganizerVerified, &c.IsFacultyVerified, &c.IsClubApproved,
			&c.FacultyOTPDigest, &c.FacultyOTPExpiresAt, &c.FacultyOTPSentAt,
			&c.Status, &c.AdminNotes, &c.College, &c.MemberCount, &c.EventCount,
			&c.CreatedAt, &c.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning club row: %w", err)
		}
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating club rows: %w", err)
	}

	return clubs, total, nil
}

// UpdateFacultyOTP replaces the stored faculty code. Any previously issued
// code stops validating once this commits.
func (r *ClubRepository) UpdateFacultyOTP(ctx context.Context, clubID int64, otpDigest string, sentAt, expiresAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE clubs
		SET faculty_otp_digest = $1, faculty_otp_sent_at = $2, faculty_otp_expires_at = $3, updated_at = $4
		WHERE id = $5`,
		otpDigest, sentAt, expiresAt, time.Now(), clubID)
	if err != nil {
		logger.Error().Err(err).Int64("clubID", clubID).Msg("Error updating faculty OTP")
		return fmt.Errorf("error updating faculty OTP: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrClubNotFound
	}
	return nil
}

// ApproveWithFacultyOTP performs the whole verification as one conditional
// update inside a transaction: the row transitions only if it still holds
// the presented digest, the window has not passed, and the status allows
// it. A second submit of the same code matches zero rows. Returns the
// organizer ID on success.
func (r *ClubRepository) ApproveWithFacultyOTP(ctx context.Context, clubID int64, otpDigest string, now time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var organizerID int64
	err = tx.QueryRow(ctx, `
		UPDATE clubs
		SET status = $1,
		    is_faculty_verified = true,
		    is_club_approved = true,
		    faculty_otp_digest = NULL,
		    faculty_otp_expires_at = NULL,
		    admin_notes = '',
		    updated_at = $2
		WHERE id = $3
		  AND status IN ($4, $5)
		  AND faculty_otp_digest = $6
		  AND faculty_otp_expires_at > $2
		RETURNING organizer_id`,
		models.ClubStatusApproved, now, clubID,
		models.ClubStatusPending, models.ClubStatusFacultyVerified, otpDigest,
	).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The caller inspects the row to tell wrong code from
			// expired code from already approved
			return 0, apperrors.ErrInvalidOTP
		}
		return 0, fmt.Errorf("error approving club: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET is_club_verified = true, updated_at = $1 WHERE id = $2",
		now, organizerID)
	if err != nil {
		return 0, fmt.Errorf("error updating organizer verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing approval: %w", err)
	}
	return organizerID, nil
}

// Approve transitions a club to approved without checking a code. Serves
// the development bypass and the admin approval path.
func (r *ClubRepository) Approve(ctx context.Context, clubID int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	var organizerID int64
	err = tx.QueryRow(ctx, `
		UPDATE clubs
		SET status = $1,
		    is_faculty_verified = true,
		    is_club_approved = true,
		    faculty_otp_digest = NULL,
		    faculty_otp_expires_at = NULL,
		    updated_at = $2
		WHERE id = $3 AND status <> $1
		RETURNING organizer_id`,
		models.ClubStatusApproved, now, clubID,
	).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrClubAlreadyApproved
		}
		return 0, fmt.Errorf("error approving club: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET is_club_verified = true, updated_at = $1 WHERE id = $2",
		now, organizerID)
	if err != nil {
		return 0, fmt.Errorf("error updating organizer verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing approval: %w", err)
	}
	return organizerID, nil
}

// UpdateStatus applies an admin review decision. Rejection revokes the
// organizer's verification flag in the same transaction.
func (r *ClubRepository) UpdateStatus(ctx context.Context, clubID int64, status models.ClubStatus, notes string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	approved := status == models.ClubStatusApproved

	var organizerID int64
	err = tx.QueryRow(ctx, `
		UPDATE clubs
		SET status = $1, is_club_approved = $2, admin_notes = $3, updated_at = $4
		WHERE id = $5
		RETURNING organizer_id`,
		status, approved, notes, now, clubID,
	).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrClubNotFound
		}
		return fmt.Errorf("error updating club status: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET is_club_verified = $1, updated_at = $2 WHERE id = $3",
		approved, now, organizerID)
	if err != nil {
		return fmt.Errorf("error updating organizer verification: %w", err)
	}

	return tx.Commit(ctx)
}

// IncrementEventCount adjusts the cached event counter
func (r *ClubRepository) IncrementEventCount(ctx context.Context, clubID int64, delta int) error {
	_, err := r.db.Exec(ctx,
		"UPDATE clubs SET event_count = event_count + $1, updated_at = $2 WHERE id = $3",
		delta, time.Now(), clubID)
	if err != nil {
		return fmt.Errorf("error updating event count: %w", err)
	}
	return nil
}

// attachLogo loads the logo file row when present; list views skip it
func (r *ClubRepository) attachLogo(ctx context.Context, club *models.Club) {
	if club.LogoFileID == 0 {
		return
	}
	var f models.File
	err := r.db.QueryRow(ctx, `
		SELECT id, file_name, file_path, file_url, file_size, file_type, resource_type, uploaded_by, created_at
		FROM files WHERE id = $1`, club.LogoFileID).Scan(
		&f.ID, &f.FileName, &f.FilePath, &f.FileURL, &f.FileSize, &f.FileType,
		&f.ResourceType, &f.UploadedBy, &f.CreatedAt,
	)
	if err != nil {
		logger.Warn().Err(err).Int64("fileID", club.LogoFileID).Msg("Could not load club logo")
		return
	}
	club.Logo = &f
}
