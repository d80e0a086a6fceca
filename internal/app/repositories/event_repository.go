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
	"github.com/campuspulse/server/internal/pkg/helpers"
)

// IEventRepository defines event database operations
type IEventRepository interface {
	Create(ctx context.Context, event *models.Event) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetAll(ctx context.Context, search string, clubID int64, upcomingOnly bool, page, pageSize int) ([]models.Event, int64, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	CountRegistrations(ctx context.Context, eventID int64) (int, error)
}

// EventRepository handles event database operations. The form schema and
// payment config live in JSONB columns.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) (int64, error) {
	schemaJSON, paymentJSON, err := marshalEventJSON(event)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	query := `
		INSERT INTO events (club_id, organizer_id, title, description, venue,
			starts_at, ends_at, capacity, form_schema, payment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`

	var id int64
	err = r.db.QueryRow(ctx, query,
		event.ClubID, event.OrganizerID, event.Title, event.Description, event.Venue,
		event.StartsAt, event.EndsAt, event.Capacity, schemaJSON, paymentJSON, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error creating event: %w", err)
	}
	return id, nil
}

// GetByID retrieves an event by ID with its club name
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT e.id, e.club_id, e.organizer_id, e.title, e.description, e.venue,
		       e.starts_at, e.ends_at, e.capacity, e.form_schema, e.payment,
		       e.created_at, e.updated_at, c.club_name
		FROM events e
		JOIN clubs c ON c.id = e.club_id
		WHERE e.id = $1`

	var e models.Event
	var schemaJSON []byte
	var paymentJSON []byte
	var clubName string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ClubID, &e.OrganizerID, &e.Title, &e.Description, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &schemaJSON, &paymentJSON,
		&e.CreatedAt, &e.UpdatedAt, &clubName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error retrieving event: %w", err)
	}

	if err := unmarshalEventJSON(&e, schemaJSON, paymentJSON); err != nil {
		return nil, err
	}
	e.Club = &models.Club{ID: e.ClubID, ClubName: clubName}
	return &e, nil
}

// GetAll retrieves events with filtering and pagination
func (r *EventRepository) GetAll(ctx context.Context, search string, clubID int64, upcomingOnly bool, page, pageSize int) ([]models.Event, int64, error) {
	query := `
		SELECT e.id, e.club_id, e.organizer_id, e.title, e.description, e.venue,
		       e.starts_at, e.ends_at, e.capacity, e.form_schema, e.payment,
		       e.created_at, e.updated_at, c.club_name,
		       COUNT(*) OVER() AS total_count
		FROM events e
		JOIN clubs c ON c.id = e.club_id
		WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if search != "" {
		query += fmt.Sprintf(" AND (e.title ILIKE $%d OR c.club_name ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}
	if clubID > 0 {
		query += fmt.Sprintf(" AND e.club_id = $%d", argIndex)
		args = append(args, clubID)
		argIndex++
	}
	if upcomingOnly {
		query += fmt.Sprintf(" AND e.ends_at > $%d", argIndex)
		args = append(args, time.Now())
		argIndex++
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	query += fmt.Sprintf(" ORDER BY e.starts_at LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	var total int64
	for rows.Next() {
		var e models.Event
		var schemaJSON, paymentJSON []byte
		var clubName string
		err := rows.Scan(
			&e.ID, &e.ClubID, &e.OrganizerID, &e.Title, &e.Description, &e.Venue,
			&e.StartsAt, &e.EndsAt, &e.Capacity, &schemaJSON, &paymentJSON,
			&e.CreatedAt, &e.UpdatedAt, &clubName, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning event row: %w", err)
		}
		if err := unmarshalEventJSON(&e, schemaJSON, paymentJSON); err != nil {
			return nil, 0, err
		}
		e.Club = &models.Club{ID: e.ClubID, ClubName: clubName}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, total, nil
}

// Update replaces an event's editable fields
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	schemaJSON, paymentJSON, err := marshalEventJSON(event)
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx, `
		UPDATE events
		SET title = $1, description = $2, venue = $3, starts_at = $4, ends_at = $5,
		    capacity = $6, form_schema = $7, payment = $8, updated_at = $9
		WHERE id = $10`,
		event.Title, event.Description, event.Venue, event.StartsAt, event.EndsAt,
		event.Capacity, schemaJSON, paymentJSON, time.Now(), event.ID)
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// Delete removes an event and its registrations
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// CountRegistrations returns the number of registrations for an event
func (r *EventRepository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id = $1", eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting registrations: %w", err)
	}
	return count, nil
}

func marshalEventJSON(event *models.Event) ([]byte, []byte, error) {
	schemaJSON, err := json.Marshal(event.FormSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding form schema: %w", err)
	}
	var paymentJSON []byte
	if event.Payment != nil {
		paymentJSON, err = json.Marshal(event.Payment)
		if err != nil {
			return nil, nil, fmt.Errorf("error encoding payment config: %w", err)
		}
	}
	return schemaJSON, paymentJSON, nil
}

func unmarshalEventJSON(event *models.Event, schemaJSON, paymentJSON []byte) error {
	if len(schemaJSON) > 0 {
		if err := json.Unmarshal(schemaJSON, &event.FormSchema); err != nil {
			return fmt.Errorf("error decoding form schema: %w", err)
		}
	}
	if len(paymentJSON) > 0 {
		event.Payment = &models.PaymentConfig{}
		if err := json.Unmarshal(paymentJSON, event.Payment); err != nil {
			return fmt.Errorf("error decoding payment config: %w", err)
		}
	}
	return nil
}
