package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/helpers"
	"github.com/campuspulse/server/internal/pkg/qr"
	"github.com/campuspulse/server/internal/pkg/validation"
)

// EventService handles event publishing and attendance. Only organizers
// whose club is approved can publish.
type EventService struct {
	eventRepo repositories.IEventRepository
	clubRepo  repositories.IClubRepository
	regRepo   repositories.IRegistrationRepository
	fileRepo  repositories.IFileRepository
	signer    *qr.Signer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo repositories.IEventRepository,
	clubRepo repositories.IClubRepository,
	regRepo repositories.IRegistrationRepository,
	fileRepo repositories.IFileRepository,
	signer *qr.Signer,
	logger zerolog.Logger,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		clubRepo:  clubRepo,
		regRepo:   regRepo,
		fileRepo:  fileRepo,
		signer:    signer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateEvent publishes a new event under the organizer's approved club
func (s *EventService) CreateEvent(ctx context.Context, organizerID int64, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	club, err := s.clubRepo.GetByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if !club.IsClubApproved {
		return nil, apperrors.ErrClubNotVerified
	}

	payment, err := s.validateEventInput(ctx, organizerID, req.StartsAt, req.EndsAt, req.FormSchema, req.Payment)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ClubID:      club.ID,
		OrganizerID: organizerID,
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		FormSchema:  req.FormSchema,
		Payment:     payment,
	}
	id, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	if err := s.clubRepo.IncrementEventCount(ctx, club.ID, 1); err != nil {
		s.logger.Warn().Err(err).Int64("clubID", club.ID).Msg("Failed to bump event count")
	}

	s.logger.Info().Int64("eventID", id).Int64("clubID", club.ID).Str("title", req.Title).Msg("Event created")
	return s.GetEventByID(ctx, id)
}

// GetEvents lists events with filtering and pagination
func (s *EventService) GetEvents(ctx context.Context, filter *dto.EventFilterRequest) (*dto.EventListResponse, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	events, total, err := s.eventRepo.GetAll(ctx, filter.Search, filter.ClubID, filter.Upcoming, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.EventListResponse{
		Events:     make([]dto.EventResponse, 0, len(events)),
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}
	// Registration counts are only loaded on the detail view
	for i := range events {
		resp.Events = append(resp.Events, dto.FromEvent(&events[i], 0))
	}
	return resp, nil
}

// GetEventByID returns an event with its current registration count and
// payment details
func (s *EventService) GetEventByID(ctx context.Context, eventID int64) (*dto.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	count, err := s.eventRepo.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}

	resp := dto.FromEvent(event, count)
	if event.Payment != nil {
		if file, err := s.fileRepo.GetByID(ctx, event.Payment.QRFileID); err == nil {
			resp.Payment.QRImageURL = file.FileURL
		}
	}
	return &resp, nil
}

// UpdateEvent replaces an event's fields, owner only
func (s *EventService) UpdateEvent(ctx context.Context, organizerID, eventID int64, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.NewForbiddenError("only the event organizer can edit this event")
	}

	payment, err := s.validateEventInput(ctx, organizerID, req.StartsAt, req.EndsAt, req.FormSchema, req.Payment)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Venue = req.Venue
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.Capacity = req.Capacity
	event.FormSchema = req.FormSchema
	event.Payment = payment

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.GetEventByID(ctx, eventID)
}

// DeleteEvent removes an event, owner only
func (s *EventService) DeleteEvent(ctx context.Context, organizerID, eventID int64) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return apperrors.NewForbiddenError("only the event organizer can delete this event")
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		return err
	}
	if err := s.clubRepo.IncrementEventCount(ctx, event.ClubID, -1); err != nil {
		s.logger.Warn().Err(err).Int64("clubID", event.ClubID).Msg("Failed to lower event count")
	}
	return nil
}

// MarkAttendance verifies a scanned QR token and records attendance. The
// token's signature is the only thing trusted; a second scan of the same
// code reports the earlier check-in instead of stamping again.
func (s *EventService) MarkAttendance(ctx context.Context, organizerID, eventID int64, code string) (*dto.AttendanceResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.NewForbiddenError("only the event organizer can record attendance")
	}

	payload, err := s.signer.Verify(code)
	if err != nil {
		return nil, apperrors.NewValidationError("attendance code is not valid")
	}
	if payload.EventID != eventID {
		return nil, apperrors.NewValidationError("attendance code belongs to a different event")
	}

	reg, err := s.regRepo.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		return nil, err
	}
	if reg.EventID != eventID || reg.UserID != payload.UserID {
		return nil, apperrors.NewValidationError("attendance code does not match its registration")
	}
	if reg.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, apperrors.ErrNotApproved
	}

	at := s.now()
	marked, err := s.regRepo.MarkAttended(ctx, reg.ID, at)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttendanceResponse{
		RegistrationID:  reg.ID,
		StudentName:     payload.StudentName,
		Attended:        true,
		AlreadyAttended: !marked,
	}
	if marked {
		resp.AttendedAt = &at
		s.logger.Info().Int64("registrationID", reg.ID).Int64("eventID", eventID).Msg("Attendance recorded")
	} else {
		resp.AttendedAt = reg.AttendedAt
	}
	return resp, nil
}

func (s *EventService) validateEventInput(ctx context.Context, organizerID int64, startsAt, endsAt time.Time, schema []models.FormField, payment *dto.PaymentConfigRequest) (*models.PaymentConfig, error) {
	if !endsAt.After(startsAt) {
		return nil, apperrors.NewValidationError("event must end after it starts")
	}
	if err := validation.ValidateFormSchema(schema); err != nil {
		return nil, err
	}

	if payment == nil {
		return nil, nil
	}

	file, err := s.fileRepo.GetByID(ctx, payment.QRFileID)
	if err != nil {
		return nil, apperrors.NewValidationError("payment QR image has not been uploaded")
	}
	if file.UploadedBy != organizerID || file.ResourceType != models.FileResourcePaymentQR {
		return nil, apperrors.NewValidationError("payment QR image does not belong to this organizer")
	}

	return &models.PaymentConfig{
		Amount:       payment.Amount,
		QRFileID:     payment.QRFileID,
		Instructions: payment.Instructions,
	}, nil
}
