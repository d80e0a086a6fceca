package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/filestorage"
	"github.com/campuspulse/server/internal/pkg/helpers"
	"github.com/campuspulse/server/internal/pkg/qr"
	"github.com/campuspulse/server/internal/pkg/validation"
)

// RegistrationService handles event signups, payment proof review and the
// attendance QR codes students present at the door.
type RegistrationService struct {
	regRepo   repositories.IRegistrationRepository
	eventRepo repositories.IEventRepository
	userRepo  repositories.IUserRepository
	fileRepo  repositories.IFileRepository
	storage   filestorage.FileStorage
	signer    *qr.Signer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	regRepo repositories.IRegistrationRepository,
	eventRepo repositories.IEventRepository,
	userRepo repositories.IUserRepository,
	fileRepo repositories.IFileRepository,
	storage filestorage.FileStorage,
	signer *qr.Signer,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		regRepo:   regRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		fileRepo:  fileRepo,
		storage:   storage,
		signer:    signer,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterForEvent validates the student's answers against the event's
// form schema and creates the registration. Capacity is enforced by the
// store, not by a read-then-write check.
func (s *RegistrationService) RegisterForEvent(ctx context.Context, userID, eventID int64, req *dto.RegisterForEventRequest) (*dto.RegistrationResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.now().After(event.EndsAt) {
		return nil, apperrors.NewValidationError("event has already ended")
	}

	if err := validation.ValidateResponses(event.FormSchema, req.Responses); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		EventID:            eventID,
		UserID:             userID,
		Responses:          req.Responses,
		RegistrationStatus: models.RegistrationStatusPending,
	}
	if event.Payment != nil {
		status := models.PaymentStatusPending
		reg.PaymentStatus = &status
	}

	id, err := s.regRepo.Create(ctx, reg)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("registrationID", id).Int64("eventID", eventID).Int64("userID", userID).Msg("Registration created")
	return s.getResponse(ctx, id)
}

// UploadPaymentProof attaches a payment screenshot to the caller's own
// registration for a paid event
func (s *RegistrationService) UploadPaymentProof(ctx context.Context, userID, registrationID int64, proof *multipart.FileHeader) (*dto.RegistrationResponse, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, apperrors.NewForbiddenError("registration belongs to another student")
	}
	if reg.RegistrationStatus == models.RegistrationStatusApproved {
		return nil, apperrors.NewConflictError("registration has already been approved")
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.Payment == nil {
		return nil, apperrors.NewValidationError("event does not require payment")
	}

	if proof == nil {
		return nil, apperrors.NewValidationError("payment screenshot is required")
	}
	if !filestorage.IsImage(proof) {
		return nil, apperrors.ErrNotAnImage
	}

	proofURL, err := s.storage.SaveImage(proof, "payment-proofs")
	if err != nil {
		return nil, err
	}
	fileID, err := s.fileRepo.Create(ctx, &models.File{
		FileName:     proof.Filename,
		FilePath:     s.storage.GetFullPath(proofURL),
		FileURL:      proofURL,
		FileSize:     proof.Size,
		FileType:     proof.Header.Get("Content-Type"),
		ResourceType: models.FileResourcePaymentProof,
		UploadedBy:   userID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.regRepo.SetPaymentProof(ctx, registrationID, fileID); err != nil {
		return nil, err
	}
	return s.getResponse(ctx, registrationID)
}

// GetEventRegistrations lists an event's registrations for its organizer
func (s *RegistrationService) GetEventRegistrations(ctx context.Context, organizerID, eventID int64, filter *dto.RegistrationFilterRequest) (*dto.RegistrationListResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.NewForbiddenError("only the event organizer can view registrations")
	}

	if filter.Status != "" && !models.RegistrationStatus(filter.Status).Valid() {
		return nil, apperrors.NewBadRequestError("unknown status filter: " + filter.Status)
	}
	if filter.PaymentStatus != "" && !models.PaymentStatus(filter.PaymentStatus).Valid() {
		return nil, apperrors.NewBadRequestError("unknown payment status filter: " + filter.PaymentStatus)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	regs, total, err := s.regRepo.GetByEventID(ctx, eventID, filter.Status, filter.PaymentStatus, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.RegistrationListResponse{
		Registrations: make([]dto.RegistrationResponse, 0, len(regs)),
		Pagination:    helpers.NewPaginationInfo(total, page, pageSize),
	}
	for i := range regs {
		resp.Registrations = append(resp.Registrations, s.toResponse(ctx, &regs[i]))
	}
	return resp, nil
}

// UpdateStatus applies the organizer's review decision on the
// registration itself, the payment, or both
func (s *RegistrationService) UpdateStatus(ctx context.Context, organizerID, registrationID int64, req *dto.UpdateRegistrationStatusRequest) (*dto.RegistrationResponse, error) {
	if req.Status == "" && req.PaymentStatus == "" {
		return nil, apperrors.NewValidationError("nothing to update")
	}

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.NewForbiddenError("only the event organizer can review registrations")
	}

	var status *models.RegistrationStatus
	if req.Status != "" {
		v := models.RegistrationStatus(req.Status)
		status = &v
	}
	var paymentStatus *models.PaymentStatus
	if req.PaymentStatus != "" {
		if event.Payment == nil {
			return nil, apperrors.NewValidationError("event does not require payment")
		}
		v := models.PaymentStatus(req.PaymentStatus)
		paymentStatus = &v
	}

	if err := s.regRepo.UpdateStatus(ctx, registrationID, status, paymentStatus); err != nil {
		return nil, err
	}
	return s.getResponse(ctx, registrationID)
}

// GetMyRegistrations returns the caller's registrations
func (s *RegistrationService) GetMyRegistrations(ctx context.Context, userID int64) ([]dto.RegistrationResponse, error) {
	regs, err := s.regRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, s.toResponse(ctx, &regs[i]))
	}
	return out, nil
}

// GetQRCode renders the signed attendance payload of an approved
// registration as a PNG for the caller to present at the event
func (s *RegistrationService) GetQRCode(ctx context.Context, userID, registrationID int64) ([]byte, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, apperrors.NewForbiddenError("registration belongs to another student")
	}
	if reg.RegistrationStatus != models.RegistrationStatusApproved {
		return nil, apperrors.ErrNotApproved
	}

	name := ""
	if reg.User != nil {
		name = reg.User.Name
	}
	token, err := s.signer.Encode(qr.Payload{
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		RegistrationID: reg.ID,
		StudentName:    name,
	})
	if err != nil {
		return nil, err
	}
	return qr.PNG(token, 256)
}

func (s *RegistrationService) getResponse(ctx context.Context, registrationID int64) (*dto.RegistrationResponse, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, reg)
	return &resp, nil
}

func (s *RegistrationService) toResponse(ctx context.Context, reg *models.Registration) dto.RegistrationResponse {
	resp := dto.FromRegistration(reg)
	if reg.PaymentProofFileID != nil {
		if file, err := s.fileRepo.GetByID(ctx, *reg.PaymentProofFileID); err == nil {
			resp.PaymentProofURL = file.FileURL
		}
	}
	return resp
}
