package services

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/email"
	"github.com/campuspulse/server/internal/pkg/filestorage"
	"github.com/campuspulse/server/internal/pkg/helpers"
	"github.com/campuspulse/server/internal/pkg/otp"
	"github.com/campuspulse/server/internal/pkg/validation"
)

// ClubService handles club creation and the faculty sign-off pipeline. A
// club is created pending and becomes approved only through the faculty
// OTP check or an admin decision.
type ClubService struct {
	clubRepo       repositories.IClubRepository
	userRepo       repositories.IUserRepository
	fileRepo       repositories.IFileRepository
	storage        filestorage.FileStorage
	emailService   email.EmailService
	collegeName    string
	otpTTL         time.Duration
	resendInterval time.Duration
	allowBypass    bool
	logger         zerolog.Logger
	now            func() time.Time
	generate       func() (string, error)
}

// NewClubService creates a new ClubService
func NewClubService(
	clubRepo repositories.IClubRepository,
	userRepo repositories.IUserRepository,
	fileRepo repositories.IFileRepository,
	storage filestorage.FileStorage,
	emailService email.EmailService,
	collegeName string,
	otpTTL time.Duration,
	resendInterval time.Duration,
	allowBypass bool,
	logger zerolog.Logger,
) *ClubService {
	return &ClubService{
		clubRepo:       clubRepo,
		userRepo:       userRepo,
		fileRepo:       fileRepo,
		storage:        storage,
		emailService:   emailService,
		collegeName:    collegeName,
		otpTTL:         otpTTL,
		resendInterval: resendInterval,
		allowBypass:    allowBypass,
		logger:         logger,
		now:            time.Now,
		generate:       otp.Generate,
	}
}

// CreateClub validates the application, stores the logo, creates the club
// in pending status and dispatches the faculty verification code. All
// validation happens before anything is persisted.
func (s *ClubService) CreateClub(ctx context.Context, organizerID int64, req *dto.CreateClubRequest, logo *multipart.FileHeader) (*dto.CreateClubResponse, error) {
	if logo == nil {
		return nil, apperrors.ErrLogoRequired
	}
	if !filestorage.IsImage(logo) {
		return nil, apperrors.ErrNotAnImage
	}
	if err := validation.ValidateEmail(req.FacultyEmail); err != nil {
		return nil, apperrors.NewValidationError("faculty email is not a valid email address")
	}

	if _, err := s.clubRepo.GetByOrganizerID(ctx, organizerID); err == nil {
		return nil, apperrors.ErrClubAlreadyExists
	} else if !errors.Is(err, apperrors.ErrClubNotFound) {
		return nil, err
	}

	logoURL, err := s.storage.SaveImage(logo, "club-logos")
	if err != nil {
		return nil, err
	}

	fileID, err := s.fileRepo.Create(ctx, &models.File{
		FileName:     logo.Filename,
		FilePath:     s.storage.GetFullPath(logoURL),
		FileURL:      logoURL,
		FileSize:     logo.Size,
		FileType:     logo.Header.Get("Content-Type"),
		ResourceType: models.FileResourceClubLogo,
		UploadedBy:   organizerID,
	})
	if err != nil {
		s.cleanupFile(logoURL, 0)
		return nil, err
	}

	code, err := s.generate()
	if err != nil {
		s.cleanupFile(logoURL, fileID)
		return nil, err
	}

	now := s.now()
	digest := otp.Digest(code)
	expiresAt := now.Add(s.otpTTL)

	club := &models.Club{
		ClubName:            req.ClubName,
		ClubDescription:     req.ClubDescription,
		LogoFileID:          fileID,
		OrganizerID:         organizerID,
		FacultyName:         req.FacultyName,
		FacultyEmail:        req.FacultyEmail,
		FacultyDepartment:   req.FacultyDepartment,
		FacultyOTPDigest:    &digest,
		FacultyOTPExpiresAt: &expiresAt,
		FacultyOTPSentAt:    &now,
		College:             s.collegeName,
	}
	clubID, err := s.clubRepo.Create(ctx, club)
	if err != nil {
		s.cleanupFile(logoURL, fileID)
		return nil, err
	}

	delivered := true
	if err := s.emailService.SendFacultyOTP(req.FacultyEmail, req.FacultyName, req.ClubName, code, s.otpTTL); err != nil {
		delivered = false
		s.logger.Warn().Err(err).
			Int64("clubID", clubID).
			Str("facultyEmail", req.FacultyEmail).
			Msg("Failed to deliver faculty verification code")
	}

	s.logger.Info().Int64("clubID", clubID).Int64("organizerID", organizerID).Str("clubName", req.ClubName).Msg("Club created, awaiting faculty verification")

	return &dto.CreateClubResponse{
		ClubID:       clubID,
		Status:       string(models.ClubStatusPending),
		FacultyEmail: req.FacultyEmail,
		ExpiresAt:    expiresAt,
		Delivered:    delivered,
	}, nil
}

// VerifyFaculty checks the code forwarded by the faculty advisor. The
// transition itself is a single conditional update, so a concurrent or
// repeated submit of the same code cannot apply twice; a repeat against an
// already approved club reports success without touching anything.
func (s *ClubService) VerifyFaculty(ctx context.Context, userID int64, req *dto.VerifyFacultyRequest) (*dto.VerifyFacultyResponse, error) {
	club, err := s.clubRepo.GetByID(ctx, req.ClubID)
	if err != nil {
		return nil, err
	}
	if club.OrganizerID != userID {
		return nil, apperrors.NewForbiddenError("only the club organizer can submit the verification code")
	}

	if club.Status == models.ClubStatusApproved {
		return s.approvedResponse(req.ClubID), nil
	}
	if club.Status == models.ClubStatusRejected {
		return nil, apperrors.NewForbiddenError("club application was rejected")
	}

	if s.allowBypass && req.OTP == devBypassCode {
		if _, err := s.clubRepo.Approve(ctx, req.ClubID); err != nil && !errors.Is(err, apperrors.ErrClubAlreadyApproved) {
			return nil, err
		}
		s.logger.Warn().Int64("clubID", req.ClubID).Msg("Club approved via development bypass code")
		return s.approvedResponse(req.ClubID), nil
	}

	if !otp.ValidFormat(req.OTP) {
		return nil, apperrors.ErrInvalidOTP
	}

	now := s.now()
	_, err = s.clubRepo.ApproveWithFacultyOTP(ctx, req.ClubID, otp.Digest(req.OTP), now)
	if err == nil {
		s.logger.Info().Int64("clubID", req.ClubID).Msg("Club approved by faculty verification")
		return s.approvedResponse(req.ClubID), nil
	}
	if !errors.Is(err, apperrors.ErrInvalidOTP) {
		return nil, err
	}

	// The conditional update matched nothing; look at the row to tell why
	club, ferr := s.clubRepo.GetByID(ctx, req.ClubID)
	if ferr != nil {
		return nil, ferr
	}
	if club.Status == models.ClubStatusApproved {
		return s.approvedResponse(req.ClubID), nil
	}
	if club.FacultyOTPDigest != nil && otp.Match(*club.FacultyOTPDigest, req.OTP) && club.OTPExpired(s.now()) {
		return nil, apperrors.ErrOTPExpired
	}
	return nil, apperrors.ErrInvalidOTP
}

// ResendFacultyOTP generates a fresh faculty code, invalidating the old
// one, subject to the resend interval
func (s *ClubService) ResendFacultyOTP(ctx context.Context, userID, clubID int64) (*dto.ResendOTPResponse, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club.OrganizerID != userID {
		return nil, apperrors.NewForbiddenError("only the club organizer can request a new code")
	}
	if club.Status == models.ClubStatusApproved {
		return nil, apperrors.ErrClubAlreadyApproved
	}

	now := s.now()
	if club.FacultyOTPSentAt != nil && now.Sub(*club.FacultyOTPSentAt) < s.resendInterval {
		return nil, apperrors.ErrResendThrottled
	}

	code, err := s.generate()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.otpTTL)
	if err := s.clubRepo.UpdateFacultyOTP(ctx, clubID, otp.Digest(code), now, expiresAt); err != nil {
		return nil, err
	}

	delivered := true
	if err := s.emailService.SendFacultyOTP(club.FacultyEmail, club.FacultyName, club.ClubName, code, s.otpTTL); err != nil {
		delivered = false
		s.logger.Warn().Err(err).Int64("clubID", clubID).Msg("Failed to deliver faculty verification code")
	}

	return &dto.ResendOTPResponse{ExpiresAt: expiresAt, Delivered: delivered}, nil
}

// GetMyClub returns the caller's own club regardless of status
func (s *ClubService) GetMyClub(ctx context.Context, userID int64) (*dto.ClubResponse, error) {
	club, err := s.clubRepo.GetByOrganizerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromClub(club)
	return &resp, nil
}

// GetClubs lists clubs. Non-admin callers only see approved clubs.
func (s *ClubService) GetClubs(ctx context.Context, filter *dto.ClubFilterRequest, isAdmin bool) (*dto.ClubListResponse, error) {
	status := filter.Status
	if !isAdmin {
		status = string(models.ClubStatusApproved)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	clubs, total, err := s.clubRepo.GetAll(ctx, filter.Search, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClubListResponse{
		Clubs:      make([]dto.ClubResponse, 0, len(clubs)),
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}
	for i := range clubs {
		resp.Clubs = append(resp.Clubs, dto.FromClub(&clubs[i]))
	}
	return resp, nil
}

// GetClubByID returns a club. Unapproved clubs are visible only to their
// organizer and admins.
func (s *ClubService) GetClubByID(ctx context.Context, clubID, viewerID int64, isAdmin bool) (*dto.ClubResponse, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club.Status != models.ClubStatusApproved && club.OrganizerID != viewerID && !isAdmin {
		return nil, apperrors.ErrClubNotFound
	}
	resp := dto.FromClub(club)
	return &resp, nil
}

// UpdateStatus applies an admin review decision
func (s *ClubService) UpdateStatus(ctx context.Context, clubID int64, req *dto.UpdateClubStatusRequest) (*dto.ClubResponse, error) {
	status := models.ClubStatus(req.Status)

	if status == models.ClubStatusApproved {
		if _, err := s.clubRepo.Approve(ctx, clubID); err != nil && !errors.Is(err, apperrors.ErrClubAlreadyApproved) {
			return nil, err
		}
	} else {
		if err := s.clubRepo.UpdateStatus(ctx, clubID, status, req.Notes); err != nil {
			return nil, err
		}
	}

	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("clubID", clubID).Str("status", req.Status).Msg("Club status updated by admin")
	resp := dto.FromClub(club)
	return &resp, nil
}

func (s *ClubService) approvedResponse(clubID int64) *dto.VerifyFacultyResponse {
	return &dto.VerifyFacultyResponse{
		ClubID:   clubID,
		Status:   string(models.ClubStatusApproved),
		Approved: true,
	}
}

func (s *ClubService) cleanupFile(fileURL string, fileID int64) {
	if err := s.storage.DeleteFile(fileURL); err != nil {
		s.logger.Warn().Err(err).Str("fileURL", fileURL).Msg("Failed to remove orphaned upload")
	}
	if fileID > 0 {
		if err := s.fileRepo.Delete(context.Background(), fileID); err != nil {
			s.logger.Warn().Err(err).Int64("fileID", fileID).Msg("Failed to remove orphaned file record")
		}
	}
}
