package services

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/rs/zerolog"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/app/models/dto"
	"github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/pkg/apperrors"
	"github.com/campuspulse/server/internal/pkg/filestorage"
)

// FileService handles standalone image uploads. Event payment QR images
// are uploaded here first and referenced by ID when the event is created.
type FileService struct {
	fileRepo repositories.IFileRepository
	storage  filestorage.FileStorage
	logger   zerolog.Logger
}

// NewFileService creates a new FileService
func NewFileService(fileRepo repositories.IFileRepository, storage filestorage.FileStorage, logger zerolog.Logger) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
		logger:   logger,
	}
}

// UploadPaymentQR stores an organizer's payment QR image
func (s *FileService) UploadPaymentQR(ctx context.Context, uploaderID int64, fileHeader *multipart.FileHeader) (*dto.FileResponse, error) {
	if fileHeader == nil {
		return nil, apperrors.NewValidationError("image file is required")
	}
	if !filestorage.IsImage(fileHeader) {
		return nil, apperrors.ErrNotAnImage
	}

	fileURL, err := s.storage.SaveImage(fileHeader, "payment-qr")
	if err != nil {
		return nil, err
	}

	file := &models.File{
		FileName:     fileHeader.Filename,
		FilePath:     s.storage.GetFullPath(fileURL),
		FileURL:      fileURL,
		FileSize:     fileHeader.Size,
		FileType:     fileHeader.Header.Get("Content-Type"),
		ResourceType: models.FileResourcePaymentQR,
		UploadedBy:   uploaderID,
	}
	id, err := s.fileRepo.Create(ctx, file)
	if err != nil {
		if derr := s.storage.DeleteFile(fileURL); derr != nil {
			s.logger.Warn().Err(derr).Str("fileURL", fileURL).Msg("Failed to remove orphaned upload")
		}
		return nil, err
	}
	file.ID = id

	resp := dto.FromFile(file)
	return &resp, nil
}

// GetFile returns file metadata by ID
func (s *FileService) GetFile(ctx context.Context, id int64) (*dto.FileResponse, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrFileNotFound) {
			return nil, apperrors.NewResourceNotFoundError("File not found")
		}
		return nil, err
	}
	resp := dto.FromFile(file)
	return &resp, nil
}
