package dto

import (
	"time"

	"github.com/campuspulse/server/internal/app/models"
)

// FileResponse represents uploaded file metadata
type FileResponse struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	FileSize     int64     `json:"fileSize"`
	FileType     string    `json:"fileType"`
	ResourceType string    `json:"resourceType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromFile converts a models.File to a FileResponse
func FromFile(file *models.File) FileResponse {
	return FileResponse{
		ID:           file.ID,
		FileName:     file.FileName,
		FileURL:      file.FileURL,
		FileSize:     file.FileSize,
		FileType:     file.FileType,
		ResourceType: string(file.ResourceType),
		CreatedAt:    file.CreatedAt,
	}
}
