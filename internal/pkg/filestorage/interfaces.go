package filestorage

import (
	"mime/multipart"
)

// FileStorage is what services need from an upload store. LocalStorage is
// the only implementation; the interface keeps services testable against
// throwaway directories.
type FileStorage interface {
	// SaveImage stores an uploaded image under a subdirectory and returns
	// its public URL path
	SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a stored file by its URL path
	DeleteFile(fileURL string) error

	// GetFullPath maps a file URL back to its filesystem path
	GetFullPath(fileURL string) string
}
