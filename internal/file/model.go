package file

import (
	"net/http"
	"time"

	"github.com/gymbook/reservation-api/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "file not found")
	ErrThumbnailNotFound = apperror.New(http.StatusNotFound, "thumbnail not available for this file")
	ErrTooLarge          = apperror.New(http.StatusRequestEntityTooLarge, "file is too large")
	ErrTypeNotAllowed    = apperror.New(http.StatusUnsupportedMediaType, "file type not allowed")
	ErrInvalidImage      = apperror.New(http.StatusBadRequest, "file is not a valid image")
)

// File is the metadata of an uploaded object; the bytes live in storage.
type File struct {
	ID            string
	UserID        string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}
