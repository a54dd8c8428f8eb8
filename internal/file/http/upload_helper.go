package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/file"
	"github.com/gymbook/reservation-api/internal/pkg/response"
)

// FileUploadConfig defines the configuration for generic file uploads
type FileUploadConfig struct {
	FormFieldName string                                         // The name of the form field containing the file (default: "file")
	MaxSizeBytes  int64                                          // The maximum file size in bytes (0 = no limit)
	AllowedTypes  []string                                       // The list of allowed MIME types (empty = allow all)
	ResizeImage   bool                                           // If true, validates file is an image and resizes to 1000x1000 max in .jpg format
	AfterUpload   func(ctx context.Context, fileID string) error // Called after successful file upload (optional)
}

// HandleFileUpload is a generic reusable handler for file uploads.
// It handles file upload, optional after-upload hook, and rollback on hook failure.
func (h *Handler) HandleFileUpload(c *gin.Context, config FileUploadConfig) {
	userID := auth.GetUserID(c)

	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		response.BadRequest(c, fieldName+" is required", err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read "+fieldName, err)
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	f, err := h.fileService.Upload(ctx, file.UploadInput{
		Filename:     fileHeader.Filename,
		Content:      src,
		UserID:       userID,
		MaxSizeBytes: config.MaxSizeBytes,
		AllowedTypes: config.AllowedTypes,
		ResizeImage:  config.ResizeImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// After upload hook (e.g., update entity reference)
	if config.AfterUpload != nil {
		if err := config.AfterUpload(ctx, f.ID); err != nil {
			// Rollback: delete file from storage and DB
			if delErr := h.fileService.Delete(ctx, f.ID); delErr != nil {
				_ = c.Error(delErr)
			}
			response.Error(c, err)
			return
		}
	}

	var thumbURL *string
	if f.ThumbnailPath != nil {
		t := file.ThumbnailURL(f.ID)
		thumbURL = &t
	}

	c.JSON(http.StatusOK, FileUploadResponse{
		Message:      "file uploaded successfully",
		FileID:       f.ID,
		URL:          file.FileURL(f.ID),
		ThumbnailURL: thumbURL,
	})
}
