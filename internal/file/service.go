package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/pkg/storage"
)

const (
	thumbnailSize = 200
	maxImageSize  = 1000
)

// UploadInput describes a single uploaded object and the rules it must satisfy.
type UploadInput struct {
	Filename     string
	Content      io.Reader
	UserID       string
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // empty = allow all
	ResizeImage  bool     // re-encode as JPEG bounded by 1000x1000
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*File, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	log     *zap.Logger
}

func NewService(repo Repository, store storage.Storage, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		log:     log,
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	// Read one byte past the limit so oversized uploads are detected without buffering them whole.
	reader := in.Content
	if in.MaxSizeBytes > 0 {
		reader = io.LimitReader(in.Content, in.MaxSizeBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if in.MaxSizeBytes > 0 && int64(len(content)) > in.MaxSizeBytes {
		return nil, ErrTooLarge
	}

	// Sniff the real type instead of trusting the client header.
	contentType := mimetype.Detect(content).String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if len(in.AllowedTypes) > 0 && !slices.Contains(in.AllowedTypes, contentType) {
		return nil, ErrTypeNotAllowed
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	isImage := strings.HasPrefix(contentType, "image/")

	if in.ResizeImage {
		if !isImage {
			return nil, ErrInvalidImage
		}
		resized, err := s.imgProc.Resize(bytes.NewReader(content), maxImageSize, maxImageSize)
		if err != nil {
			return nil, ErrInvalidImage
		}
		content = resized
		contentType = "image/jpeg"
		ext = ".jpg"
	}

	fileID := uuid.New().String()

	// Sharding path: upload/ab/UUID.ext
	shard := fileID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, fileID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to save file to storage: %w", err)
	}

	var thumbnailPath *string
	if isImage {
		thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(content), thumbnailSize, thumbnailSize)
		if err != nil {
			s.log.Warn("thumbnail generation failed", zap.String("file_id", fileID), zap.Error(err))
		} else {
			tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, fileID)
			if err := s.storage.Save(ctx, tPath, thumb); err != nil {
				s.log.Warn("thumbnail save failed", zap.String("file_id", fileID), zap.Error(err))
			} else {
				thumbnailPath = &tPath
			}
		}
	}

	f := &File{
		ID:            fileID,
		UserID:        in.UserID,
		Filename:      filepath.Base(in.Filename),
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(content)),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		// Cleanup storage if db fails
		s.removeObjects(ctx, f)
		return nil, err
	}

	return f, nil
}

func (s *service) removeObjects(ctx context.Context, f *File) {
	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		s.log.Warn("failed to delete stored file", zap.String("path", f.StoragePath), zap.Error(err))
	}
	if f.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *f.ThumbnailPath); err != nil {
			s.log.Warn("failed to delete stored thumbnail", zap.String("path", *f.ThumbnailPath), zap.Error(err))
		}
	}
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.removeObjects(ctx, f)

	return s.repo.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, f.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve file from storage: %w", err)
	}

	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if f.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailNotFound
	}

	stream, err := s.storage.Get(ctx, *f.ThumbnailPath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrThumbnailNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve thumbnail from storage: %w", err)
	}

	return stream, f, nil
}
