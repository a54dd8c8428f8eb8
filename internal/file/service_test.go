package file

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymbook/reservation-api/internal/pkg/storage"
)

type memRepo struct {
	mu      sync.Mutex
	files   map[string]*File
	failErr error
}

func newMemRepo() *memRepo { return &memRepo{files: map[string]*File{}} }

func (r *memRepo) Create(_ context.Context, f *File) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.files[f.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return ErrNotFound
	}
	delete(r.files, id)
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (s *memStorage) Save(_ context.Context, path string, content io.Reader) error {
	b, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = b
	return nil
}

func (s *memStorage) Get(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUpload_ImageWithThumbnail(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	svc := NewService(repo, store, nil)

	f, err := svc.Upload(context.Background(), UploadInput{
		Filename:     "front.png",
		Content:      bytes.NewReader(pngBytes(t, 640, 480)),
		UserID:       "u1",
		AllowedTypes: []string{"image/png", "image/jpeg"},
	})
	require.NoError(t, err)

	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, "front.png", f.Filename)
	assert.True(t, strings.HasPrefix(f.StoragePath, "upload/"+f.ID[:2]+"/"+f.ID))
	require.NotNil(t, f.ThumbnailPath)
	assert.Contains(t, store.objects, f.StoragePath)
	assert.Contains(t, store.objects, *f.ThumbnailPath)

	rc, got, err := svc.DownloadThumbnail(context.Background(), f.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, f.ID, got.ID)
}

func TestUpload_RejectsLargeAndDisallowed(t *testing.T) {
	svc := NewService(newMemRepo(), newMemStorage(), nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadInput{
		Filename:     "big.txt",
		Content:      strings.NewReader(strings.Repeat("a", 11)),
		MaxSizeBytes: 10,
	})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Upload(ctx, UploadInput{
		Filename:     "notes.txt",
		Content:      strings.NewReader("plain text"),
		AllowedTypes: []string{"image/png"},
	})
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	_, err = svc.Upload(ctx, UploadInput{
		Filename:    "notes.txt",
		Content:     strings.NewReader("plain text"),
		ResizeImage: true,
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestUpload_ResizeReencodesAsJPEG(t *testing.T) {
	svc := NewService(newMemRepo(), newMemStorage(), nil)

	f, err := svc.Upload(context.Background(), UploadInput{
		Filename:    "wide.png",
		Content:     bytes.NewReader(pngBytes(t, 2000, 500)),
		ResizeImage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.True(t, strings.HasSuffix(f.StoragePath, ".jpg"))
}

func TestUpload_CleansStorageWhenRecordFails(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	repo.failErr = errors.New("db down")
	svc := NewService(repo, store, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Filename: "a.png",
		Content:  bytes.NewReader(pngBytes(t, 10, 10)),
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestDelete_RemovesObjectsAndRecord(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	svc := NewService(repo, store, nil)
	ctx := context.Background()

	f, err := svc.Upload(ctx, UploadInput{Filename: "a.png", Content: bytes.NewReader(pngBytes(t, 10, 10))})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, f.ID))
	assert.Empty(t, store.objects)

	_, _, err = svc.Download(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadThumbnail_NonImage(t *testing.T) {
	svc := NewService(newMemRepo(), newMemStorage(), nil)
	ctx := context.Background()

	f, err := svc.Upload(ctx, UploadInput{Filename: "a.txt", Content: strings.NewReader("hello world")})
	require.NoError(t, err)
	assert.Nil(t, f.ThumbnailPath)

	_, _, err = svc.DownloadThumbnail(ctx, f.ID)
	assert.ErrorIs(t, err, ErrThumbnailNotFound)
}
