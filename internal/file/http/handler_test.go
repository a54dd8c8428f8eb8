package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymbook/reservation-api/internal/file"
)

const fileID = "6f1c2a8e-4b1d-4f0a-9a57-3a3c3f3b1e11"

type fakeFileService struct {
	files   map[string]*file.File
	content map[string][]byte
	deleted []string
	uploads []file.UploadInput
}

func newFakeFileService() *fakeFileService {
	return &fakeFileService{files: map[string]*file.File{}, content: map[string][]byte{}}
}

func (s *fakeFileService) Upload(_ context.Context, in file.UploadInput) (*file.File, error) {
	b, err := io.ReadAll(in.Content)
	if err != nil {
		return nil, err
	}
	if in.MaxSizeBytes > 0 && int64(len(b)) > in.MaxSizeBytes {
		return nil, file.ErrTooLarge
	}
	s.uploads = append(s.uploads, in)
	f := &file.File{ID: fileID, Filename: in.Filename, ContentType: "text/plain", Size: int64(len(b))}
	s.files[f.ID] = f
	s.content[f.ID] = b
	return f, nil
}

func (s *fakeFileService) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.files, id)
	return nil
}

func (s *fakeFileService) Get(_ context.Context, id string) (*file.File, error) {
	f, ok := s.files[id]
	if !ok {
		return nil, file.ErrNotFound
	}
	return f, nil
}

func (s *fakeFileService) Download(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(s.content[id])), f, nil
}

func (s *fakeFileService) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.ThumbnailPath == nil {
		return nil, nil, file.ErrThumbnailNotFound
	}
	return io.NopCloser(bytes.NewReader([]byte("thumb"))), f, nil
}

func setupRouter(svc file.Service, cfg FileUploadConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc)
	RegisterRoutes(r.Group("/v1"), h)
	r.POST("/upload", func(c *gin.Context) { h.HandleFileUpload(c, cfg) })
	return r
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestServeFile(t *testing.T) {
	svc := newFakeFileService()
	svc.files[fileID] = &file.File{ID: fileID, Filename: "notes.txt", ContentType: "text/plain"}
	svc.content[fileID] = []byte("hello")
	r := setupRouter(svc, FileUploadConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/"+fileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"notes.txt"`)
	assert.NotEmpty(t, w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/"+fileID+"/thumbnail", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "thumbnail not available")
}

func TestHandleFileUpload(t *testing.T) {
	svc := newFakeFileService()
	var hooked string
	r := setupRouter(svc, FileUploadConfig{
		FormFieldName: "image",
		MaxSizeBytes:  16,
		AfterUpload: func(_ context.Context, id string) error {
			hooked = id
			return nil
		},
	})

	body, ct := multipartBody(t, "image", "a.txt", []byte("small"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp FileUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, fileID, resp.FileID)
	assert.Equal(t, file.FileURL(fileID), resp.URL)
	assert.Nil(t, resp.ThumbnailURL)
	assert.Equal(t, fileID, hooked)
	require.Len(t, svc.uploads, 1)
	assert.Equal(t, "a.txt", svc.uploads[0].Filename)
}

func TestHandleFileUpload_Errors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		r := setupRouter(newFakeFileService(), FileUploadConfig{})
		body, ct := multipartBody(t, "other", "a.txt", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file is required")
	})

	t.Run("too large", func(t *testing.T) {
		r := setupRouter(newFakeFileService(), FileUploadConfig{MaxSizeBytes: 2})
		body, ct := multipartBody(t, "file", "a.txt", []byte("too big"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("hook failure rolls back", func(t *testing.T) {
		svc := newFakeFileService()
		r := setupRouter(svc, FileUploadConfig{
			AfterUpload: func(context.Context, string) error { return file.ErrNotFound },
		})
		body, ct := multipartBody(t, "file", "a.txt", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, []string{fileID}, svc.deleted)
	})

	t.Run("unexpected hook error", func(t *testing.T) {
		r := setupRouter(newFakeFileService(), FileUploadConfig{
			AfterUpload: func(context.Context, string) error { return errors.New("db down") },
		})
		body, ct := multipartBody(t, "file", "a.txt", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
