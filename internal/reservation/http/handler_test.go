package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/pkg/response"
	"github.com/gymbook/reservation-api/internal/reservation"
)

const (
	ownerID   = "0b7f9a38-3c55-4d2e-9a53-1d2a7b1c0e01"
	otherID   = "0b7f9a38-3c55-4d2e-9a53-1d2a7b1c0e02"
	serviceID = "5c1e2d3f-8a9b-4c7d-a1e2-f3a4b5c6d7e8"
	resID     = "9d8c7b6a-5f4e-4d3c-b2a1-0f9e8d7c6b5a"
)

type fakeService struct {
	createErr  error
	lastFilter reservation.Filter
	lastCreate reservation.CreateRequest
	rows       map[string]*reservation.Reservation
}

func (f *fakeService) Create(_ context.Context, req reservation.CreateRequest) (*reservation.Reservation, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &reservation.Reservation{
		ID: resID, ServiceID: req.ServiceID, ServiceName: "Yoga", UserID: req.UserID,
		StartTime: req.StartTime, EndTime: req.EndTime, Status: reservation.StatusPending,
	}, nil
}

func (f *fakeService) Get(_ context.Context, actorID, id string) (*reservation.Reservation, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	if r.UserID != actorID {
		return nil, reservation.ErrPermissionDenied
	}
	return r, nil
}

func (f *fakeService) List(_ context.Context, filter reservation.Filter) ([]*reservation.Reservation, int, error) {
	f.lastFilter = filter
	var out []*reservation.Reservation
	for _, r := range f.rows {
		if r.UserID == filter.UserID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeService) Update(ctx context.Context, actorID, id string, req reservation.UpdateRequest) (*reservation.Reservation, error) {
	r, err := f.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		st := reservation.Status(*req.Status)
		if !st.Valid() {
			return nil, reservation.ErrInvalidStatus
		}
		r.Status = st
	}
	return r, nil
}

func (f *fakeService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := f.Get(ctx, actorID, id); err != nil {
		return err
	}
	delete(f.rows, id)
	return nil
}

func setup(t *testing.T) (*gin.Engine, *fakeService, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := &fakeService{rows: map[string]*reservation.Reservation{
		resID: {ID: resID, ServiceID: serviceID, UserID: ownerID, Status: reservation.StatusPending},
	}}

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, nil), auth.AuthRequired(jwtManager))

	ownerToken, err := jwtManager.GenerateAccessToken(ownerID, "owner@gym.test", "Owner")
	require.NoError(t, err)
	otherToken, err := jwtManager.GenerateAccessToken(otherID, "other@gym.test", "Other")
	require.NoError(t, err)
	return r, svc, ownerToken, otherToken
}

func do(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreate_RequiresToken(t *testing.T) {
	r, _, _, _ := setup(t)

	w := do(r, http.MethodPost, "/v1/reservations", gin.H{"service_id": serviceID}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing Authorization header", errorOf(t, w))

	w = do(r, http.MethodPost, "/v1/reservations", gin.H{"service_id": serviceID}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired token", errorOf(t, w))
}

func TestCreate(t *testing.T) {
	r, svc, token, _ := setup(t)
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	w := do(r, http.MethodPost, "/v1/reservations", gin.H{"service_id": serviceID}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, reservation.ErrMissingFields.Message, errorOf(t, w))

	w = do(r, http.MethodPost, "/v1/reservations", gin.H{
		"service_id": serviceID,
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp ReservationMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Reservation.Status)
	assert.Equal(t, ownerID, svc.lastCreate.UserID)
	assert.True(t, svc.lastCreate.StartTime.Equal(start))

	svc.createErr = reservation.ErrTimeConflict
	w = do(r, http.MethodPost, "/v1/reservations", gin.H{
		"service_id": serviceID,
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestList_ScopedToCaller(t *testing.T) {
	r, svc, _, otherToken := setup(t)

	w := do(r, http.MethodGet, "/v1/reservations?status=pending", nil, otherToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, otherID, svc.lastFilter.UserID)
	assert.Equal(t, "DESC", svc.lastFilter.SortOrder)
	assert.JSONEq(t, `{"items":[],"page":1,"page_size":20,"total":0,"total_pages":0,"has_next":false}`, w.Body.String())

	w = do(r, http.MethodGet, "/v1/reservations?status=archived", nil, otherToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUpdateDelete_OwnerOnly(t *testing.T) {
	r, _, ownerToken, otherToken := setup(t)
	path := "/v1/reservations/" + resID

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, path, nil, otherToken).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, path, nil, ownerToken).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/v1/reservations/not-a-uuid", nil, ownerToken).Code)

	w := do(r, http.MethodPatch, path, gin.H{"status": "confirmed"}, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPatch, path, gin.H{"status": "bogus"}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, path, gin.H{"status": "confirmed"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ReservationMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Reservation.Status)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, path, nil, otherToken).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, path, nil, ownerToken).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, path, nil, ownerToken).Code)
}
