package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymbook/reservation-api/internal/config"
	"github.com/gymbook/reservation-api/internal/db"
)

// Integration tests run against a real Postgres when TEST_DB_DSN is set and are skipped otherwise.
var (
	integrationOnce   sync.Once
	integrationRouter *gin.Engine
	integrationPool   *pgxpool.Pool
	integrationErr    error
)

func integrationRouterOrSkip(t *testing.T) *gin.Engine {
	t.Helper()

	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	integrationOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		ctx := context.Background()

		integrationPool, integrationErr = db.NewPool(ctx, dsn)
		if integrationErr != nil {
			return
		}
		if integrationErr = db.Migrate(integrationPool); integrationErr != nil {
			return
		}

		var c *Container
		c, integrationErr = NewContainer(Config{
			DBPool:     integrationPool,
			UploadDir:  os.TempDir(),
			Version:    "test",
			JWTSecret:  "integration-secret",
			JWTTTL:     30 * time.Minute,
			BcryptCost: 4, // Lower cost for testing purposes
			RateLimit:  config.RateLimitConfig{Enabled: false},
		})
		if integrationErr == nil {
			integrationRouter = c.Router
		}
	})
	require.NoError(t, integrationErr)

	clearTables(t)
	return integrationRouter
}

func clearTables(t *testing.T) {
	t.Helper()
	_, err := integrationPool.Exec(context.Background(),
		"TRUNCATE TABLE public.reservations, public.services, public.files, public.users CASCADE")
	require.NoError(t, err)
}

func executeRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func registerAndLogin(t *testing.T, r http.Handler, email string) string {
	t.Helper()

	w := executeRequest(r, http.MethodPost, "/v1/auth/register", map[string]string{
		"email":        email,
		"password":     "password123",
		"display_name": email,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = executeRequest(r, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, _ := decode(t, w)["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestIntegration_ReservationLifecycle(t *testing.T) {
	r := integrationRouterOrSkip(t)

	ownerToken := registerAndLogin(t, r, "owner@gym.test")
	memberToken := registerAndLogin(t, r, "member@gym.test")
	otherToken := registerAndLogin(t, r, "other@gym.test")

	// Duplicate email
	w := executeRequest(r, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "OWNER@gym.test", "password": "password123", "display_name": "dup",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Service
	w = executeRequest(r, http.MethodPost, "/v1/services", map[string]any{
		"name": "Yoga", "description": "Morning flow", "price": 25.5,
	}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	serviceID := decode(t, w)["service"].(map[string]any)["id"].(string)

	w = executeRequest(r, http.MethodPatch, "/v1/services/"+serviceID, map[string]any{"price": 30}, memberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Hour)
	slot := map[string]any{
		"service_id": serviceID,
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	}

	// Create
	w = executeRequest(r, http.MethodPost, "/v1/reservations", slot, memberToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode(t, w)["reservation"].(map[string]any)
	reservationID := res["id"].(string)
	assert.Equal(t, "pending", res["status"])

	// Overlap from another user on the same service
	overlapping := map[string]any{
		"service_id": serviceID,
		"start_time": start.Add(30 * time.Minute),
		"end_time":   start.Add(90 * time.Minute),
	}
	w = executeRequest(r, http.MethodPost, "/v1/reservations", overlapping, otherToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Back-to-back is fine
	w = executeRequest(r, http.MethodPost, "/v1/reservations", map[string]any{
		"service_id": serviceID,
		"start_time": start.Add(time.Hour),
		"end_time":   start.Add(2 * time.Hour),
	}, otherToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Ownership
	w = executeRequest(r, http.MethodGet, "/v1/reservations/"+reservationID, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Cancelling frees the slot
	w = executeRequest(r, http.MethodPatch, "/v1/reservations/"+reservationID, map[string]any{"status": "cancelled"}, memberToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = executeRequest(r, http.MethodPost, "/v1/reservations", overlapping, otherToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Reactivating the cancelled one now conflicts
	w = executeRequest(r, http.MethodPatch, "/v1/reservations/"+reservationID, map[string]any{"status": "confirmed"}, memberToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Listing is scoped to the caller
	w = executeRequest(r, http.MethodGet, "/v1/reservations", nil, otherToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	// Public detail lists every reservation of the service
	w = executeRequest(r, http.MethodGet, "/v1/services/"+serviceID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["reservations"], 3)

	// Delete
	w = executeRequest(r, http.MethodDelete, "/v1/reservations/"+reservationID, nil, memberToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = executeRequest(r, http.MethodGet, "/v1/reservations/"+reservationID, nil, memberToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
