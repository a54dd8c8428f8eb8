package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymbook/reservation-api/internal/config"
)

func TestNewContainer_WithoutOptionalBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(Config{
		UploadDir:  t.TempDir(),
		Version:    "test",
		JWTSecret:  "secret",
		JWTTTL:     time.Hour,
		BcryptCost: 4,
		CacheTTL:   time.Second,
		RateLimit:  config.RateLimitConfig{Enabled: true, Capacity: 5, RefillInterval: time.Second, Prefix: "rl"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.Router)
	require.NotNil(t, c.Metrics)

	w := httptest.NewRecorder()
	c.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reservations", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := c.JWTManager.GenerateAccessToken("0b0c7f6e-1d2a-4a43-9a57-3a3c3f3b1e11", "a@b.com", "A")
	require.NoError(t, err)
	claims, err := c.JWTManager.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
}
