package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/cache"
	"github.com/gymbook/reservation-api/internal/catalog"
	catalogHttp "github.com/gymbook/reservation-api/internal/catalog/http"
	"github.com/gymbook/reservation-api/internal/config"
	"github.com/gymbook/reservation-api/internal/db"
	"github.com/gymbook/reservation-api/internal/file"
	fileHttp "github.com/gymbook/reservation-api/internal/file/http"
	"github.com/gymbook/reservation-api/internal/logger"
	"github.com/gymbook/reservation-api/internal/metrics"
	"github.com/gymbook/reservation-api/internal/platform"
	"github.com/gymbook/reservation-api/internal/ratelimit"
	"github.com/gymbook/reservation-api/internal/reservation"
	reservationHttp "github.com/gymbook/reservation-api/internal/reservation/http"
	"github.com/gymbook/reservation-api/internal/user"
	userHttp "github.com/gymbook/reservation-api/internal/user/http"
)

// Config holds everything NewRouter needs to assemble the HTTP engine.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	StaticDir    string
	Version      string

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Pinger  db.Pinger

	// Cache may be nil, which disables response caching.
	Cache *cache.ResponseCache
	// AuthLimiter is applied to register and login. Nil disables it.
	AuthLimiter     ratelimit.Limiter
	RateLimitConfig config.RateLimitConfig

	UserService        user.Service
	CatalogService     catalog.Service
	ReservationService reservation.Service
	FileService        file.Service
	JWTManager         *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Metrics, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Structured request log through zap.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.GinLogger(log), gin.Recovery(), cfg.Metrics.Middleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8081",
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	authLimiter := ratelimit.Middleware(cfg.AuthLimiter, cfg.RateLimitConfig, log)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	platformHandler := platform.NewHandler(cfg.Pinger, cfg.Version)
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	catalogHandler := catalogHttp.NewHandler(cfg.CatalogService, cfg.FileService, fileHandler, cfg.Cache, log)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService, cfg.Cache)

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		platform.RegisterRoutes(r, v1, platformHandler)
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, authLimiter)
		catalogHttp.RegisterRoutes(v1, catalogHandler, authMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler)
	}

	r.NoRoute(frontendFallback(cfg.StaticDir))

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
