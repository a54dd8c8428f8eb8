package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/api"
	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/cache"
	"github.com/gymbook/reservation-api/internal/catalog"
	"github.com/gymbook/reservation-api/internal/config"
	"github.com/gymbook/reservation-api/internal/events"
	"github.com/gymbook/reservation-api/internal/file"
	"github.com/gymbook/reservation-api/internal/metrics"
	"github.com/gymbook/reservation-api/internal/pkg/storage"
	"github.com/gymbook/reservation-api/internal/ratelimit"
	"github.com/gymbook/reservation-api/internal/reservation"
	"github.com/gymbook/reservation-api/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	StaticDir    string
	UploadDir    string
	Version      string

	DBPool *pgxpool.Pool
	// Redis is optional. Nil disables the response cache and uses the in-process rate limiter.
	Redis *redis.Client
	// Publisher is optional. Nil drops reservation events.
	Publisher events.Publisher
	Logger    *zap.Logger

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int
	CacheTTL   time.Duration
	RateLimit  config.RateLimitConfig
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Metrics    *metrics.Metrics
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New()

	var responseCache *cache.ResponseCache
	var limiter ratelimit.Limiter
	if cfg.Redis != nil {
		responseCache = cache.New(cache.NewRedisStore(cfg.Redis), cfg.CacheTTL, log)
		limiter = ratelimit.NewRedisLimiter(cfg.Redis, cfg.RateLimit.Capacity, cfg.RateLimit.RefillInterval)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillInterval)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, log)

	// File Module
	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init file storage: %w", err)
	}
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store, log)

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewService(catalogRepo)

	// Reservation Module
	reservationRepo := reservation.NewPgxRepository(cfg.DBPool)
	reservationService := reservation.NewService(reservationRepo, catalogService, publisher, m, log)

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		StaticDir:          cfg.StaticDir,
		Version:            cfg.Version,
		Logger:             log,
		Metrics:            m,
		Pinger:             cfg.DBPool,
		Cache:              responseCache,
		AuthLimiter:        limiter,
		RateLimitConfig:    cfg.RateLimit,
		UserService:        userService,
		CatalogService:     catalogService,
		ReservationService: reservationService,
		FileService:        fileService,
		JWTManager:         jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Metrics:    m,
	}, nil
}
