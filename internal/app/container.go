package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matchpoint-app/booking-core/internal/api"
	"github.com/matchpoint-app/booking-core/internal/auth"
	"github.com/matchpoint-app/booking-core/internal/booking"
	"github.com/matchpoint-app/booking-core/internal/db"
	"github.com/matchpoint-app/booking-core/internal/lock"
	"github.com/matchpoint-app/booking-core/internal/pricing"
	"github.com/matchpoint-app/booking-core/internal/refund"
	"github.com/matchpoint-app/booking-core/internal/slot"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	RedisClient  *redis.Client // nil selects the in-process lock coordinator
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	LockWait     time.Duration
	LockLease    time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	txRunner := db.NewTxRunner(cfg.DBPool)

	// Lock Coordinator
	var coordinator lock.Coordinator
	if cfg.RedisClient != nil {
		coordinator = lock.NewRedisCoordinator(cfg.RedisClient)
	} else {
		coordinator = lock.NewMemoryCoordinator()
	}

	// Slot Module
	slotRepo := slot.NewPgxRepository(cfg.DBPool)

	// Pricing Module
	pricingRepo := pricing.NewPgxRepository(cfg.DBPool)

	// Refund Module
	refundRepo := refund.NewPgxRepository(cfg.DBPool)
	refundService := refund.NewService(refundRepo)

	// Booking Module
	bookingService := booking.NewService(
		txRunner,
		coordinator,
		slotRepo,
		pricingRepo,
		cfg.Logger,
		booking.Config{LockWait: cfg.LockWait, LockLease: cfg.LockLease},
	)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		BookingService: bookingService,
		RefundService:  refundService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
