package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/nekogravitycat/servicehub-backend/internal/api"
	"github.com/nekogravitycat/servicehub-backend/internal/auth"
	"github.com/nekogravitycat/servicehub-backend/internal/booking"
	"github.com/nekogravitycat/servicehub-backend/internal/config"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/storage"
	"github.com/nekogravitycat/servicehub-backend/internal/provider"
	"github.com/nekogravitycat/servicehub-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger

	// StoreDriver selects which of DBPool, MongoDB or in-memory stores back the repositories.
	StoreDriver string
	DBPool      *pgxpool.Pool
	MongoDB     *mongo.Database

	// Redis is optional. When set, provider reads go through the cache.
	Redis            *redis.Client
	ProviderCacheTTL time.Duration

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	StoragePath       string
	MaxPhotoBytes     int64
	BookingMaxRetries int
	RateLimitPerMin   int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router          *gin.Engine
	JWTManager      *auth.JWTManager
	UserService     user.Service
	ProviderService provider.Service
	BookingService  booking.Service
}

type repositories struct {
	users     user.Repository
	providers provider.Repository
	bookings  booking.Repository
}

// NewContainer initializes all modules and returns the container.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	repos, err := newRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Redis != nil {
		repos.providers = provider.NewCachedRepository(repos.providers, cfg.Redis, cfg.ProviderCacheTTL, log)
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	fileStore, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// User Module
	userService := user.NewService(repos.users, passwordHasher, log.Named("user"))

	// Provider Module
	providerService := provider.NewService(repos.providers, fileStore, storage.NewImageProcessor(), log.Named("provider"), cfg.BookingMaxRetries)

	// Booking Module
	bookingService := booking.NewService(repos.bookings, repos.providers, log.Named("booking"), cfg.BookingMaxRetries)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          log,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxPhotoBytes:   cfg.MaxPhotoBytes,
		UserService:     userService,
		ProviderService: providerService,
		BookingService:  bookingService,
		JWTManager:      jwtManager,
	})

	return &Container{
		Router:          router,
		JWTManager:      jwtManager,
		UserService:     userService,
		ProviderService: providerService,
		BookingService:  bookingService,
	}, nil
}

func newRepositories(ctx context.Context, cfg Config) (repositories, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.DBPool == nil {
			return repositories{}, fmt.Errorf("postgres store requires a DB pool")
		}
		return repositories{
			users:     user.NewPgxRepository(cfg.DBPool),
			providers: provider.NewPgxRepository(cfg.DBPool),
			bookings:  booking.NewPgxRepository(cfg.DBPool),
		}, nil

	case config.DriverMongo:
		if cfg.MongoDB == nil {
			return repositories{}, fmt.Errorf("mongo store requires a database")
		}
		users, err := user.NewMongoRepository(ctx, cfg.MongoDB)
		if err != nil {
			return repositories{}, err
		}
		providers, err := provider.NewMongoRepository(ctx, cfg.MongoDB)
		if err != nil {
			return repositories{}, err
		}
		bookings, err := booking.NewMongoRepository(ctx, cfg.MongoDB)
		if err != nil {
			return repositories{}, err
		}
		return repositories{users: users, providers: providers, bookings: bookings}, nil

	case config.DriverMemory:
		return repositories{
			users:     user.NewMemoryRepository(),
			providers: provider.NewMemoryRepository(),
			bookings:  booking.NewMemoryRepository(),
		}, nil
	}
	return repositories{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
